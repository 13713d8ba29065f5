package api

import (
	"net/http" // HTTP status codes

	"room_rental/internal/apperr"  // Error envelope
	"room_rental/internal/service" // Use cases

	"github.com/gin-gonic/gin" // Gin web framework
)

// ListPropertiesHandler pages through active pisos
func ListPropertiesHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, err := svc.ListProperties(c.Request.Context(), c.Request.URL.Query())
		if err != nil {
			apperr.Abort(c, err)
			return
		}
		c.JSON(http.StatusOK, page)
	}
}

// PropertiesByCityHandler lists the active pisos of one city
func PropertiesByCityHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, err := svc.PropertiesByCity(c.Request.Context(), c.Param("ciudad"), c.Request.URL.Query())
		if err != nil {
			apperr.Abort(c, err)
			return
		}
		c.JSON(http.StatusOK, page)
	}
}

// GetPropertyHandler returns a piso with its photos and rooms
func GetPropertyHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		detail, err := svc.GetProperty(c.Request.Context(), id)
		if err != nil {
			apperr.Abort(c, err)
			return
		}
		c.JSON(http.StatusOK, detail)
	}
}

// CreatePropertyHandler registers a piso managed by the caller
func CreatePropertyHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := principal(c)
		if !ok {
			return
		}
		var req service.PropertyInput // Bind JSON request to struct
		if !bindJSON(c, &req) {
			return
		}
		piso, err := svc.CreateProperty(c.Request.Context(), p, req)
		if err != nil {
			apperr.Abort(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"piso": piso})
	}
}

// UpdatePropertyHandler edits a piso the caller manages
func UpdatePropertyHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := principal(c)
		if !ok {
			return
		}
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		var req service.PropertyPatch
		if !bindJSON(c, &req) {
			return
		}
		piso, err := svc.UpdateProperty(c.Request.Context(), p, id, req)
		if err != nil {
			apperr.Abort(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"piso": piso})
	}
}

// DeactivatePropertyHandler soft-deletes an empty piso
func DeactivatePropertyHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := principal(c)
		if !ok {
			return
		}
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		piso, err := svc.DeactivateProperty(c.Request.Context(), p, id)
		if err != nil {
			apperr.Abort(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"piso": piso})
	}
}
