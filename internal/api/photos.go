package api

import (
	"net/http" // HTTP status codes

	"room_rental/internal/apperr"  // Error envelope
	"room_rental/internal/service" // Use cases

	"github.com/gin-gonic/gin" // Gin web framework
)

// PropertyPhotosHandler lists the photos of a piso
func PropertyPhotosHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		photos, err := svc.PropertyPhotos(c.Request.Context(), id)
		if err != nil {
			apperr.Abort(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"fotos": photos})
	}
}

// AddPropertyPhotoHandler appends a photo to a piso
func AddPropertyPhotoHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := principal(c)
		if !ok {
			return
		}
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		var req service.PhotoInput
		if !bindJSON(c, &req) {
			return
		}
		photo, err := svc.AddPropertyPhoto(c.Request.Context(), p, id, req)
		if err != nil {
			apperr.Abort(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"foto": photo})
	}
}

// UpdatePropertyPhotoHandler changes the url or orden of a piso photo
func UpdatePropertyPhotoHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := principal(c)
		if !ok {
			return
		}
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		photoID, ok := pathID(c, "fotoId")
		if !ok {
			return
		}
		var req service.PhotoPatch
		if !bindJSON(c, &req) {
			return
		}
		photo, err := svc.UpdatePropertyPhoto(c.Request.Context(), p, id, photoID, req)
		if err != nil {
			apperr.Abort(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"foto": photo})
	}
}

// DeletePropertyPhotoHandler removes a piso photo
func DeletePropertyPhotoHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := principal(c)
		if !ok {
			return
		}
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		photoID, ok := pathID(c, "fotoId")
		if !ok {
			return
		}
		if err := svc.DeletePropertyPhoto(c.Request.Context(), p, id, photoID); err != nil {
			apperr.Abort(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// RoomPhotosHandler lists the photos of a room
func RoomPhotosHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		photos, err := svc.RoomPhotos(c.Request.Context(), id)
		if err != nil {
			apperr.Abort(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"fotos": photos})
	}
}

// AddRoomPhotoHandler appends a photo to a room
func AddRoomPhotoHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := principal(c)
		if !ok {
			return
		}
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		var req service.PhotoInput
		if !bindJSON(c, &req) {
			return
		}
		photo, err := svc.AddRoomPhoto(c.Request.Context(), p, id, req)
		if err != nil {
			apperr.Abort(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"foto": photo})
	}
}

// UpdateRoomPhotoHandler changes the url or orden of a room photo
func UpdateRoomPhotoHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := principal(c)
		if !ok {
			return
		}
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		photoID, ok := pathID(c, "fotoId")
		if !ok {
			return
		}
		var req service.PhotoPatch
		if !bindJSON(c, &req) {
			return
		}
		photo, err := svc.UpdateRoomPhoto(c.Request.Context(), p, id, photoID, req)
		if err != nil {
			apperr.Abort(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"foto": photo})
	}
}

// DeleteRoomPhotoHandler removes a room photo
func DeleteRoomPhotoHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := principal(c)
		if !ok {
			return
		}
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		photoID, ok := pathID(c, "fotoId")
		if !ok {
			return
		}
		if err := svc.DeleteRoomPhoto(c.Request.Context(), p, id, photoID); err != nil {
			apperr.Abort(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
