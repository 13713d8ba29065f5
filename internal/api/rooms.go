package api

import (
	"net/http" // HTTP status codes

	"room_rental/internal/apperr"  // Error envelope
	"room_rental/internal/service" // Use cases

	"github.com/gin-gonic/gin" // Gin web framework
)

// ListRoomsHandler searches active rooms with filters, sorting and paging
func ListRoomsHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, err := svc.ListRooms(c.Request.Context(), c.Request.URL.Query())
		if err != nil {
			apperr.Abort(c, err)
			return
		}
		c.JSON(http.StatusOK, page)
	}
}

// RoomsByPropertyHandler lists the rooms of one piso
func RoomsByPropertyHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		pisoID, ok := pathID(c, "pisoId")
		if !ok {
			return
		}
		page, err := svc.RoomsByProperty(c.Request.Context(), pisoID, c.Request.URL.Query())
		if err != nil {
			apperr.Abort(c, err)
			return
		}
		c.JSON(http.StatusOK, page)
	}
}

// GetRoomHandler returns a room with its piso summary and photos
func GetRoomHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		detail, err := svc.GetRoom(c.Request.Context(), id)
		if err != nil {
			apperr.Abort(c, err)
			return
		}
		c.JSON(http.StatusOK, detail)
	}
}

// CreateRoomHandler adds a room to a piso the caller manages
func CreateRoomHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := principal(c)
		if !ok {
			return
		}
		var req service.RoomInput // Bind JSON request to struct
		if !bindJSON(c, &req) {
			return
		}
		room, err := svc.CreateRoom(c.Request.Context(), p, req)
		if err != nil {
			apperr.Abort(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"habitacion": room})
	}
}

// UpdateRoomHandler edits a room the caller manages
func UpdateRoomHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := principal(c)
		if !ok {
			return
		}
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		var req service.RoomPatch
		if !bindJSON(c, &req) {
			return
		}
		room, err := svc.UpdateRoom(c.Request.Context(), p, id, req)
		if err != nil {
			apperr.Abort(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"habitacion": room})
	}
}

// DeactivateRoomHandler soft-deletes an unoccupied room
func DeactivateRoomHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := principal(c)
		if !ok {
			return
		}
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		room, err := svc.DeactivateRoom(c.Request.Context(), p, id)
		if err != nil {
			apperr.Abort(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"habitacion": room})
	}
}
