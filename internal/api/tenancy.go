package api

import (
	"net/http" // HTTP status codes

	"room_rental/internal/apperr"  // Error envelope
	"room_rental/internal/service" // Use cases

	"github.com/gin-gonic/gin" // Gin web framework
)

// JoinHandler opens a stay for the caller or, for managers, for a named tenant
func JoinHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := principal(c)
		if !ok {
			return
		}
		var req service.JoinInput // Bind JSON request to struct
		if !bindJSON(c, &req) {
			return
		}
		res, err := svc.Join(c.Request.Context(), p, req) // All checks and writes in one transaction
		if err != nil {
			apperr.Abort(c, err)
			return
		}
		c.JSON(http.StatusCreated, res)
	}
}

// LeaveHandler closes the caller's active stay
func LeaveHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := principal(c)
		if !ok {
			return
		}
		stay, err := svc.Leave(c.Request.Context(), p)
		if err != nil {
			apperr.Abort(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"stay": stay})
	}
}

// KickHandler closes another user's stay (manager or admin)
func KickHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := principal(c)
		if !ok {
			return
		}
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		stay, err := svc.Kick(c.Request.Context(), p, id)
		if err != nil {
			apperr.Abort(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"stay": stay})
	}
}

// MyStayHandler returns the caller's active stay or null
func MyStayHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := principal(c)
		if !ok {
			return
		}
		stay, err := svc.MyStay(c.Request.Context(), p.ID)
		if err != nil {
			apperr.Abort(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"stay": stay}) // nil renders as null
	}
}

// RoommatesHandler lists the other active tenants of a piso
func RoommatesHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := principal(c)
		if !ok {
			return
		}
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		mates, err := svc.Roommates(c.Request.Context(), p, id)
		if err != nil {
			apperr.Abort(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"convivientes": mates})
	}
}

// RoomHistoryHandler lists every stay of a room
func RoomHistoryHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := principal(c)
		if !ok {
			return
		}
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		stays, err := svc.RoomHistory(c.Request.Context(), p, id)
		if err != nil {
			apperr.Abort(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"stays": stays})
	}
}
