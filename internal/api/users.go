package api

import (
	"net/http" // HTTP status codes

	"room_rental/internal/apperr"  // Error envelope
	"room_rental/internal/service" // Use cases

	"github.com/gin-gonic/gin" // Gin web framework
)

// MeHandler returns the caller's profile
func MeHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := principal(c)
		if !ok {
			return
		}
		user, err := svc.Me(c.Request.Context(), p.ID)
		if err != nil {
			apperr.Abort(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": user})
	}
}

// UpdateMeHandler edits the caller's profile
func UpdateMeHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := principal(c)
		if !ok {
			return
		}
		var req service.ProfilePatch // Absent keys stay untouched, null clears
		if !bindJSON(c, &req) {
			return
		}
		user, err := svc.UpdateMe(c.Request.Context(), p.ID, req)
		if err != nil {
			apperr.Abort(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": user})
	}
}

// DeactivateMeHandler soft-deletes the caller's account
func DeactivateMeHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := principal(c)
		if !ok {
			return
		}
		if err := svc.DeactivateMe(c.Request.Context(), p.ID); err != nil {
			apperr.Abort(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Cuenta desactivada"})
	}
}
