package api

import (
	"net/http" // HTTP status codes

	"room_rental/internal/apperr"  // Error envelope
	"room_rental/internal/service" // Use cases

	"github.com/gin-gonic/gin" // Gin web framework
)

// ListUsersHandler pages through every account (admin only)
func ListUsersHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, err := svc.ListUsers(c.Request.Context(), c.Request.URL.Query()) // q, rol, activo, page, limit, sort
		if err != nil {
			apperr.Abort(c, err)
			return
		}
		c.JSON(http.StatusOK, page)
	}
}

// GetUserHandler returns any account by id (admin only)
func GetUserHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		user, err := svc.GetUser(c.Request.Context(), id)
		if err != nil {
			apperr.Abort(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": user})
	}
}

// AdminUpdateUserHandler edits profile, role and active flag of an account
func AdminUpdateUserHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := principal(c)
		if !ok {
			return
		}
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		var req service.AdminUserPatch // Bind JSON request to struct
		if !bindJSON(c, &req) {
			return
		}
		user, err := svc.AdminUpdateUser(c.Request.Context(), p, id, req)
		if err != nil {
			apperr.Abort(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": user})
	}
}

// AdminSetPasswordHandler replaces a user's password
func AdminSetPasswordHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		var req service.SetPasswordInput
		if !bindJSON(c, &req) {
			return
		}
		if err := svc.AdminSetPassword(c.Request.Context(), id, req); err != nil {
			apperr.Abort(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Password actualizada"})
	}
}

// AdminDeactivateUserHandler soft-deletes an account and ends its stay
func AdminDeactivateUserHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := principal(c)
		if !ok {
			return
		}
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		if err := svc.AdminDeactivateUser(c.Request.Context(), p, id); err != nil {
			apperr.Abort(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Usuario desactivado"})
	}
}
