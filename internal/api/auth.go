package api

import (
	"net/http" // HTTP status codes

	"room_rental/internal/apperr"  // Error envelope
	"room_rental/internal/service" // Use cases

	"github.com/gin-gonic/gin" // Gin web framework
)

// RegisterHandler creates a tenant account and returns a token for it
func RegisterHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.RegisterInput // Bind JSON request to struct
		if !bindJSON(c, &req) {
			return
		}
		res, err := svc.Register(c.Request.Context(), req) // Create or reactivate the account
		if err != nil {
			apperr.Abort(c, err)
			return
		}
		c.JSON(http.StatusCreated, res) // Return token and user
	}
}

// LoginHandler authenticates a user and returns a JWT token
func LoginHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.LoginInput // Bind JSON request to struct
		if !bindJSON(c, &req) {
			return
		}
		res, err := svc.Login(c.Request.Context(), req) // Check throttle and credentials
		if err != nil {
			apperr.Abort(c, err)
			return
		}
		c.JSON(http.StatusOK, res) // Return the token in the response
	}
}

// ChangePasswordHandler replaces the caller's password and returns a fresh token
func ChangePasswordHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := principal(c) // Get caller from context
		if !ok {
			return
		}
		var req service.ChangePasswordInput // Bind JSON request to struct
		if !bindJSON(c, &req) {
			return
		}
		token, err := svc.ChangePassword(c.Request.Context(), p.ID, req) // Older tokens stop working
		if err != nil {
			apperr.Abort(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"token": token})
	}
}
