package middleware

import (
	"room_rental/internal/apperr" // Error envelope

	"github.com/gin-gonic/gin" // Gin web framework
)

// RequireRole lets the request through only when the caller holds one of roles.
// The role comes from the user row JWTAuth loaded, not from the token.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c) // Get user from context
		// Check if JWTAuth ran before us
		if !ok {
			apperr.Abort(c, apperr.Unauthorized(apperr.CodeMissingToken))
			return
		}
		for _, role := range roles {
			if user.Role == role {
				c.Next() // Role matches, proceed to the next handler
				return
			}
		}
		apperr.Abort(c, apperr.Forbidden(apperr.CodeForbidden))
	}
}
