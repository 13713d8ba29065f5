package middleware

import (
	"context" // Request context
	"strings" // String manipulation

	"room_rental/internal/apperr" // Error envelope
	"room_rental/internal/authz"  // Principal
	"room_rental/internal/domain" // User model

	"github.com/gin-gonic/gin" // Gin web framework
)

// Context keys set by JWTAuth
const (
	UserKey   = "user"   // *domain.User of the caller
	UserIDKey = "userID" // uint id of the caller
)

// Authenticator resolves a bearer token to a live user
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.User, error)
}

// JWTAuth validates the bearer token and loads the caller on every request
func JWTAuth(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization") // Get Authorization header
		// Check if the Authorization header is present and properly formatted
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			apperr.Abort(c, apperr.Unauthorized(apperr.CodeMissingToken))
			return
		}
		tokenStr := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer ")) // Extract the token string
		if tokenStr == "" {
			apperr.Abort(c, apperr.Unauthorized(apperr.CodeMissingToken))
			return
		}
		user, err := auth.Authenticate(c.Request.Context(), tokenStr) // Verify signature, expiry, version and active flag
		if err != nil {
			apperr.Abort(c, err)
			return
		}
		c.Set(UserKey, user)      // Store the user row in context
		c.Set(UserIDKey, user.ID) // Store userID in context
		c.Next()                  // Proceed to the next handler
	}
}

// CurrentUser returns the user stored by JWTAuth
func CurrentUser(c *gin.Context) (*domain.User, bool) {
	v, ok := c.Get(UserKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*domain.User)
	return user, ok
}

// Principal returns the caller as seen by the authorization checks
func Principal(c *gin.Context) (authz.Principal, bool) {
	user, ok := CurrentUser(c)
	if !ok {
		return authz.Principal{}, false
	}
	return authz.PrincipalOf(user), true
}
