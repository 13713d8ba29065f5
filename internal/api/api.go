// Package api holds the gin handlers of the room rental API. Each handler is
// a closure over the service; parsing and rendering live here, every rule
// lives in the service.
package api

import (
	"errors"  // Error inspection
	"reflect" // Struct tags for validator field names
	"strconv" // Path parameter parsing
	"strings" // Tag parsing
	"sync"    // One-time validator setup

	"room_rental/internal/apperr"     // Error envelope
	"room_rental/internal/authz"      // Principal
	"room_rental/internal/middleware" // Context accessors

	"github.com/gin-gonic/gin"               // Gin web framework
	"github.com/gin-gonic/gin/binding"       // Binding validator engine
	"github.com/go-playground/validator/v10" // Validation errors
)

var jsonNamesOnce sync.Once

// useJSONFieldNames makes validation errors report fields by their JSON names
func useJSONFieldNames() {
	jsonNamesOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
}

// bindJSON decodes and validates the body into dst, rendering VALIDATION_ERROR on failure
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fe.Field())
			}
			apperr.Abort(c, apperr.Validation(fields...))
			return false
		}
		apperr.Abort(c, apperr.Validation("body")) // Malformed JSON or wrong types
		return false
	}
	return true
}

// pathID parses a positive numeric path parameter
func pathID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		apperr.Abort(c, apperr.Validation(name))
		return 0, false
	}
	return uint(id), true
}

// principal returns the authenticated caller, aborting with 401 when missing
func principal(c *gin.Context) (authz.Principal, bool) {
	p, ok := middleware.Principal(c)
	if !ok {
		apperr.Abort(c, apperr.Unauthorized(apperr.CodeMissingToken))
	}
	return p, ok
}
