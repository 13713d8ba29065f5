package apperr

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Abort renders err as the JSON error envelope and stops the handler chain.
// Internal errors are logged with the request id and never shown to the caller.
func Abort(c *gin.Context, err error) {
	var appErr *Error
	if !errors.As(err, &appErr) {
		appErr = Internal(err)
	}
	if appErr.Code == CodeInternal {
		logrus.WithFields(logrus.Fields{
			"request_id": c.GetString("requestID"),
			"method":     c.Request.Method,
			"route":      c.FullPath(),
			"error":      appErr.Err,
		}).Error("request failed")
	}
	body := gin.H{"error": appErr.Code}
	if len(appErr.Details) > 0 {
		body["details"] = appErr.Details
	}
	c.AbortWithStatusJSON(appErr.Status, body)
}
