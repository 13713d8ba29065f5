package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeOfWrapped(t *testing.T) {
	err := fmt.Errorf("join: %w", Conflict(CodeRoomAlreadyOccupied))
	assert.Equal(t, CodeRoomAlreadyOccupied, CodeOf(err))
	assert.Equal(t, http.StatusConflict, StatusOf(err))
	assert.True(t, Is(err, CodeRoomAlreadyOccupied))

	assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
	assert.Equal(t, "", CodeOf(nil))
}

func TestWrapKeepsOriginalUntouched(t *testing.T) {
	base := Conflict(CodeEmailExists)
	cause := errors.New("duplicate key")
	wrapped := base.Wrap(cause)

	assert.Nil(t, base.Err)
	assert.ErrorIs(t, wrapped, cause)
}

func TestAbortRendersEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{"validation", Validation("email", "password"), http.StatusBadRequest, `{"error":"VALIDATION_ERROR","details":["email","password"]}`},
		{"conflict", Conflict(CodeNoActiveStay), http.StatusConflict, `{"error":"NO_ACTIVE_STAY"}`},
		{"foreign", errors.New("pq: relation does not exist"), http.StatusInternalServerError, `{"error":"INTERNAL_ERROR"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			Abort(c, tt.err)

			assert.Equal(t, tt.status, w.Code)
			assert.JSONEq(t, tt.body, w.Body.String())
			var raw map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
			assert.NotContains(t, w.Body.String(), "relation")
		})
	}
}
