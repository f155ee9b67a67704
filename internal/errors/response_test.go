package errors

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondWithError_DefaultMessages(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name        string
		respond     func(c *gin.Context)
		wantStatus  int
		wantCode    string
		wantMessage string
	}{
		{"Unauthorized default", func(c *gin.Context) { Unauthorized(c, "") }, http.StatusUnauthorized, AuthUnauthorized, "Authentication credentials were not provided"},
		{"Forbidden default", func(c *gin.Context) { Forbidden(c, "") }, http.StatusForbidden, AuthzForbidden, "You do not have permission to perform this action"},
		{"Internal default", func(c *gin.Context) { InternalError(c, "") }, http.StatusInternalServerError, InternalServerError, "Internal server error, try again later"},
		{"Explicit message kept", func(c *gin.Context) { Forbidden(c, "Not the author") }, http.StatusForbidden, AuthzForbidden, "Not the author"},
		{"No default for 404", func(c *gin.Context) { NotFound(c, "X", "") }, http.StatusNotFound, "X", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			tt.respond(c)

			assert.Equal(t, tt.wantStatus, w.Code)
			var body ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body.Error)
			assert.Equal(t, tt.wantMessage, body.Message)
		})
	}
}
