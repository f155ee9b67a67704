package errors

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the body of every non-validation error.
type ErrorResponse struct {
	Error   string `json:"error"`   // code from codes.go
	Message string `json:"message"` // human readable
}

// ValidationError carries per-field messages.
type ValidationError struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

var defaultMessages = map[int]string{
	http.StatusUnauthorized:        "Authentication credentials were not provided",
	http.StatusForbidden:           "You do not have permission to perform this action",
	http.StatusInternalServerError: "Internal server error, try again later",
}

// RespondWithError writes code and message with the given status. An empty
// message falls back to the status default, if one exists.
func RespondWithError(c *gin.Context, status int, code string, message string) {
	if message == "" {
		message = defaultMessages[status]
	}
	c.JSON(status, ErrorResponse{Error: code, Message: message})
}

func Unauthorized(c *gin.Context, message string) {
	RespondWithError(c, http.StatusUnauthorized, AuthUnauthorized, message)
}

func Forbidden(c *gin.Context, message string) {
	RespondWithError(c, http.StatusForbidden, AuthzForbidden, message)
}

func BadRequest(c *gin.Context, code string, message string) {
	RespondWithError(c, http.StatusBadRequest, code, message)
}

func NotFound(c *gin.Context, code string, message string) {
	RespondWithError(c, http.StatusNotFound, code, message)
}

func Conflict(c *gin.Context, code string, message string) {
	RespondWithError(c, http.StatusConflict, code, message)
}

func InternalError(c *gin.Context, message string) {
	RespondWithError(c, http.StatusInternalServerError, InternalServerError, message)
}

func RespondWithValidationError(c *gin.Context, fields map[string]string) {
	c.JSON(http.StatusBadRequest, ValidationError{
		Error:   ValidationInvalidInput,
		Message: "Invalid input",
		Fields:  fields,
	})
}
