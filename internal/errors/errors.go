package errors

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// StatusError is the value of the "status" field of every error body.
const StatusError = "error"

// Error codes
const (
	// Authentication errors
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeInvalidOTP         = "INVALID_OTP"

	// Authorization errors
	ErrCodeInsufficientPermissions = "INSUFFICIENT_PERMISSIONS"
	ErrCodeInsufficientPower       = "INSUFFICIENT_POWER"

	ErrCodeInvalidInput  = "INVALID_INPUT"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeAlreadyExists = "ALREADY_EXISTS"

	ErrCodeInternalError = "INTERNAL_ERROR"
	ErrCodeMailDelivery  = "MAIL_DELIVERY_FAILED"
)

// APIError is the body of every failed response.
type APIError struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return e.Message
}

func NewAPIError(code, message string) *APIError {
	return &APIError{
		Status:  StatusError,
		Code:    code,
		Message: message,
	}
}

// RespondWithError sends err with statusCode.
func RespondWithError(c *gin.Context, statusCode int, err *APIError) {
	c.JSON(statusCode, err)
}

// RespondWithCode sends an error response with a specific error code
func RespondWithCode(c *gin.Context, statusCode int, code, message string) {
	RespondWithError(c, statusCode, NewAPIError(code, message))
}

// defaultMessages are used when a helper is called with an empty message.
var defaultMessages = map[int]string{
	http.StatusBadRequest:          "Invalid request",
	http.StatusUnauthorized:        "Authentication required",
	http.StatusForbidden:           "Access denied",
	http.StatusNotFound:            "Resource not found",
	http.StatusInternalServerError: "Internal server error",
}

func respond(c *gin.Context, statusCode int, code, message string) {
	if message == "" {
		message = defaultMessages[statusCode]
	}
	RespondWithCode(c, statusCode, code, message)
}

// Unauthorized sends a 401 response
func Unauthorized(c *gin.Context, message string) {
	respond(c, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

// NotFound sends a 404 response
func NotFound(c *gin.Context, message string) {
	respond(c, http.StatusNotFound, ErrCodeNotFound, message)
}

// BadRequest sends a 400 response
func BadRequest(c *gin.Context, message string) {
	respond(c, http.StatusBadRequest, ErrCodeInvalidInput, message)
}

// InternalError sends a 500 response. Callers log the cause; it never
// reaches the client.
func InternalError(c *gin.Context, message string) {
	respond(c, http.StatusInternalServerError, ErrCodeInternalError, message)
}
