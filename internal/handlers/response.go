package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	apierrors "github.com/yukikurage/secure-task-api/internal/errors"
	"github.com/yukikurage/secure-task-api/internal/services"
)

const statusSuccess = "success"

// respondSuccess writes {"status": "success", "message": message, ...payload}.
func respondSuccess(c *gin.Context, message string, payload gin.H) {
	body := gin.H{"status": statusSuccess}
	if message != "" {
		body["message"] = message
	}
	for k, v := range payload {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

// bindBody decodes the JSON body. The body is cached, so the authentication
// middleware may already have read it.
func bindBody(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindBodyWith(req, binding.JSON); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return false
	}
	return true
}

// respondCommonError maps the errors every flow can produce. Anything else is
// logged and reported as a 500 without details.
func respondCommonError(c *gin.Context, err error) {
	var validationErr *services.ValidationError
	var permissionErr *services.PermissionError

	switch {
	case errors.As(err, &validationErr):
		apierrors.BadRequest(c, validationErr.Message)
	case errors.Is(err, services.ErrPowerTooLow),
		errors.Is(err, services.ErrPowerEscalation):
		apierrors.RespondWithCode(c, http.StatusForbidden, apierrors.ErrCodeInsufficientPower, err.Error())
	case errors.As(err, &permissionErr):
		apierrors.RespondWithCode(c, http.StatusForbidden, apierrors.ErrCodeInsufficientPermissions, permissionErr.Message)
	case errors.Is(err, services.ErrOTPDelivery):
		slog.ErrorContext(c.Request.Context(), "Failed to deliver OTP", slog.Any("error", err))
		apierrors.RespondWithCode(c, http.StatusInternalServerError, apierrors.ErrCodeMailDelivery, services.ErrOTPDelivery.Error())
	default:
		slog.ErrorContext(c.Request.Context(), "Request failed",
			slog.String("path", c.FullPath()),
			slog.Any("error", err),
		)
		apierrors.InternalError(c, "")
	}
}
