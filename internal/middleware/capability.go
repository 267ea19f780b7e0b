package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/secure-task-api/internal/errors"
	"github.com/yukikurage/secure-task-api/internal/models"
	"github.com/yukikurage/secure-task-api/internal/services"
)

// RequireCapability rejects the request with 403 and message unless the
// authenticated user holds capability. It must run after Authenticate and
// before the handler looks at the input.
func RequireCapability(authorizer *services.Authorizer, capability models.Capability, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := GetUserID(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		if err := authorizer.RequireCapability(userID, capability); err != nil {
			if errors.Is(err, services.ErrPermissionDenied) {
				apierrors.RespondWithCode(c, http.StatusForbidden, apierrors.ErrCodeInsufficientPermissions, message)
			} else {
				slog.ErrorContext(c.Request.Context(), "Failed to check permission",
					slog.String("user_id", userID),
					slog.String("capability", string(capability)),
					slog.Any("error", err),
				)
				apierrors.InternalError(c, "")
			}
			c.Abort()
			return
		}

		c.Next()
	}
}
