package middleware

import (
	"errors"
	"log/slog"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/yukikurage/secure-task-api/internal/constants"
	apierrors "github.com/yukikurage/secure-task-api/internal/errors"
	"github.com/yukikurage/secure-task-api/internal/services"
)

// TokenRequest is the part of every authenticated request body that carries
// the encrypted session token.
type TokenRequest struct {
	Cookie string `json:"cookie"`
}

// Authenticate resolves the session token of the request to a logged in user.
// The token is read from the "cookie" body field, falling back to the login
// cookie.
func Authenticate(sessionService *services.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := SessionToken(c)
		if token == "" {
			apierrors.Unauthorized(c, "No session cookie found. Please log in first.")
			c.Abort()
			return
		}

		userID, sessionID, err := sessionService.Authenticate(token)
		if err != nil {
			if errors.Is(err, services.ErrInvalidSessionToken) || errors.Is(err, services.ErrSessionNotFound) {
				apierrors.Unauthorized(c, "Invalid session or session has expired.")
			} else {
				slog.ErrorContext(c.Request.Context(), "Failed to authenticate session", slog.Any("error", err))
				apierrors.InternalError(c, "")
			}
			c.Abort()
			return
		}

		// Store identity in context for easy access in handlers
		c.Set(constants.ContextKeyUserID, userID)
		c.Set(constants.ContextKeySessionID, sessionID)
		c.Next()
	}
}

// SessionToken returns the token sent in the body, or the one stored in the
// login cookie. The body is cached so handlers can bind it again.
func SessionToken(c *gin.Context) string {
	var req TokenRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err == nil && req.Cookie != "" {
		return req.Cookie
	}

	if _, ok := c.Get(sessions.DefaultKey); !ok {
		return ""
	}
	if token, ok := sessions.Default(c).Get(constants.SessionKeyToken).(string); ok {
		return token
	}
	return ""
}

// GetUserID retrieves the current user ID from context
func GetUserID(c *gin.Context) (string, bool) {
	return getString(c, constants.ContextKeyUserID)
}

// GetSessionID retrieves the current session ID from context
func GetSessionID(c *gin.Context) (string, bool) {
	return getString(c, constants.ContextKeySessionID)
}

func getString(c *gin.Context, key string) (string, bool) {
	value, exists := c.Get(key)
	if !exists {
		return "", false
	}
	s, ok := value.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}
