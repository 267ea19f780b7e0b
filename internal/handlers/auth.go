package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/secure-task-api/internal/constants"
	apierrors "github.com/yukikurage/secure-task-api/internal/errors"
	"github.com/yukikurage/secure-task-api/internal/middleware"
	"github.com/yukikurage/secure-task-api/internal/services"
)

// AuthHandler coordinates authentication-related HTTP handlers.
type AuthHandler struct {
	authService  *services.AuthService
	cookieSecure bool
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService, cookieSecure bool) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		cookieSecure: cookieSecure,
	}
}

// Register starts a registration and mails the code.
func (h *AuthHandler) Register(c *gin.Context) {
	type RegisterRequest struct {
		Username        string  `json:"username"`
		Email           string  `json:"email"`
		Password        string  `json:"password"`
		ConfirmPassword *string `json:"confirmPassword"`
	}

	var req RegisterRequest
	if !bindBody(c, &req) {
		return
	}

	err := h.authService.Register(c.Request.Context(), services.RegisterInput{
		Username:        req.Username,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		respondAuthError(c, err)
		return
	}

	respondSuccess(c, "OTP has been sent to "+req.Email, nil)
}

// VerifyOTP completes a registration.
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	type VerifyRequest struct {
		Username string `json:"username"`
		OTP      string `json:"otp"`
	}

	var req VerifyRequest
	if !bindBody(c, &req) {
		return
	}

	if _, err := h.authService.VerifyRegistration(c.Request.Context(), req.Username, req.OTP); err != nil {
		respondAuthError(c, err)
		return
	}

	respondSuccess(c, "OTP verified successfully, you may proceed with login.", nil)
}

// Login checks the credentials and mails a login code.
func (h *AuthHandler) Login(c *gin.Context) {
	type LoginRequest struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	var req LoginRequest
	if !bindBody(c, &req) {
		return
	}

	masked, err := h.authService.Login(c.Request.Context(), services.LoginInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		respondAuthError(c, err)
		return
	}

	respondSuccess(c, "OTP has been sent to "+masked, nil)
}

// VerifyLoginOTP opens a session. The encrypted token is returned in the body
// and stored in the login cookie.
func (h *AuthHandler) VerifyLoginOTP(c *gin.Context) {
	type VerifyRequest struct {
		Username string `json:"username"`
		OTP      string `json:"otp"`
	}

	var req VerifyRequest
	if !bindBody(c, &req) {
		return
	}

	token, err := h.authService.VerifyLogin(c.Request.Context(), req.Username, req.OTP)
	if err != nil {
		respondAuthError(c, err)
		return
	}

	session := sessions.Default(c)
	session.Set(constants.SessionKeyToken, token)
	session.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int(constants.SessionCookieTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteNoneMode,
	})
	if err := session.Save(); err != nil {
		slog.ErrorContext(c.Request.Context(), "Failed to save login cookie", slog.Any("error", err))
		apierrors.InternalError(c, "Failed to save session")
		return
	}

	respondSuccess(c, "OTP verified successfully, redirecting to tasks", gin.H{"cookie": token})
}

// Logout ends the session named by the token and clears the login cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	token := middleware.SessionToken(c)

	if err := h.authService.Logout(token); err != nil {
		respondAuthError(c, err)
		return
	}

	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	if err := session.Save(); err != nil {
		apierrors.InternalError(c, "Failed to logout")
		return
	}

	respondSuccess(c, "User logged out successfully.", nil)
}

// Check reports whether the request carries a live session. The
// authentication middleware does the work.
func (h *AuthHandler) Check(c *gin.Context) {
	respondSuccess(c, "", nil)
}

func respondAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrUsernameTaken),
		errors.Is(err, services.ErrEmailTaken):
		apierrors.RespondWithCode(c, http.StatusBadRequest, apierrors.ErrCodeAlreadyExists, err.Error())
	case errors.Is(err, services.ErrInvalidOTP):
		apierrors.RespondWithCode(c, http.StatusBadRequest, apierrors.ErrCodeInvalidOTP, err.Error())
	case errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrInvalidCredentials):
		apierrors.RespondWithCode(c, http.StatusBadRequest, apierrors.ErrCodeInvalidCredentials, err.Error())
	case errors.Is(err, services.ErrInvalidSessionToken):
		apierrors.BadRequest(c, err.Error())
	default:
		respondCommonError(c, err)
	}
}
