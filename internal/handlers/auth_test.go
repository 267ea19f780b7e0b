package handlers

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/secure-task-api/internal/constants"
	"github.com/yukikurage/secure-task-api/internal/models"
)

func TestAuthHandler_RegisterAndVerify(t *testing.T) {
	env := setupHandlerTestEnv(t)

	w := postJSON(t, env.router, "/api/auth/register", map[string]string{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, w.Code)
	response := decodeBody(t, w)
	assert.Equal(t, "success", response["status"])
	assert.Equal(t, "OTP has been sent to alice@example.com", response["message"])
	assert.Equal(t, "alice@example.com", env.mailer.lastRecipient())

	w = postJSON(t, env.router, "/api/auth/verifyOTP", map[string]string{
		"username": "alice",
		"otp":      "000000",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	response = decodeBody(t, w)
	assert.Equal(t, "error", response["status"])
	assert.Equal(t, "Invalid OTP or OTP has expired", response["message"])

	w = postJSON(t, env.router, "/api/auth/verifyOTP", map[string]string{
		"username": "alice",
		"otp":      testCode,
	})
	require.Equal(t, http.StatusOK, w.Code)

	user, err := env.userRepo.FindByIDWithPermission("alice")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, constants.DefaultUserPower, user.Power)
	assert.False(t, user.Permission.EditUser)
}

func TestAuthHandler_RegisterRejectsTakenUsername(t *testing.T) {
	env := setupHandlerTestEnv(t)
	env.seedUser(t, "alice", 10, models.Permission{})

	w := postJSON(t, env.router, "/api/auth/register", map[string]string{
		"username": "alice",
		"email":    "other@example.com",
		"password": "password123",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, env.mailer.lastRecipient())
}

func TestAuthHandler_RegisterMailFailure(t *testing.T) {
	env := setupHandlerTestEnv(t)
	env.mailer.err = errors.New("smtp: connection refused")

	w := postJSON(t, env.router, "/api/auth/register", map[string]string{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "password123",
	})

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Error sending OTP. Please try again later.", decodeBody(t, w)["message"])

	var count int64
	require.NoError(t, env.db.Model(&models.OTPChallenge{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestAuthHandler_InvalidBody(t *testing.T) {
	env := setupHandlerTestEnv(t)

	w := postJSON(t, env.router, "/api/auth/register", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid request body", decodeBody(t, w)["message"])
}

func TestAuthHandler_Login(t *testing.T) {
	env := setupHandlerTestEnv(t)
	env.seedUser(t, "alice", 10, models.Permission{})

	t.Run("unknown user", func(t *testing.T) {
		w := postJSON(t, env.router, "/api/auth/login", map[string]string{
			"username": "nobody",
			"password": "password123",
		})
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "User not found", decodeBody(t, w)["message"])
	})

	t.Run("wrong password", func(t *testing.T) {
		w := postJSON(t, env.router, "/api/auth/login", map[string]string{
			"username": "alice",
			"password": "wrong-password",
		})
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Invalid credentials", decodeBody(t, w)["message"])
	})

	t.Run("masks the address", func(t *testing.T) {
		w := postJSON(t, env.router, "/api/auth/login", map[string]string{
			"username": "alice",
			"password": "password123",
		})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "OTP has been sent to ali****@example.com", decodeBody(t, w)["message"])
	})
}

func TestAuthHandler_SessionLifecycle(t *testing.T) {
	env := setupHandlerTestEnv(t)
	env.seedUser(t, "alice", 10, models.Permission{})

	w := postJSON(t, env.router, "/api/auth/login", map[string]string{
		"username": "alice",
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = postJSON(t, env.router, "/api/auth/verifyLoginOTP", map[string]string{
		"username": "alice",
		"otp":      testCode,
	})
	require.Equal(t, http.StatusOK, w.Code)

	token, ok := decodeBody(t, w)["cookie"].(string)
	require.True(t, ok)
	require.NotEmpty(t, token)

	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies, "expected login cookie to be set")
	assert.Equal(t, constants.SessionCookieName, cookies[0].Name)

	// Token in the body.
	w = postJSON(t, env.router, "/api/auth/", map[string]string{"cookie": token})
	assert.Equal(t, http.StatusOK, w.Code)

	// Token from the login cookie only.
	w = postJSON(t, env.router, "/api/auth/", nil, cookies...)
	assert.Equal(t, http.StatusOK, w.Code)

	w = postJSON(t, env.router, "/api/auth/logout", map[string]string{"cookie": token})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "User logged out successfully.", decodeBody(t, w)["message"])

	w = postJSON(t, env.router, "/api/auth/", map[string]string{"cookie": token})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid session or session has expired.", decodeBody(t, w)["message"])

	var session models.Session
	require.NoError(t, env.db.Where("user_id = ?", "alice").First(&session).Error)
	assert.Equal(t, models.SessionLoggedOff, session.Status)
	assert.NotNil(t, session.LogoutTime)
}

func TestAuthHandler_VerifyLoginOTPRejectsBadCode(t *testing.T) {
	env := setupHandlerTestEnv(t)
	env.seedUser(t, "alice", 10, models.Permission{})

	w := postJSON(t, env.router, "/api/auth/login", map[string]string{
		"username": "alice",
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = postJSON(t, env.router, "/api/auth/verifyLoginOTP", map[string]string{
		"username": "alice",
		"otp":      "654321",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var count int64
	require.NoError(t, env.db.Model(&models.Session{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestAuthHandler_Logout(t *testing.T) {
	env := setupHandlerTestEnv(t)

	t.Run("missing token", func(t *testing.T) {
		w := postJSON(t, env.router, "/api/auth/logout", map[string]string{})
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Session ID cookie is missing.", decodeBody(t, w)["message"])
	})

	t.Run("undecryptable token", func(t *testing.T) {
		w := postJSON(t, env.router, "/api/auth/logout", map[string]string{"cookie": "garbage"})
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Invalid session ID.", decodeBody(t, w)["message"])
	})
}

func TestAuthHandler_CheckWithoutToken(t *testing.T) {
	env := setupHandlerTestEnv(t)

	w := postJSON(t, env.router, "/api/auth/", nil)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "No session cookie found. Please log in first.", decodeBody(t, w)["message"])
}
