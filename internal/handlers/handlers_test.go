package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/secure-task-api/internal/constants"
	"github.com/yukikurage/secure-task-api/internal/database"
	"github.com/yukikurage/secure-task-api/internal/middleware"
	"github.com/yukikurage/secure-task-api/internal/models"
	"github.com/yukikurage/secure-task-api/internal/repository"
	"github.com/yukikurage/secure-task-api/internal/security"
	"github.com/yukikurage/secure-task-api/internal/services"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	testSalt = "$2a$04$CwTycUXWue0Thq9StjUM0u"
	testCode = "123456"
)

type captureMailer struct {
	mu  sync.Mutex
	to  []string
	err error
}

func (m *captureMailer) Send(_ context.Context, to, _, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.to = append(m.to, to)
	return nil
}

func (m *captureMailer) lastRecipient() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.to) == 0 {
		return ""
	}
	return m.to[len(m.to)-1]
}

type handlerTestEnv struct {
	db       *gorm.DB
	hasher   *security.PasswordHasher
	mailer   *captureMailer
	userRepo repository.UserRepository
	sessions *services.SessionService
	auth     *AuthHandler
	users    *UserHandler
	tasks    *TaskHandler
	router   *gin.Engine
}

// setupHandlerTestEnv builds every handler over an in-memory database. OTP
// codes are always testCode.
func setupHandlerTestEnv(t *testing.T) *handlerTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	database.SetDB(db)
	require.NoError(t, db.AutoMigrate(database.Models()...))

	hasher, err := security.NewPasswordHasher(testSalt)
	require.NoError(t, err)
	cipher, err := security.NewSessionCipher("handler-test-secret", false)
	require.NoError(t, err)

	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	mailer := &captureMailer{}

	challenges := services.NewChallengeService(
		repository.NewChallengeStore(db), 0,
		services.WithCodeGenerator(func() (string, error) { return testCode, nil }),
	)
	sessionService := services.NewSessionService(repository.NewSessionRepository(db), cipher, constants.DefaultIDMaxAttempts)
	authorizer := services.NewAuthorizer(userRepo)

	env := &handlerTestEnv{
		db:       db,
		hasher:   hasher,
		mailer:   mailer,
		userRepo: userRepo,
		sessions: sessionService,
		auth:     NewAuthHandler(services.NewAuthService(userRepo, hasher, challenges, sessionService, mailer), false),
		users:    NewUserHandler(services.NewUserService(userRepo, hasher, challenges, authorizer, mailer)),
		tasks:    NewTaskHandler(services.NewTaskService(taskRepo, userRepo, constants.DefaultIDMaxAttempts)),
	}

	r := gin.New()
	r.Use(sessions.Sessions(constants.SessionCookieName, cookie.NewStore([]byte("secret"))))

	auth := r.Group("/api/auth")
	auth.POST("/register", env.auth.Register)
	auth.POST("/verifyOTP", env.auth.VerifyOTP)
	auth.POST("/login", env.auth.Login)
	auth.POST("/verifyLoginOTP", env.auth.VerifyLoginOTP)
	auth.POST("/logout", env.auth.Logout)
	auth.POST("/", middleware.Authenticate(sessionService), env.auth.Check)

	env.router = r
	return env
}

func (env *handlerTestEnv) seedUser(t *testing.T, id string, power int, permission models.Permission) *models.User {
	t.Helper()

	hash, err := env.hasher.Hash("password123")
	require.NoError(t, err)

	user := &models.User{
		UserID:       id,
		Email:        id + "@example.com",
		PasswordHash: hash,
		Name:         id,
		Type:         constants.DefaultUserType,
		Role:         constants.DefaultUserRole,
		Power:        power,
	}
	require.NoError(t, env.userRepo.CreateWithPermission(user, &permission))
	return user
}

func postJSON(t *testing.T, r http.Handler, path string, payload interface{}, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		require.NoError(t, err)
	}

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// createAuthContext builds a context as the authentication middleware leaves it.
func createAuthContext(t *testing.T, payload interface{}, userID string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set(constants.ContextKeyUserID, userID)
	return c, w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return response
}
