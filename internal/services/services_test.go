package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/yukikurage/secure-task-api/internal/models"
	"github.com/yukikurage/secure-task-api/internal/repository"
	"github.com/yukikurage/secure-task-api/internal/security"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Cost 4 keeps the tests fast.
const testSalt = "$2a$04$CwTycUXWue0Thq9StjUM0u"

type sentMail struct {
	to      string
	subject string
	body    string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *fakeMailer) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

func (m *fakeMailer) last() sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return sentMail{}
	}
	return m.sent[len(m.sent)-1]
}

// lastCode extracts the code from the body of the last message.
func (m *fakeMailer) lastCode() string {
	body := m.last().body
	return body[strings.LastIndex(body, " ")+1:]
}

type serviceEnv struct {
	db         *gorm.DB
	userRepo   repository.UserRepository
	taskRepo   repository.TaskRepository
	store      repository.ChallengeStore
	hasher     *security.PasswordHasher
	mailer     *fakeMailer
	challenges *ChallengeService
	sessions   *SessionService
	authorizer *Authorizer
	auth       *AuthService
	users      *UserService
	tasks      *TaskService
}

func setupServiceEnv(t *testing.T, opts ...ChallengeOption) *serviceEnv {
	t.Helper()

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

	err = db.AutoMigrate(
		&models.User{},
		&models.Permission{},
		&models.Session{},
		&models.OTPChallenge{},
		&models.Task{},
		&models.TaskActivity{},
		&models.TaskAssignment{},
	)
	require.NoError(t, err)

	hasher, err := security.NewPasswordHasher(testSalt)
	require.NoError(t, err)
	cipher, err := security.NewSessionCipher("test-secret", false)
	require.NoError(t, err)

	env := &serviceEnv{
		db:       db,
		userRepo: repository.NewUserRepository(db),
		taskRepo: repository.NewTaskRepository(db),
		store:    repository.NewChallengeStore(db),
		hasher:   hasher,
		mailer:   &fakeMailer{},
	}
	env.challenges = NewChallengeService(env.store, 0, opts...)
	env.sessions = NewSessionService(repository.NewSessionRepository(db), cipher, 5)
	env.authorizer = NewAuthorizer(env.userRepo)
	env.auth = NewAuthService(env.userRepo, hasher, env.challenges, env.sessions, env.mailer)
	env.users = NewUserService(env.userRepo, hasher, env.challenges, env.authorizer, env.mailer)
	env.tasks = NewTaskService(env.taskRepo, env.userRepo, 5)
	return env
}

// seedUser inserts a user directly with the given power and permissions.
func (env *serviceEnv) seedUser(t *testing.T, id, password string, power int, permission models.Permission) *models.User {
	t.Helper()

	hash, err := env.hasher.Hash(password)
	require.NoError(t, err)

	user := &models.User{
		UserID:       id,
		Email:        id + "@example.com",
		PasswordHash: hash,
		Name:         id,
		Type:         "User",
		Role:         "New User",
		Power:        power,
	}
	require.NoError(t, env.userRepo.CreateWithPermission(user, &permission))
	return user
}

func (env *serviceEnv) challengeCount(t *testing.T) int64 {
	t.Helper()
	var count int64
	require.NoError(t, env.db.Model(&models.OTPChallenge{}).Count(&count).Error)
	return count
}

var errMailDown = errors.New("smtp: connection refused")
