package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/yukikurage/secure-task-api/internal/models"
	"github.com/yukikurage/secure-task-api/internal/repository"
	"github.com/yukikurage/secure-task-api/internal/security"
	"gorm.io/gorm"
)

// SessionService issues and resolves login sessions and converts session
// identifiers to and from the encrypted tokens handed to clients.
type SessionService struct {
	repo        repository.SessionRepository
	cipher      *security.SessionCipher
	maxAttempts int
	generateID  idGenerator
	now         func() time.Time
}

// NewSessionService creates a new SessionService.
func NewSessionService(repo repository.SessionRepository, cipher *security.SessionCipher, maxAttempts int) *SessionService {
	return &SessionService{
		repo:        repo,
		cipher:      cipher,
		maxAttempts: maxAttempts,
		generateID:  randomID,
		now:         time.Now,
	}
}

// Issue creates a logged in session for userID and returns its identifier.
func (s *SessionService) Issue(userID string) (string, error) {
	id, err := uniqueID(s.generateID, s.repo.Exists, s.maxAttempts)
	if err != nil {
		return "", err
	}

	session := &models.Session{
		SessionID: id,
		UserID:    userID,
		LoginTime: s.now(),
		Status:    models.SessionLoggedIn,
	}
	if err := s.repo.Create(session); err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	return id, nil
}

// Resolve returns the owner of a logged in session.
func (s *SessionService) Resolve(sessionID string) (string, error) {
	session, err := s.repo.FindActive(sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrSessionNotFound
		}
		return "", fmt.Errorf("failed to find session: %w", err)
	}
	return session.UserID, nil
}

// Revoke logs the session off.
func (s *SessionService) Revoke(sessionID string) error {
	if err := s.repo.MarkLoggedOff(sessionID, s.now()); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

func (s *SessionService) EncryptToken(sessionID string) (string, error) {
	return s.cipher.Encrypt(sessionID)
}

func (s *SessionService) DecryptToken(token string) (string, error) {
	sessionID, err := s.cipher.Decrypt(token)
	if err != nil || sessionID == "" {
		return "", ErrInvalidSessionToken
	}
	return sessionID, nil
}

// Authenticate decrypts token and resolves it to the session owner.
func (s *SessionService) Authenticate(token string) (userID, sessionID string, err error) {
	sessionID, err = s.DecryptToken(token)
	if err != nil {
		return "", "", err
	}
	userID, err = s.Resolve(sessionID)
	if err != nil {
		return "", "", err
	}
	return userID, sessionID, nil
}
