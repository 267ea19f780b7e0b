package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yukikurage/secure-task-api/internal/constants"
	"github.com/yukikurage/secure-task-api/internal/mail"
	"github.com/yukikurage/secure-task-api/internal/models"
	"github.com/yukikurage/secure-task-api/internal/repository"
	"github.com/yukikurage/secure-task-api/internal/security"
	"github.com/yukikurage/secure-task-api/internal/utils"
	"gorm.io/gorm"
)

// AuthService handles registration, login and logout.
type AuthService struct {
	userRepo   repository.UserRepository
	hasher     *security.PasswordHasher
	challenges *ChallengeService
	sessions   *SessionService
	mailer     mail.Mailer
}

// NewAuthService creates a new AuthService.
func NewAuthService(
	userRepo repository.UserRepository,
	hasher *security.PasswordHasher,
	challenges *ChallengeService,
	sessions *SessionService,
	mailer mail.Mailer,
) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		hasher:     hasher,
		challenges: challenges,
		sessions:   sessions,
		mailer:     mailer,
	}
}

// RegisterInput represents the data submitted to start a registration.
type RegisterInput struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword *string
}

// Register validates the requested account, mails a code to the given
// address and stages a registration challenge keyed by username.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) error {
	username := normalizeUsername(input.Username)
	if username == "" || input.Email == "" || input.Password == "" {
		return invalid("Username, email and password are required")
	}

	if _, err := s.userRepo.FindByID(username); err == nil {
		return ErrUsernameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check username: %w", err)
	}

	if _, err := s.userRepo.FindByEmail(input.Email); err == nil {
		return ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check email: %w", err)
	}

	if !utils.IsRegistrationEmail(input.Email) {
		return invalid("The email format is invalid.")
	}
	if input.ConfirmPassword != nil && *input.ConfirmPassword != input.Password {
		return invalid("Password and confirm password do not match.")
	}

	payload := ChallengePayload{Email: input.Email, Password: input.Password}
	_, err := s.challenges.Initiate(ctx, username, models.PurposeRegister, payload, func(code string) error {
		subject, body := mail.OTPMessage("Registration", "registration", code)
		return s.mailer.Send(ctx, input.Email, subject, body)
	})
	return err
}

// VerifyRegistration creates the account staged by Register once the code
// matches, then discards the challenge.
func (s *AuthService) VerifyRegistration(ctx context.Context, username, code string) (*models.User, error) {
	username = normalizeUsername(username)
	if username == "" || code == "" {
		return nil, invalid("Username and OTP are required")
	}

	payload, err := s.challenges.Verify(ctx, username, code, models.PurposeRegister)
	if err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(payload.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		UserID:       username,
		Email:        payload.Email,
		PasswordHash: hash,
		Name:         username,
		Type:         constants.DefaultUserType,
		Role:         constants.DefaultUserRole,
		Power:        constants.DefaultUserPower,
	}
	if err := s.userRepo.CreateWithPermission(user, &models.Permission{}); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if err := s.challenges.Consume(ctx, username); err != nil {
		return nil, err
	}
	return user, nil
}

// LoginInput holds the credentials for authentication.
type LoginInput struct {
	Username string
	Password string
}

// Login checks the credentials and mails a login code to the account
// address. It returns the masked address for display.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (string, error) {
	username := normalizeUsername(input.Username)
	if username == "" || input.Password == "" {
		return "", invalid("Username and Password are required")
	}

	user, err := s.userRepo.FindByID(username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("failed to find user: %w", err)
	}

	if !s.hasher.Verify(input.Password, user.PasswordHash) {
		return "", ErrInvalidCredentials
	}

	// The password is already verified; the challenge only needs a non-empty marker.
	placeholder, err := utils.GenerateToken(idBytes)
	if err != nil {
		return "", err
	}

	payload := ChallengePayload{Email: user.Email, Password: placeholder}
	_, err = s.challenges.Initiate(ctx, user.UserID, models.PurposeLogin, payload, func(code string) error {
		subject, body := mail.OTPMessage("Login", "login", code)
		return s.mailer.Send(ctx, user.Email, subject, body)
	})
	if err != nil {
		return "", err
	}

	return utils.MaskEmail(user.Email, 3), nil
}

// VerifyLogin consumes the login challenge, opens a session and returns the
// encrypted session token.
func (s *AuthService) VerifyLogin(ctx context.Context, username, code string) (string, error) {
	username = normalizeUsername(username)
	if username == "" || code == "" {
		return "", invalid("Username and OTP are required")
	}

	if _, err := s.challenges.Verify(ctx, username, code, models.PurposeLogin); err != nil {
		return "", err
	}
	if err := s.challenges.Consume(ctx, username); err != nil {
		return "", err
	}

	sessionID, err := s.sessions.Issue(username)
	if err != nil {
		return "", err
	}
	return s.sessions.EncryptToken(sessionID)
}

// Logout marks the session behind token as logged off.
func (s *AuthService) Logout(token string) error {
	if token == "" {
		return invalid("Session ID cookie is missing.")
	}

	sessionID, err := s.sessions.DecryptToken(token)
	if err != nil {
		return err
	}
	return s.sessions.Revoke(sessionID)
}

// normalizeUsername trims surrounding whitespace. Usernames are challenge
// keys and primary keys, so every entry point must agree on the form.
func normalizeUsername(username string) string {
	return strings.TrimSpace(username)
}
