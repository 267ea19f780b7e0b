package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/yukikurage/secure-task-api/internal/constants"
	"github.com/yukikurage/secure-task-api/internal/mail"
	"github.com/yukikurage/secure-task-api/internal/models"
	"github.com/yukikurage/secure-task-api/internal/repository"
	"github.com/yukikurage/secure-task-api/internal/security"
	"github.com/yukikurage/secure-task-api/internal/utils"
	"gorm.io/gorm"
)

// UserService handles profile changes and user administration.
type UserService struct {
	userRepo   repository.UserRepository
	hasher     *security.PasswordHasher
	challenges *ChallengeService
	authorizer *Authorizer
	mailer     mail.Mailer
}

// NewUserService creates a new UserService.
func NewUserService(
	userRepo repository.UserRepository,
	hasher *security.PasswordHasher,
	challenges *ChallengeService,
	authorizer *Authorizer,
	mailer mail.Mailer,
) *UserService {
	return &UserService{
		userRepo:   userRepo,
		hasher:     hasher,
		challenges: challenges,
		authorizer: authorizer,
		mailer:     mailer,
	}
}

// GetProfile returns a user with its permissions.
func (s *UserService) GetProfile(userID string) (*models.User, error) {
	return s.findWithPermission(userID)
}

// GetByID returns any user with its permissions.
func (s *UserService) GetByID(userID string) (*models.User, error) {
	if userID == "" {
		return nil, invalid("User ID is required.")
	}
	return s.findWithPermission(userID)
}

func (s *UserService) findWithPermission(userID string) (*models.User, error) {
	user, err := s.userRepo.FindByIDWithPermission(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

func (s *UserService) find(userID string) (*models.User, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// Rename sets the display name of userID.
func (s *UserService) Rename(userID, newName string) error {
	name := strings.TrimSpace(newName)
	if name == "" {
		return invalid("Invalid new name provided.")
	}
	if utf8.RuneCountInString(name) > constants.MaxNameLength {
		return invalid(fmt.Sprintf("Name cannot exceed %d characters.", constants.MaxNameLength))
	}

	if _, err := s.find(userID); err != nil {
		return err
	}
	if err := s.userRepo.UpdateName(userID, name); err != nil {
		return fmt.Errorf("failed to update name: %w", err)
	}
	return nil
}

// RequestEmailChange mails a code to newEmail and stages the change.
func (s *UserService) RequestEmailChange(ctx context.Context, userID, newEmail string) error {
	if newEmail == "" || !utils.IsEmail(newEmail) {
		return invalid("Invalid email format.")
	}
	if _, err := s.find(userID); err != nil {
		return err
	}
	if err := s.ensureEmailFree(userID, newEmail); err != nil {
		return err
	}

	placeholder, err := utils.GenerateToken(idBytes)
	if err != nil {
		return err
	}

	payload := ChallengePayload{Email: newEmail, Password: placeholder}
	_, err = s.challenges.Initiate(ctx, userID, models.PurposeEmailChange, payload, func(code string) error {
		subject, body := mail.OTPMessage("Email Change", "email change", code)
		return s.mailer.Send(ctx, newEmail, subject, body)
	})
	return err
}

// VerifyEmailChange applies the staged email once the code matches.
func (s *UserService) VerifyEmailChange(ctx context.Context, userID, code string) error {
	if code == "" {
		return invalid("OTP is required.")
	}

	payload, err := s.challenges.Verify(ctx, userID, code, models.PurposeEmailChange)
	if err != nil {
		if errors.Is(err, ErrInvalidOTP) {
			return ErrInvalidChangeOTP
		}
		return err
	}

	// The address may have been taken while the code was pending.
	if err := s.ensureEmailFree(userID, payload.Email); err != nil {
		return err
	}
	if err := s.userRepo.UpdateEmail(userID, payload.Email); err != nil {
		return fmt.Errorf("failed to update email: %w", err)
	}
	return s.challenges.Consume(ctx, userID)
}

func (s *UserService) ensureEmailFree(userID, email string) error {
	owner, err := s.userRepo.FindByEmail(email)
	if err == nil {
		if owner.UserID != userID {
			return ErrEmailInUse
		}
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return fmt.Errorf("failed to check email: %w", err)
}

// PasswordChangeInput holds the fields of a password change request.
type PasswordChangeInput struct {
	CurrentPassword string
	NewPassword     string
	ConfirmPassword string
}

// RequestPasswordChange verifies the current password, mails a code to the
// account address and stages the new password. It returns the masked address.
func (s *UserService) RequestPasswordChange(ctx context.Context, userID string, input PasswordChangeInput) (string, error) {
	if input.CurrentPassword == "" || input.NewPassword == "" || input.ConfirmPassword == "" {
		return "", invalid("All password fields are required.")
	}
	if input.NewPassword != input.ConfirmPassword {
		return "", invalid("New password and confirm password do not match.")
	}
	if n := len(input.NewPassword); n < constants.MinPasswordLength || n > constants.MaxPasswordLength {
		return "", invalid(fmt.Sprintf("Password must be between %d and %d characters long.",
			constants.MinPasswordLength, constants.MaxPasswordLength))
	}

	user, err := s.find(userID)
	if err != nil {
		return "", err
	}
	if !s.hasher.Verify(input.CurrentPassword, user.PasswordHash) {
		return "", ErrWrongPassword
	}

	placeholder, err := utils.GenerateToken(idBytes)
	if err != nil {
		return "", err
	}

	// The new password stays in plain text until the code is verified.
	payload := ChallengePayload{Email: placeholder, Password: input.NewPassword}
	_, err = s.challenges.Initiate(ctx, userID, models.PurposePasswordChange, payload, func(code string) error {
		subject, body := mail.OTPMessage("Password Change", "password change", code)
		return s.mailer.Send(ctx, user.Email, subject, body)
	})
	if err != nil {
		return "", err
	}

	return utils.MaskEmail(user.Email, 2), nil
}

// VerifyPasswordChange hashes and stores the staged password once the code matches.
func (s *UserService) VerifyPasswordChange(ctx context.Context, userID, code string) error {
	if code == "" {
		return invalid("OTP is required.")
	}

	payload, err := s.challenges.Verify(ctx, userID, code, models.PurposePasswordChange)
	if err != nil {
		if errors.Is(err, ErrInvalidOTP) {
			return ErrInvalidChangeOTP
		}
		return err
	}

	hash, err := s.hasher.Hash(payload.Password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.userRepo.UpdatePasswordHash(userID, hash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return s.challenges.Consume(ctx, userID)
}

// Search lists users whose id or name contains term.
func (s *UserService) Search(term string, params utils.PaginationParams) ([]models.User, int64, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, 0, invalid("Search query is required.")
	}

	users, total, err := s.userRepo.Search(term, params)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search users: %w", err)
	}
	return users, total, nil
}

// UpdateUserInput carries the administrative fields of a target user. Nil
// fields keep their current value.
type UpdateUserInput struct {
	UserID      string
	Name        *string
	Role        *string
	Power       *int
	Permissions *models.Permission
}

// UpdateUser lets actorID change another user's name, role, power and
// permissions.
func (s *UserService) UpdateUser(actorID string, input UpdateUserInput) error {
	if input.UserID == "" {
		return invalid("Target user data is required.")
	}
	if input.UserID == actorID {
		return ErrCannotEditSelf
	}

	if err := s.authorizer.RequireCapability(actorID, models.CapEditUser); err != nil {
		if errors.Is(err, ErrPermissionDenied) {
			return ErrEditUserDenied
		}
		return err
	}

	actor, err := s.find(actorID)
	if err != nil {
		return err
	}
	target, err := s.userRepo.FindByIDWithPermission(input.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to find user: %w", err)
	}

	if err := s.authorizer.RequireManage(actor, target); err != nil {
		return err
	}

	updated := *target
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" || utf8.RuneCountInString(name) > constants.MaxNameLength {
			return invalid(fmt.Sprintf("Name must be between 1 and %d characters.", constants.MaxNameLength))
		}
		updated.Name = name
	}
	if input.Role != nil {
		updated.Role = *input.Role
	}
	if input.Power != nil {
		if err := s.authorizer.RequireGrant(actor, *input.Power); err != nil {
			return err
		}
		updated.Power = *input.Power
	}

	permission := target.Permission
	if input.Permissions != nil {
		permission = *input.Permissions
	}

	if err := s.userRepo.UpdateWithPermission(&updated, &permission); err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

// DeleteUser removes targetID with its permissions and sessions.
func (s *UserService) DeleteUser(actorID, targetID string) error {
	if targetID == "" {
		return invalid("Target user ID is required.")
	}
	if targetID == actorID {
		return ErrCannotDeleteSelf
	}

	actor, err := s.find(actorID)
	if err != nil {
		return err
	}
	target, err := s.find(targetID)
	if err != nil {
		return err
	}

	if err := s.authorizer.RequireCapability(actorID, models.CapDeleteUser); err != nil {
		if errors.Is(err, ErrPermissionDenied) {
			return ErrDeleteUserDenied
		}
		return err
	}
	if err := s.authorizer.RequireManage(actor, target); err != nil {
		return err
	}

	if err := s.userRepo.Delete(targetID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}
