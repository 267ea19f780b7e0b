package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/yukikurage/secure-task-api/internal/models"
	"github.com/yukikurage/secure-task-api/internal/repository"
	"github.com/yukikurage/secure-task-api/internal/utils"
)

// ChallengePayload is the pending data a challenge carries until it is verified.
type ChallengePayload struct {
	Email    string
	Password string
}

// ChallengeService runs the one-time code state machine. Each subject has at
// most one pending challenge; initiating again replaces it.
type ChallengeService struct {
	store        repository.ChallengeStore
	ttl          time.Duration
	now          func() time.Time
	generateCode func() (string, error)
}

type ChallengeOption func(*ChallengeService)

// WithCodeGenerator overrides the random code source.
func WithCodeGenerator(generate func() (string, error)) ChallengeOption {
	return func(s *ChallengeService) {
		s.generateCode = generate
	}
}

// WithClock overrides the time source used for issue times and expiry.
func WithClock(now func() time.Time) ChallengeOption {
	return func(s *ChallengeService) {
		s.now = now
	}
}

// NewChallengeService creates a ChallengeService. A zero ttl disables expiry.
func NewChallengeService(store repository.ChallengeStore, ttl time.Duration, opts ...ChallengeOption) *ChallengeService {
	s := &ChallengeService{
		store:        store,
		ttl:          ttl,
		now:          time.Now,
		generateCode: utils.GenerateOTP,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initiate creates a code, hands it to deliver and stores the challenge only
// once delivery succeeded. It returns the code.
func (s *ChallengeService) Initiate(
	ctx context.Context,
	subject string,
	purpose models.ChallengePurpose,
	payload ChallengePayload,
	deliver func(code string) error,
) (string, error) {
	code, err := s.generateCode()
	if err != nil {
		return "", fmt.Errorf("failed to generate otp: %w", err)
	}

	if err := deliver(code); err != nil {
		return "", fmt.Errorf("%w: %v", ErrOTPDelivery, err)
	}

	challenge := &models.OTPChallenge{
		Subject:  subject,
		Email:    payload.Email,
		Password: payload.Password,
		Code:     code,
		Purpose:  purpose,
		IssuedAt: s.now(),
	}
	if err := s.store.Save(ctx, challenge); err != nil {
		return "", fmt.Errorf("failed to store challenge: %w", err)
	}
	return code, nil
}

// Verify returns the payload of the challenge matching subject, code and
// purpose exactly. The challenge stays in place until Consume is called.
func (s *ChallengeService) Verify(ctx context.Context, subject, code string, purpose models.ChallengePurpose) (ChallengePayload, error) {
	challenge, err := s.store.Find(ctx, subject)
	if err != nil {
		if errors.Is(err, repository.ErrChallengeNotFound) {
			return ChallengePayload{}, ErrInvalidOTP
		}
		return ChallengePayload{}, fmt.Errorf("failed to load challenge: %w", err)
	}

	if challenge.Purpose != purpose {
		return ChallengePayload{}, ErrInvalidOTP
	}
	if subtle.ConstantTimeCompare([]byte(challenge.Code), []byte(code)) != 1 {
		return ChallengePayload{}, ErrInvalidOTP
	}
	if s.ttl > 0 && s.now().Sub(challenge.IssuedAt) > s.ttl {
		return ChallengePayload{}, ErrInvalidOTP
	}

	return ChallengePayload{
		Email:    challenge.Email,
		Password: challenge.Password,
	}, nil
}

// Consume deletes the challenge of subject.
func (s *ChallengeService) Consume(ctx context.Context, subject string) error {
	if err := s.store.Delete(ctx, subject); err != nil {
		return fmt.Errorf("failed to delete challenge: %w", err)
	}
	return nil
}
