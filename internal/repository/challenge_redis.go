package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/yukikurage/secure-task-api/internal/models"
)

const challengeKeyPrefix = "otp:challenge:"

// RedisChallengeStore keeps one key per subject. SET replaces any previous
// challenge, and a positive ttl lets Redis expire stale challenges.
type RedisChallengeStore struct {
	client *redis.Client
	ttl    time.Duration
}

type redisChallenge struct {
	Email    string                  `json:"email"`
	Password string                  `json:"password"`
	Code     string                  `json:"code"`
	Purpose  models.ChallengePurpose `json:"purpose"`
	IssuedAt time.Time               `json:"issued_at"`
}

// NewRedisChallengeStore creates a Redis backed ChallengeStore. A zero ttl keeps
// challenges until they are replaced or deleted.
func NewRedisChallengeStore(client *redis.Client, ttl time.Duration) ChallengeStore {
	return &RedisChallengeStore{client: client, ttl: ttl}
}

func (s *RedisChallengeStore) Save(ctx context.Context, challenge *models.OTPChallenge) error {
	payload, err := json.Marshal(redisChallenge{
		Email:    challenge.Email,
		Password: challenge.Password,
		Code:     challenge.Code,
		Purpose:  challenge.Purpose,
		IssuedAt: challenge.IssuedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to encode challenge: %w", err)
	}
	return s.client.Set(ctx, challengeKeyPrefix+challenge.Subject, payload, s.ttl).Err()
}

func (s *RedisChallengeStore) Find(ctx context.Context, subject string) (*models.OTPChallenge, error) {
	payload, err := s.client.Get(ctx, challengeKeyPrefix+subject).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrChallengeNotFound
		}
		return nil, err
	}

	var stored redisChallenge
	if err := json.Unmarshal(payload, &stored); err != nil {
		return nil, fmt.Errorf("failed to decode challenge: %w", err)
	}
	return &models.OTPChallenge{
		Subject:  subject,
		Email:    stored.Email,
		Password: stored.Password,
		Code:     stored.Code,
		Purpose:  stored.Purpose,
		IssuedAt: stored.IssuedAt,
	}, nil
}

func (s *RedisChallengeStore) Delete(ctx context.Context, subject string) error {
	return s.client.Del(ctx, challengeKeyPrefix+subject).Err()
}
