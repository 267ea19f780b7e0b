package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/secure-task-api/internal/models"
)

// Needs a live server, e.g. REDIS_TEST_ADDR=localhost:6379.
func TestRedisChallengeStore(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { client.Close() })

	ctx := context.Background()
	require.NoError(t, client.Ping(ctx).Err())

	store := NewRedisChallengeStore(client, time.Minute)
	subject := "redis-test-" + time.Now().Format("150405.000000")
	t.Cleanup(func() { _ = store.Delete(ctx, subject) })

	_, err := store.Find(ctx, subject)
	assert.ErrorIs(t, err, ErrChallengeNotFound)

	require.NoError(t, store.Save(ctx, &models.OTPChallenge{Subject: subject, Code: "111111", Purpose: models.PurposeRegister, IssuedAt: time.Now()}))
	require.NoError(t, store.Save(ctx, &models.OTPChallenge{Subject: subject, Code: "222222", Purpose: models.PurposeLogin, IssuedAt: time.Now()}))

	challenge, err := store.Find(ctx, subject)
	require.NoError(t, err)
	assert.Equal(t, "222222", challenge.Code)
	assert.Equal(t, models.PurposeLogin, challenge.Purpose)

	ttl, err := client.TTL(ctx, challengeKeyPrefix+subject).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, store.Delete(ctx, subject))
	_, err = store.Find(ctx, subject)
	assert.ErrorIs(t, err, ErrChallengeNotFound)
}
