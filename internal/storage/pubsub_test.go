package storage_test

import (
	"context"
	"coursechat/backend/internal/models"
	"coursechat/backend/internal/storage"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Requires Redis running on localhost:6379, skipped otherwise.
const testRedisAddr = "localhost:6379"

func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{Addr: testRedisAddr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available at %s: %v", testRedisAddr, err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestService_PublishAndSubscribe(t *testing.T) {
	rdb := setupTestRedis(t)
	s := storage.NewStorageService(setupTestDB(t), rdb)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	frames, err := s.SubscribeRooms(ctx)
	require.NoError(t, err)

	sent := models.RelayEnvelope{
		Origin:  "instance-a",
		Topic:   "course-42",
		Payload: `{"sender":"Alice","message":"hi","timestamp":1000,"userId":"u1"}`,
	}
	require.NoError(t, s.PublishFrame(ctx, sent))

	select {
	case got := <-frames:
		assert.Equal(t, sent, got)
	case <-time.After(2 * time.Second):
		t.Fatal("envelope was not received from Redis")
	}

	cancel()
	assert.Eventually(t, func() bool {
		_, open := <-frames
		return !open
	}, 2*time.Second, 10*time.Millisecond, "subscription channel must close with the context")
}
