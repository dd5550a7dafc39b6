//go:build integration

package auth_test

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/folio/internal/auth"
	"github.com/dmitrymomot/folio/pkg/redis"
)

func TestRedisCredentials(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}

	ctx := context.Background()
	client, err := redis.Open(ctx, redis.Config{URL: url, ConnectRetries: 1})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	key := "folio:test:" + uuid.NewString()
	t.Cleanup(func() { client.Del(context.Background(), key) })

	creds, err := auth.NewRedisCredentials(ctx, client, key, "first", bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, creds.Set(ctx, "changed"))

	// A restart with the original seed keeps the changed password.
	again, err := auth.NewRedisCredentials(ctx, client, key, "first", bcrypt.MinCost)
	require.NoError(t, err)

	ok, err := again.Verify(ctx, "changed")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = again.Verify(ctx, "first")
	require.NoError(t, err)
	assert.False(t, ok)
}
