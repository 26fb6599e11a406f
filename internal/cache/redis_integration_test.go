//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startRedis(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := tcredis.Run(ctx,
		"redis:7.4-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("Ready to accept connections").
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	return host + ":" + port.Port()
}

func TestRedisClient_RoundTrip(t *testing.T) {
	ctx := context.Background()
	client, err := NewRedisClient(ctx, RedisConfig{Addr: startRedis(t), Prefix: "test:"})
	require.NoError(t, err)
	defer client.Close()

	_, err = client.Get(ctx, "absent")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, client.Set(ctx, GenerationKey("gemini", "m", "1"), []byte("hello"), time.Minute))
	require.NoError(t, client.Set(ctx, GenerationKey("gemini", "m", "2"), []byte("world"), time.Minute))

	got, err := client.Get(ctx, GenerationKey("gemini", "m", "1"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))

	n, err := client.Purge(ctx, "gen:gemini")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	_, err = client.Get(ctx, GenerationKey("gemini", "m", "2"))
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisClient_PublishSubscribe(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	client, err := NewRedisClient(ctx, RedisConfig{Addr: "redis://" + startRedis(t) + "/0"})
	require.NoError(t, err)
	defer client.Close()

	msgs, err := client.Subscribe(ctx, "audit")
	require.NoError(t, err)

	require.NoError(t, client.Publish(ctx, "audit", map[string]string{"intent": "search"}))

	select {
	case msg := <-msgs:
		assert.JSONEq(t, `{"intent":"search"}`, string(msg))
	case <-time.After(5 * time.Second):
		t.Fatal("no message received")
	}
}

func TestRedisClient_SubscribeStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	client, err := NewRedisClient(ctx, RedisConfig{Addr: startRedis(t)})
	require.NoError(t, err)
	defer client.Close()

	msgs, err := client.Subscribe(ctx, "audit")
	require.NoError(t, err)
	cancel()

	select {
	case _, ok := <-msgs:
		assert.False(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("subscription not closed")
	}
}
