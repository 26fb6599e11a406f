// Package cache provides the key/value cache used for generated text and
// the pub/sub channel used for audit events.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrCacheMiss indicates a cache miss.
var ErrCacheMiss = errors.New("cache miss")

// Client defines the cache interface.
type Client interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// Purge removes every key starting with prefix and returns the count.
	Purge(ctx context.Context, prefix string) (int, error)
	Close() error
}

// Publisher fans JSON messages out to subscribers of a channel.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) error
}

// Subscriber streams the payloads published on a channel.
type Subscriber interface {
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}

// Options selects and configures a cache backend.
type Options struct {
	Driver     string // memory or redis
	MaxEntries int
	Redis      RedisConfig
}

// New builds the cache backend named by opts.Driver.
func New(ctx context.Context, opts Options) (Client, error) {
	switch opts.Driver {
	case "", "memory":
		return NewMemoryClient(opts.MaxEntries), nil
	case "redis":
		return NewRedisClient(ctx, opts.Redis)
	default:
		return nil, fmt.Errorf("unknown cache driver %q", opts.Driver)
	}
}

// CacheKey generates a cache key from components.
func CacheKey(parts ...string) string {
	return strings.Join(parts, ":")
}

// GenerationPrefix namespaces generated answers.
const GenerationPrefix = "gen:"

// GenerationKey generates the key for a generated answer.
func GenerationKey(provider, model, digest string) string {
	return CacheKey("gen", provider, model, digest)
}
