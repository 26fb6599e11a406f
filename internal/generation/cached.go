package generation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/spherical-ai/spherical/libs/phone-advisor/internal/cache"
	"github.com/spherical-ai/spherical/libs/phone-advisor/internal/observability"
)

// Cached memoises another generator's answers by prompt digest.
type Cached struct {
	next     Generator
	store    cache.Client
	provider string
	model    string
	ttl      time.Duration
	logger   *observability.Logger
}

// NewCached wraps next. A zero ttl keeps entries until evicted.
func NewCached(next Generator, store cache.Client, provider, model string, ttl time.Duration, logger *observability.Logger) *Cached {
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	return &Cached{
		next:     next,
		store:    store,
		provider: provider,
		model:    model,
		ttl:      ttl,
		logger:   logger.WithComponent("generation_cache"),
	}
}

// Generate implements Generator. Cache failures are logged and bypassed.
func (c *Cached) Generate(ctx context.Context, prompt string) (string, error) {
	key := c.key(prompt)

	data, err := c.store.Get(ctx, key)
	switch {
	case err == nil:
		c.logger.Debug().Str("key", key).Msg("Generation cache hit")
		return string(data), nil
	case !errors.Is(err, cache.ErrCacheMiss):
		c.logger.Warn().Err(err).Msg("Generation cache read failed")
	}

	text, err := c.next.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}

	if err := c.store.Set(ctx, key, []byte(text), c.ttl); err != nil {
		c.logger.Warn().Err(err).Msg("Generation cache write failed")
	}
	return text, nil
}

func (c *Cached) key(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return cache.GenerationKey(c.provider, c.model, hex.EncodeToString(sum[:]))
}
