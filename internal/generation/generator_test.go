package generation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spherical-ai/spherical/libs/phone-advisor/internal/cache"
	"github.com/spherical-ai/spherical/libs/phone-advisor/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingGenerator struct {
	calls atomic.Int32
	text  string
	err   error
}

func (g *countingGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.calls.Add(1)
	if g.err != nil {
		return "", g.err
	}
	return g.text + ": " + prompt, nil
}

func TestNew_Providers(t *testing.T) {
	ctx := context.Background()
	logger := observability.NewNopLogger()

	gen, err := New(ctx, Config{Provider: ProviderNone}, nil, logger)
	require.NoError(t, err)
	assert.Nil(t, gen)

	_, err = New(ctx, Config{Provider: ProviderGemini}, nil, logger)
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	_, err = New(ctx, Config{Provider: ProviderOpenAI}, nil, logger)
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	_, err = New(ctx, Config{Provider: "llama"}, nil, logger)
	assert.ErrorIs(t, err, ErrUnknownProvider)

	gen, err = New(ctx, Config{Provider: ProviderOpenAI, APIKey: "k", Model: DefaultGeminiModel}, cache.NewMemoryClient(10), logger)
	require.NoError(t, err)
	cached, ok := gen.(*Cached)
	require.True(t, ok)
	assert.Equal(t, DefaultOpenAIModel, cached.model)
}

func TestCached_Generate(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemoryClient(10)
	defer store.Close()

	next := &countingGenerator{text: "answer"}
	gen := NewCached(next, store, ProviderGemini, DefaultGeminiModel, time.Hour, nil)

	first, err := gen.Generate(ctx, "what is ois")
	require.NoError(t, err)
	second, err := gen.Generate(ctx, "what is ois")
	require.NoError(t, err)
	other, err := gen.Generate(ctx, "what is eis")
	require.NoError(t, err)

	assert.Equal(t, "answer: what is ois", first)
	assert.Equal(t, first, second)
	assert.Equal(t, "answer: what is eis", other)
	assert.Equal(t, int32(2), next.calls.Load())
}

func TestCached_Generate_ErrorNotCached(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemoryClient(10)
	defer store.Close()

	next := &countingGenerator{err: errors.New("quota exceeded")}
	gen := NewCached(next, store, ProviderOpenAI, DefaultOpenAIModel, time.Hour, nil)

	_, err := gen.Generate(ctx, "hello")
	require.Error(t, err)
	_, err = gen.Generate(ctx, "hello")
	require.Error(t, err)

	assert.Equal(t, int32(2), next.calls.Load())
	assert.Equal(t, 0, store.Len())
}

func TestWithRetry(t *testing.T) {
	logger := observability.NewNopLogger()

	t.Run("succeeds after failure", func(t *testing.T) {
		calls := 0
		text, err := withRetry(context.Background(), 3, time.Millisecond, logger, func() (string, error) {
			calls++
			if calls == 1 {
				return "", errors.New("unavailable")
			}
			return "  ok  ", nil
		})
		require.NoError(t, err)
		assert.Equal(t, "ok", text)
		assert.Equal(t, 2, calls)
	})

	t.Run("empty responses exhaust attempts", func(t *testing.T) {
		calls := 0
		_, err := withRetry(context.Background(), 2, time.Millisecond, logger, func() (string, error) {
			calls++
			return " ", nil
		})
		assert.ErrorIs(t, err, ErrEmptyResponse)
		assert.Equal(t, 2, calls)
	})

	t.Run("cancelled context stops retries", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := withRetry(ctx, 5, time.Hour, logger, func() (string, error) {
			return "", errors.New("unavailable")
		})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestOpenAI_Generate(t *testing.T) {
	var got struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1700000000,
			"model": "local-model",
			"choices": [{
				"index": 0,
				"finish_reason": "stop",
				"message": {"role": "assistant", "content": "OIS steadies the lens."}
			}]
		}`))
	}))
	defer srv.Close()

	gen, err := NewOpenAI(Config{
		APIKey:  "test-key",
		BaseURL: srv.URL + "/",
		Model:   "local-model",
	}, observability.NewNopLogger())
	require.NoError(t, err)

	text, err := gen.Generate(context.Background(), "Explain OIS")
	require.NoError(t, err)

	assert.Equal(t, "OIS steadies the lens.", text)
	assert.Equal(t, "local-model", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "Explain OIS", got.Messages[1].Content)
}
