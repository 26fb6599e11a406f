package generation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/spherical-ai/spherical/libs/phone-advisor/internal/observability"
)

// Gemini generates text with Google's Gemini models.
type Gemini struct {
	client   *genai.Client
	model    *genai.GenerativeModel
	timeout  time.Duration
	attempts int
	delay    time.Duration
	logger   *observability.Logger
}

// NewGemini creates a Gemini generator.
func NewGemini(ctx context.Context, cfg Config, logger *observability.Logger) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: %w", ErrMissingAPIKey)
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	model := client.GenerativeModel(cfg.Model)
	model.SetTemperature(float32(cfg.Temperature))
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(SystemPrompt)},
	}

	return &Gemini{
		client:   client,
		model:    model,
		timeout:  cfg.Timeout,
		attempts: cfg.MaxRetries + 1,
		delay:    time.Second,
		logger:   logger.WithComponent("gemini"),
	}, nil
}

// Generate implements Generator.
func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	return withRetry(ctx, g.attempts, g.delay, g.logger, func() (string, error) {
		resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
		if err != nil {
			return "", err
		}
		return extractText(resp), nil
	})
}

// Close releases the underlying client.
func (g *Gemini) Close() error {
	return g.client.Close()
}

func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	content := resp.Candidates[0].Content
	if content == nil {
		return ""
	}

	var b strings.Builder
	for _, part := range content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return b.String()
}
