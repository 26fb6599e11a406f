package generation

import (
	"context"
	"fmt"

	openai "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"

	"github.com/spherical-ai/spherical/libs/phone-advisor/internal/observability"
)

// OpenAI generates text through any OpenAI-compatible chat completions API,
// including self-hosted servers reachable through BaseURL.
type OpenAI struct {
	client      openai.Client
	model       string
	temperature float64
	logger      *observability.Logger
}

// NewOpenAI creates an OpenAI-compatible generator. Retries and timeouts
// are delegated to the SDK.
func NewOpenAI(cfg Config, logger *observability.Logger) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: %w", ErrMissingAPIKey)
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}

	return &OpenAI{
		client:      openai.NewClient(opts...),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		logger:      logger.WithComponent("openai"),
	}, nil
}

// Generate implements Generator.
func (o *OpenAI) Generate(ctx context.Context, prompt string) (string, error) {
	o.logger.Debug().Str("model", o.model).Msg("Sending chat completion request")

	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(SystemPrompt),
			openai.UserMessage(prompt),
		},
		Model:       shared.ChatModel(o.model),
		Temperature: openai.Float(o.temperature),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}
