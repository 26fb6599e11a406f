// Package advisor provides the public Go SDK for the phone advisor.
package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"connectrpc.com/connect"
)

// Connect procedure names served by the advisor API.
const (
	ServiceName         = "advisor.v1.AdvisorService"
	ServicePath         = "/" + ServiceName + "/"
	ChatProcedure       = ServicePath + "Chat"
	ListPhonesProcedure = ServicePath + "ListPhones"
)

// APIKeyHeader carries a plain API key on authenticated requests.
const APIKeyHeader = "X-API-Key"

// Client is the public SDK client for the phone advisor.
type Client struct {
	baseURL    string
	httpClient *http.Client
	apiKey     string
	chat       *connect.Client[ChatRequest, ChatResponse]
	listPhones *connect.Client[ListPhonesRequest, ListPhonesResponse]
}

// ClientConfig holds client configuration.
type ClientConfig struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// NewClient creates a new advisor client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8090"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")

	opts := []connect.ClientOption{connect.WithCodec(JSONCodec{})}
	if cfg.APIKey != "" {
		opts = append(opts, connect.WithInterceptors(apiKeyInterceptor(cfg.APIKey)))
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		apiKey:     cfg.APIKey,
		chat:       connect.NewClient[ChatRequest, ChatResponse](httpClient, baseURL+ChatProcedure, opts...),
		listPhones: connect.NewClient[ListPhonesRequest, ListPhonesResponse](httpClient, baseURL+ListPhonesProcedure, opts...),
	}, nil
}

// Chat sends one chat turn.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	resp, err := c.chat.CallUnary(ctx, connect.NewRequest(&req))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

// ListPhones lists catalog phones.
func (c *Client) ListPhones(ctx context.Context, req ListPhonesRequest) (*ListPhonesResponse, error) {
	resp, err := c.listPhones.CallUnary(ctx, connect.NewRequest(&req))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

// Health checks the service health.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return nil, fmt.Errorf("build health request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("health request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	var health HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return nil, fmt.Errorf("decode health response: %w", err)
	}
	return &health, nil
}

func apiKeyInterceptor(key string) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			req.Header().Set(APIKeyHeader, key)
			return next(ctx, req)
		}
	}
}
