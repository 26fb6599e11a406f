package advisor

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.Handle(ChatProcedure, connect.NewUnaryHandler(ChatProcedure,
		func(_ context.Context, req *connect.Request[ChatRequest]) (*connect.Response[ChatResponse], error) {
			if req.Msg.Query == "" {
				return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("query is required"))
			}
			return connect.NewResponse(&ChatResponse{
				Message:     "echo: " + req.Msg.Query + " key=" + req.Header().Get(APIKeyHeader),
				Intent:      "general",
				Confidence:  0.5,
				SafetyCheck: SafetyCheck{Passed: true},
			}), nil
		},
		connect.WithCodec(JSONCodec{}),
	))

	mux.Handle(ListPhonesProcedure, connect.NewUnaryHandler(ListPhonesProcedure,
		func(_ context.Context, req *connect.Request[ListPhonesRequest]) (*connect.Response[ListPhonesResponse], error) {
			return connect.NewResponse(&ListPhonesResponse{
				Phones: []Phone{{ID: "pixel-8a", Brand: req.Msg.Brand}},
				Total:  1,
			}), nil
		},
		connect.WithCodec(JSONCodec{}),
	))

	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"healthy","service":"phone-advisor"}`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Chat(t *testing.T) {
	srv := newTestServer(t)
	client, err := NewClient(ClientConfig{BaseURL: srv.URL + "/", APIKey: "secret"})
	require.NoError(t, err)

	resp, err := client.Chat(context.Background(), ChatRequest{Query: "hello"})
	require.NoError(t, err)

	assert.Equal(t, "echo: hello key=secret", resp.Message)
	assert.Equal(t, "general", resp.Intent)
	assert.True(t, resp.SafetyCheck.Passed)
}

func TestClient_Chat_InvalidArgument(t *testing.T) {
	srv := newTestServer(t)
	client, err := NewClient(ClientConfig{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = client.Chat(context.Background(), ChatRequest{})
	require.Error(t, err)
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
}

func TestClient_ListPhones(t *testing.T) {
	srv := newTestServer(t)
	client, err := NewClient(ClientConfig{BaseURL: srv.URL})
	require.NoError(t, err)

	resp, err := client.ListPhones(context.Background(), ListPhonesRequest{Brand: "Google"})
	require.NoError(t, err)

	require.Len(t, resp.Phones, 1)
	assert.Equal(t, "pixel-8a", resp.Phones[0].ID)
	assert.Equal(t, "Google", resp.Phones[0].Brand)
	assert.Equal(t, 1, resp.Total)
}

func TestClient_Health(t *testing.T) {
	srv := newTestServer(t)
	client, err := NewClient(ClientConfig{BaseURL: srv.URL})
	require.NoError(t, err)

	health, err := client.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "healthy", health.Status)
}

func TestJSONCodec(t *testing.T) {
	codec := JSONCodec{}
	assert.Equal(t, "json", codec.Name())

	data, err := codec.Marshal(ChatRequest{Query: "hi", ConversationHistory: []string{"a"}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"query":"hi","conversationHistory":["a"]}`, string(data))
}
