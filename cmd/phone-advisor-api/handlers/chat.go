package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/spherical-ai/spherical/libs/phone-advisor/internal/assistant"
	"github.com/spherical-ai/spherical/libs/phone-advisor/internal/observability"
	"github.com/spherical-ai/spherical/libs/phone-advisor/internal/parser"
	"github.com/spherical-ai/spherical/libs/phone-advisor/pkg/advisor"
)

// ChatHandler handles chat turns.
type ChatHandler struct {
	logger       *observability.Logger
	assistant    *assistant.Assistant
	configErr    error
	maxBodyBytes int64
}

// NewChatHandler creates a new chat handler. A non-nil configErr makes every
// chat request fail with 500 until the configuration is fixed.
func NewChatHandler(logger *observability.Logger, a *assistant.Assistant, configErr error, maxBodyBytes int64) *ChatHandler {
	return &ChatHandler{
		logger:       logger.WithComponent("chat_handler"),
		assistant:    a,
		configErr:    configErr,
		maxBodyBytes: maxBodyBytes,
	}
}

// ChatInfo is the body of GET /api/chat.
type ChatInfo struct {
	Service string   `json:"service"`
	Status  string   `json:"status"`
	Usage   string   `json:"usage"`
	Intents []string `json:"intents"`
}

// Chat handles POST /api/chat.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := h.logger.WithContext(ctx)

	if h.maxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	}

	var req advisor.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, h.logger, http.StatusBadRequest, "query is required", "")
		return
	}
	if h.configErr != nil {
		log.Error().Err(h.configErr).Msg("Chat rejected, service misconfigured")
		writeError(w, h.logger, http.StatusInternalServerError, "service is not configured", h.configErr.Error())
		return
	}

	resp, err := h.assistant.Process(ctx, req.Query, req.ConversationHistory)
	if err != nil {
		if errors.Is(err, assistant.ErrEmptyQuery) {
			writeError(w, h.logger, http.StatusBadRequest, "query is required", "")
			return
		}
		log.Error().Err(err).Msg("Chat failed")
		writeError(w, h.logger, http.StatusInternalServerError, "chat failed", "")
		return
	}

	writeJSON(w, h.logger, http.StatusOK, resp)
}

// Info handles GET /api/chat.
func (h *ChatHandler) Info(w http.ResponseWriter, r *http.Request) {
	status := "ready"
	if h.configErr != nil {
		status = "misconfigured"
	}
	writeJSON(w, h.logger, http.StatusOK, ChatInfo{
		Service: "phone-advisor",
		Status:  status,
		Usage:   `POST {"query": "...", "conversationHistory": ["..."]}`,
		Intents: []string{
			string(parser.IntentSearch),
			string(parser.IntentCompare),
			string(parser.IntentRecommend),
			string(parser.IntentExplain),
			string(parser.IntentDetails),
			string(parser.IntentGeneral),
		},
	})
}
