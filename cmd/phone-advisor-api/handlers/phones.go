package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/spherical-ai/spherical/libs/phone-advisor/internal/api/rpc"
	"github.com/spherical-ai/spherical/libs/phone-advisor/internal/assistant"
	"github.com/spherical-ai/spherical/libs/phone-advisor/internal/catalog"
	"github.com/spherical-ai/spherical/libs/phone-advisor/internal/observability"
	"github.com/spherical-ai/spherical/libs/phone-advisor/internal/recommend"
	"github.com/spherical-ai/spherical/libs/phone-advisor/pkg/advisor"
)

// PhonesHandler serves read-only catalog endpoints.
type PhonesHandler struct {
	logger    *observability.Logger
	assistant *assistant.Assistant
}

// NewPhonesHandler creates a new phones handler.
func NewPhonesHandler(logger *observability.Logger, a *assistant.Assistant) *PhonesHandler {
	return &PhonesHandler{
		logger:    logger.WithComponent("phones_handler"),
		assistant: a,
	}
}

// PhoneListDTO is the body of list endpoints.
type PhoneListDTO struct {
	Phones []catalog.Item `json:"phones"`
	Total  int            `json:"total"`
	View   string         `json:"view,omitempty"`
}

// List handles GET /phones?brand=&category=&max=&limit=.
func (h *PhonesHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := advisor.ListPhonesRequest{
		Brand:    q.Get("brand"),
		Category: q.Get("category"),
	}

	var err error
	if req.MaxPrice, err = parseFloatParam(q.Get("max")); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "invalid max", err.Error())
		return
	}
	if req.Limit, err = parseIntParam(q.Get("limit")); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "invalid limit", err.Error())
		return
	}

	h.respondList(w, req)
}

// Get handles GET /phones/{id}.
func (h *PhonesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	it, ok := h.assistant.Catalog().Get(id)
	if !ok {
		writeError(w, h.logger, http.StatusNotFound, "phone not found", id)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, it)
}

// Leaders handles GET /phones/leaders/{view}?max=.
func (h *PhonesHandler) Leaders(w http.ResponseWriter, r *http.Request) {
	req := advisor.ListPhonesRequest{View: chi.URLParam(r, "view")}

	var err error
	if req.MaxPrice, err = parseFloatParam(r.URL.Query().Get("max")); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "invalid max", err.Error())
		return
	}

	h.respondList(w, req)
}

func (h *PhonesHandler) respondList(w http.ResponseWriter, req advisor.ListPhonesRequest) {
	items, err := rpc.SelectPhones(h.assistant, req)
	if err != nil {
		if errors.Is(err, recommend.ErrUnknownView) {
			writeError(w, h.logger, http.StatusBadRequest, "unknown view", err.Error())
			return
		}
		writeError(w, h.logger, http.StatusInternalServerError, "list failed", "")
		return
	}
	if items == nil {
		items = []catalog.Item{}
	}
	writeJSON(w, h.logger, http.StatusOK, PhoneListDTO{Phones: items, Total: len(items), View: req.View})
}

func parseFloatParam(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0, errors.New("must be a non-negative number")
	}
	return v, nil
}

func parseIntParam(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return 0, errors.New("must be a non-negative integer")
	}
	return v, nil
}
