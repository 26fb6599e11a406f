// Package rpc provides the Connect service implementation for the phone advisor.
package rpc

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"connectrpc.com/connect"
	"github.com/spherical-ai/spherical/libs/phone-advisor/internal/assistant"
	"github.com/spherical-ai/spherical/libs/phone-advisor/internal/catalog"
	"github.com/spherical-ai/spherical/libs/phone-advisor/internal/observability"
	"github.com/spherical-ai/spherical/libs/phone-advisor/internal/recommend"
	"github.com/spherical-ai/spherical/libs/phone-advisor/pkg/advisor"
)

// ErrNotConfigured is reported when a required collaborator failed to start.
var ErrNotConfigured = errors.New("service is missing required configuration")

// AdvisorService implements the Connect advisor service.
type AdvisorService struct {
	logger    *observability.Logger
	assistant *assistant.Assistant
	configErr error
}

// NewAdvisorService creates a new advisor service. A non-nil configErr makes
// every chat call fail with FailedPrecondition.
func NewAdvisorService(logger *observability.Logger, a *assistant.Assistant, configErr error) *AdvisorService {
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	return &AdvisorService{
		logger:    logger.WithComponent("rpc"),
		assistant: a,
		configErr: configErr,
	}
}

// NewHandler returns the mount path and handler serving every procedure.
func NewHandler(svc *AdvisorService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(advisor.JSONCodec{})}, opts...)

	mux := http.NewServeMux()
	mux.Handle(advisor.ChatProcedure, connect.NewUnaryHandler(advisor.ChatProcedure, svc.Chat, opts...))
	mux.Handle(advisor.ListPhonesProcedure, connect.NewUnaryHandler(advisor.ListPhonesProcedure, svc.ListPhones, opts...))
	return advisor.ServicePath, mux
}

// Chat handles one chat turn.
func (s *AdvisorService) Chat(ctx context.Context, req *connect.Request[advisor.ChatRequest]) (*connect.Response[advisor.ChatResponse], error) {
	start := time.Now()
	msg := req.Msg

	if strings.TrimSpace(msg.Query) == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, assistant.ErrEmptyQuery)
	}
	if s.configErr != nil {
		s.logger.Error().Err(s.configErr).Msg("Chat rejected, service misconfigured")
		return nil, connect.NewError(connect.CodeFailedPrecondition, ErrNotConfigured)
	}

	resp, err := s.assistant.Process(ctx, msg.Query, msg.ConversationHistory)
	if err != nil {
		if errors.Is(err, assistant.ErrEmptyQuery) {
			return nil, connect.NewError(connect.CodeInvalidArgument, err)
		}
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	s.logger.WithContext(ctx).Debug().
		Str("intent", string(resp.Intent)).
		Dur("latency", time.Since(start)).
		Msg("Chat served")

	return connect.NewResponse(ToChatResponse(resp)), nil
}

// ListPhones lists catalog phones, optionally as a leaderboard view.
func (s *AdvisorService) ListPhones(ctx context.Context, req *connect.Request[advisor.ListPhonesRequest]) (*connect.Response[advisor.ListPhonesResponse], error) {
	items, err := SelectPhones(s.assistant, *req.Msg)
	if err != nil {
		if errors.Is(err, recommend.ErrUnknownView) {
			return nil, connect.NewError(connect.CodeInvalidArgument, err)
		}
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	out := &advisor.ListPhonesResponse{
		Phones: make([]advisor.Phone, 0, len(items)),
		Total:  len(items),
	}
	for _, it := range items {
		out.Phones = append(out.Phones, ToPhone(it))
	}
	return connect.NewResponse(out), nil
}

// SelectPhones applies a list request to the assistant's catalog. A view
// ranks the phones; otherwise catalog order is kept.
func SelectPhones(a *assistant.Assistant, req advisor.ListPhonesRequest) ([]catalog.Item, error) {
	var items []catalog.Item
	if req.View != "" {
		view, err := a.Engine().View(req.View, req.MaxPrice)
		if err != nil {
			return nil, err
		}
		items = view
	} else {
		items = a.Catalog().Items()
	}

	out := make([]catalog.Item, 0, len(items))
	for _, it := range items {
		if req.Brand != "" && !strings.EqualFold(it.Brand, req.Brand) {
			continue
		}
		if req.Category != "" && string(it.Category) != req.Category {
			continue
		}
		if req.MaxPrice > 0 && it.Price.Current > req.MaxPrice {
			continue
		}
		out = append(out, it)
	}

	if req.Limit > 0 && len(out) > req.Limit {
		out = out[:req.Limit]
	}
	return out, nil
}
