// Package assistant sequences one chat turn: safety screening, query
// parsing, intent dispatch and response assembly.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spherical-ai/spherical/libs/phone-advisor/internal/catalog"
	"github.com/spherical-ai/spherical/libs/phone-advisor/internal/generation"
	"github.com/spherical-ai/spherical/libs/phone-advisor/internal/monitoring"
	"github.com/spherical-ai/spherical/libs/phone-advisor/internal/observability"
	"github.com/spherical-ai/spherical/libs/phone-advisor/internal/parser"
	"github.com/spherical-ai/spherical/libs/phone-advisor/internal/recommend"
	"github.com/spherical-ai/spherical/libs/phone-advisor/internal/safety"
)

// ErrEmptyQuery is returned when the utterance is blank.
var ErrEmptyQuery = errors.New("query is required")

// NoResultsPolicy decides what a turn shows when nothing matches.
type NoResultsPolicy string

const (
	// PolicyGuidance returns no phones and a message suggesting a refined query.
	PolicyGuidance NoResultsPolicy = "guidance"
	// PolicyAlternatives returns top-rated phones that still honour the budget.
	PolicyAlternatives NoResultsPolicy = "alternatives"
)

// lookupMissPenalty scales confidence when named phones cannot be resolved.
const lookupMissPenalty = 0.75

// Config tunes an Assistant.
type Config struct {
	NoResultsPolicy    NoResultsPolicy
	MaxHistory         int
	SearchLimit        int
	FeatureRatingFloor float64
	PopularPhoneIDs    []string
	ToxicMatch         safety.MatchMode
	MaxSanitizedLength int
}

// DefaultConfig returns the standard settings.
func DefaultConfig() Config {
	return Config{
		NoResultsPolicy:    PolicyGuidance,
		MaxHistory:         parser.DefaultMaxHistory,
		SearchLimit:        6,
		FeatureRatingFloor: 4.0,
		PopularPhoneIDs:    []string{"iphone-15-pro", "pixel-8a", "samsung-galaxy-s24"},
		ToxicMatch:         safety.MatchToken,
		MaxSanitizedLength: safety.DefaultMaxLength,
	}
}

// Comparison is the payload of a compare turn.
type Comparison struct {
	Phones   []catalog.Item `json:"phones"`
	Analysis string         `json:"analysis"`
	WinnerID string         `json:"winner"`
}

// Response is the outcome of one chat turn. It is owned by the caller.
type Response struct {
	Message        string            `json:"message"`
	Phones         []catalog.Item    `json:"phones,omitempty"`
	Comparison     *Comparison       `json:"comparison,omitempty"`
	Recommendation *recommend.Result `json:"recommendation,omitempty"`
	Intent         parser.Intent     `json:"intent"`
	Confidence     float64           `json:"confidence"`
	Safety         safety.Verdict    `json:"safetyCheck"`
	Degraded       bool              `json:"degraded,omitempty"`

	outcome string
}

// Auditor records turn events.
type Auditor interface {
	LogTurn(ctx context.Context, event monitoring.TurnEvent) error
}

// Assistant answers chat turns against an immutable catalog. It holds no
// per-turn state and is safe for concurrent use.
type Assistant struct {
	logger    *observability.Logger
	catalog   *catalog.Catalog
	filter    *safety.Filter
	parser    *parser.Parser
	engine    *recommend.Engine
	generator generation.Generator
	auditor   Auditor
	config    Config
}

// Option configures optional collaborators.
type Option func(*Assistant)

// WithGenerator enables generated enrichment of explain and general turns.
func WithGenerator(g generation.Generator) Option {
	return func(a *Assistant) { a.generator = g }
}

// WithAuditor records every turn with aud.
func WithAuditor(aud Auditor) Option {
	return func(a *Assistant) { a.auditor = aud }
}

// New creates an assistant over cat.
func New(logger *observability.Logger, cat *catalog.Catalog, cfg Config, opts ...Option) *Assistant {
	def := DefaultConfig()
	if cfg.NoResultsPolicy != PolicyAlternatives {
		cfg.NoResultsPolicy = PolicyGuidance
	}
	if cfg.MaxHistory <= 0 {
		cfg.MaxHistory = def.MaxHistory
	}
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = def.SearchLimit
	}
	if cfg.FeatureRatingFloor < 0 {
		cfg.FeatureRatingFloor = 0
	}
	if cfg.PopularPhoneIDs == nil {
		cfg.PopularPhoneIDs = def.PopularPhoneIDs
	}
	if cfg.MaxSanitizedLength <= 0 {
		cfg.MaxSanitizedLength = def.MaxSanitizedLength
	}
	if logger == nil {
		logger = observability.NewNopLogger()
	}

	a := &Assistant{
		logger:  logger.WithComponent("assistant"),
		catalog: cat,
		filter:  safety.NewFilter(safety.Config{ToxicMatch: cfg.ToxicMatch}),
		parser:  parser.New(parser.WithMaxHistory(cfg.MaxHistory)),
		engine:  recommend.NewEngine(cat, recommend.DefaultConfig(), logger),
		config:  cfg,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Engine exposes the recommendation engine used by the assistant.
func (a *Assistant) Engine() *recommend.Engine {
	return a.engine
}

// Catalog returns the catalog the assistant answers from.
func (a *Assistant) Catalog() *catalog.Catalog {
	return a.catalog
}

// Process answers one utterance. The only error is ErrEmptyQuery; every
// other failure is absorbed into a degraded response.
func (a *Assistant) Process(ctx context.Context, utterance string, history []string) (*Response, error) {
	if strings.TrimSpace(utterance) == "" {
		return nil, ErrEmptyQuery
	}
	start := time.Now()
	log := a.logger.WithContext(ctx)

	resp := a.run(ctx, utterance, history)

	log.Debug().
		Str("intent", string(resp.Intent)).
		Float64("confidence", resp.Confidence).
		Int("phones", len(resp.Phones)).
		Bool("degraded", resp.Degraded).
		Dur("latency", time.Since(start)).
		Msg("Processed chat turn")

	a.audit(ctx, utterance, resp, time.Since(start))
	return resp, nil
}

// run executes the pipeline and converts panics and unexpected errors into
// a degraded response.
func (a *Assistant) run(ctx context.Context, utterance string, history []string) (resp *Response) {
	var q parser.ParsedQuery

	defer func() {
		if r := recover(); r != nil {
			a.logger.WithContext(ctx).Error().
				Err(fmt.Errorf("panic: %v", r)).
				Str("intent", string(q.Intent)).
				Msg("Chat turn panicked, degrading")
			resp = a.degraded(q)
		}
	}()

	verdict := a.filter.Check(utterance)
	if !verdict.Passed {
		return &Response{
			Message:    safety.RedirectMessage(verdict),
			Intent:     parser.IntentSafetyViolation,
			Confidence: 1,
			Safety:     verdict,
			outcome:    monitoring.OutcomeSafetyViolation,
		}
	}

	q = a.parser.Parse(utterance, history)

	var err error
	switch q.Intent {
	case parser.IntentSearch:
		resp, err = a.handleSearch(q)
	case parser.IntentCompare:
		resp, err = a.handleCompare(q, utterance)
	case parser.IntentRecommend:
		resp, err = a.handleRecommend(q)
	case parser.IntentExplain:
		resp, err = a.handleExplain(ctx, q)
	case parser.IntentDetails:
		resp, err = a.handleDetails(q, utterance)
	default:
		resp, err = a.handleGeneral(ctx, q, utterance)
	}
	if err != nil {
		a.logger.WithContext(ctx).Error().
			Err(err).
			Str("intent", string(q.Intent)).
			Msg("Chat turn failed, degrading")
		return a.degraded(q)
	}

	resp.Safety = verdict
	if resp.Intent == "" {
		resp.Intent = q.Intent
	}
	return resp
}

func (a *Assistant) degraded(q parser.ParsedQuery) *Response {
	intent := q.Intent
	if intent == "" {
		intent = parser.IntentGeneral
	}
	return &Response{
		Message:    msgDegraded,
		Phones:     a.catalog.TopRated(3),
		Intent:     intent,
		Confidence: 0,
		Safety:     safety.Verdict{Passed: true},
		Degraded:   true,
		outcome:    monitoring.OutcomeDegraded,
	}
}

func (a *Assistant) audit(ctx context.Context, utterance string, resp *Response, latency time.Duration) {
	if a.auditor == nil {
		return
	}

	flags := make([]string, len(resp.Safety.Flags))
	for i, f := range resp.Safety.Flags {
		flags[i] = string(f)
	}

	event := monitoring.TurnEvent{
		Intent:      string(resp.Intent),
		Confidence:  resp.Confidence,
		Outcome:     resp.outcome,
		Flags:       flags,
		ResultCount: len(resp.Phones),
		Query:       a.sanitize(utterance),
		LatencyMs:   latency.Milliseconds(),
	}
	if err := a.auditor.LogTurn(ctx, event); err != nil {
		a.logger.WithContext(ctx).Warn().Err(err).Msg("Audit failed")
	}
}

func (a *Assistant) sanitize(s string) string {
	return safety.SanitizeN(s, a.config.MaxSanitizedLength)
}

func (a *Assistant) criteria(q parser.ParsedQuery) recommend.Criteria {
	return recommend.Criteria{
		Budget:   q.Budget,
		Brands:   q.Brands,
		Features: q.Features,
		Category: q.Category,
	}
}

// resolvePhones maps extracted name fragments to catalog phones, then tops
// up from catalog names mentioned verbatim. Order follows the utterance.
func (a *Assistant) resolvePhones(q parser.ParsedQuery, utterance string, want int) ([]catalog.Item, []string) {
	var (
		phones []catalog.Item
		missed []string
	)
	seen := make(map[string]bool)
	add := func(it catalog.Item) {
		if !seen[it.ID] {
			seen[it.ID] = true
			phones = append(phones, it)
		}
	}

	for _, name := range q.PhoneNames {
		it, err := a.catalog.FindByName(name)
		if err != nil {
			missed = append(missed, name)
			continue
		}
		add(it)
	}
	if len(phones) < want {
		for _, it := range a.catalog.MentionedIn(utterance) {
			add(it)
		}
	}
	return phones, missed
}

func (a *Assistant) popularPhones() []catalog.Item {
	var out []catalog.Item
	for _, id := range a.config.PopularPhoneIDs {
		if it, ok := a.catalog.Get(id); ok {
			out = append(out, it)
		}
	}
	return out
}
