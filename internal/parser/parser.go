// Package parser turns a screened chat utterance into a ParsedQuery: an
// intent plus the budget, brand, feature, category, phone-name and topic
// constraints found in the text. Parsing is a pure function of its input.
package parser

import (
	"math"
	"sort"
	"strings"

	"github.com/spherical-ai/spherical/libs/phone-advisor/internal/catalog"
)

// Intent is the coarse action an utterance asks for.
type Intent string

const (
	IntentSearch          Intent = "search"
	IntentCompare         Intent = "compare"
	IntentRecommend       Intent = "recommend"
	IntentExplain         Intent = "explain"
	IntentDetails         Intent = "details"
	IntentGeneral         Intent = "general"
	IntentSafetyViolation Intent = "safety_violation"
)

// DefaultMaxHistory is how many prior turns are kept.
const DefaultMaxHistory = 6

// ParsedQuery is the structured reading of one utterance.
type ParsedQuery struct {
	Intent            Intent              `json:"intent"`
	Confidence        float64             `json:"confidence"`
	Budget            *catalog.PriceRange `json:"budget,omitempty"`
	ApproximateBudget bool                `json:"approximateBudget,omitempty"`
	Brands            []string            `json:"brands,omitempty"`
	Features          []string            `json:"features,omitempty"`
	Category          catalog.Category    `json:"category,omitempty"`
	PhoneNames        []string            `json:"phoneNames,omitempty"`
	Topic             string              `json:"topic,omitempty"`

	// History holds the most recent prior turns, oldest first. It is carried
	// for downstream context only; extraction reads the utterance alone.
	History []string `json:"-"`
}

// HasFeature reports whether feature was extracted.
func (q ParsedQuery) HasFeature(feature string) bool {
	for _, f := range q.Features {
		if f == feature {
			return true
		}
	}
	return false
}

// Parser extracts ParsedQuery values. The zero value is not usable; call New.
type Parser struct {
	maxHistory int
}

// Option configures a Parser.
type Option func(*Parser)

// WithMaxHistory sets how many prior turns are retained.
func WithMaxHistory(n int) Option {
	return func(p *Parser) {
		if n >= 0 {
			p.maxHistory = n
		}
	}
}

// New creates a parser.
func New(opts ...Option) *Parser {
	p := &Parser{maxHistory: DefaultMaxHistory}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Normalize lower-cases, trims and collapses whitespace, and removes digit
// grouping commas.
func Normalize(utterance string) string {
	s := strings.ToLower(strings.TrimSpace(utterance))
	s = strings.Join(strings.Fields(s), " ")
	return stripDigitGroups(s)
}

// Parse reads utterance. Fields that cannot be extracted are left empty;
// Parse never fails.
func (p *Parser) Parse(utterance string, history []string) ParsedQuery {
	s := Normalize(utterance)

	intent, confidence := classify(s)
	q := ParsedQuery{
		Intent:     intent,
		Confidence: confidence,
		Brands:     matchLabels(brandRules, s),
		Features:   matchLabels(featureRules, s),
		Category:   matchCategory(s),
		History:    lastN(history, p.maxHistory),
	}
	q.Budget, q.ApproximateBudget = extractBudget(s)

	switch intent {
	case IntentCompare, IntentDetails:
		q.PhoneNames = extractPhoneNames(s)
	case IntentExplain:
		q.Topic = extractTopic(s)
	}

	return q
}

// classify scores each intent by the number of its patterns that match.
// The first intent with the highest score wins; no match gives general.
func classify(s string) (Intent, float64) {
	best, bestScore := -1, 0
	for i, r := range intentRules {
		if n := r.matches(s); n > bestScore {
			best, bestScore = i, n
		}
	}
	if best < 0 {
		return IntentGeneral, 0.5
	}

	r := intentRules[best]
	return Intent(r.label), confidence(bestScore, len(r.patterns))
}

func confidence(matches, total int) float64 {
	if total == 0 {
		return 0.5
	}
	return math.Min(0.9, 0.3+float64(matches)/float64(total)*0.6)
}

func matchLabels(rules []rule, s string) []string {
	var out []string
	for _, r := range rules {
		if r.matches(s) > 0 {
			out = append(out, r.label)
		}
	}
	return out
}

func matchCategory(s string) catalog.Category {
	for _, r := range categoryRules {
		if r.matches(s) > 0 {
			return catalog.Category(r.label)
		}
	}
	return ""
}

func extractTopic(s string) string {
	for _, r := range topicRules {
		if r.matches(s) > 0 {
			return r.label
		}
	}
	return ""
}

// extractPhoneNames returns model-name fragments in the order they appear.
func extractPhoneNames(s string) []string {
	type span struct {
		start, end int
	}
	var spans []span
	for _, p := range phoneNamePatterns {
		for _, loc := range p.FindAllStringIndex(s, -1) {
			spans = append(spans, span{loc[0], loc[1]})
		}
	}
	sort.SliceStable(spans, func(i, j int) bool {
		if spans[i].start != spans[j].start {
			return spans[i].start < spans[j].start
		}
		return spans[i].end > spans[j].end
	})

	var out []string
	seen := make(map[string]bool)
	lastEnd := -1
	for _, sp := range spans {
		if sp.start < lastEnd {
			continue
		}
		name := strings.TrimSpace(s[sp.start:sp.end])
		lastEnd = sp.end
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}

func lastN(history []string, n int) []string {
	if len(history) > n {
		history = history[len(history)-n:]
	}
	if len(history) == 0 {
		return nil
	}
	out := make([]string, len(history))
	copy(out, history)
	return out
}
