// Package recommend filters and ranks catalog phones against extracted
// constraints.
package recommend

import (
	"errors"
	"sort"
	"strconv"
	"strings"

	"github.com/spherical-ai/spherical/libs/phone-advisor/internal/catalog"
	"github.com/spherical-ai/spherical/libs/phone-advisor/internal/observability"
)

// ErrNoCandidates is returned when neither the filter nor the budget
// fallback leaves any phone to rank.
var ErrNoCandidates = errors.New("no candidate phones")

// Scoring weights. The overall-rating term is added unweighted.
const (
	WeightPrice       = 0.25
	WeightPerformance = 0.20
	WeightCamera      = 0.20
	WeightBattery     = 0.15
	WeightDisplay     = 0.10
	WeightDesign      = 0.10

	CategoryBonus     = 0.10
	BrandBonus        = 0.10
	AvailabilityBonus = 0.05
)

// Criteria are the constraints a ranking request carries. Zero values mean
// "unconstrained".
type Criteria struct {
	Budget   *catalog.PriceRange `json:"budget,omitempty"`
	Brands   []string            `json:"brands,omitempty"`
	Features []string            `json:"features,omitempty"`
	Category catalog.Category    `json:"category,omitempty"`

	// MinFeatureRating, when positive, drops phones rated below it on any
	// requested feature that has a rating dimension.
	MinFeatureRating float64 `json:"minFeatureRating,omitempty"`
}

func (c Criteria) wants(feature string) bool {
	for _, f := range c.Features {
		if strings.EqualFold(f, feature) {
			return true
		}
	}
	return false
}

func (c Criteria) prefersBrand(brand string) bool {
	for _, b := range c.Brands {
		if strings.EqualFold(b, brand) {
			return true
		}
	}
	return false
}

// Scored pairs a phone with its ranking score.
type Scored struct {
	Item  catalog.Item `json:"item"`
	Score float64      `json:"score"`
}

// Result is a ranked recommendation.
type Result struct {
	Primary      catalog.Item       `json:"primary"`
	Alternatives []catalog.Item     `json:"alternatives"`
	Reasoning    string             `json:"reasoning"`
	Scores       map[string]float64 `json:"scores,omitempty"`
	FromFallback bool               `json:"fromFallback,omitempty"`
}

// Config tunes an Engine.
type Config struct {
	FallbackLimit int
	Alternatives  int
}

// DefaultConfig returns the standard limits.
func DefaultConfig() Config {
	return Config{FallbackLimit: 6, Alternatives: 3}
}

// Engine ranks phones from a catalog. It never mutates the catalog and is
// safe for concurrent use.
type Engine struct {
	catalog *catalog.Catalog
	cfg     Config
	logger  *observability.Logger
}

// NewEngine creates an engine over cat.
func NewEngine(cat *catalog.Catalog, cfg Config, logger *observability.Logger) *Engine {
	def := DefaultConfig()
	if cfg.FallbackLimit <= 0 {
		cfg.FallbackLimit = def.FallbackLimit
	}
	if cfg.Alternatives < 0 {
		cfg.Alternatives = def.Alternatives
	}
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	return &Engine{catalog: cat, cfg: cfg, logger: logger.WithComponent("recommend")}
}

// Filter returns the phones satisfying every constraint in c, in catalog
// order. Requested features are OR-ed.
func (e *Engine) Filter(c Criteria) []catalog.Item {
	var out []catalog.Item
	for _, it := range e.catalog.Items() {
		if matches(it, c) {
			out = append(out, it)
		}
	}
	return out
}

func matches(it catalog.Item, c Criteria) bool {
	if c.Budget != nil && !c.Budget.Contains(it.Price.Current) {
		return false
	}
	if len(c.Brands) > 0 && !c.prefersBrand(it.Brand) {
		return false
	}
	if c.Category != "" && it.Category != c.Category {
		return false
	}
	if len(c.Features) > 0 {
		if !MatchesAnyFeature(it, c.Features) {
			return false
		}
		if c.MinFeatureRating > 0 && !meetsFloor(it, c.Features, c.MinFeatureRating) {
			return false
		}
	}
	return true
}

// Fallback returns the top-rated phones within budget, or across the whole
// catalog when budget is nil.
func (e *Engine) Fallback(budget *catalog.PriceRange) []catalog.Item {
	var out []catalog.Item
	for _, it := range e.catalog.Items() {
		if budget == nil || budget.Contains(it.Price.Current) {
			out = append(out, it)
		}
	}
	sortByOverall(out)
	return limit(out, e.cfg.FallbackLimit)
}

// Rank scores items and sorts them by descending score. Ties keep the input
// order.
func (e *Engine) Rank(items []catalog.Item, c Criteria) []Scored {
	ranked := make([]Scored, len(items))
	for i, it := range items {
		ranked[i] = Scored{Item: it, Score: Score(it, c)}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

// Search returns up to n filtered phones ordered by overall rating. An
// empty result is returned as is; callers decide how to handle it.
func (e *Engine) Search(c Criteria, n int) []catalog.Item {
	items := e.Filter(c)
	sortByOverall(items)
	return limit(items, n)
}

// Recommend ranks the filtered phones, falling back to the top-rated phones
// in budget when nothing passes the filter.
func (e *Engine) Recommend(c Criteria) (*Result, error) {
	candidates := e.Filter(c)
	fallback := false
	if len(candidates) == 0 {
		candidates = e.Fallback(c.Budget)
		fallback = true
		e.logger.Debug().
			Int("fallback_count", len(candidates)).
			Msg("no phone matched criteria, using fallback")
	}
	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}

	ranked := e.Rank(candidates, c)
	res := &Result{
		Primary:      ranked[0].Item,
		Reasoning:    Reasoning(ranked[0].Item, c),
		Scores:       make(map[string]float64, len(ranked)),
		FromFallback: fallback,
	}
	for _, s := range ranked[1:] {
		if len(res.Alternatives) == e.cfg.Alternatives {
			break
		}
		res.Alternatives = append(res.Alternatives, s.Item)
	}
	for _, s := range ranked {
		res.Scores[s.Item.ID] = s.Score
	}
	return res, nil
}

// Score rates how well it fits c, in [0, 1].
func Score(it catalog.Item, c Criteria) float64 {
	r := it.Rating
	score := r.Overall / 5

	score += priceTerm(it.Price.Current, c.Budget)

	if c.wants("camera") {
		score += r.Camera / 5 * WeightCamera
	} else {
		score += r.Camera / 5 * WeightCamera * 0.5
	}
	if c.wants("gaming") || c.wants("performance") {
		score += r.Performance / 5 * WeightPerformance
	} else {
		score += r.Performance / 5 * WeightPerformance * 0.5
	}
	if c.wants("battery") {
		score += r.Battery / 5 * WeightBattery
	} else {
		score += r.Battery / 5 * WeightBattery * 0.5
	}
	score += r.Display / 5 * WeightDisplay
	score += r.Design / 5 * WeightDesign

	if c.Category != "" && c.Category == it.Category {
		score += CategoryBonus
	}
	if c.prefersBrand(it.Brand) {
		score += BrandBonus
	}
	if it.Availability == catalog.InStock {
		score += AvailabilityBonus
	}

	if score > 1 {
		return 1
	}
	if score < 0 {
		return 0
	}
	return score
}

// priceTerm rewards spending 70-90% of the budget span.
func priceTerm(price float64, budget *catalog.PriceRange) float64 {
	if budget == nil {
		return WeightPrice * 0.7
	}
	u := Utilization(price, *budget)
	switch {
	case u >= 0.7 && u <= 0.9:
		return WeightPrice
	case u < 0.7:
		return WeightPrice * 0.8
	default:
		return WeightPrice * 0.6
	}
}

// Utilization is the share of the budget span a price consumes. A
// zero-width budget counts as fully used.
func Utilization(price float64, budget catalog.PriceRange) float64 {
	span := budget.Span()
	if span <= 0 {
		return 1
	}
	return (price - budget.Min) / span
}

// Reasoning explains why it was picked for c.
func Reasoning(it catalog.Item, c Criteria) string {
	var reasons []string

	if c.Budget != nil {
		ceiling := catalog.FormatINR(c.Budget.Max)
		if it.Price.Current <= c.Budget.Max*0.8 {
			reasons = append(reasons, "excellent value within your budget of "+ceiling)
		} else {
			reasons = append(reasons, "makes good use of your "+ceiling+" budget")
		}
	}

	specs := it.Specifications
	if c.wants("camera") {
		reasons = append(reasons, "outstanding "+specs.Camera.Rear.Main+" camera system")
	}
	if c.wants("gaming") {
		reasons = append(reasons, "powerful "+specs.Processor.Chipset+" processor for gaming")
	}
	if c.wants("battery") {
		reasons = append(reasons, "robust "+specs.Battery.Capacity+" battery with "+specs.Battery.Charging.Wired+" fast charging")
	}
	if c.prefersBrand(it.Brand) {
		reasons = append(reasons, "from your preferred brand "+it.Brand)
	}
	if len(it.Highlights) > 0 {
		reasons = append(reasons, "featuring "+strings.Join(limitStrings(it.Highlights, 2), " and "))
	}
	if it.Rating.Overall >= 4.5 {
		reasons = append(reasons, "highly rated at "+FormatRating(it.Rating.Overall)+"/5 stars")
	}

	if len(reasons) == 0 {
		return "This phone offers a great balance of features and performance for your needs."
	}
	return "Recommended for " + strings.Join(reasons, ", ") + "."
}

// FormatRating prints a rating without trailing zeros, e.g. 4.5 or 4.
func FormatRating(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func sortByOverall(items []catalog.Item) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Rating.Overall > items[j].Rating.Overall
	})
}

func limit(items []catalog.Item, n int) []catalog.Item {
	if n >= 0 && len(items) > n {
		return items[:n]
	}
	return items
}

func limitStrings(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
