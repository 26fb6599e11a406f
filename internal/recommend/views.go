package recommend

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spherical-ai/spherical/libs/phone-advisor/internal/catalog"
)

// ErrUnknownView is returned by View for an unrecognised view name.
var ErrUnknownView = errors.New("unknown leaderboard view")

// Leaderboard view names.
const (
	ViewCamera  = "camera"
	ViewGaming  = "gaming"
	ViewValue   = "value"
	ViewCompact = "compact"
	ViewBattery = "battery"
)

// View thresholds.
const (
	CameraLeaderMin  = 4.2
	GamingLeaderMin  = 4.3
	CompactMaxInches = 6.2
	BatteryLeaderMAh = 4500
)

// Views lists the leaderboard view names.
func Views() []string {
	return []string{ViewCamera, ViewGaming, ViewValue, ViewCompact, ViewBattery}
}

// View dispatches a leaderboard by name. A positive ceiling bounds the price;
// zero leaves it unbounded.
func (e *Engine) View(name string, ceiling float64) ([]catalog.Item, error) {
	var budget *catalog.PriceRange
	if ceiling > 0 {
		budget = &catalog.PriceRange{Min: 0, Max: ceiling}
	}

	switch name {
	case ViewCamera:
		return e.CameraLeaders(budget), nil
	case ViewGaming:
		return e.GamingLeaders(budget), nil
	case ViewValue:
		if budget == nil {
			budget = &catalog.PriceRange{Max: maxPrice(e.catalog.Items())}
		}
		return e.BudgetValue(budget.Max), nil
	case ViewCompact:
		return withinBudget(e.Compact(), budget), nil
	case ViewBattery:
		return withinBudget(e.BatteryLeaders(), budget), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownView, name)
}

// CameraLeaders returns camera-tagged phones rated at least 4.2 for camera,
// best camera first.
func (e *Engine) CameraLeaders(budget *catalog.PriceRange) []catalog.Item {
	out := e.selectItems(func(it catalog.Item) bool {
		return it.Rating.Camera >= CameraLeaderMin && it.HasTag("camera")
	})
	out = withinBudget(out, budget)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Rating.Camera > out[j].Rating.Camera
	})
	return out
}

// GamingLeaders returns gaming or performance tagged phones rated at least
// 4.3 for performance, fastest first.
func (e *Engine) GamingLeaders(budget *catalog.PriceRange) []catalog.Item {
	out := e.selectItems(func(it catalog.Item) bool {
		return it.Rating.Performance >= GamingLeaderMin && (it.HasTag("gaming") || it.HasTag("performance"))
	})
	out = withinBudget(out, budget)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Rating.Performance > out[j].Rating.Performance
	})
	return out
}

// BudgetValue returns phones priced at or under ceiling ordered by rating per
// ₹10,000.
func (e *Engine) BudgetValue(ceiling float64) []catalog.Item {
	out := e.selectItems(func(it catalog.Item) bool {
		return it.Price.Current <= ceiling
	})
	sort.SliceStable(out, func(i, j int) bool {
		return valueRatio(out[i]) > valueRatio(out[j])
	})
	return out
}

// Compact returns phones with a display of at most 6.2 inches, best rated
// first.
func (e *Engine) Compact() []catalog.Item {
	out := e.selectItems(func(it catalog.Item) bool {
		size := it.DisplaySizeInches()
		return size > 0 && size <= CompactMaxInches
	})
	sortByOverall(out)
	return out
}

// BatteryLeaders returns phones with at least 4500 mAh, largest first.
func (e *Engine) BatteryLeaders() []catalog.Item {
	out := e.selectItems(func(it catalog.Item) bool {
		return it.BatteryMAh() >= BatteryLeaderMAh
	})
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].BatteryMAh() > out[j].BatteryMAh()
	})
	return out
}

func (e *Engine) selectItems(keep func(catalog.Item) bool) []catalog.Item {
	var out []catalog.Item
	for _, it := range e.catalog.Items() {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}

func withinBudget(items []catalog.Item, budget *catalog.PriceRange) []catalog.Item {
	if budget == nil {
		return items
	}
	var out []catalog.Item
	for _, it := range items {
		if budget.Contains(it.Price.Current) {
			out = append(out, it)
		}
	}
	return out
}

func valueRatio(it catalog.Item) float64 {
	return it.Rating.Overall / (it.Price.Current / 10000)
}

func maxPrice(items []catalog.Item) float64 {
	var m float64
	for _, it := range items {
		if it.Price.Current > m {
			m = it.Price.Current
		}
	}
	return m
}
