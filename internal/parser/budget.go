package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/spherical-ai/spherical/libs/phone-advisor/internal/catalog"
)

// ApproximateSlack widens the upper bound of "around X" budgets.
const ApproximateSlack = 1.2

// amount captures a number with an optional currency prefix and unit suffix.
// A trailing currency word may be glued on ("30000rs").
const amount = `(?:₹|rs\.?|inr)?\s?(\d+(?:\.\d+)?)\s?(k|lakhs?|lacs?)?(?:\s?(?:rs|rupees|inr)\.?)?\b`

// specUnit follows numbers that are specifications, not prices.
var specUnit = regexp.MustCompile(`(?i)^\s?(?:gb|tb|mp|mah|hz|w|watts?|inch(?:es)?|nm)\b`)

// modelMax is the "max" of model names such as "iphone 15 pro max".
var modelMax = regexp.MustCompile(`(?i)\b(pro|ultra)\s+max\b`)

type budgetKind int

const (
	budgetRange budgetKind = iota
	budgetUpper
	budgetApprox
)

type budgetRule struct {
	kind    budgetKind
	pattern *regexp.Regexp
}

// budgetRules are tried in order and the first match wins. Ranges come first
// so "between 20k and 30k budget" is not read as a single bound.
var budgetRules = []budgetRule{
	{budgetRange, regexp.MustCompile(`(?i)between\s+` + amount + `\s+(?:and|to|-)\s+` + amount)},
	{budgetRange, regexp.MustCompile(`(?i)(?:from\s+)?` + amount + `\s*(?:-|to)\s*` + amount + `\s+(?:budget|range)`)},
	{budgetUpper, regexp.MustCompile(`(?i)(?:under|below|less\s+than|within|upto|up\s+to|max(?:imum)?|not\s+more\s+than)\s+` + amount)},
	{budgetUpper, regexp.MustCompile(`(?i)` + amount + `\s+(?:budget|range)`)},
	{budgetUpper, regexp.MustCompile(`(?i)budget\s+(?:of\s+|is\s+)?` + amount)},
	{budgetApprox, regexp.MustCompile(`(?i)(?:around|about|approximately|approx\.?|roughly|near)\s+` + amount)},
}

var digitGroup = regexp.MustCompile(`(\d),(\d)`)

// stripDigitGroups turns "1,34,900" into "134900".
func stripDigitGroups(s string) string {
	for {
		next := digitGroup.ReplaceAllString(s, "$1$2")
		if next == s {
			return s
		}
		s = next
	}
}

// extractBudget returns the budget range and whether it was approximate.
func extractBudget(s string) (*catalog.PriceRange, bool) {
	s = modelMax.ReplaceAllString(s, "$1")
	for _, r := range budgetRules {
		m := findPrice(r.pattern, s)
		if m == nil {
			continue
		}

		switch r.kind {
		case budgetRange:
			lo, okLo := parseAmount(m[1], m[2])
			hi, okHi := parseAmount(m[3], m[4])
			if !okLo || !okHi {
				continue
			}
			if lo > hi {
				lo, hi = hi, lo
			}
			return &catalog.PriceRange{Min: lo, Max: hi}, false
		case budgetUpper:
			hi, ok := parseAmount(m[1], m[2])
			if !ok {
				continue
			}
			return &catalog.PriceRange{Min: 0, Max: hi}, false
		case budgetApprox:
			hi, ok := parseAmount(m[1], m[2])
			if !ok {
				continue
			}
			return &catalog.PriceRange{Min: 0, Max: hi * ApproximateSlack}, true
		}
	}
	return nil, false
}

// findPrice returns the submatches of the first match of re that is not
// followed by a specification unit ("max 256 gb").
func findPrice(re *regexp.Regexp, s string) []string {
	for _, loc := range re.FindAllStringSubmatchIndex(s, -1) {
		if specUnit.MatchString(s[loc[1]:]) {
			continue
		}
		m := make([]string, len(loc)/2)
		for i := range m {
			if loc[2*i] >= 0 {
				m[i] = s[loc[2*i]:loc[2*i+1]]
			}
		}
		return m
	}
	return nil
}

// parseAmount normalises a captured amount to rupees. Bare numbers below
// 1000 are read as thousands.
func parseAmount(num, unit string) (float64, bool) {
	v, err := strconv.ParseFloat(num, 64)
	if err != nil || v <= 0 {
		return 0, false
	}

	switch {
	case unit == "k" || unit == "K":
		v *= 1000
	case strings.HasPrefix(strings.ToLower(unit), "la"):
		v *= 100000
	case v < 1000:
		v *= 1000
	}
	return v, true
}
