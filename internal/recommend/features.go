package recommend

import (
	"strings"

	"github.com/spherical-ai/spherical/libs/phone-advisor/internal/catalog"
)

// featureTerms lists the catalog wording that counts as evidence for a
// feature label. Labels not listed here match on their own text.
var featureTerms = map[string][]string{
	"camera":       {"camera", "photo", "selfie", "zoom", "portrait"},
	"gaming":       {"gaming", "game", "performance"},
	"performance":  {"performance", "gaming", "processor"},
	"battery":      {"battery", "mah", "charging"},
	"display":      {"display", "screen", "amoled", "oled"},
	"design":       {"design", "premium", "lightweight", "compact", "slim"},
	"storage":      {"storage", "memory", "ram"},
	"connectivity": {"5g", "connectivity", "wifi", "nfc"},
	"audio":        {"audio", "speaker", "sound", "music"},
	"security":     {"fingerprint", "face unlock", "touch id", "security"},
	"waterproof":   {"water", "ip67", "ip68"},
}

// ratingFor returns the rating dimension backing feature, if any.
func ratingFor(it catalog.Item, feature string) (float64, bool) {
	switch strings.ToLower(feature) {
	case "camera":
		return it.Rating.Camera, true
	case "gaming", "performance":
		return it.Rating.Performance, true
	case "battery":
		return it.Rating.Battery, true
	case "display":
		return it.Rating.Display, true
	case "design":
		return it.Rating.Design, true
	}
	return 0, false
}

// MatchesFeature reports whether any of the phone's tags, highlights,
// audience or pros mention feature.
func MatchesFeature(it catalog.Item, feature string) bool {
	label := strings.ToLower(feature)
	terms, ok := featureTerms[label]
	if !ok {
		terms = []string{label}
	}
	for _, text := range it.SearchText() {
		for _, term := range terms {
			if strings.Contains(text, term) {
				return true
			}
		}
	}
	return false
}

// MatchesAnyFeature reports whether at least one of features matches.
func MatchesAnyFeature(it catalog.Item, features []string) bool {
	for _, f := range features {
		if MatchesFeature(it, f) {
			return true
		}
	}
	return false
}

// meetsFloor checks every rated feature against floor. Unrated (zero)
// dimensions are not held against the phone.
func meetsFloor(it catalog.Item, features []string, floor float64) bool {
	for _, f := range features {
		v, ok := ratingFor(it, f)
		if ok && v > 0 && v < floor {
			return false
		}
	}
	return true
}
