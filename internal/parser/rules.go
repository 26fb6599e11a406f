package parser

import (
	"regexp"

	"github.com/spherical-ai/spherical/libs/phone-advisor/internal/catalog"
)

// rule maps a label to the patterns that detect it. When unless matches,
// the rule scores zero whatever its patterns say.
type rule struct {
	label    string
	patterns []*regexp.Regexp
	unless   *regexp.Regexp
}

func (r rule) matches(s string) int {
	if r.unless != nil && r.unless.MatchString(s) {
		return 0
	}
	n := 0
	for _, p := range r.patterns {
		if p.MatchString(s) {
			n++
		}
	}
	return n
}

func newRule(label string, exprs ...string) rule {
	r := rule{label: label, patterns: make([]*regexp.Regexp, len(exprs))}
	for i, e := range exprs {
		r.patterns[i] = regexp.MustCompile(`(?i)` + e)
	}
	return r
}

func (r rule) except(expr string) rule {
	r.unless = regexp.MustCompile(`(?i)` + expr)
	return r
}

// techTerm is the set of technical terms that can be weighed against each
// other in an explain question ("ois vs eis").
const techTerm = `(?:ois|eis|amoled|oled|lcd|snapdragon|dimensity|exynos)`

// techVersus matches two technical terms set against each other. It keeps
// the generic "x vs y" compare patterns from claiming the utterance.
const techVersus = `\b` + techTerm + `\s+(?:vs\.?|versus|or|and)\s+` + techTerm + `\b`

// intentRules are scored in order; the first of several equal scores wins.
var intentRules = []rule{
	newRule(string(IntentSearch),
		`(?:find|search|show|get|looking\s+for|want|need)\s+(?:me\s+)?(?:a\s+)?(?:phone|mobile|smartphone)`,
		`(?:best|good|top)\s+(?:phone|mobile|smartphone)`,
		`(?:phone|mobile|smartphone)s?\s+(?:under|below|within|around|for|between)|\bbetween\s+\S+\s+(?:and|to)\s+\S+\s+(?:phone|mobile|smartphone)`,
		`(?:budget|cheap|affordable)\s+(?:phone|mobile|smartphone)`,
	),
	newRule(string(IntentCompare),
		`compare\s+(?:the\s+)?(?:phone|mobile|smartphone)|\bcompare\s+\S.*\s+(?:and|with|to|or|against)\s+\S`,
		`(?:\bvs\.?|\bversus|compared\s+to)\s+`,
		`difference\s+between`,
		`which\s+is\s+better`,
		`[\w\s]+\s+(?:vs\.?|versus)\s+[\w\s]+`,
	).except(techVersus),
	newRule(string(IntentRecommend),
		`recommend(?:ation)?`,
		`suggest(?:ion)?`,
		`what\s+(?:phone|mobile|smartphone)\s+should\s+i`,
		`which\s+(?:phone|mobile|smartphone)\s+(?:is\s+)?(?:best|good)`,
	),
	newRule(string(IntentExplain),
		`(?:what\s+is|what\s+are|explain|tell\s+me\s+about)\s+(?:an?\s+)?(?:ois|eis|amoled|oled|snapdragon|dimensity|a1\d|exynos|hdr|refresh\s+rate)`,
		`difference\s+between\s+(?:ois|eis|amoled|oled|lcd)`,
		`how\s+(?:does|do)\s+(?:ois|eis|fast\s+charging|wireless\s+charging)`,
		techVersus,
	),
	newRule(string(IntentDetails),
		`tell\s+me\s+(?:more\s+)?about\s+(?:the\s+)?(?:iphone|samsung|galaxy|pixel|oneplus|xiaomi|redmi|realme|poco|nothing|motorola|moto)`,
		`(?:specs|specifications|details)\s+(?:of|for|about)\s+(?:the\s+)?[\w\s]+`,
		`(?:review|rating)s?\s+(?:of|for)\s+(?:the\s+)?[\w\s]+`,
	),
}

// brandRules map canonical catalog brand names to their aliases.
var brandRules = []rule{
	newRule("Apple", `\b(?:apple|iphones?)\b`),
	newRule("Samsung", `\b(?:samsung|galaxy)\b`),
	newRule("Google", `\b(?:google|pixel)\b`),
	newRule("OnePlus", `\bone\s?plus\b`),
	newRule("Xiaomi", `\b(?:xiaomi|redmi|mi)\b`),
	newRule("Realme", `\brealme\b`),
	newRule("POCO", `\bpoco\b`),
	newRule("Nothing", `\bnothing\s+phone\b|\bcmf\b`),
	newRule("Motorola", `\b(?:motorola|moto)\b`),
	newRule("Oppo", `\boppo\b`),
	newRule("Vivo", `\bvivo\b`),
}

// Feature labels.
const (
	FeatureCamera       = "camera"
	FeatureGaming       = "gaming"
	FeatureBattery      = "battery"
	FeatureDisplay      = "display"
	FeatureDesign       = "design"
	FeatureStorage      = "storage"
	FeatureConnectivity = "connectivity"
	FeatureAudio        = "audio"
	FeatureSecurity     = "security"
	FeatureWaterproof   = "waterproof"
)

var featureRules = []rule{
	newRule(FeatureCamera, `\b(?:cameras?|photography|photos?|selfies?|video|zoom|portrait|night\s+mode)\b`),
	newRule(FeatureGaming, `\b(?:gaming|games?|gamers?|performance|fps|processor|chipset|snapdragon|dimensity|exynos|bionic|a1\d)\b`),
	newRule(FeatureBattery, `\b(?:battery|charge|charging|power|mah|backup)\b`),
	newRule(FeatureDisplay, `\b(?:display|screen|amoled|oled|lcd|refresh\s+rate|90hz|120hz|144hz)\b`),
	newRule(FeatureDesign, `\b(?:design|build|premium|lightweight|compact|slim|size|colou?rs?|looks)\b`),
	newRule(FeatureStorage, `\b(?:storage|memory|ram|\d+\s?gb|expandable|microsd)\b`),
	newRule(FeatureConnectivity, `\b(?:5g|4g|wi-?fi|bluetooth|nfc|network)\b`),
	newRule(FeatureAudio, `\b(?:audio|speakers?|headphones?|jack|music|sound)\b`),
	newRule(FeatureSecurity, `\b(?:fingerprint|face\s+unlock|security|biometrics?)\b`),
	newRule(FeatureWaterproof, `\b(?:water|ip6[78]|waterproof|resistant|dustproof)\b`),
}

// categoryRules are checked in order; the first match wins. A bare "budget"
// is ignored because it usually introduces an amount ("my budget is 20k").
var categoryRules = []rule{
	newRule(string(catalog.Flagship), `\b(?:flagship|premium|high[- ]?end|expensive|top[- ]?tier)\b`),
	newRule(string(catalog.MidRange), `\b(?:mid[- ]?range|medium|middle)\b`),
	newRule(string(catalog.Budget),
		`\b(?:cheap|affordable|low[- ]?cost|entry[- ]?level|inexpensive|budget[- ]friendly)\b`,
		`\bbudget\s+(?:phones?|smartphones?|mobiles?|options?|segment|category|device)\b`,
	),
}

// phoneNamePatterns recognise model names by brand and generation number.
var phoneNamePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)iphone\s+(?:\d+(?:\s+pro)?(?:\s+max|\s+plus)?|se\b(?:\s+\(?\d(?:st|nd|rd|th)\s+gen\)?)?)`),
	regexp.MustCompile(`(?i)galaxy\s+[sam]\d+(?:\s+(?:ultra|plus|fe))?`),
	regexp.MustCompile(`(?i)pixel\s+\d+(?:\s*a)?(?:\s+pro)?`),
	regexp.MustCompile(`(?i)one\s?plus\s+\d+(?:\s*r)?(?:\s+pro)?`),
	regexp.MustCompile(`(?i)redmi\s+note\s+\d+(?:\s+pro)?(?:\s*\+|\s+plus)?`),
	regexp.MustCompile(`(?i)poco\s+[xfm]\d+(?:\s+pro)?`),
	regexp.MustCompile(`(?i)realme\s+\d+(?:\s+pro)?(?:\s*\+|\s+plus)?`),
	regexp.MustCompile(`(?i)nothing\s+phone\s+\(?\d+a?\)?`),
	regexp.MustCompile(`(?i)(?:motorola|moto)\s+edge\s+\d+(?:\s+fusion|\s+pro)?`),
}

// topicRules is the vocabulary of explainable technical terms.
var topicRules = []rule{
	newRule("OIS", `\bois\b`, `optical\s+image\s+stabili[sz]ation`),
	newRule("EIS", `\beis\b`, `electronic\s+image\s+stabili[sz]ation`),
	newRule("AMOLED", `\bamoled\b`),
	newRule("OLED", `\boled\b`),
	newRule("LCD", `\blcd\b`),
	newRule("Snapdragon", `\bsnapdragon\b`),
	newRule("Dimensity", `\bdimensity\b`),
	newRule("Exynos", `\bexynos\b`),
	newRule("A17 Pro", `\ba17(?:\s+pro)?\b`),
	newRule("Fast Charging", `fast\s+charging`),
	newRule("Wireless Charging", `wireless\s+charging`),
	newRule("IP67", `\bip67\b`),
	newRule("IP68", `\bip68\b`),
	newRule("Refresh Rate", `refresh\s+rate`, `\b(?:90|120|144)\s?hz\b`),
	newRule("HDR", `\bhdr\b`),
	newRule("Portrait Mode", `portrait\s+mode`),
	newRule("Night Mode", `night\s+mode`),
}

// Topics returns the labels of every explainable topic, in table order.
func Topics() []string {
	out := make([]string, len(topicRules))
	for i, r := range topicRules {
		out[i] = r.label
	}
	return out
}
