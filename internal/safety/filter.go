// Package safety screens raw chat input for prompt injection, credential
// extraction, abusive language and off-topic requests before any parsing.
package safety

import (
	"regexp"
	"strings"
	"unicode"
)

// Flag names a reason an utterance failed screening.
type Flag string

const (
	FlagPromptInjection        Flag = "prompt_injection"
	FlagSystemPromptExtraction Flag = "system_prompt_extraction"
	FlagInappropriateContent   Flag = "inappropriate_content"
	FlagUnrelatedQuery         Flag = "unrelated_query"
)

// Verdict is the outcome of screening one utterance. Flags are ordered by
// the check that raised them.
type Verdict struct {
	Passed bool   `json:"passed"`
	Flags  []Flag `json:"flags,omitempty"`
}

// Has reports whether the verdict carries flag.
func (v Verdict) Has(flag Flag) bool {
	for _, f := range v.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// MatchMode selects how lexicon words are matched.
type MatchMode string

const (
	// MatchToken requires a lexicon word to be a whole token, optionally
	// inflected, so "hello" never matches "hell".
	MatchToken MatchMode = "token"
	// MatchSubstring flags a lexicon word anywhere in the text.
	MatchSubstring MatchMode = "substring"
)

// Config tunes a Filter.
type Config struct {
	ToxicMatch MatchMode
}

var injectionPatterns = compileAll(
	`\bignore\s+(?:\w+\s+){0,3}(?:instructions|rules|prompts?|guidelines)\b`,
	`\bforget\s+(?:\w+\s+){0,3}(?:you\s+know|instructions|rules|training|prompts?)\b`,
	`\bdisregard\s+(?:\w+\s+){0,3}(?:instructions|rules|prompts?|guidelines)\b`,
	`system\s+prompt`,
	`reveal\s+(?:your|the)\s+(?:prompt|instructions|system)`,
	`what\s+(?:are|is)\s+your\s+(?:instructions|rules|prompt)`,
	`tell\s+me\s+your\s+(?:api\s+key|secret|token)`,
	`(?:hidden|initial|original)\s+prompt`,
	`your\s+(?:internal\s+logic|algorithm|source\s+code)`,
	`you\s+are\s+now\s+(?:a|an|in)\s+`,
	`(?s)/\*.*?\*/`,
	`<[^>]*>`,
)

var extractionPatterns = compileAll(
	`api\s*key`,
	`secret\s+key`,
	`auth(?:entication)?\s+token`,
	`access\s+token`,
	`gemini\s+key`,
	`google\s+ai\s+key`,
	`openai\s+key`,
	`(?:environment|env)\s+variables?`,
)

// toxicLexicon holds single words matched according to the configured mode.
var toxicLexicon = []string{
	"fuck", "shit", "damn", "hell", "bitch", "asshole", "bastard", "crap",
	"hack", "exploit", "cheat", "fraud",
}

// toxicSuffixes are the inflections accepted in token mode.
var toxicSuffixes = []string{"", "s", "es", "ed", "ing", "er", "ers", "y", "ty", "ter", "ters"}

var abusivePhrases = compileAll(
	`(?:offensive|inappropriate|toxic|harmful)\s+content`,
)

// domainVocabulary marks an utterance as being about phones. Single words
// are matched as tokens, phrases as substrings.
var domainVocabulary = []string{
	"phone", "mobile", "smartphone", "cellphone", "handset", "device",
	"iphone", "android", "ios", "samsung", "galaxy", "google", "pixel", "oneplus", "xiaomi",
	"redmi", "realme", "poco", "motorola", "moto", "apple", "oppo", "vivo",
	"camera", "battery", "display", "screen", "processor", "chipset", "performance", "gaming",
	"storage", "memory", "ram", "charging", "charger", "5g", "4g", "wifi", "bluetooth", "nfc",
	"snapdragon", "dimensity", "exynos", "tensor", "bionic", "mah", "megapixel", "mp", "amoled",
	"oled", "lcd", "ois", "eis", "ip67", "ip68", "fingerprint", "selfie", "zoom", "refresh",
	"price", "budget", "cost", "buy", "purchase", "deal", "offer", "cheap", "affordable",
	"flagship", "compare", "comparison", "recommend", "recommendation", "suggest", "spec",
	"specs", "specifications", "review", "reviews", "rating", "model", "brand",
	"fast charging", "wireless charging", "face unlock", "refresh rate", "nothing phone",
}

// unrelatedRule matches an off-topic request unless the unless pattern
// also matches (RE2 has no negative lookahead).
type unrelatedRule struct {
	pattern *regexp.Regexp
	unless  *regexp.Regexp
}

var unrelatedRules = []unrelatedRule{
	{pattern: mustCompile(`(?:write|create|compose)\s+(?:a|an|me\s+a)?\s*(?:essay|story|poem|song|letter|code|program|script)`)},
	{pattern: mustCompile(`solve\s+(?:this|the|my)?\s*(?:math|equation|problem|homework)`)},
	{pattern: mustCompile(`translate\s+(?:this|that|the\s+following|to|into)`)},
	{pattern: mustCompile(`what(?:'s|’s|\s+is)\s+the\s+(?:capital|population|weather|time|news|score)`)},
	{pattern: mustCompile(`(?:weather|forecast)\s+(?:in|for|today|tomorrow)`)},
	{
		pattern: mustCompile(`how\s+to\s+(?:cook|make|build|create|bake)`),
		unless:  mustCompile(`how\s+to\s+(?:cook|make|build|create|bake)\s+(?:a\s+)?(?:phone|mobile|smartphone)`),
	},
	{
		pattern: mustCompile(`tell\s+me\s+about\s+`),
		unless:  mustCompile(`tell\s+me\s+about\s+(?:the\s+)?(?:phone|mobile|smartphone|iphone|samsung|pixel|oneplus|xiaomi)`),
	},
	{pattern: mustCompile(`(?:stock|crypto|bitcoin)\s+(?:price|market|tips)`)},
	{pattern: mustCompile(`(?:recipe|movie|song|book)\s+(?:for|about|recommendation)`)},
}

// Redirect messages returned in place of an answer.
const (
	RedirectInjection = "I'm here to help you find the perfect mobile phone! I can't share details about how I work internally. " +
		"Try asking about phone features, comparisons, or recommendations."
	RedirectInappropriate = "Let's keep our conversation friendly. I'm happy to help you find a great phone, compare models, " +
		"or explain mobile features."
	RedirectUnrelated = "I'm a mobile phone shopping assistant, so I can only help with phone-related questions. " +
		"Ask me about phone recommendations, comparisons, specifications, or features!"
)

// Filter screens utterances. It holds only immutable tables and is safe for
// concurrent use.
type Filter struct {
	toxic MatchMode
}

// NewFilter creates a filter. An unknown or empty match mode falls back to
// token matching.
func NewFilter(cfg Config) *Filter {
	mode := cfg.ToxicMatch
	if mode != MatchSubstring {
		mode = MatchToken
	}
	return &Filter{toxic: mode}
}

// Check screens text. Every check runs and contributes its flag; any flag
// fails the verdict.
func (f *Filter) Check(text string) Verdict {
	lower := strings.ToLower(text)
	tokens := tokenize(lower)

	var flags []Flag
	if anyMatch(injectionPatterns, lower) {
		flags = append(flags, FlagPromptInjection)
	}
	if anyMatch(extractionPatterns, lower) {
		flags = append(flags, FlagSystemPromptExtraction)
	}
	if f.isToxic(lower, tokens) {
		flags = append(flags, FlagInappropriateContent)
	}
	if !isDomainRelated(lower, tokens) && matchesUnrelated(lower) {
		flags = append(flags, FlagUnrelatedQuery)
	}

	return Verdict{Passed: len(flags) == 0, Flags: flags}
}

// IsPhoneRelated reports whether text mentions any phone-domain vocabulary.
func (f *Filter) IsPhoneRelated(text string) bool {
	lower := strings.ToLower(text)
	return isDomainRelated(lower, tokenize(lower))
}

// RedirectMessage returns the fixed reply for a failed verdict.
func RedirectMessage(v Verdict) string {
	switch {
	case v.Has(FlagPromptInjection), v.Has(FlagSystemPromptExtraction):
		return RedirectInjection
	case v.Has(FlagInappropriateContent):
		return RedirectInappropriate
	default:
		return RedirectUnrelated
	}
}

func (f *Filter) isToxic(lower string, tokens []string) bool {
	if anyMatch(abusivePhrases, lower) {
		return true
	}
	if f.toxic == MatchSubstring {
		for _, word := range toxicLexicon {
			if strings.Contains(lower, word) {
				return true
			}
		}
		return false
	}
	for _, tok := range tokens {
		for _, word := range toxicLexicon {
			if !strings.HasPrefix(tok, word) {
				continue
			}
			rest := tok[len(word):]
			for _, suffix := range toxicSuffixes {
				if rest == suffix {
					return true
				}
			}
		}
	}
	return false
}

func isDomainRelated(lower string, tokens []string) bool {
	set := make(map[string]bool, len(tokens))
	for _, tok := range tokens {
		set[tok] = true
		set[strings.TrimSuffix(tok, "s")] = true
	}
	for _, term := range domainVocabulary {
		if strings.Contains(term, " ") {
			if strings.Contains(lower, term) {
				return true
			}
			continue
		}
		if set[term] {
			return true
		}
	}
	return false
}

func matchesUnrelated(lower string) bool {
	for _, rule := range unrelatedRules {
		if rule.pattern.MatchString(lower) && (rule.unless == nil || !rule.unless.MatchString(lower)) {
			return true
		}
	}
	return false
}

func tokenize(lower string) []string {
	return strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func anyMatch(patterns []*regexp.Regexp, s string) bool {
	for _, p := range patterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}

func compileAll(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = mustCompile(e)
	}
	return out
}

func mustCompile(expr string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + expr)
}
