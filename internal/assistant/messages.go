package assistant

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/spherical-ai/spherical/libs/phone-advisor/internal/catalog"
	"github.com/spherical-ai/spherical/libs/phone-advisor/internal/parser"
	"github.com/spherical-ai/spherical/libs/phone-advisor/internal/recommend"
)

const (
	msgDegraded = "Sorry, something went wrong while I was working on that. " +
		"Here are some of our top-rated phones in the meantime."

	msgGreeting = "Hi! I can help you find the right phone. Tell me your budget and " +
		"what matters most to you, like camera, gaming or battery life."

	msgHelp = "Here is what I can do:\n" +
		"- Find phones: \"best camera phone under ₹30,000\"\n" +
		"- Compare phones: \"compare iPhone 15 Pro vs Pixel 8a\"\n" +
		"- Recommend a phone: \"which phone should I buy for gaming?\"\n" +
		"- Explain tech terms: \"what is OIS?\"\n" +
		"- Show details: \"specs of the Galaxy S24\""

	msgThanks = "You're welcome! Let me know if you want to compare or explore more phones."

	msgCompareMore = "I need at least two phones to compare."
)

var (
	greetingPattern = regexp.MustCompile(`(?i)^\s*(?:hi|hello|hey|hiya|namaste|good\s+(?:morning|afternoon|evening))\b`)
	helpPattern     = regexp.MustCompile(`(?i)\b(?:help|what\s+can\s+you\s+do|how\s+does\s+this\s+work)\b`)
	thanksPattern   = regexp.MustCompile(`(?i)\b(?:thanks|thank\s+you|thx)\b`)
)

// glossary holds a short explanation for every parser topic.
var glossary = map[string]string{
	"OIS": "Optical Image Stabilization physically moves the lens or sensor to counter hand shake. " +
		"It gives sharper low-light photos and steadier video than software alone.",
	"EIS": "Electronic Image Stabilization crops the frame slightly and shifts it in software to smooth out shake. " +
		"It works well for video but cannot help long exposures the way OIS does.",
	"AMOLED": "AMOLED panels light each pixel individually, so blacks are truly black, contrast is very high " +
		"and colours look vivid. Most mid-range and flagship Android phones use them.",
	"OLED": "OLED displays have self-emitting pixels with no backlight, which means deep blacks, wide viewing angles " +
		"and thinner panels. AMOLED is a common OLED variant.",
	"LCD": "LCD screens use a backlight behind liquid crystals. They are cheaper and age evenly, " +
		"but blacks look greyish and contrast is lower than OLED.",
	"Snapdragon": "Snapdragon is Qualcomm's family of mobile chipsets. The 8-series powers flagships, " +
		"while the 7 and 6 series target mid-range and budget phones.",
	"Dimensity": "Dimensity is MediaTek's 5G chipset line. Recent Dimensity chips offer strong performance " +
		"and efficiency, often at lower prices than comparable Snapdragon parts.",
	"Exynos": "Exynos is Samsung's in-house chipset family, used in many Galaxy phones sold in India.",
	"A17 Pro": "The A17 Pro is Apple's 3nm chip in the iPhone 15 Pro. It leads in single-core performance " +
		"and adds hardware ray tracing for games.",
	"Fast Charging": "Fast charging pushes higher wattage into the battery during the first part of a charge. " +
		"Anything above about 30W refills most phones in well under an hour.",
	"Wireless Charging": "Wireless charging tops up the battery on a Qi pad without a cable. " +
		"It is convenient but usually slower than wired charging.",
	"IP67": "IP67 means the phone is dust-tight and survives immersion in up to 1 metre of water for 30 minutes.",
	"IP68": "IP68 means the phone is dust-tight and survives immersion beyond 1 metre, typically 1.5 metres for 30 minutes.",
	"Refresh Rate": "Refresh rate is how many times per second the screen redraws. 90Hz or 120Hz makes " +
		"scrolling and games feel noticeably smoother than 60Hz.",
	"HDR": "HDR lets a display or camera capture a wider range of brightness, keeping detail in both " +
		"bright skies and dark shadows.",
	"Portrait Mode": "Portrait mode blurs the background behind a subject to mimic a large-aperture camera lens.",
	"Night Mode": "Night mode combines several exposures into one photo so that low-light shots come out " +
		"brighter and cleaner.",
}

// explainPrompt asks the generator for a shopper-friendly explanation.
func explainPrompt(topic string) string {
	return fmt.Sprintf("Explain %s in smartphones to a phone shopper in India in two or three short sentences.", topic)
}

// generalPrompt frames a free-form question with recent history and the
// catalog the answer must stay within.
func generalPrompt(utterance string, history []string, names []string) string {
	var b strings.Builder
	b.WriteString("Phones in stock: ")
	b.WriteString(strings.Join(names, ", "))
	b.WriteString(".\n")
	if len(history) > 0 {
		b.WriteString("\nConversation so far:\n")
		for _, h := range history {
			b.WriteString("- ")
			b.WriteString(h)
			b.WriteString("\n")
		}
	}
	b.WriteString("\nCustomer: ")
	b.WriteString(utterance)
	b.WriteString("\n\nAnswer briefly and only recommend phones from the list above.")
	return b.String()
}

func budgetPhrase(budget *catalog.PriceRange) string {
	switch {
	case budget == nil:
		return ""
	case budget.Min > 0:
		return fmt.Sprintf(" between %s and %s", catalog.FormatINR(budget.Min), catalog.FormatINR(budget.Max))
	default:
		return " under " + catalog.FormatINR(budget.Max)
	}
}

func searchSubject(q parser.ParsedQuery) string {
	switch {
	case q.HasFeature(parser.FeatureGaming):
		return "gaming phones"
	case q.HasFeature(parser.FeatureCamera):
		return "camera phones"
	case q.HasFeature(parser.FeatureBattery):
		return "phones for battery life"
	case q.Category == catalog.Flagship:
		return "flagship phones"
	case q.Category == catalog.Budget:
		return "budget phones"
	default:
		return "phones"
	}
}

func searchMessage(q parser.ParsedQuery, phones []catalog.Item) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Here are the best %s%s:", searchSubject(q), budgetPhrase(q.Budget))
	for i, it := range phones {
		fmt.Fprintf(&b, "\n\n**%d. %s** - %s", i+1, it.Name, catalog.FormatINR(it.Price.Current))
		for _, h := range limitHighlights(it.Highlights, 2) {
			b.WriteString("\n- ")
			b.WriteString(h)
		}
		fmt.Fprintf(&b, "\n- Rating %s/5 (camera %s, performance %s, battery %s)",
			recommend.FormatRating(it.Rating.Overall),
			recommend.FormatRating(it.Rating.Camera),
			recommend.FormatRating(it.Rating.Performance),
			recommend.FormatRating(it.Rating.Battery))
	}
	return b.String()
}

// noResultsGuidance suggests how to widen a search that matched nothing.
func noResultsGuidance(q parser.ParsedQuery, stocked []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "I couldn't find any %s%s that match everything you asked for.", searchSubject(q), budgetPhrase(q.Budget))

	missing := missingBrands(q.Brands, stocked)
	if len(missing) > 0 {
		fmt.Fprintf(&b, " We don't currently carry %s. Brands available: %s.",
			strings.Join(missing, " or "), strings.Join(stocked, ", "))
	}

	b.WriteString("\n\nYou could try:")
	if q.Budget != nil {
		b.WriteString("\n- Increasing your budget a little")
	}
	if len(q.Brands) > 0 {
		b.WriteString("\n- Looking at other brands")
	}
	if len(q.Features) > 1 {
		b.WriteString("\n- Focusing on the one feature that matters most")
	}
	b.WriteString("\n- Asking me for a recommendation instead")
	return b.String()
}

func noResultsAlternatives(q parser.ParsedQuery, phones []catalog.Item) string {
	if len(phones) == 0 {
		return fmt.Sprintf("I couldn't find any phones%s in our catalog. Try a higher budget.", budgetPhrase(q.Budget))
	}
	var b strings.Builder
	fmt.Fprintf(&b, "I couldn't find %s%s that match everything you asked for, but these top-rated phones are close:",
		searchSubject(q), budgetPhrase(q.Budget))
	for _, it := range phones {
		fmt.Fprintf(&b, "\n- %s (%s, rated %s/5)", it.Name, catalog.FormatINR(it.Price.Current), recommend.FormatRating(it.Rating.Overall))
	}
	return b.String()
}

func missingBrands(wanted, stocked []string) []string {
	var out []string
	for _, w := range wanted {
		found := false
		for _, s := range stocked {
			if strings.EqualFold(w, s) {
				found = true
				break
			}
		}
		if !found {
			out = append(out, w)
		}
	}
	return out
}

func compareMissMessage(found []catalog.Item, missed []string, popular []catalog.Item) string {
	var b strings.Builder
	b.WriteString(msgCompareMore)
	if len(found) == 1 {
		fmt.Fprintf(&b, " I found the %s", found[0].Name)
		if len(missed) > 0 {
			fmt.Fprintf(&b, " but not %q", strings.Join(missed, ", "))
		}
		b.WriteString(".")
	} else if len(missed) > 0 {
		fmt.Fprintf(&b, " I couldn't find %q in our catalog.", strings.Join(missed, ", "))
	}
	b.WriteString(" Which phones would you like me to compare?")
	if len(popular) > 0 {
		names := make([]string, len(popular))
		for i, it := range popular {
			names[i] = it.Name
		}
		fmt.Fprintf(&b, " Popular choices: %s.", strings.Join(names, ", "))
	}
	return b.String()
}

// comparisonAnalysis writes one section per dimension followed by the
// overall verdict.
func comparisonAnalysis(phones []catalog.Item, winner catalog.Item) string {
	var b strings.Builder
	b.WriteString("**Comparison: ")
	b.WriteString(joinNames(phones, " vs "))
	b.WriteString("**")

	section := func(title string, line func(catalog.Item) string, best catalog.Item, verdict string) {
		fmt.Fprintf(&b, "\n\n**%s**", title)
		for _, it := range phones {
			fmt.Fprintf(&b, "\n- %s: %s", it.Name, line(it))
		}
		fmt.Fprintf(&b, "\n%s %s.", best.Name, verdict)
	}

	section("Price", func(it catalog.Item) string {
		return catalog.FormatINR(it.Price.Current)
	}, bestBy(phones, func(it catalog.Item) float64 { return -it.Price.Current }), "is the most affordable")

	section("Camera", func(it catalog.Item) string {
		return fmt.Sprintf("%s main, rated %s/5", it.Specifications.Camera.Rear.Main, recommend.FormatRating(it.Rating.Camera))
	}, bestBy(phones, func(it catalog.Item) float64 { return it.Rating.Camera }), "has the stronger camera")

	section("Performance", func(it catalog.Item) string {
		return fmt.Sprintf("%s, rated %s/5", it.Specifications.Processor.Chipset, recommend.FormatRating(it.Rating.Performance))
	}, bestBy(phones, func(it catalog.Item) float64 { return it.Rating.Performance }), "is the faster performer")

	section("Battery", func(it catalog.Item) string {
		return fmt.Sprintf("%s with %s charging, rated %s/5", it.Specifications.Battery.Capacity,
			it.Specifications.Battery.Charging.Wired, recommend.FormatRating(it.Rating.Battery))
	}, bestBy(phones, func(it catalog.Item) float64 { return it.Rating.Battery }), "lasts longer")

	section("Display", func(it catalog.Item) string {
		d := it.Specifications.Display
		return fmt.Sprintf("%s %s at %s", d.Size, d.Type, d.RefreshRate)
	}, bestBy(phones, func(it catalog.Item) float64 { return it.Rating.Display }), "has the better screen")

	fmt.Fprintf(&b, "\n\n**Overall Winner: %s** with an overall rating of %s/5.",
		winner.Name, recommend.FormatRating(winner.Rating.Overall))
	return b.String()
}

// bestBy returns the phone with the highest key; ties go to the earlier phone.
func bestBy(phones []catalog.Item, key func(catalog.Item) float64) catalog.Item {
	best := phones[0]
	for _, it := range phones[1:] {
		if key(it) > key(best) {
			best = it
		}
	}
	return best
}

func recommendMessage(res *recommend.Result) string {
	p := res.Primary
	var b strings.Builder
	if res.FromFallback {
		b.WriteString("Nothing matched every requirement, so here is the closest fit.\n\n")
	}
	fmt.Fprintf(&b, "I recommend the **%s** (%s).\n\n%s", p.Name, catalog.FormatINR(p.Price.Current), res.Reasoning)

	if len(p.Highlights) > 0 {
		b.WriteString("\n\n**Why this phone:**")
		for _, h := range p.Highlights {
			b.WriteString("\n- ")
			b.WriteString(h)
		}
	}
	if len(res.Alternatives) > 0 {
		b.WriteString("\n\n**Also consider:**")
		for _, it := range res.Alternatives {
			fmt.Fprintf(&b, "\n- %s (%s, rated %s/5)", it.Name, catalog.FormatINR(it.Price.Current), recommend.FormatRating(it.Rating.Overall))
		}
	}
	return b.String()
}

func noCandidatesMessage(q parser.ParsedQuery) string {
	return fmt.Sprintf("I don't have any phones%s to recommend right now. Try widening your budget.", budgetPhrase(q.Budget))
}

func detailsCard(it catalog.Item) string {
	s := it.Specifications
	var b strings.Builder
	fmt.Fprintf(&b, "**%s** - %s", it.Name, catalog.FormatINR(it.Price.Current))
	if it.Price.Original > it.Price.Current {
		fmt.Fprintf(&b, " (was %s)", catalog.FormatINR(it.Price.Original))
	}
	fmt.Fprintf(&b, "\n\n- Display: %s %s, %s, %s", s.Display.Size, s.Display.Type, s.Display.Resolution, s.Display.RefreshRate)
	fmt.Fprintf(&b, "\n- Processor: %s", s.Processor.Chipset)
	fmt.Fprintf(&b, "\n- Memory: %s RAM, %s storage", strings.Join(s.Memory.RAM, "/"), strings.Join(s.Memory.Storage, "/"))
	fmt.Fprintf(&b, "\n- Camera: %s main, %s front", s.Camera.Rear.Main, s.Camera.Front.Main)
	fmt.Fprintf(&b, "\n- Battery: %s, %s wired charging", s.Battery.Capacity, s.Battery.Charging.Wired)
	if s.Design.WaterResistance != "" {
		fmt.Fprintf(&b, "\n- Water resistance: %s", s.Design.WaterResistance)
	}
	fmt.Fprintf(&b, "\n- Rating: %s/5 from %d reviews", recommend.FormatRating(it.Rating.Overall), it.Reviews.Count)

	if len(it.Pros) > 0 {
		b.WriteString("\n\n**Pros:** ")
		b.WriteString(strings.Join(it.Pros, "; "))
	}
	if len(it.Cons) > 0 {
		b.WriteString("\n**Cons:** ")
		b.WriteString(strings.Join(it.Cons, "; "))
	}
	if it.Reviews.Summary != "" {
		b.WriteString("\n\n")
		b.WriteString(it.Reviews.Summary)
	}
	return b.String()
}

func detailsMissMessage(fragment string) string {
	if fragment == "" {
		return "I couldn't tell which phone you meant. Could you give me the full model name?"
	}
	return fmt.Sprintf("I couldn't find %q in our catalog. Could you check the model name, or ask me to show phones from that brand?", fragment)
}

func explainMessage(topic, body string) string {
	return fmt.Sprintf("**%s**\n\n%s", topic, body)
}

func unknownTopicMessage() string {
	return "I can explain these phone terms: " + strings.Join(parser.Topics(), ", ") + ". Which one would you like to know about?"
}

func joinNames(phones []catalog.Item, sep string) string {
	names := make([]string, len(phones))
	for i, it := range phones {
		names[i] = it.Name
	}
	return strings.Join(names, sep)
}

func limitHighlights(h []string, n int) []string {
	if len(h) > n {
		return h[:n]
	}
	return h
}
