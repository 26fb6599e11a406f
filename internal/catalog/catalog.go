// Package catalog holds the immutable phone catalog shared by every chat turn.
package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotFound is returned when no phone matches a lookup.
	ErrNotFound = errors.New("phone not found")
	// ErrInvalidItem is returned when a record violates a catalog invariant.
	ErrInvalidItem = errors.New("invalid catalog item")
	// ErrDuplicateID is returned when two records share an id.
	ErrDuplicateID = errors.New("duplicate phone id")
)

// PriceRange is an inclusive price interval.
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether price lies within the range, bounds included.
func (r PriceRange) Contains(price float64) bool {
	return price >= r.Min && price <= r.Max
}

// Span returns the width of the range.
func (r PriceRange) Span() float64 {
	return r.Max - r.Min
}

// nameVariations maps colloquial short names to catalog ids.
var nameVariations = []struct{ short, id string }{
	{"iphone 15", "iphone-15-pro"},
	{"iphone se", "iphone-se-3rd-gen"},
	{"galaxy s24", "samsung-galaxy-s24"},
	{"pixel 8", "pixel-8a"},
	{"oneplus 12", "oneplus-12r"},
	{"nothing phone", "nothing-phone-2a"},
	{"redmi note 13", "redmi-note-13-pro"},
	{"poco x6", "poco-x6-pro"},
	{"edge 50", "motorola-edge-50-fusion"},
}

// Catalog is an ordered, read-only collection of phones. It is safe for
// concurrent use because nothing mutates it after New returns.
type Catalog struct {
	items   []Item
	byID    map[string]int
	aliases [][]string
}

// New validates items and builds a catalog preserving their order.
func New(items []Item) (*Catalog, error) {
	c := &Catalog{
		items:   make([]Item, len(items)),
		byID:    make(map[string]int, len(items)),
		aliases: make([][]string, len(items)),
	}
	copy(c.items, items)

	for i, it := range c.items {
		if err := validate(it); err != nil {
			return nil, err
		}
		if _, dup := c.byID[it.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, it.ID)
		}
		c.byID[it.ID] = i
		c.aliases[i] = aliasesFor(it)
	}

	return c, nil
}

func validate(it Item) error {
	if strings.TrimSpace(it.ID) == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidItem)
	}
	if strings.TrimSpace(it.Name) == "" {
		return fmt.Errorf("%w: %s has no name", ErrInvalidItem, it.ID)
	}
	if it.Price.Current <= 0 {
		return fmt.Errorf("%w: %s price must be positive", ErrInvalidItem, it.ID)
	}
	for _, v := range it.Rating.values() {
		if v < 0 || v > 5 {
			return fmt.Errorf("%w: %s rating %.2f outside [0,5]", ErrInvalidItem, it.ID, v)
		}
	}
	if !it.Availability.Valid() {
		return fmt.Errorf("%w: %s availability %q", ErrInvalidItem, it.ID, it.Availability)
	}
	if !it.Category.Valid() {
		return fmt.Errorf("%w: %s category %q", ErrInvalidItem, it.ID, it.Category)
	}
	return nil
}

// Len returns the number of phones.
func (c *Catalog) Len() int {
	return len(c.items)
}

// Items returns the phones in catalog order. The returned slice is a copy.
func (c *Catalog) Items() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

// Get returns the phone with the given id.
func (c *Catalog) Get(id string) (Item, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Item{}, false
	}
	return c.items[i], true
}

// FindByName resolves a user supplied name fragment to a phone. It tries an
// exact match on names, aliases, models and ids, then the closest partial
// name match, then a table of colloquial short names.
func (c *Catalog) FindByName(fragment string) (Item, error) {
	q := NormalizeName(fragment)
	if q == "" {
		return Item{}, ErrNotFound
	}

	for i, it := range c.items {
		if it.ID == q || it.ID == strings.ReplaceAll(q, " ", "-") || NormalizeName(it.Model) == q {
			return c.items[i], nil
		}
		for _, alias := range c.aliases[i] {
			if alias == q {
				return c.items[i], nil
			}
		}
	}

	if len(q) >= 3 {
		// Alias contains the fragment: "iphone 15" finds "iphone 15 pro".
		for i := range c.items {
			for _, alias := range c.aliases[i] {
				if strings.Contains(alias, q) {
					return c.items[i], nil
				}
			}
		}

		// Fragment contains an alias: "samsung galaxy s24 5g" finds "galaxy s24",
		// but "galaxy s24 ultra" names a different model and stays a miss.
		best, bestLen := -1, 0
		for i := range c.items {
			for _, alias := range c.aliases[i] {
				if len(alias) > bestLen && strings.Contains(q, alias) && !namesVariant(q, alias) {
					best, bestLen = i, len(alias)
				}
			}
		}
		if best >= 0 {
			return c.items[best], nil
		}
	}

	for _, v := range nameVariations {
		if strings.Contains(q, v.short) && !namesVariant(q, v.short) {
			if it, ok := c.Get(v.id); ok {
				return it, nil
			}
		}
	}

	return Item{}, fmt.Errorf("%w: %s", ErrNotFound, fragment)
}

// MentionedIn returns the phones whose names appear verbatim in text,
// ordered by where they first appear.
func (c *Catalog) MentionedIn(text string) []Item {
	norm := " " + NormalizeName(text) + " "

	type hit struct {
		idx int
		pos int
	}
	var hits []hit
	for i := range c.items {
		pos := -1
		for _, alias := range c.aliases[i] {
			if p := indexModel(norm, alias); p >= 0 && (pos < 0 || p < pos) {
				pos = p
			}
		}
		if pos >= 0 {
			hits = append(hits, hit{idx: i, pos: pos})
		}
	}

	sort.SliceStable(hits, func(a, b int) bool { return hits[a].pos < hits[b].pos })

	out := make([]Item, 0, len(hits))
	for _, h := range hits {
		out = append(out, c.items[h.idx])
	}
	return out
}

// TopRated returns up to n phones sorted by overall rating, ties in catalog order.
func (c *Catalog) TopRated(n int) []Item {
	items := c.Items()
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Rating.Overall > items[j].Rating.Overall
	})
	if n >= 0 && len(items) > n {
		items = items[:n]
	}
	return items
}

// Brands returns the distinct brands, sorted.
func (c *Catalog) Brands() []string {
	return c.distinct(func(it Item) string { return it.Brand })
}

// Categories returns the distinct categories present, sorted.
func (c *Catalog) Categories() []string {
	return c.distinct(func(it Item) string { return string(it.Category) })
}

func (c *Catalog) distinct(field func(Item) string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, it := range c.items {
		v := field(it)
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

// variantWords distinguish sibling models: a Galaxy S24 Ultra is not a
// Galaxy S24.
var variantWords = map[string]bool{
	"pro": true, "max": true, "ultra": true, "plus": true, "mini": true,
	"lite": true, "fe": true, "fold": true, "flip": true, "neo": true,
}

// namesVariant reports whether q adds a variant word to name.
func namesVariant(q, name string) bool {
	for _, w := range strings.Fields(strings.Replace(q, name, " ", 1)) {
		if variantWords[w] {
			return true
		}
	}
	return false
}

// indexModel finds alias as whole words in the space-padded text norm,
// skipping occurrences followed by a variant word.
func indexModel(norm, alias string) int {
	needle := " " + alias + " "
	for from := 0; from < len(norm); {
		p := strings.Index(norm[from:], needle)
		if p < 0 {
			return -1
		}
		p += from
		next := strings.Fields(norm[p+len(needle):])
		if len(next) == 0 || !variantWords[next[0]] {
			return p
		}
		from = p + 1
	}
	return -1
}

// NormalizeName lower-cases a phone name and flattens punctuation so that
// "Nothing Phone (2a)" and "nothing phone 2a" compare equal.
func NormalizeName(s string) string {
	s = strings.ToLower(s)
	s = strings.NewReplacer("(", " ", ")", " ", ",", " ", "+", " plus", "?", " ", "!", " ").Replace(s)
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimPrefix(s, "the ")
}

func aliasesFor(it Item) []string {
	name := NormalizeName(it.Name)
	aliases := []string{name}

	brand := NormalizeName(it.Brand)
	if rest := strings.TrimPrefix(name, brand+" "); rest != name {
		aliases = append(aliases, rest)
	}
	for _, a := range aliases {
		if trimmed := strings.TrimSuffix(a, " 5g"); trimmed != a {
			aliases = append(aliases, trimmed)
		}
	}
	return aliases
}
