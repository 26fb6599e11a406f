package recommend

import (
	"testing"

	"github.com/spherical-ai/spherical/libs/phone-advisor/internal/catalog"
	"github.com/spherical-ai/spherical/libs/phone-advisor/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)
	return NewEngine(cat, DefaultConfig(), observability.NewNopLogger())
}

func ids(items []catalog.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func flatItem() catalog.Item {
	return catalog.Item{
		ID:           "acme-one",
		Name:         "Acme One",
		Brand:        "Acme",
		Price:        catalog.Price{Current: 80000, Currency: "INR"},
		Availability: catalog.OutOfStock,
		Rating:       catalog.Rating{Overall: 2, Camera: 2, Performance: 2, Battery: 2, Display: 2, Design: 2},
		Category:     catalog.Budget,
	}
}

func TestEngine_Filter_CameraUnderBudget(t *testing.T) {
	e := newTestEngine(t)

	got := e.Filter(Criteria{
		Budget:           &catalog.PriceRange{Max: 30000},
		Features:         []string{"camera"},
		MinFeatureRating: 4.0,
	})

	assert.Equal(t, []string{"redmi-note-13-pro", "realme-12-pro-plus", "nothing-phone-2a", "samsung-galaxy-a34"}, ids(got))
	for _, it := range got {
		assert.LessOrEqual(t, it.Price.Current, 30000.0)
		assert.GreaterOrEqual(t, it.Rating.Camera, 4.0)
	}
}

func TestEngine_Filter_Constraints(t *testing.T) {
	e := newTestEngine(t)

	tests := []struct {
		name     string
		criteria Criteria
		want     []string
	}{
		{
			name:     "brand is case-insensitive",
			criteria: Criteria{Brands: []string{"apple"}},
			want:     []string{"iphone-15-pro", "iphone-se-3rd-gen"},
		},
		{
			name:     "category equality",
			criteria: Criteria{Category: catalog.Budget},
			want:     []string{"iphone-se-3rd-gen", "samsung-galaxy-m34"},
		},
		{
			name:     "inclusive bounds",
			criteria: Criteria{Budget: &catalog.PriceRange{Min: 24999, Max: 24999}},
			want:     []string{"redmi-note-13-pro", "samsung-galaxy-a34"},
		},
		{
			name:     "features are OR-ed",
			criteria: Criteria{Brands: []string{"Samsung"}, Features: []string{"waterproof", "compact"}},
			want:     []string{"samsung-galaxy-s24", "samsung-galaxy-a34"},
		},
		{
			name:     "feature synonyms",
			criteria: Criteria{Features: []string{"waterproof"}},
			want:     []string{"motorola-edge-50-fusion", "samsung-galaxy-a34"},
		},
		{
			name:     "nothing matches",
			criteria: Criteria{Brands: []string{"Oppo"}},
			want:     []string{},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ids(e.Filter(tc.criteria)))
		})
	}
}

func TestEngine_Search_SortedByOverall(t *testing.T) {
	e := newTestEngine(t)

	got := e.Search(Criteria{Budget: &catalog.PriceRange{Max: 30000}}, 3)

	assert.Equal(t, []string{"redmi-note-13-pro", "poco-x6-pro", "realme-12-pro-plus"}, ids(got))
}

func TestEngine_Fallback(t *testing.T) {
	e := newTestEngine(t)

	got := e.Fallback(&catalog.PriceRange{Max: 30000})
	assert.Equal(t, []string{
		"redmi-note-13-pro", "poco-x6-pro", "realme-12-pro-plus",
		"nothing-phone-2a", "samsung-galaxy-a34", "motorola-edge-50-fusion",
	}, ids(got))

	all := e.Fallback(nil)
	require.Len(t, all, 6)
	assert.Equal(t, "iphone-15-pro", all[0].ID)
}

func TestEngine_Recommend(t *testing.T) {
	e := newTestEngine(t)

	res, err := e.Recommend(Criteria{
		Budget:   &catalog.PriceRange{Max: 40000},
		Features: []string{"gaming"},
	})
	require.NoError(t, err)

	assert.Equal(t, "oneplus-12r", res.Primary.ID)
	assert.Len(t, res.Alternatives, 3)
	assert.False(t, res.FromFallback)
	assert.Contains(t, res.Reasoning, "powerful Snapdragon 8 Gen 2 processor for gaming")

	prev := res.Scores[res.Primary.ID]
	for _, alt := range res.Alternatives {
		s := res.Scores[alt.ID]
		assert.LessOrEqual(t, s, prev)
		prev = s
	}
	for id, s := range res.Scores {
		assert.GreaterOrEqual(t, s, 0.0, id)
		assert.LessOrEqual(t, s, 1.0, id)
	}
}

func TestEngine_Recommend_Fallback(t *testing.T) {
	e := newTestEngine(t)

	res, err := e.Recommend(Criteria{
		Budget: &catalog.PriceRange{Max: 30000},
		Brands: []string{"Oppo"},
	})
	require.NoError(t, err)

	assert.True(t, res.FromFallback)
	assert.LessOrEqual(t, res.Primary.Price.Current, 30000.0)
	for _, alt := range res.Alternatives {
		assert.LessOrEqual(t, alt.Price.Current, 30000.0)
	}
}

func TestEngine_Recommend_NoCandidates(t *testing.T) {
	e := newTestEngine(t)

	res, err := e.Recommend(Criteria{Budget: &catalog.PriceRange{Max: 1000}})

	assert.ErrorIs(t, err, ErrNoCandidates)
	assert.Nil(t, res)
}

func TestEngine_Rank_StableTies(t *testing.T) {
	e := newTestEngine(t)

	a, b := flatItem(), flatItem()
	b.ID = "acme-two"
	ranked := e.Rank([]catalog.Item{a, b}, Criteria{})

	require.Len(t, ranked, 2)
	assert.Equal(t, "acme-one", ranked[0].Item.ID)
	assert.Equal(t, "acme-two", ranked[1].Item.ID)
	assert.Equal(t, ranked[0].Score, ranked[1].Score)
}

func TestScore(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*catalog.Item)
		criteria Criteria
		want     float64
	}{
		{"no constraints", nil, Criteria{}, 0.765},
		{"camera requested", nil, Criteria{Features: []string{"camera"}}, 0.805},
		{"performance requested", nil, Criteria{Features: []string{"performance"}}, 0.805},
		{"battery requested", nil, Criteria{Features: []string{"battery"}}, 0.795},
		{"budget sweet spot", nil, Criteria{Budget: &catalog.PriceRange{Max: 100000}}, 0.84},
		{"budget underused", nil, Criteria{Budget: &catalog.PriceRange{Max: 160000}}, 0.79},
		{"budget stretched", nil, Criteria{Budget: &catalog.PriceRange{Max: 84000}}, 0.74},
		{"zero span budget", nil, Criteria{Budget: &catalog.PriceRange{Min: 80000, Max: 80000}}, 0.74},
		{"category bonus", nil, Criteria{Category: catalog.Budget}, 0.865},
		{"brand bonus", nil, Criteria{Brands: []string{"acme"}}, 0.865},
		{"in stock bonus", func(it *catalog.Item) { it.Availability = catalog.InStock }, Criteria{}, 0.815},
		{
			name: "capped at one",
			mutate: func(it *catalog.Item) {
				it.Rating = catalog.Rating{Overall: 5, Camera: 5, Performance: 5, Battery: 5, Display: 5, Design: 5}
			},
			want: 1,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			it := flatItem()
			if tc.mutate != nil {
				tc.mutate(&it)
			}
			assert.InDelta(t, tc.want, Score(it, tc.criteria), 1e-9)
		})
	}
}

func TestUtilization(t *testing.T) {
	assert.InDelta(t, 0.5, Utilization(20000, catalog.PriceRange{Min: 10000, Max: 30000}), 1e-9)
	assert.InDelta(t, 1.0, Utilization(20000, catalog.PriceRange{Min: 20000, Max: 20000}), 1e-9)
}

func TestReasoning(t *testing.T) {
	e := newTestEngine(t)
	iphone, ok := e.catalog.Get("iphone-15-pro")
	require.True(t, ok)

	got := Reasoning(iphone, Criteria{
		Budget:   &catalog.PriceRange{Max: 150000},
		Features: []string{"camera", "battery"},
		Brands:   []string{"Apple"},
	})
	assert.Equal(t, "Recommended for makes good use of your ₹150,000 budget, "+
		"outstanding 48MP f/1.78 camera system, "+
		"robust 3274mAh battery with 20W fast charging, "+
		"from your preferred brand Apple, "+
		"featuring Titanium design and A17 Pro chip, "+
		"highly rated at 4.7/5 stars.", got)

	got = Reasoning(iphone, Criteria{Budget: &catalog.PriceRange{Max: 200000}})
	assert.Contains(t, got, "excellent value within your budget of ₹200,000")

	assert.Equal(t, "This phone offers a great balance of features and performance for your needs.",
		Reasoning(flatItem(), Criteria{}))
}

func TestReasoning_Deterministic(t *testing.T) {
	e := newTestEngine(t)
	c := Criteria{Budget: &catalog.PriceRange{Max: 30000}, Features: []string{"camera"}}

	first, err := e.Recommend(c)
	require.NoError(t, err)
	second, err := e.Recommend(c)
	require.NoError(t, err)

	assert.Equal(t, first.Primary.ID, second.Primary.ID)
	assert.Equal(t, first.Reasoning, second.Reasoning)
}
