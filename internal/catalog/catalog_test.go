package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testItem(id, name, brand string, price, overall float64) Item {
	return Item{
		ID:           id,
		Name:         name,
		Brand:        brand,
		Model:        name,
		Price:        Price{Current: price, Currency: "INR"},
		Availability: InStock,
		Rating:       Rating{Overall: overall, Camera: 4, Performance: 4, Battery: 4, Display: 4, Design: 4},
		Category:     MidRange,
	}
}

func TestDefault_LoadsBundledCatalog(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	assert.Equal(t, 12, c.Len())
	first := c.Items()[0]
	assert.Equal(t, "iphone-15-pro", first.ID)
	assert.Equal(t, "INR", first.Price.Currency)
	assert.InDelta(t, 6.1, first.DisplaySizeInches(), 0.001)
	assert.Equal(t, 3274, first.BatteryMAh())
	assert.Equal(t, 20, first.WiredChargingWatts())
	assert.Contains(t, c.Brands(), "POCO")
}

func TestNew_Invariants(t *testing.T) {
	tests := []struct {
		name   string
		items  []Item
		target error
	}{
		{"duplicate id", []Item{testItem("a", "A", "X", 100, 4), testItem("a", "B", "X", 100, 4)}, ErrDuplicateID},
		{"zero price", []Item{testItem("a", "A", "X", 0, 4)}, ErrInvalidItem},
		{"rating above five", []Item{testItem("a", "A", "X", 100, 5.5)}, ErrInvalidItem},
		{"empty id", []Item{testItem("", "A", "X", 100, 4)}, ErrInvalidItem},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.items)
			assert.ErrorIs(t, err, tc.target)
		})
	}
}

func TestCatalog_Items_ReturnsCopy(t *testing.T) {
	c, err := New([]Item{testItem("a", "A", "X", 100, 4)})
	require.NoError(t, err)

	items := c.Items()
	items[0].Name = "mutated"

	got, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "A", got.Name)
}

func TestCatalog_FindByName(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	tests := []struct {
		fragment string
		wantID   string
	}{
		{"iPhone 15 Pro", "iphone-15-pro"},
		{"iphone 15", "iphone-15-pro"},
		{"pixel 8a", "pixel-8a"},
		{"Pixel 8", "pixel-8a"},
		{"galaxy s24", "samsung-galaxy-s24"},
		{"galaxy a34", "samsung-galaxy-a34"},
		{"nothing phone (2a)", "nothing-phone-2a"},
		{"nothing phone 2a", "nothing-phone-2a"},
		{"realme 12 pro+", "realme-12-pro-plus"},
		{"redmi note 13 pro", "redmi-note-13-pro"},
		{"samsung galaxy s24 5g", "samsung-galaxy-s24"},
		{"oneplus-12r", "oneplus-12r"},
	}

	for _, tc := range tests {
		t.Run(tc.fragment, func(t *testing.T) {
			it, err := c.FindByName(tc.fragment)
			require.NoError(t, err)
			assert.Equal(t, tc.wantID, it.ID)
		})
	}

	for _, fragment := range []string{"nokia 3310", "  ", "galaxy s24 ultra", "the iphone 15 pro max", "pixel 8 pro", "edge 50 pro"} {
		_, err = c.FindByName(fragment)
		assert.ErrorIs(t, err, ErrNotFound, fragment)
	}
}

func TestCatalog_MentionedIn_SkipsSiblingModels(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	assert.Empty(t, c.MentionedIn("is the galaxy s24 ultra worth it?"))

	got := c.MentionedIn("galaxy s24 ultra or galaxy s24, which one?")
	require.Len(t, got, 1)
	assert.Equal(t, "samsung-galaxy-s24", got[0].ID)
}

func TestCatalog_MentionedIn(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	got := c.MentionedIn("Is the Pixel 8a better than the iPhone 15 Pro?")
	require.Len(t, got, 2)
	assert.Equal(t, "pixel-8a", got[0].ID)
	assert.Equal(t, "iphone-15-pro", got[1].ID)

	assert.Empty(t, c.MentionedIn("which phone has the best battery"))
}

func TestCatalog_TopRated(t *testing.T) {
	c, err := New([]Item{
		testItem("a", "A", "X", 100, 4.1),
		testItem("b", "B", "X", 100, 4.5),
		testItem("c", "C", "X", 100, 4.5),
	})
	require.NoError(t, err)

	top := c.TopRated(2)
	require.Len(t, top, 2)
	assert.Equal(t, "b", top[0].ID)
	assert.Equal(t, "c", top[1].ID)
}

func TestPriceRange_Contains(t *testing.T) {
	r := PriceRange{Min: 10000, Max: 30000}
	assert.True(t, r.Contains(10000))
	assert.True(t, r.Contains(30000))
	assert.False(t, r.Contains(30001))
	assert.Equal(t, 20000.0, r.Span())
}

func TestFormatINR(t *testing.T) {
	assert.Equal(t, "₹30,000", FormatINR(30000))
	assert.Equal(t, "₹134,900", FormatINR(134900))
	assert.Equal(t, "₹999", FormatINR(999.4))
}

func TestParse_InheritsDocumentCurrency(t *testing.T) {
	c, err := Parse([]byte(`
currency: USD
phones:
  - id: demo
    name: Demo Phone
    brand: Demo
    model: One
    price: {current: 499}
    availability: pre-order
    category: budget
    rating: {overall: 4, camera: 4, performance: 4, battery: 4, display: 4, design: 4}
`))
	require.NoError(t, err)
	it, ok := c.Get("demo")
	require.True(t, ok)
	assert.Equal(t, "USD", it.Price.Currency)
	assert.Equal(t, PreOrder, it.Availability)
}
