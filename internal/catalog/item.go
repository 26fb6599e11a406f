package catalog

import (
	"strconv"
	"strings"
	"unicode"
)

// Availability is the stock state of a phone.
type Availability string

// Availability states.
const (
	InStock    Availability = "in-stock"
	OutOfStock Availability = "out-of-stock"
	PreOrder   Availability = "pre-order"
)

// Valid reports whether a is a known availability state.
func (a Availability) Valid() bool {
	switch a {
	case InStock, OutOfStock, PreOrder:
		return true
	}
	return false
}

// Category is the market segment of a phone.
type Category string

// Market segments.
const (
	Flagship   Category = "flagship"
	Premium    Category = "premium"
	MidRange   Category = "mid-range"
	Budget     Category = "budget"
	EntryLevel Category = "entry-level"
)

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case Flagship, Premium, MidRange, Budget, EntryLevel:
		return true
	}
	return false
}

// Item is a single phone record. Items handed out by a Catalog share their
// slices with the catalog and must be treated as read-only.
type Item struct {
	ID             string         `json:"id" yaml:"id"`
	Name           string         `json:"name" yaml:"name"`
	Brand          string         `json:"brand" yaml:"brand"`
	Model          string         `json:"model" yaml:"model"`
	Price          Price          `json:"price" yaml:"price"`
	Availability   Availability   `json:"availability" yaml:"availability"`
	Specifications Specifications `json:"specifications" yaml:"specifications"`
	Highlights     []string       `json:"highlights" yaml:"highlights"`
	Pros           []string       `json:"pros" yaml:"pros"`
	Cons           []string       `json:"cons" yaml:"cons"`
	TargetAudience []string       `json:"targetAudience" yaml:"targetAudience"`
	Rating         Rating         `json:"rating" yaml:"rating"`
	Reviews        Reviews        `json:"reviews" yaml:"reviews"`
	Tags           []string       `json:"tags" yaml:"tags"`
	ReleaseDate    string         `json:"releaseDate" yaml:"releaseDate"`
	Category       Category       `json:"category" yaml:"category"`
}

// Price holds the selling price and, when discounted, the list price.
type Price struct {
	Current  float64 `json:"current" yaml:"current"`
	Original float64 `json:"original,omitempty" yaml:"original,omitempty"`
	Currency string  `json:"currency" yaml:"currency"`
}

// Rating holds per-dimension scores on a 0-5 scale.
type Rating struct {
	Overall     float64 `json:"overall" yaml:"overall"`
	Camera      float64 `json:"camera" yaml:"camera"`
	Performance float64 `json:"performance" yaml:"performance"`
	Battery     float64 `json:"battery" yaml:"battery"`
	Display     float64 `json:"display" yaml:"display"`
	Design      float64 `json:"design" yaml:"design"`
}

func (r Rating) values() []float64 {
	return []float64{r.Overall, r.Camera, r.Performance, r.Battery, r.Display, r.Design}
}

// Reviews is the review metadata of a phone.
type Reviews struct {
	Count   int    `json:"count" yaml:"count"`
	Summary string `json:"summary" yaml:"summary"`
}

// Specifications groups the technical details of a phone.
type Specifications struct {
	Display      Display      `json:"display" yaml:"display"`
	Processor    Processor    `json:"processor" yaml:"processor"`
	Memory       Memory       `json:"memory" yaml:"memory"`
	Camera       Camera       `json:"camera" yaml:"camera"`
	Battery      Battery      `json:"battery" yaml:"battery"`
	Connectivity Connectivity `json:"connectivity" yaml:"connectivity"`
	Design       Design       `json:"design" yaml:"design"`
	Software     Software     `json:"software" yaml:"software"`
	Audio        Audio        `json:"audio" yaml:"audio"`
	Sensors      []string     `json:"sensors" yaml:"sensors"`
}

// Display describes the screen. Size is a free-form diagonal such as `6.1"`.
type Display struct {
	Size        string `json:"size" yaml:"size"`
	Resolution  string `json:"resolution" yaml:"resolution"`
	Type        string `json:"type" yaml:"type"`
	RefreshRate string `json:"refreshRate" yaml:"refreshRate"`
	Protection  string `json:"protection,omitempty" yaml:"protection,omitempty"`
}

// Processor names the chipset and its CPU and GPU.
type Processor struct {
	Chipset string `json:"chipset" yaml:"chipset"`
	CPU     string `json:"cpu" yaml:"cpu"`
	GPU     string `json:"gpu" yaml:"gpu"`
}

// Memory lists the RAM and storage variants on sale.
type Memory struct {
	RAM        []string `json:"ram" yaml:"ram"`
	Storage    []string `json:"storage" yaml:"storage"`
	Expandable bool     `json:"expandable" yaml:"expandable"`
}

// Camera groups the rear, front and video capabilities.
type Camera struct {
	Rear  RearCamera  `json:"rear" yaml:"rear"`
	Front FrontCamera `json:"front" yaml:"front"`
	Video Video       `json:"video" yaml:"video"`
}

// RearCamera lists the rear sensors; empty lenses are omitted.
type RearCamera struct {
	Main      string   `json:"main" yaml:"main"`
	Ultrawide string   `json:"ultrawide,omitempty" yaml:"ultrawide,omitempty"`
	Telephoto string   `json:"telephoto,omitempty" yaml:"telephoto,omitempty"`
	Macro     string   `json:"macro,omitempty" yaml:"macro,omitempty"`
	Features  []string `json:"features" yaml:"features"`
}

// FrontCamera is the selfie camera.
type FrontCamera struct {
	Main     string   `json:"main" yaml:"main"`
	Features []string `json:"features" yaml:"features"`
}

// Video holds the best recording mode per camera.
type Video struct {
	Rear  string `json:"rear" yaml:"rear"`
	Front string `json:"front" yaml:"front"`
}

// Battery holds the capacity, e.g. "5000mAh", and charging support.
type Battery struct {
	Capacity string   `json:"capacity" yaml:"capacity"`
	Charging Charging `json:"charging" yaml:"charging"`
}

// Charging lists wired, wireless and reverse charging rates.
type Charging struct {
	Wired    string `json:"wired" yaml:"wired"`
	Wireless string `json:"wireless,omitempty" yaml:"wireless,omitempty"`
	Reverse  string `json:"reverse,omitempty" yaml:"reverse,omitempty"`
}

// Connectivity lists radios and ports.
type Connectivity struct {
	Network   []string `json:"network" yaml:"network"`
	WiFi      string   `json:"wifi" yaml:"wifi"`
	Bluetooth string   `json:"bluetooth" yaml:"bluetooth"`
	USB       string   `json:"usb" yaml:"usb"`
	NFC       bool     `json:"nfc" yaml:"nfc"`
}

// Design covers the physical build.
type Design struct {
	Dimensions      string   `json:"dimensions" yaml:"dimensions"`
	Weight          string   `json:"weight" yaml:"weight"`
	Materials       []string `json:"materials" yaml:"materials"`
	Colors          []string `json:"colors" yaml:"colors"`
	WaterResistance string   `json:"waterResistance,omitempty" yaml:"waterResistance,omitempty"`
}

// Software is the shipped OS, skin and update promise.
type Software struct {
	OS            string `json:"os" yaml:"os"`
	UI            string `json:"ui" yaml:"ui"`
	UpdateSupport string `json:"updateSupport" yaml:"updateSupport"`
}

// Audio describes speakers and the headphone jack.
type Audio struct {
	Speakers      string   `json:"speakers" yaml:"speakers"`
	HeadphoneJack bool     `json:"headphoneJack" yaml:"headphoneJack"`
	Features      []string `json:"features" yaml:"features"`
}

// DisplaySizeInches parses the display diagonal, e.g. `6.1"` gives 6.1.
func (it Item) DisplaySizeInches() float64 {
	return leadingNumber(it.Specifications.Display.Size)
}

// BatteryMAh parses the battery capacity, e.g. "5000mAh" gives 5000.
func (it Item) BatteryMAh() int {
	return int(leadingNumber(it.Specifications.Battery.Capacity))
}

// WiredChargingWatts parses the wired charging rate, e.g. "67W" gives 67.
func (it Item) WiredChargingWatts() int {
	return int(leadingNumber(it.Specifications.Battery.Charging.Wired))
}

// HasTag reports whether the item carries the given tag (case-insensitive).
func (it Item) HasTag(tag string) bool {
	for _, t := range it.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// SearchText returns the lower-cased free-text fields used for feature matching.
func (it Item) SearchText() []string {
	fields := make([]string, 0, len(it.Tags)+len(it.Highlights)+len(it.TargetAudience)+len(it.Pros))
	for _, group := range [][]string{it.Tags, it.Highlights, it.TargetAudience, it.Pros} {
		for _, s := range group {
			fields = append(fields, strings.ToLower(s))
		}
	}
	return fields
}

func leadingNumber(s string) float64 {
	s = strings.TrimSpace(s)
	end := strings.IndexFunc(s, func(r rune) bool {
		return !unicode.IsDigit(r) && r != '.'
	})
	if end == 0 {
		return 0
	}
	if end > 0 {
		s = s[:end]
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(s, "."), 64)
	if err != nil {
		return 0
	}
	return v
}
