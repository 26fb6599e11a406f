package catalog

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var pricePrinter = message.NewPrinter(language.English)

// FormatINR renders an amount in rupees with digit grouping, e.g. ₹30,000.
func FormatINR(amount float64) string {
	return pricePrinter.Sprintf("₹%d", int64(math.Round(amount)))
}
