package categorize

import (
	"math"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"payfamily/internal/domain/document"
)

const (
	maxNameLength = 200
	maxItems      = 100
)

// Suggestion is a best-effort guess about a scanned receipt.
type Suggestion struct {
	VendorName string          `json:"vendorName"`
	Amount     decimal.Decimal `json:"amount"`
	Category   string          `json:"category"`
	Confidence float64         `json:"confidence"`
	Items      []document.Item `json:"items"`
}

// Sanitize turns an untrusted suggestion into one that is safe to store.
// Unknown categories become Other, confidence is clamped to [0,1],
// negative amounts become zero and unusable items are dropped.
func Sanitize(s Suggestion) Suggestion {
	out := Suggestion{
		VendorName: cleanText(s.VendorName),
		Amount:     nonNegative(s.Amount),
		Category:   document.CategoryOther,
		Confidence: clamp(s.Confidence),
	}

	if c, ok := document.KnownCategory(s.Category); ok {
		out.Category = c
	}

	for _, item := range s.Items {
		if len(out.Items) == maxItems {
			break
		}
		name := cleanText(item.Name)
		if name == "" || !item.Quantity.IsPositive() || item.Price.IsNegative() {
			continue
		}
		out.Items = append(out.Items, document.Item{
			Name:     name,
			Quantity: item.Quantity,
			Price:    item.Price,
		})
	}

	return out
}

// Apply copies the suggestion into fields of d that are still empty.
func (s Suggestion) Apply(d *document.Document) {
	if d.VendorName == "" {
		d.VendorName = s.VendorName
	}
	if d.TotalAmount.IsZero() {
		d.TotalAmount = s.Amount
	}
	if d.Category == "" {
		d.Category = s.Category
	}
	if len(d.Items) == 0 {
		d.Items = s.Items
	}
}

func cleanText(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	s = strings.TrimSpace(s)

	if runes := []rune(s); len(runes) > maxNameLength {
		s = strings.TrimSpace(string(runes[:maxNameLength]))
	}
	return s
}

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

func clamp(f float64) float64 {
	switch {
	case math.IsNaN(f), f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}
