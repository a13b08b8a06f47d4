package document

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var currencyRe = regexp.MustCompile(`^[A-Z]{3}$`)

// Validate checks d before it is encrypted and stored.
func Validate(d *Document) error {
	if err := d.Type.Validate(); err != nil {
		return invalid(err.Error())
	}
	if strings.TrimSpace(d.VendorName) == "" {
		return invalid("vendor name is required")
	}
	if d.TotalAmount.IsNegative() {
		return invalid("total amount must not be negative")
	}
	if !currencyRe.MatchString(d.Currency) {
		return invalid(fmt.Sprintf("currency must be a 3-letter ISO 4217 code, got %q", d.Currency))
	}
	if strings.TrimSpace(d.Category) == "" {
		return invalid("category is required")
	}
	if _, err := time.Parse(DateLayout, d.TransactionDate); err != nil {
		return invalid(fmt.Sprintf("transaction date must be YYYY-MM-DD, got %q", d.TransactionDate))
	}

	for i, item := range d.Items {
		if strings.TrimSpace(item.Name) == "" {
			return invalid(fmt.Sprintf("item %d: name is required", i))
		}
		if !item.Quantity.IsPositive() {
			return invalid(fmt.Sprintf("item %d: quantity must be positive", i))
		}
		if item.Price.IsNegative() {
			return invalid(fmt.Sprintf("item %d: price must not be negative", i))
		}
	}

	return nil
}

func invalid(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidDocument, reason)
}
