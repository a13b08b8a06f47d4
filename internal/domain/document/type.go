package document

import "fmt"

type Type string

const (
	TypeReceipt Type = "receipt"
	TypeInvoice Type = "invoice"
)

func (t Type) Validate() error {
	switch t {
	case TypeReceipt, TypeInvoice:
		return nil
	}
	return fmt.Errorf("unknown document type: %q", string(t))
}

func (t Type) String() string {
	return string(t)
}

// DisplayName returns the label shown to the user.
func (t Type) DisplayName() string {
	switch t {
	case TypeReceipt:
		return "Receipt"
	case TypeInvoice:
		return "Invoice"
	default:
		return "Unknown"
	}
}

const (
	CategoryFood          = "Food"
	CategoryTransport     = "Transport"
	CategoryUtilities     = "Utilities"
	CategoryEntertainment = "Entertainment"
	CategoryHealthcare    = "Healthcare"
	CategoryShopping      = "Shopping"
	CategorySubscriptions = "Subscriptions"
	CategoryOffice        = "Office"
	CategoryOther         = "Other"
)

// Categories is the built-in category list. Users may add their own.
var Categories = []string{
	CategoryFood,
	CategoryTransport,
	CategoryUtilities,
	CategoryEntertainment,
	CategoryHealthcare,
	CategoryShopping,
	CategorySubscriptions,
	CategoryOffice,
	CategoryOther,
}

// KnownCategory returns the built-in category matching name case-insensitively.
func KnownCategory(name string) (string, bool) {
	for _, c := range Categories {
		if equalFold(c, name) {
			return c, true
		}
	}
	return "", false
}
