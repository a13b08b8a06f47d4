package document

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the format of Document.TransactionDate.
const DateLayout = "2006-01-02"

// Document is a receipt or invoice. Field names match the JSON the
// application has always written so older exports stay readable.
type Document struct {
	ID              string          `json:"id"`
	Type            Type            `json:"type"`
	VendorName      string          `json:"vendorName"`
	CompanyName     string          `json:"companyName"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	Currency        string          `json:"currency"`
	Category        string          `json:"category"`
	TransactionDate string          `json:"transactionDate"`
	TaxID           string          `json:"taxId,omitempty"`
	Description     string          `json:"description,omitempty"`
	Items           []Item          `json:"items,omitempty"`
	ImageSrc        string          `json:"imageSrc,omitempty"`
	AddedBy         string          `json:"addedBy,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	FamilyRole      string          `json:"familyRole,omitempty"`
}

type Item struct {
	Name     string          `json:"name"`
	Quantity decimal.Decimal `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// Filter narrows a document list. Zero fields match everything.
type Filter struct {
	Vendor      string
	Category    string
	CompanyName string
	TaxID       string
	Member      string
	StartDate   string
	EndDate     string
}

// Match reports whether d passes every set field of f. Vendor is a
// case-insensitive substring match, the rest are exact.
func (f Filter) Match(d *Document) bool {
	if f.Vendor != "" && !strings.Contains(strings.ToLower(d.VendorName), strings.ToLower(f.Vendor)) {
		return false
	}
	if f.Category != "" && d.Category != f.Category {
		return false
	}
	if f.CompanyName != "" && d.CompanyName != f.CompanyName {
		return false
	}
	if f.TaxID != "" && d.TaxID != f.TaxID {
		return false
	}
	if f.Member != "" && d.AddedBy != f.Member {
		return false
	}
	if f.StartDate != "" && d.TransactionDate < f.StartDate {
		return false
	}
	if f.EndDate != "" && d.TransactionDate > f.EndDate {
		return false
	}
	return true
}

// Summary aggregates amounts per currency. Amounts in different
// currencies are never added together.
type Summary struct {
	Count      int
	Totals     map[string]decimal.Decimal
	ByCategory map[string]map[string]decimal.Decimal
}

func Summarize(docs []*Document) Summary {
	s := Summary{
		Totals:     make(map[string]decimal.Decimal),
		ByCategory: make(map[string]map[string]decimal.Decimal),
	}

	for _, d := range docs {
		s.Count++
		s.Totals[d.Currency] = s.Totals[d.Currency].Add(d.TotalAmount)

		byCurrency, ok := s.ByCategory[d.Category]
		if !ok {
			byCurrency = make(map[string]decimal.Decimal)
			s.ByCategory[d.Category] = byCurrency
		}
		byCurrency[d.Currency] = byCurrency[d.Currency].Add(d.TotalAmount)
	}

	return s
}

func equalFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
