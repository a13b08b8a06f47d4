package document

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payfamily/internal/domain/document"
)

func parsed(t *testing.T, args ...string) (*cobra.Command, *fields) {
	t.Helper()
	var f fields
	cmd := &cobra.Command{Use: "test"}
	f.bind(cmd)
	require.NoError(t, cmd.Flags().Parse(args))
	return cmd, &f
}

func TestFields_ApplyAll(t *testing.T) {
	cmd, f := parsed(t, "--vendor", "Whole Foods", "--amount", "42.17", "--category", "food", "--currency", "usd")

	d := &document.Document{AddedBy: "Alex"}
	require.NoError(t, f.apply(cmd, d, true))

	assert.Equal(t, document.TypeReceipt, d.Type)
	assert.Equal(t, "Whole Foods", d.VendorName)
	assert.True(t, decimal.RequireFromString("42.17").Equal(d.TotalAmount))
	assert.Equal(t, document.CategoryFood, d.Category)
	assert.Equal(t, "USD", d.Currency)
	assert.Equal(t, time.Now().Format(document.DateLayout), d.TransactionDate)
	assert.Equal(t, "Alex", d.AddedBy)
	assert.NoError(t, document.Validate(d))
}

func TestFields_ApplyChangedOnly(t *testing.T) {
	cmd, f := parsed(t, "--amount", "10", "--category", "Kids")

	d := &document.Document{
		Type:            document.TypeInvoice,
		VendorName:      "ACME",
		Currency:        "EUR",
		TransactionDate: "2026-02-01",
	}
	require.NoError(t, f.apply(cmd, d, false))

	assert.Equal(t, document.TypeInvoice, d.Type)
	assert.Equal(t, "EUR", d.Currency)
	assert.Equal(t, "2026-02-01", d.TransactionDate)
	assert.Equal(t, "Kids", d.Category)
	assert.True(t, decimal.NewFromInt(10).Equal(d.TotalAmount))
}

func TestFields_BadAmount(t *testing.T) {
	cmd, f := parsed(t, "--amount", "lots")
	assert.Error(t, f.apply(cmd, &document.Document{}, true))
}

func TestFilters(t *testing.T) {
	var fl filters
	cmd := &cobra.Command{Use: "test"}
	fl.bind(cmd)
	require.NoError(t, cmd.Flags().Parse([]string{"--category", "TRANSPORT", "--from", "2026-01-01", "--member", "Alex"}))

	f := fl.filter()
	assert.Equal(t, document.CategoryTransport, f.Category)
	assert.Equal(t, "2026-01-01", f.StartDate)
	assert.Equal(t, "Alex", f.Member)
}

func TestPrintTable(t *testing.T) {
	docs := []*document.Document{
		{ID: "11111111-aaaa", Type: document.TypeReceipt, VendorName: "Old", TotalAmount: decimal.NewFromInt(1), Currency: "USD", TransactionDate: "2026-01-01"},
		{ID: "22222222-bbbb", Type: document.TypeInvoice, VendorName: "New", TotalAmount: decimal.RequireFromString("2.5"), Currency: "EUR", TransactionDate: "2026-03-01"},
	}

	var buf bytes.Buffer
	require.NoError(t, printTable(&buf, docs))

	out := buf.String()
	assert.Contains(t, out, "22222222")
	assert.NotContains(t, out, "22222222-bbbb")
	assert.Contains(t, out, "2.50 EUR")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("New")), bytes.Index(buf.Bytes(), []byte("Old")))
}

func TestAmounts(t *testing.T) {
	lines := amounts(map[string]decimal.Decimal{
		"USD": decimal.RequireFromString("60.22"),
		"EUR": decimal.NewFromInt(100),
	})
	assert.Equal(t, []string{"100.00 EUR", "60.22 USD"}, lines)
}
