package document

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"payfamily/cmd/client/cmd/prompt"
	"payfamily/cmd/client/cmd/types"
	"payfamily/internal/app/client"
	"payfamily/internal/app/client/crypto"
	"payfamily/internal/domain/document"
)

const (
	defaultCurrency = "USD"
	shortIDLength   = 8
)

// DocumentCmd is the parent of every document operation.
var DocumentCmd = &cobra.Command{
	Use:     "document",
	Aliases: []string{"doc", "documents"},
	Short:   "Manage receipts and invoices",
}

// unlocked returns the app with its session unlocked.
func unlocked(cmd *cobra.Command) (*client.App, error) {
	app, err := types.App(cmd.Context())
	if err != nil {
		return nil, err
	}
	secret, err := prompt.New().Unlock(app)
	if err != nil {
		return nil, err
	}
	crypto.ClearMemory(secret)
	return app, nil
}

// fields are the flags that set document fields.
type fields struct {
	docType     string
	vendor      string
	company     string
	amount      string
	currency    string
	category    string
	date        string
	taxID       string
	description string
	image       string
	role        string
}

func (f *fields) bind(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.docType, "type", string(document.TypeReceipt), "receipt or invoice")
	fs.StringVar(&f.vendor, "vendor", "", "vendor name")
	fs.StringVar(&f.company, "company", "", "company name")
	fs.StringVar(&f.amount, "amount", "", "total amount, e.g. 42.17")
	fs.StringVar(&f.currency, "currency", defaultCurrency, "ISO 4217 currency code")
	fs.StringVar(&f.category, "category", "", "category, guessed when empty")
	fs.StringVar(&f.date, "date", "", "transaction date YYYY-MM-DD, today when empty")
	fs.StringVar(&f.taxID, "tax-id", "", "tax id printed on the document")
	fs.StringVar(&f.description, "description", "", "free text description")
	fs.StringVar(&f.image, "image", "", "path of the scanned image")
	fs.StringVar(&f.role, "role", "", "family role of the payer")
}

// apply copies the flags the user set into d. With all set, defaults
// count as set too.
func (f *fields) apply(cmd *cobra.Command, d *document.Document, all bool) error {
	set := func(name string) bool {
		return all || cmd.Flags().Changed(name)
	}

	if set("type") {
		d.Type = document.Type(strings.ToLower(f.docType))
	}
	if set("vendor") && f.vendor != "" {
		d.VendorName = f.vendor
	}
	if set("company") && f.company != "" {
		d.CompanyName = f.company
	}
	if set("amount") && f.amount != "" {
		amount, err := decimal.NewFromString(f.amount)
		if err != nil {
			return fmt.Errorf("invalid amount %q: %w", f.amount, err)
		}
		d.TotalAmount = amount
	}
	if set("currency") {
		d.Currency = strings.ToUpper(f.currency)
	}
	if set("category") && f.category != "" {
		d.Category = f.category
		if known, ok := document.KnownCategory(f.category); ok {
			d.Category = known
		}
	}
	if set("date") && f.date != "" {
		d.TransactionDate = f.date
	}
	if set("tax-id") && f.taxID != "" {
		d.TaxID = f.taxID
	}
	if set("description") && f.description != "" {
		d.Description = f.description
	}
	if set("image") && f.image != "" {
		d.ImageSrc = f.image
	}
	if set("role") && f.role != "" {
		d.FamilyRole = f.role
	}

	if d.TransactionDate == "" {
		d.TransactionDate = time.Now().Format(document.DateLayout)
	}

	return nil
}

// askMissing prompts for the fields no flag or scan filled in.
func askMissing(p *prompt.Prompter, d *document.Document) error {
	if strings.TrimSpace(d.VendorName) == "" {
		vendor, err := p.Line("Vendor")
		if err != nil {
			return err
		}
		d.VendorName = vendor
	}
	if d.TotalAmount.IsZero() {
		raw, err := p.Line("Amount")
		if err != nil {
			return err
		}
		if raw != "" {
			amount, err := decimal.NewFromString(raw)
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", raw, err)
			}
			d.TotalAmount = amount
		}
	}
	return nil
}

// filters are the flags shared by list and summary.
type filters struct {
	vendor   string
	category string
	company  string
	taxID    string
	member   string
	from     string
	to       string
}

func (f *filters) bind(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.vendor, "vendor", "", "vendor name contains")
	fs.StringVar(&f.category, "category", "", "exact category")
	fs.StringVar(&f.company, "company", "", "exact company name")
	fs.StringVar(&f.taxID, "tax-id", "", "exact tax id")
	fs.StringVar(&f.member, "member", "", "added by this family member")
	fs.StringVar(&f.from, "from", "", "first transaction date YYYY-MM-DD")
	fs.StringVar(&f.to, "to", "", "last transaction date YYYY-MM-DD")
}

func (f *filters) filter() document.Filter {
	category := f.category
	if known, ok := document.KnownCategory(category); ok {
		category = known
	}
	return document.Filter{
		Vendor:      f.vendor,
		Category:    category,
		CompanyName: f.company,
		TaxID:       f.taxID,
		Member:      f.member,
		StartDate:   f.from,
		EndDate:     f.to,
	}
}

func shortID(id string) string {
	if len(id) <= shortIDLength {
		return id
	}
	return id[:shortIDLength]
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printTable(w io.Writer, docs []*document.Document) error {
	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].TransactionDate > docs[j].TransactionDate
	})

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tTYPE\tVENDOR\tAMOUNT\tCATEGORY\tADDED BY")
	for _, d := range docs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s %s\t%s\t%s\n",
			shortID(d.ID), d.TransactionDate, d.Type.DisplayName(), d.VendorName,
			d.TotalAmount.StringFixed(2), d.Currency, d.Category, d.AddedBy)
	}
	return tw.Flush()
}

func printDocument(w io.Writer, d *document.Document) error {
	if types.JSONOutput {
		return printJSON(w, d)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	row := func(label, value string) {
		if value != "" {
			fmt.Fprintf(tw, "%s:\t%s\n", label, value)
		}
	}
	row("ID", d.ID)
	row("Type", d.Type.DisplayName())
	row("Vendor", d.VendorName)
	row("Company", d.CompanyName)
	row("Amount", d.TotalAmount.StringFixed(2)+" "+d.Currency)
	row("Category", d.Category)
	row("Date", d.TransactionDate)
	row("Tax ID", d.TaxID)
	row("Description", d.Description)
	row("Image", d.ImageSrc)
	row("Added by", d.AddedBy)
	row("Family role", d.FamilyRole)
	row("Created", d.CreatedAt.Local().Format(time.RFC1123))
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(d.Items) > 0 {
		fmt.Fprintln(w, "\nItems:")
		tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		for _, item := range d.Items {
			fmt.Fprintf(tw, "  %s\t%s x\t%s\n", item.Name, item.Quantity.String(), item.Price.StringFixed(2))
		}
		return tw.Flush()
	}
	return nil
}
