package document

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"payfamily/cmd/client/cmd/prompt"
	"payfamily/internal/app/client"
	"payfamily/internal/domain/document"
)

var addFields fields

var AddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a receipt or invoice",
	Long: `Add a document from flags. Vendor and amount are asked for when not
given. Without --category one is guessed from the vendor and description.`,
	Example: `  payfamily document add --vendor "Whole Foods" --amount 42.17 --category Food
  payfamily document add --type invoice --vendor ACME --company "ACME Ltd" --tax-id 123456789`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := unlocked(cmd)
		if err != nil {
			return err
		}
		p := prompt.New()

		d := app.NewDocument(document.TypeReceipt)
		if err := addFields.apply(cmd, d, true); err != nil {
			return err
		}
		if err := askMissing(p, d); err != nil {
			return err
		}
		guessCategory(cmd, app, d)

		id, err := app.Documents.Add(cmd.Context(), d)
		if err != nil {
			return fmt.Errorf("add document: %w", err)
		}

		p.Success("%s added: %s (%s)", d.Type.DisplayName(), id, d.Category)
		return nil
	},
}

// guessCategory fills an empty category. The categorizer falls back to
// Other on its own.
func guessCategory(cmd *cobra.Command, app *client.App, d *document.Document) {
	if d.Category != "" {
		return
	}
	text := strings.TrimSpace(d.VendorName + " " + d.Description)
	d.Category = app.Categorizer.CategorizeText(cmd.Context(), text)
}

func init() {
	addFields.bind(AddCmd)
}
