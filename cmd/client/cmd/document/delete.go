package document

import (
	"fmt"

	"github.com/spf13/cobra"

	"payfamily/cmd/client/cmd/prompt"
	"payfamily/cmd/client/cmd/types"
)

var deleteYes bool

var DeleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Delete a document",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := types.App(cmd.Context())
		if err != nil {
			return err
		}
		p := prompt.New()

		if !deleteYes && !p.Confirm(fmt.Sprintf("Delete document %s?", args[0])) {
			p.Warn("nothing deleted")
			return nil
		}

		if err := app.Documents.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}

		p.Success("document %s deleted", args[0])
		return nil
	},
}

func init() {
	DeleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "delete without asking")
}
