package document

import (
	"fmt"

	"github.com/spf13/cobra"

	"payfamily/cmd/client/cmd/prompt"
)

var updateFields fields

var UpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Change fields of a document",
	Long:  `Only the fields given as flags change. The rest of the document is kept.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := unlocked(cmd)
		if err != nil {
			return err
		}

		d, err := app.Documents.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if err := updateFields.apply(cmd, d, false); err != nil {
			return err
		}

		if err := app.Documents.Update(cmd.Context(), d); err != nil {
			return fmt.Errorf("update document: %w", err)
		}

		prompt.New().Success("document %s updated", d.ID)
		return nil
	},
}

func init() {
	updateFields.bind(UpdateCmd)
}
