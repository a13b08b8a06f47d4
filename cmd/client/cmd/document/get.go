package document

import (
	"github.com/spf13/cobra"
)

var GetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one document",
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
		return printDocument(cmd.OutOrStdout(), d)
	},
}
