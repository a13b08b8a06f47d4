package document

import (
	"fmt"

	"github.com/spf13/cobra"

	"payfamily/cmd/client/cmd/types"
	"payfamily/internal/domain/document"
)

var (
	listFilters filters
	listType    string
)

var ListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls", "find"},
	Short:   "List documents, optionally filtered",
	Example: `  payfamily document list --from 2026-01-01 --to 2026-01-31
  payfamily document find --vendor whole --category food`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := unlocked(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		f := listFilters.filter()

		var docs []*document.Document
		if listType != "" {
			all, err := app.Documents.ListByType(ctx, document.Type(listType))
			if err != nil {
				return err
			}
			for _, d := range all {
				if f.Match(d) {
					docs = append(docs, d)
				}
			}
		} else {
			docs, err = app.Documents.Find(ctx, f)
			if err != nil {
				return err
			}
		}

		out := cmd.OutOrStdout()
		if types.JSONOutput {
			if docs == nil {
				docs = []*document.Document{}
			}
			return printJSON(out, docs)
		}

		total, err := app.Documents.Count(ctx)
		if err != nil {
			return err
		}
		if len(docs) == 0 {
			fmt.Fprintf(out, "No documents match (%d stored)\n", total)
			return nil
		}
		if err := printTable(out, docs); err != nil {
			return err
		}
		fmt.Fprintf(out, "\n%d of %d documents\n", len(docs), total)
		return nil
	},
}

func init() {
	listFilters.bind(ListCmd)
	ListCmd.Flags().StringVar(&listType, "type", "", "receipt or invoice")
}
