package document

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"payfamily/cmd/client/cmd/types"
	"payfamily/internal/domain/document"
)

var summaryFilters filters

var SummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Totals per currency and category",
	Long:  `Amounts in different currencies are never added together.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := unlocked(cmd)
		if err != nil {
			return err
		}

		docs, err := app.Documents.Find(cmd.Context(), summaryFilters.filter())
		if err != nil {
			return err
		}
		s := document.Summarize(docs)

		out := cmd.OutOrStdout()
		if types.JSONOutput {
			return printJSON(out, s)
		}

		if s.Count == 0 {
			fmt.Fprintln(out, "No documents match")
			return nil
		}

		fmt.Fprintf(out, "%d documents\n\n", s.Count)

		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "CATEGORY\tTOTAL")
		for _, category := range sortedKeys(s.ByCategory) {
			for _, line := range amounts(s.ByCategory[category]) {
				fmt.Fprintf(tw, "%s\t%s\n", category, line)
			}
		}
		for _, line := range amounts(s.Totals) {
			fmt.Fprintf(tw, "All\t%s\n", line)
		}
		return tw.Flush()
	},
}

func amounts(byCurrency map[string]decimal.Decimal) []string {
	lines := make([]string, 0, len(byCurrency))
	for _, currency := range sortedKeys(byCurrency) {
		lines = append(lines, byCurrency[currency].StringFixed(2)+" "+currency)
	}
	return lines
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func init() {
	summaryFilters.bind(SummaryCmd)
}
