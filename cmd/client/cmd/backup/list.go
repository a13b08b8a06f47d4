package backup

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"payfamily/cmd/client/cmd/types"
)

var ListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List backups, newest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, svc, err := service(cmd)
		if err != nil {
			return err
		}

		objects, err := svc.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("list backups: %w", err)
		}

		out := cmd.OutOrStdout()
		if types.JSONOutput {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(objects)
		}

		if len(objects) == 0 {
			fmt.Fprintln(out, "No backups yet")
			return nil
		}

		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tSIZE\tUPDATED")
		for _, o := range objects {
			fmt.Fprintf(tw, "%s\t%d\t%s\n", o.Name, o.Size, o.UpdatedAt.Local().Format(time.DateTime))
		}
		return tw.Flush()
	},
}
