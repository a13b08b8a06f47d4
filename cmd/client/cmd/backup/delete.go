package backup

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"payfamily/cmd/client/cmd/prompt"
	backups "payfamily/internal/app/client/backup"
)

var deleteYes bool

var DeleteCmd = &cobra.Command{
	Use:     "delete <name>",
	Aliases: []string{"rm"},
	Short:   "Delete a backup",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, svc, err := service(cmd)
		if err != nil {
			return err
		}
		p := prompt.New()

		if !deleteYes && !p.Confirm(fmt.Sprintf("Delete backup %s?", args[0])) {
			p.Warn("nothing deleted")
			return nil
		}

		err = svc.Delete(cmd.Context(), args[0])
		if errors.Is(err, backups.ErrNotFound) {
			return fmt.Errorf("no backup named %q", args[0])
		}
		if err != nil {
			return fmt.Errorf("delete backup: %w", err)
		}

		p.Success("backup %s deleted", args[0])
		return nil
	},
}

func init() {
	DeleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "delete without asking")
}
