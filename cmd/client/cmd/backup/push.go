package backup

import (
	"fmt"

	"github.com/spf13/cobra"

	"payfamily/cmd/client/cmd/prompt"
	"payfamily/internal/app/client/crypto"
)

var PushCmd = &cobra.Command{
	Use:   "push [name]",
	Short: "Upload an encrypted backup of every document",
	Long:  `Without a name the backup is called backup_YYYYMMDD_HHMMSS. An existing backup with the same name is replaced.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, svc, err := service(cmd)
		if err != nil {
			return err
		}
		p := prompt.New()

		secret, err := p.Unlock(app)
		if err != nil {
			return err
		}
		defer crypto.ClearMemory(secret)

		var name string
		if len(args) > 0 {
			name = args[0]
		}

		name, err = svc.Push(cmd.Context(), name, secret)
		if err != nil {
			return fmt.Errorf("push backup: %w", err)
		}

		p.Success("backup %s uploaded", name)
		return nil
	},
}
