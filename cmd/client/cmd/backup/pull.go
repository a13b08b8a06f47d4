package backup

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"payfamily/cmd/client/cmd/prompt"
	backups "payfamily/internal/app/client/backup"
	"payfamily/internal/app/client/crypto"
)

var overwrite bool

var PullCmd = &cobra.Command{
	Use:   "pull <name>",
	Short: "Restore documents from a backup",
	Long: `Documents already in the local store are skipped unless --overwrite
is set. When the backup was made under another secret, that secret is asked
for.`,
	Args: cobra.ExactArgs(1),
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

		res, err := svc.Pull(cmd.Context(), args[0], secret, overwrite)
		if errors.Is(err, crypto.ErrDecrypt) {
			p.Warn("backup %s was made under a different secret", args[0])
			var backupSecret []byte
			backupSecret, err = p.Retry("Backup secret", func(s []byte) error {
				res, err = svc.Pull(cmd.Context(), args[0], s, overwrite)
				return err
			})
			crypto.ClearMemory(backupSecret)
		}
		if errors.Is(err, backups.ErrNotFound) {
			return fmt.Errorf("no backup named %q", args[0])
		}
		if err != nil {
			return fmt.Errorf("pull backup: %w", err)
		}

		p.Success("restored %s: %d added, %d updated, %d skipped", args[0], res.Added, res.Updated, res.Skipped)
		return nil
	},
}

func init() {
	PullCmd.Flags().BoolVar(&overwrite, "overwrite", false, "replace local documents with the backed up version")
}
