package backup

import (
	"github.com/spf13/cobra"

	"payfamily/cmd/client/cmd/types"
	"payfamily/internal/app/client"
	backups "payfamily/internal/app/client/backup"
)

// BackupCmd is the parent of the backup operations.
var BackupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Encrypted backups in S3 or on a backup server",
	Long: `Backups are a single envelope holding every document, encrypted with
your secret. The remote only ever sees ciphertext. Configure the remote with
BACKUP_BACKEND=s3 or BACKUP_BACKEND=server.`,
}

func service(cmd *cobra.Command) (*client.App, *backups.Service, error) {
	app, err := types.App(cmd.Context())
	if err != nil {
		return nil, nil, err
	}
	svc, err := app.Backups()
	if err != nil {
		return nil, nil, err
	}
	return app, svc, nil
}
