package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/exp/slog"

	"payfamily/cmd/client/cmd/backup"
	"payfamily/cmd/client/cmd/document"
	"payfamily/cmd/client/cmd/types"
	"payfamily/internal/app/client"
	"payfamily/internal/app/client/config"
	"payfamily/internal/utils/logger"
)

var (
	envFile string
	debug   bool
	app     *client.App
)

var rootCmd = &cobra.Command{
	Use:   "payfamily",
	Short: "payfamily - family receipts and invoices, encrypted on this device",
	Long: `payfamily keeps the family's receipts and invoices in a local store.
Every document is encrypted with a key derived from your secret before it
is written to disk. Backups hold the same ciphertext and never the secret.`,
	PersistentPreRunE:  setupApp,
	PersistentPostRunE: closeApp,
	SilenceUsage:       true,
	SilenceErrors:      true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		color.New(color.FgRed, color.Bold).Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func setupApp(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	var level slog.Leveler = slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	log := logger.NewWithOutput(cfg.Env, os.Stderr, level)

	app, err = client.New(cmd.Context(), cfg, log)
	if err != nil {
		// nothing works without the local store
		color.New(color.FgRed, color.Bold).Fprintf(os.Stderr,
			"Cannot open local storage at %s: %v\n", cfg.DataPath, err)
		os.Exit(1)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(types.WithApp(ctx, app))

	return nil
}

func closeApp(_ *cobra.Command, _ []string) error {
	if app == nil {
		return nil
	}
	return app.Close()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file with configuration")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "log debug output to stderr")
	rootCmd.PersistentFlags().BoolVar(&types.JSONOutput, "json", false, "print results as JSON")

	rootCmd.AddCommand(initCmd, passwdCmd, loginCmd, logoutCmd, whoamiCmd)

	rootCmd.AddCommand(document.DocumentCmd)
	document.DocumentCmd.AddCommand(
		document.AddCmd,
		document.ListCmd,
		document.GetCmd,
		document.UpdateCmd,
		document.DeleteCmd,
		document.ScanCmd,
		document.SummaryCmd,
	)

	rootCmd.AddCommand(backup.BackupCmd)
	backup.BackupCmd.AddCommand(
		backup.PushCmd,
		backup.PullCmd,
		backup.ListCmd,
		backup.DeleteCmd,
	)
}
