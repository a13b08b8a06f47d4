package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"payfamily/cmd/client/cmd/prompt"
	"payfamily/internal/app/client/crypto"
)

var guest bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the encrypted local store",
	Long: `init derives the encryption key from a secret you choose and writes
the key file. The secret itself is never stored.

With --guest a random secret is generated and printed once. Write it down:
without it the documents cannot be decrypted.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		p := prompt.New()

		if app.IsInitialized() {
			p.Warn("already initialized")
			return nil
		}

		p.Header("=== payfamily setup ===")

		if guest {
			secret, err := app.InitGuest()
			if err != nil {
				return fmt.Errorf("init: %w", err)
			}
			p.Success("store created")
			fmt.Fprintln(p.Out())
			p.Warn("Your secret is shown only this once:")
			fmt.Fprintf(p.Out(), "\n    %s\n\n", secret)
			p.Warn("Store it somewhere safe. Lost secrets cannot be recovered.")
			return nil
		}

		secret, err := p.NewSecret("New secret")
		if err != nil {
			return err
		}
		defer crypto.ClearMemory(secret)

		if err := app.Init(secret); err != nil {
			return fmt.Errorf("init: %w", err)
		}

		p.Success("store created")
		fmt.Fprintln(p.Out(), "Next: payfamily login, then payfamily document add")

		return nil
	},
}

var passwdCmd = &cobra.Command{
	Use:   "passwd",
	Short: "Change the secret and re-encrypt every document",
	RunE: func(cmd *cobra.Command, _ []string) error {
		p := prompt.New()

		oldSecret, err := p.Unlock(app)
		if err != nil {
			return err
		}
		defer crypto.ClearMemory(oldSecret)

		newSecret, err := p.NewSecret("New secret")
		if err != nil {
			return err
		}
		defer crypto.ClearMemory(newSecret)

		if err := app.ChangeSecret(cmd.Context(), oldSecret, newSecret); err != nil {
			return fmt.Errorf("change secret: %w", err)
		}

		p.Success("secret changed, documents re-encrypted")
		p.Warn("backups pushed before this change still need the previous secret")
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&guest, "guest", false, "generate a random secret instead of asking for one")
}
