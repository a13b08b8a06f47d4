package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"payfamily/cmd/client/cmd/prompt"
	"payfamily/cmd/client/cmd/types"
	"payfamily/internal/domain/identity"
)

var profile identity.Profile

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Save the identity handed over by your login provider",
	Long: `login records who you are so documents can be attributed to you and
backups stored under your id. Authentication happens at the provider;
payfamily only keeps the resulting profile.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		p := prompt.New()

		if profile.ID == "" {
			id, err := p.Line("Provider user id")
			if err != nil {
				return err
			}
			profile.ID = id
		}
		if profile.Name == "" && profile.Email == "" {
			name, err := p.Line("Name")
			if err != nil {
				return err
			}
			profile.Name = name
		}

		if err := app.Login(&profile); err != nil {
			return fmt.Errorf("login: %w", err)
		}

		p.Success("logged in as %s", profile.DisplayName())
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the saved identity",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := app.Logout(); err != nil {
			return err
		}
		prompt.New().Success("logged out, documents are now added as guest")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the current identity",
	RunE: func(cmd *cobra.Command, _ []string) error {
		current := app.Profile()
		if types.JSONOutput {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(current)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", current.DisplayName(), current.ID)
		if current.Role != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "Role: %s\n", current.Role)
		}
		if current.Provider != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "Provider: %s\n", current.Provider)
		}
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVar(&profile.ID, "id", "", "user id at the provider")
	loginCmd.Flags().StringVar(&profile.Name, "name", "", "display name")
	loginCmd.Flags().StringVar(&profile.Email, "email", "", "email address")
	loginCmd.Flags().StringVar(&profile.Role, "role", "", "family role: Husband or Wife")
	loginCmd.Flags().StringVar(&profile.Provider, "provider", "", "login provider, e.g. google")
}
