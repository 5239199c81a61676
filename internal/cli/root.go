// Package cli wires the vault-agent command tree.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/RubaiyaKamal/AI-Employee-Vault/internal/config"
)

func NewRootCmd(version string) *cobra.Command {
	var vaultOverride string

	cmd := &cobra.Command{
		Use:          "vault-agent",
		Short:        "AI Employee vault agent — claims, drafts, executes, and syncs work items",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			vault, err := config.ResolveVault(vaultOverride)
			if err != nil {
				return err
			}
			cmd.SetContext(config.WithVault(cmd.Context(), vault))
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&vaultOverride, "vault", "", "Override vault directory (default: ~/AI_Employee_Vault, env: VAULT_PATH)")

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newSyncCmd())
	cmd.AddCommand(newSweepCmd())
	cmd.AddCommand(newDoctorCmd())

	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)

	cmd.SetVersionTemplate("{{.Version}}\n")
	if version != "" {
		cmd.Version = version
	} else {
		cmd.Version = "dev"
	}

	return cmd
}
