package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/RubaiyaKamal/AI-Employee-Vault/internal/config"
	"github.com/RubaiyaKamal/AI-Employee-Vault/internal/gitx"
	vsync "github.com/RubaiyaKamal/AI-Employee-Vault/internal/sync"
	"github.com/RubaiyaKamal/AI-Employee-Vault/internal/vault"
	"github.com/RubaiyaKamal/AI-Employee-Vault/pkg/models"
)

func newInitCmd() *cobra.Command {
	var (
		remoteURL string
		agentID   string
		role      string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the vault layout, agent config, and git repository",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			vaultPath := config.MustVaultFrom(ctx)

			cfg, err := config.LoadAgent(vaultPath)
			if err != nil {
				return err
			}
			if agentID != "" {
				cfg.AgentID = agentID
			}
			if role != "" {
				cfg.Role = models.Role(role)
				if !cfg.Role.Valid() {
					return fmt.Errorf("invalid role %q (want %q or %q)", cfg.Role, models.RoleDrafter, models.RoleExecutor)
				}
			}

			store := vault.New(vaultPath)
			if err := store.EnsureLayout(cfg.AgentID); err != nil {
				return err
			}
			if err := config.SaveAgent(vaultPath, cfg); err != nil {
				return err
			}

			repo := gitx.Repo{Dir: vaultPath, Remote: cfg.GitRemote, Branch: cfg.GitBranch, Timeout: cfg.GitTimeout}
			if err := vsync.InitRepo(ctx, repo, remoteURL, cfg.AgentID); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "vault initialized at %s (agent %s, role %s)\n", vaultPath, cfg.AgentID, cfg.Role)
			return nil
		},
	}

	cmd.Flags().StringVar(&remoteURL, "remote", "", "Git remote URL for vault sync (optional)")
	cmd.Flags().StringVar(&agentID, "agent-id", "", "Agent identity to record in agent.yaml")
	cmd.Flags().StringVar(&role, "role", "", "Agent role: drafter or executor")
	return cmd
}
