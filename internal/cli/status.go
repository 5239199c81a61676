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

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show vault and repository status",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			vaultPath := config.MustVaultFrom(ctx)
			cfg, err := config.LoadAgent(vaultPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "Vault: %s\n", vaultPath)
			_, _ = fmt.Fprintf(out, "Agent: %s (%s)\n", cfg.AgentID, cfg.Role)

			store := vault.New(vaultPath)
			for _, stage := range models.Stages() {
				refs, err := store.Scan(stage, "")
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(out, "  %-17s %d\n", string(stage)+":", len(refs))
			}

			repo := gitx.Repo{Dir: vaultPath, Remote: cfg.GitRemote, Branch: cfg.GitBranch, Timeout: cfg.GitTimeout}
			if !repo.IsRepo(ctx) {
				_, _ = fmt.Fprintln(out, "Sync: not a git repository")
				return nil
			}
			st, err := vsync.GetStatus(ctx, repo)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(out, "Sync: branch %s, ahead %d, behind %d, dirty %v\n", st.Branch, st.Ahead, st.Behind, st.Dirty)
			if st.LastCommit != "" {
				_, _ = fmt.Fprintf(out, "  last commit: %s\n", st.LastCommit)
			}
			return nil
		},
	}
	return cmd
}
