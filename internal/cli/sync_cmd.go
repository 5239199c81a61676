package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/RubaiyaKamal/AI-Employee-Vault/internal/config"
	"github.com/RubaiyaKamal/AI-Employee-Vault/internal/gitx"
	vsync "github.com/RubaiyaKamal/AI-Employee-Vault/internal/sync"
)

func newSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one vault sync cycle now",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			vaultPath := config.MustVaultFrom(ctx)
			cfg, err := config.LoadAgent(vaultPath)
			if err != nil {
				return err
			}
			repo := gitx.Repo{Dir: vaultPath, Remote: cfg.GitRemote, Branch: cfg.GitBranch, Timeout: cfg.GitTimeout}
			if !repo.IsRepo(ctx) {
				return errors.New("vault is not a git repository (run `vault-agent init` first)")
			}

			res := vsync.New(repo, cfg.ConflictPolicy, cfg.AgentID).Sync(ctx)
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "pulled=%v committed=%v pushed=%v\n", res.Pulled, res.Committed, res.Pushed)
			if !res.Success {
				for _, e := range res.Errors {
					_, _ = fmt.Fprintln(cmd.ErrOrStderr(), e)
				}
				return errors.New("sync incomplete")
			}
			return nil
		},
	}
	return cmd
}
