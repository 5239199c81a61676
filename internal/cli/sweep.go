package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/RubaiyaKamal/AI-Employee-Vault/internal/claim"
	"github.com/RubaiyaKamal/AI-Employee-Vault/internal/config"
	"github.com/RubaiyaKamal/AI-Employee-Vault/internal/vault"
	"github.com/RubaiyaKamal/AI-Employee-Vault/pkg/models"
)

func newSweepCmd() *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Return stale in-progress items to Needs_Action",
		Long: `Sweep moves items stranded in In_Progress back to Needs_Action.

An item strands when an agent crashes between claiming and releasing it.
Recovery is deliberately manual: a stale-looking item may still be held by a
slow but live agent, so nothing sweeps automatically.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			vaultPath := config.MustVaultFrom(cmd.Context())
			cfg, err := config.LoadAgent(vaultPath)
			if err != nil {
				return err
			}
			coord := claim.New(vault.New(vaultPath), cfg.AgentID)
			swept, err := coord.SweepStale(olderThan)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(swept) == 0 {
				_, _ = fmt.Fprintln(out, "nothing to sweep")
				return nil
			}
			for _, ref := range swept {
				_, _ = fmt.Fprintf(out, "swept %s\n", ref.Identity)
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", models.DefaultStaleThreshold, "Only sweep items untouched for at least this long")
	return cmd
}
