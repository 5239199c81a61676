package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/RubaiyaKamal/AI-Employee-Vault/internal/agent"
	"github.com/RubaiyaKamal/AI-Employee-Vault/internal/audit"
	"github.com/RubaiyaKamal/AI-Employee-Vault/internal/config"
	"github.com/RubaiyaKamal/AI-Employee-Vault/internal/executor"
	"github.com/RubaiyaKamal/AI-Employee-Vault/internal/gitx"
	"github.com/RubaiyaKamal/AI-Employee-Vault/internal/health"
	"github.com/RubaiyaKamal/AI-Employee-Vault/internal/otel"
	vsync "github.com/RubaiyaKamal/AI-Employee-Vault/internal/sync"
	"github.com/RubaiyaKamal/AI-Employee-Vault/internal/vault"
	"github.com/RubaiyaKamal/AI-Employee-Vault/pkg/models"
)

func newRunCmd() *cobra.Command {
	var (
		role       string
		agentID    string
		healthAddr string
		noSync     bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the agent loop until interrupted",
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
			}
			if healthAddr != "" {
				cfg.HealthAddr = healthAddr
			}
			if !cfg.Role.Valid() {
				return fmt.Errorf("invalid role %q (want %q or %q)", cfg.Role, models.RoleDrafter, models.RoleExecutor)
			}

			store := vault.New(vaultPath)
			repo := gitx.Repo{Dir: vaultPath, Remote: cfg.GitRemote, Branch: cfg.GitBranch, Timeout: cfg.GitTimeout}
			var syncer agent.Syncer
			switch {
			case noSync:
				slog.Info("vault sync disabled by flag")
			case !repo.IsRepo(ctx):
				slog.Warn("vault is not a git repository; sync disabled (run `vault-agent init` to enable)", "vault", vaultPath)
			default:
				syncer = vsync.New(repo, cfg.ConflictPolicy, cfg.AgentID)
			}

			execs := executor.Default(os.Getenv("SLACK_WEBHOOK_URL"))
			trail := audit.New(vaultPath, cfg.AgentID)
			loop := agent.New(cfg, store, syncer, execs, trail)

			var metricsHandler http.Handler
			if handler, err := otel.InitMeterProvider(ctx, "vault-agent"); err != nil {
				slog.Warn("metrics init failed; continuing without", "err", err)
			} else {
				metricsHandler = handler
				if err := otel.InitMetricsWithStageCount(ctx, loop.StageCounts); err != nil {
					slog.Warn("metrics instruments init failed", "err", err)
				}
			}

			if cfg.HealthAddr != "" {
				hs := health.New(cfg.HealthAddr, loop.Health, metricsHandler)
				hs.Start()
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					_ = hs.Shutdown(shutdownCtx)
				}()
			}

			return loop.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&role, "role", "", "Agent role: drafter or executor (default from agent.yaml)")
	cmd.Flags().StringVar(&agentID, "agent-id", "", "Agent identity (default from agent.yaml)")
	cmd.Flags().StringVar(&healthAddr, "health-addr", "", "Listen address for /health and /metrics (e.g. :8080)")
	cmd.Flags().BoolVar(&noSync, "no-sync", false, "Disable vault sync even when a remote is configured")
	return cmd
}
