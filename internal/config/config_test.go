package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/RubaiyaKamal/AI-Employee-Vault/pkg/models"
)

func TestWithVault_VaultFrom(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	if _, ok := VaultFrom(ctx); ok {
		t.Fatal("expected no vault in empty context")
	}
	ctx = WithVault(ctx, "/foo/bar")
	got, ok := VaultFrom(ctx)
	if !ok || got != "/foo/bar" {
		t.Fatalf("VaultFrom: got %q, ok=%v; want /foo/bar, true", got, ok)
	}
}

func TestMustVaultFrom(t *testing.T) {
	t.Parallel()
	ctx := WithVault(context.Background(), "/vault")
	if got := MustVaultFrom(ctx); got != "/vault" {
		t.Fatalf("MustVaultFrom: got %q", got)
	}
}

func TestMustVaultFrom_panic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic when vault missing")
		}
	}()
	MustVaultFrom(context.Background())
}

func TestResolveVault_override(t *testing.T) {
	t.Parallel()
	got, err := ResolveVault("/custom/vault")
	if err != nil {
		t.Fatalf("ResolveVault: %v", err)
	}
	if got != filepath.Clean("/custom/vault") {
		t.Fatalf("ResolveVault: got %q", got)
	}
}

func TestResolveVault_env(t *testing.T) {
	t.Setenv("VAULT_PATH", "/env/vault")
	got, err := ResolveVault("")
	if err != nil {
		t.Fatalf("ResolveVault: %v", err)
	}
	if got != filepath.Clean("/env/vault") {
		t.Fatalf("ResolveVault from env: got %q", got)
	}
}

func TestResolveVault_default(t *testing.T) {
	t.Setenv("VAULT_PATH", "")
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("UserHomeDir: %v", err)
	}
	got, err := ResolveVault("")
	if err != nil {
		t.Fatalf("ResolveVault: %v", err)
	}
	want := filepath.Join(home, "AI_Employee_Vault")
	if got != want {
		t.Fatalf("ResolveVault default: got %q, want %q", got, want)
	}
}

func TestLoadAgent_missingFile(t *testing.T) {
	clearAgentEnv(t)
	cfg, err := LoadAgent(t.TempDir())
	if err != nil {
		t.Fatalf("LoadAgent: %v", err)
	}
	if cfg.AgentID != "local" || cfg.Role != models.RoleExecutor {
		t.Fatalf("defaults: got %q/%q", cfg.AgentID, cfg.Role)
	}
	if cfg.ScanInterval != models.DefaultScanInterval || cfg.SyncInterval != models.DefaultSyncInterval {
		t.Fatalf("interval defaults: got %v/%v", cfg.ScanInterval, cfg.SyncInterval)
	}
	if cfg.GitRemote != "origin" || cfg.GitBranch != "main" {
		t.Fatalf("git defaults: got %q/%q", cfg.GitRemote, cfg.GitBranch)
	}
	if cfg.ConflictPolicy != models.ConflictLocalWins {
		t.Fatalf("policy default: got %q", cfg.ConflictPolicy)
	}
}

func TestLoadAgent_fromFile(t *testing.T) {
	clearAgentEnv(t)
	vault := t.TempDir()
	cfg := &Agent{
		AgentID:        "cloud",
		Role:           models.RoleDrafter,
		ScanInterval:   time.Minute,
		ConflictPolicy: models.ConflictRemoteWins,
	}
	if err := SaveAgent(vault, cfg); err != nil {
		t.Fatalf("SaveAgent: %v", err)
	}
	got, err := LoadAgent(vault)
	if err != nil {
		t.Fatalf("LoadAgent: %v", err)
	}
	if got.AgentID != "cloud" || got.Role != models.RoleDrafter {
		t.Fatalf("got %q/%q", got.AgentID, got.Role)
	}
	if got.ScanInterval != time.Minute {
		t.Fatalf("scan interval: got %v", got.ScanInterval)
	}
	if got.ConflictPolicy != models.ConflictRemoteWins {
		t.Fatalf("policy: got %q", got.ConflictPolicy)
	}
}

func TestLoadAgent_envOverrides(t *testing.T) {
	clearAgentEnv(t)
	t.Setenv("AGENT_ID", "cloud")
	t.Setenv("AGENT_ROLE", "drafter")
	t.Setenv("CHECK_INTERVAL", "10s")
	cfg, err := LoadAgent(t.TempDir())
	if err != nil {
		t.Fatalf("LoadAgent: %v", err)
	}
	if cfg.AgentID != "cloud" || cfg.Role != models.RoleDrafter {
		t.Fatalf("env overrides: got %q/%q", cfg.AgentID, cfg.Role)
	}
	if cfg.ScanInterval != 10*time.Second {
		t.Fatalf("env interval: got %v", cfg.ScanInterval)
	}
}

func TestLoadAgent_invalidRole(t *testing.T) {
	clearAgentEnv(t)
	t.Setenv("AGENT_ROLE", "admin")
	if _, err := LoadAgent(t.TempDir()); err == nil {
		t.Fatal("expected error for invalid role")
	}
}

func TestLoadAgent_invalidPolicy(t *testing.T) {
	clearAgentEnv(t)
	t.Setenv("CONFLICT_STRATEGY", "coin-flip")
	if _, err := LoadAgent(t.TempDir()); err == nil {
		t.Fatal("expected error for invalid conflict policy")
	}
}

func clearAgentEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"AGENT_ID", "AGENT_ROLE", "CHECK_INTERVAL", "VAULT_SYNC_INTERVAL", "GIT_REMOTE", "GIT_BRANCH", "CONFLICT_STRATEGY", "HEALTH_ADDR"} {
		t.Setenv(k, "")
	}
}
