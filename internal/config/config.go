package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/RubaiyaKamal/AI-Employee-Vault/pkg/models"
)

// Agent holds per-agent settings loaded from <vault>/agent.yaml, with env
// overrides applied. Missing file is tolerated; defaults are filled in.
type Agent struct {
	AgentID        string                `yaml:"agent_id"`
	Role           models.Role           `yaml:"role"`
	ScanInterval   time.Duration         `yaml:"scan_interval"`
	SyncInterval   time.Duration         `yaml:"sync_interval"`
	GitRemote      string                `yaml:"git_remote"`
	GitBranch      string                `yaml:"git_branch"`
	GitTimeout     time.Duration         `yaml:"git_timeout"`
	ConflictPolicy models.ConflictPolicy `yaml:"conflict_policy"`
	HealthAddr     string                `yaml:"health_addr"`
}

// AgentConfigPath returns the path to the agent config: <vault>/agent.yaml.
func AgentConfigPath(vault string) string {
	return filepath.Join(vault, "agent.yaml")
}

// LoadAgent loads config from <vault>/agent.yaml. A missing file yields the
// defaults; a malformed file is an error.
func LoadAgent(vault string) (*Agent, error) {
	cfg := &Agent{}
	data, err := os.ReadFile(AgentConfigPath(vault))
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse agent.yaml: %w", err)
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveAgent writes the agent config to <vault>/agent.yaml.
func SaveAgent(vault string, cfg *Agent) error {
	if err := os.MkdirAll(vault, 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(AgentConfigPath(vault), data, 0o644)
}

func (c *Agent) applyEnv() {
	if v := os.Getenv("AGENT_ID"); v != "" {
		c.AgentID = v
	}
	if v := os.Getenv("AGENT_ROLE"); v != "" {
		c.Role = models.Role(v)
	}
	if v := os.Getenv("CHECK_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.ScanInterval = d
		}
	}
	if v := os.Getenv("VAULT_SYNC_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.SyncInterval = d
		}
	}
	if v := os.Getenv("GIT_REMOTE"); v != "" {
		c.GitRemote = v
	}
	if v := os.Getenv("GIT_BRANCH"); v != "" {
		c.GitBranch = v
	}
	if v := os.Getenv("CONFLICT_STRATEGY"); v != "" {
		c.ConflictPolicy = models.ConflictPolicy(v)
	}
	if v := os.Getenv("HEALTH_ADDR"); v != "" {
		c.HealthAddr = v
	}
}

func (c *Agent) applyDefaults() {
	if c.AgentID == "" {
		c.AgentID = "local"
	}
	if c.Role == "" {
		c.Role = models.RoleExecutor
	}
	if c.ScanInterval <= 0 {
		c.ScanInterval = models.DefaultScanInterval
	}
	if c.SyncInterval <= 0 {
		c.SyncInterval = models.DefaultSyncInterval
	}
	if c.GitRemote == "" {
		c.GitRemote = "origin"
	}
	if c.GitBranch == "" {
		c.GitBranch = "main"
	}
	if c.GitTimeout <= 0 {
		c.GitTimeout = models.DefaultGitTimeout
	}
	if c.ConflictPolicy == "" {
		c.ConflictPolicy = models.ConflictLocalWins
	}
}

func (c *Agent) validate() error {
	if !c.Role.Valid() {
		return fmt.Errorf("invalid role %q (want %q or %q)", c.Role, models.RoleDrafter, models.RoleExecutor)
	}
	if !c.ConflictPolicy.Valid() {
		return fmt.Errorf("invalid conflict policy %q", c.ConflictPolicy)
	}
	return nil
}
