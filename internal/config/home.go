package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
)

type vaultKey struct{}

// WithVault stores the vault root path in the context.
func WithVault(ctx context.Context, vault string) context.Context {
	return context.WithValue(ctx, vaultKey{}, vault)
}

// VaultFrom returns the vault root path from the context, if set.
func VaultFrom(ctx context.Context) (string, bool) {
	v := ctx.Value(vaultKey{})
	s, ok := v.(string)
	return s, ok
}

// MustVaultFrom returns the vault root from the context, or panics if not set.
func MustVaultFrom(ctx context.Context) string {
	if v, ok := VaultFrom(ctx); ok && v != "" {
		return v
	}
	panic("vault path missing from context")
}

// ResolveVault returns the vault root directory (override, VAULT_PATH, or default ~/AI_Employee_Vault).
func ResolveVault(override string) (string, error) {
	if override != "" {
		return filepath.Clean(override), nil
	}
	if env := os.Getenv("VAULT_PATH"); env != "" {
		return filepath.Clean(env), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.New("could not determine user home directory")
	}
	return filepath.Join(home, "AI_Employee_Vault"), nil
}
