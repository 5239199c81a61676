package cli

import (
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/RubaiyaKamal/AI-Employee-Vault/internal/config"
)

func newDoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Verify runtime dependencies and vault configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			vaultPath := config.MustVaultFrom(cmd.Context())

			var problems []string

			// git is required for vault sync.
			if _, err := exec.LookPath("git"); err != nil {
				problems = append(problems, "missing dependency: git (not found on PATH)")
			}

			if info, err := os.Stat(vaultPath); err != nil {
				problems = append(problems, fmt.Sprintf("vault directory %s does not exist (run `vault-agent init`)", vaultPath))
			} else if !info.IsDir() {
				problems = append(problems, fmt.Sprintf("vault path %s is not a directory", vaultPath))
			}

			if _, err := config.LoadAgent(vaultPath); err != nil {
				problems = append(problems, fmt.Sprintf("agent config invalid: %v", err))
			}

			if len(problems) > 0 {
				for _, p := range problems {
					_, _ = fmt.Fprintln(cmd.ErrOrStderr(), p)
				}
				return errors.New("doctor checks failed")
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
	return cmd
}
