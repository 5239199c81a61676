// Package sync reconciles the local vault against the shared git history so
// claims and releases made on one machine become visible on the other. One
// cycle is pull → merge/resolve → commit → push; conflicts resolve per the
// configured policy and local state is never discarded to satisfy a sync
// failure.
package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/RubaiyaKamal/AI-Employee-Vault/internal/gitx"
	"github.com/RubaiyaKamal/AI-Employee-Vault/pkg/models"
)

// Transport is the surface the engine needs from a version-control backend.
// gitx.Repo is the production implementation.
type Transport interface {
	Fetch(ctx context.Context) error
	Head(ctx context.Context) (string, error)
	RemoteHead(ctx context.Context) (string, error)
	Merge(ctx context.Context) error
	MergeAbort(ctx context.Context) error
	ResolveOurs(ctx context.Context) error
	ResolveTheirs(ctx context.Context) error
	StageAll(ctx context.Context) (bool, error)
	Commit(ctx context.Context, message string) error
	Push(ctx context.Context) error
}

// Engine runs sync cycles for one agent's vault clone.
type Engine struct {
	transport Transport
	policy    models.ConflictPolicy
	agentID   string
	now       func() time.Time
}

// Result reports which phases of a cycle succeeded. Partial success (pulled
// and committed but push rejected twice) is overall failure, but the local
// commit stands.
type Result struct {
	Success   bool
	Pulled    bool
	Committed bool
	Pushed    bool
	Errors    []string
}

// Status describes the clone's position relative to the remote.
type Status struct {
	Branch     string
	Dirty      bool
	Ahead      int
	Behind     int
	LastCommit string
}

func New(transport Transport, policy models.ConflictPolicy, agentID string) *Engine {
	return &Engine{transport: transport, policy: policy, agentID: agentID, now: time.Now}
}

// Sync runs one full cycle. It never returns an error; failures are collected
// in the result so the caller's loop continues on its next tick.
func (e *Engine) Sync(ctx context.Context) Result {
	res := Result{}

	merged, err := e.pull(ctx)
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("pull: %v", err))
	} else {
		res.Pulled = true
	}

	staged, err := e.transport.StageAll(ctx)
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("stage: %v", err))
	} else if staged {
		msg := fmt.Sprintf("[%s] vault sync: %s", e.agentID, e.now().UTC().Format(time.RFC3339))
		if err := e.transport.Commit(ctx, msg); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("commit: %v", err))
		} else {
			res.Committed = true
			slog.Info("vault changes committed", "agent", e.agentID)
		}
	}

	// Merge and resolution commits need publishing just like local commits.
	if res.Committed || merged {
		if err := e.push(ctx); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("push: %v", err))
		} else {
			res.Pushed = true
		}
		res.Success = res.Pulled && res.Pushed
	} else {
		res.Success = res.Pulled
	}
	return res
}

// pull fetches the remote history and merges it. A missing remote head (new
// or empty remote) is a no-op; matching heads short-circuit. The returned
// bool reports whether a merge advanced the local head.
func (e *Engine) pull(ctx context.Context) (bool, error) {
	if err := e.transport.Fetch(ctx); err != nil {
		return false, err
	}
	remote, err := e.transport.RemoteHead(ctx)
	if err != nil {
		// Remote branch doesn't exist yet; nothing to merge.
		return false, nil
	}
	local, err := e.transport.Head(ctx)
	if err == nil && local == remote {
		return false, nil
	}
	if err := e.transport.Merge(ctx); err != nil {
		if errors.Is(err, gitx.ErrMergeConflict) {
			if rerr := e.resolveConflict(ctx); rerr != nil {
				return false, rerr
			}
			return true, nil
		}
		return false, err
	}
	return true, nil
}

// resolveConflict applies the configured policy to an in-progress merge.
// The policy operates on the whole tree for the cycle, as the conflicting
// writers are already serialized per machine by rename atomicity.
func (e *Engine) resolveConflict(ctx context.Context) error {
	slog.Warn("merge conflict detected", "agent", e.agentID, "policy", e.policy)
	switch e.policy {
	case models.ConflictLocalWins:
		if err := e.transport.ResolveOurs(ctx); err != nil {
			return fmt.Errorf("resolve local-wins: %w", err)
		}
	case models.ConflictRemoteWins:
		if err := e.transport.ResolveTheirs(ctx); err != nil {
			return fmt.Errorf("resolve remote-wins: %w", err)
		}
	default:
		if err := e.transport.MergeAbort(ctx); err != nil {
			slog.Error("merge abort failed", "err", err)
		}
		return errors.New("manual conflict resolution required")
	}
	slog.Info("merge conflict resolved", "agent", e.agentID, "policy", e.policy)
	return nil
}

// push publishes the local head, retrying once from pull if the remote
// advanced since our fetch. No further retries; the next cycle picks it up.
func (e *Engine) push(ctx context.Context) error {
	err := e.transport.Push(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, gitx.ErrPushRejected) {
		return err
	}
	slog.Info("push rejected, re-pulling once", "agent", e.agentID)
	if _, err := e.pull(ctx); err != nil {
		return fmt.Errorf("re-pull after rejection: %w", err)
	}
	return e.transport.Push(ctx)
}

// Exclusions are paths that must never enter the shared history regardless of
// conflict policy: machine-local secrets, sessions, and transient files.
var Exclusions = []string{
	".env",
	".env.local",
	".env.cloud",
	"agent.yaml",
	"credentials.json",
	"*_token.json",
	".whatsapp-session/",
	"temp/",
	"*.log",
	".DS_Store",
}

// InitRepo initializes the vault clone if needed and writes the exclusion
// list as .gitignore.
func InitRepo(ctx context.Context, repo gitx.Repo, remoteURL, agentID string) error {
	if !repo.IsRepo(ctx) {
		if err := repo.Init(ctx, remoteURL, agentID); err != nil {
			return err
		}
		slog.Info("git repository initialized", "dir", repo.Dir, "remote", remoteURL)
	}
	gitignore := filepath.Join(repo.Dir, ".gitignore")
	if _, err := os.Stat(gitignore); os.IsNotExist(err) {
		if err := os.WriteFile(gitignore, []byte(strings.Join(Exclusions, "\n")+"\n"), 0o644); err != nil {
			return fmt.Errorf("write .gitignore: %w", err)
		}
	}
	return nil
}

// GetStatus reports the clone's sync position for status commands and health.
func GetStatus(ctx context.Context, repo gitx.Repo) (*Status, error) {
	branch, err := repo.CurrentBranch(ctx)
	if err != nil {
		return nil, err
	}
	dirty, err := repo.Dirty(ctx)
	if err != nil {
		return nil, err
	}
	ahead, behind, err := repo.AheadBehind(ctx)
	if err != nil {
		return nil, err
	}
	return &Status{
		Branch:     branch,
		Dirty:      dirty,
		Ahead:      ahead,
		Behind:     behind,
		LastCommit: repo.LastCommit(ctx),
	}, nil
}
