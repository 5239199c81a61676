// Package gitx is a thin layer over the git binary for the vault's sync
// transport. It exposes the five operations the sync engine needs (fetch,
// merge, commit, push, head comparison) plus the conflict-resolution
// checkouts; any backend exposing the same operations is substitutable.
package gitx

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrMergeConflict is returned when a merge stops on conflicting paths.
	ErrMergeConflict = errors.New("merge conflict")
	// ErrPushRejected is returned when the remote advanced since our fetch.
	ErrPushRejected = errors.New("push rejected")
)

// Repo is a git working tree at Dir, syncing Branch against Remote. Every
// command runs under Timeout so a hung network call surfaces as a recoverable
// error instead of blocking the loop.
type Repo struct {
	Dir     string
	Remote  string
	Branch  string
	Timeout time.Duration
}

func (r Repo) run(ctx context.Context, args ...string) (string, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.Dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return string(out), fmt.Errorf("git %s: %w: %s", args[0], err, strings.TrimSpace(string(out)))
	}
	return strings.TrimSpace(string(out)), nil
}

// IsRepo reports whether Dir is inside a git working tree.
func (r Repo) IsRepo(ctx context.Context) bool {
	_, err := r.run(ctx, "rev-parse", "--git-dir")
	return err == nil
}

// Init initializes the repository with the given remote URL and a per-agent
// committer identity.
func (r Repo) Init(ctx context.Context, remoteURL, agentID string) error {
	if _, err := r.run(ctx, "init", "-b", r.Branch); err != nil {
		return err
	}
	if remoteURL != "" {
		if _, err := r.run(ctx, "remote", "add", r.Remote, remoteURL); err != nil {
			return err
		}
	}
	if _, err := r.run(ctx, "config", "user.name", fmt.Sprintf("AI Employee %s", agentID)); err != nil {
		return err
	}
	if _, err := r.run(ctx, "config", "user.email", fmt.Sprintf("%s-agent@ai-employee.local", agentID)); err != nil {
		return err
	}
	return nil
}

// Fetch updates the remote tracking ref for Branch.
func (r Repo) Fetch(ctx context.Context) error {
	_, err := r.run(ctx, "fetch", r.Remote, r.Branch)
	return err
}

// Head returns the local head revision.
func (r Repo) Head(ctx context.Context) (string, error) {
	return r.run(ctx, "rev-parse", "HEAD")
}

// RemoteHead returns the last-fetched remote head revision.
func (r Repo) RemoteHead(ctx context.Context) (string, error) {
	return r.run(ctx, "rev-parse", r.Remote+"/"+r.Branch)
}

// Merge merges the fetched remote branch. Conflicts are reported as
// ErrMergeConflict with the merge left in progress, for the caller to resolve
// or abort.
func (r Repo) Merge(ctx context.Context) error {
	out, err := r.run(ctx, "merge", "--no-edit", r.Remote+"/"+r.Branch)
	if err != nil {
		if strings.Contains(out, "CONFLICT") || strings.Contains(out, "Automatic merge failed") {
			return fmt.Errorf("%w: %s", ErrMergeConflict, firstLine(out))
		}
		return err
	}
	return nil
}

// MergeAbort abandons an in-progress merge, restoring the pre-merge tree.
func (r Repo) MergeAbort(ctx context.Context) error {
	_, err := r.run(ctx, "merge", "--abort")
	return err
}

// ResolveOurs keeps the local version of every conflicting path and commits
// the resolution. ResolveTheirs is symmetric for the remote version.
func (r Repo) ResolveOurs(ctx context.Context) error {
	return r.resolve(ctx, "--ours")
}

func (r Repo) ResolveTheirs(ctx context.Context) error {
	return r.resolve(ctx, "--theirs")
}

func (r Repo) resolve(ctx context.Context, side string) error {
	if _, err := r.run(ctx, "checkout", side, "."); err != nil {
		return err
	}
	if _, err := r.run(ctx, "add", "-A"); err != nil {
		return err
	}
	if _, err := r.run(ctx, "commit", "--no-edit"); err != nil {
		return err
	}
	return nil
}

// StageAll stages every change and reports whether anything is staged.
func (r Repo) StageAll(ctx context.Context) (bool, error) {
	if _, err := r.run(ctx, "add", "-A"); err != nil {
		return false, err
	}
	out, err := r.run(ctx, "status", "--porcelain")
	if err != nil {
		return false, err
	}
	return out != "", nil
}

// Commit commits the staged changes.
func (r Repo) Commit(ctx context.Context, message string) error {
	_, err := r.run(ctx, "commit", "-m", message)
	return err
}

// Push publishes the local head. A rejection because the remote advanced is
// reported as ErrPushRejected so the caller can re-pull and retry once.
func (r Repo) Push(ctx context.Context) error {
	out, err := r.run(ctx, "push", r.Remote, r.Branch)
	if err != nil {
		if strings.Contains(out, "rejected") || strings.Contains(out, "fetch first") {
			return fmt.Errorf("%w: %s", ErrPushRejected, firstLine(out))
		}
		return err
	}
	return nil
}

// CurrentBranch returns the checked-out branch name.
func (r Repo) CurrentBranch(ctx context.Context) (string, error) {
	return r.run(ctx, "branch", "--show-current")
}

// Dirty reports whether the working tree has uncommitted changes.
func (r Repo) Dirty(ctx context.Context) (bool, error) {
	out, err := r.run(ctx, "status", "--porcelain")
	if err != nil {
		return false, err
	}
	return out != "", nil
}

// AheadBehind returns how many commits the local head is ahead of and behind
// the remote tracking ref. A missing remote ref yields zeros.
func (r Repo) AheadBehind(ctx context.Context) (ahead, behind int, err error) {
	out, err := r.run(ctx, "rev-list", "--left-right", "--count", r.Remote+"/"+r.Branch+"...HEAD")
	if err != nil {
		return 0, 0, nil
	}
	fields := strings.Fields(out)
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("rev-list count: unexpected output %q", out)
	}
	behind, _ = strconv.Atoi(fields[0])
	ahead, _ = strconv.Atoi(fields[1])
	return ahead, behind, nil
}

// LastCommit returns a one-line description of the head commit, or empty if
// there are no commits yet.
func (r Repo) LastCommit(ctx context.Context) string {
	out, err := r.run(ctx, "log", "-1", "--pretty=format:%h - %s (%cr)")
	if err != nil {
		return ""
	}
	return out
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
