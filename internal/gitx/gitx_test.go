package gitx

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"
)

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary not available")
	}
}

func newRepo(t *testing.T) Repo {
	t.Helper()
	requireGit(t)
	r := Repo{Dir: t.TempDir(), Remote: "origin", Branch: "main", Timeout: 30 * time.Second}
	if err := r.Init(context.Background(), "", "test"); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return r
}

func write(t *testing.T, r Repo, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(r.Dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestInit_IsRepo(t *testing.T) {
	t.Parallel()
	r := newRepo(t)
	if !r.IsRepo(context.Background()) {
		t.Fatal("IsRepo after Init: false")
	}
	other := Repo{Dir: t.TempDir(), Remote: "origin", Branch: "main"}
	if other.IsRepo(context.Background()) {
		t.Fatal("IsRepo on plain dir: true")
	}
}

func TestStageAll_CommitHead(t *testing.T) {
	t.Parallel()
	r := newRepo(t)
	ctx := context.Background()

	staged, err := r.StageAll(ctx)
	if err != nil {
		t.Fatalf("StageAll empty: %v", err)
	}
	if staged {
		t.Fatal("empty tree should have nothing staged")
	}

	write(t, r, "a.md", "hello")
	staged, err = r.StageAll(ctx)
	if err != nil {
		t.Fatalf("StageAll: %v", err)
	}
	if !staged {
		t.Fatal("new file should be staged")
	}
	if err := r.Commit(ctx, "add a"); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	head, err := r.Head(ctx)
	if err != nil || head == "" {
		t.Fatalf("Head: %q %v", head, err)
	}
	dirty, err := r.Dirty(ctx)
	if err != nil {
		t.Fatalf("Dirty: %v", err)
	}
	if dirty {
		t.Fatal("tree should be clean after commit")
	}
}

func TestCurrentBranch(t *testing.T) {
	t.Parallel()
	r := newRepo(t)
	ctx := context.Background()
	write(t, r, "a.md", "x")
	if _, err := r.StageAll(ctx); err != nil {
		t.Fatal(err)
	}
	if err := r.Commit(ctx, "init"); err != nil {
		t.Fatal(err)
	}
	branch, err := r.CurrentBranch(ctx)
	if err != nil {
		t.Fatalf("CurrentBranch: %v", err)
	}
	if branch != "main" {
		t.Fatalf("branch: got %q", branch)
	}
}

func TestLastCommit_noCommits(t *testing.T) {
	t.Parallel()
	r := newRepo(t)
	if got := r.LastCommit(context.Background()); got != "" {
		t.Fatalf("LastCommit on empty repo: %q", got)
	}
}

func TestTimeout(t *testing.T) {
	t.Parallel()
	requireGit(t)
	r := Repo{Dir: t.TempDir(), Remote: "origin", Branch: "main", Timeout: time.Nanosecond}
	if err := r.Fetch(context.Background()); err == nil {
		t.Fatal("expected timeout error")
	}
}
