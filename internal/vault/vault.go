// Package vault implements the on-disk task store: one subtree per lifecycle
// stage, optionally partitioned by domain, with In_Progress further
// partitioned by owning agent. The store only reads, enumerates, and
// atomically relocates items; it never deletes them.
package vault

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/RubaiyaKamal/AI-Employee-Vault/pkg/models"
)

// Ref locates a work item inside the store. Agents hold refs while
// processing, never a copy-of-record; the file itself stays owned by the
// store.
type Ref struct {
	Stage    models.Stage
	Owner    string // owning agent id; set only under In_Progress
	Domain   string // first-level subdirectory below the stage (or agent) dir
	Identity string // file name, unique across the item's lifetime
	Path     string
}

// Store is the directory-addressed task store rooted at the vault path.
type Store struct {
	Root string
}

func New(root string) *Store {
	return &Store{Root: filepath.Clean(root)}
}

// StageDir returns the subtree for a stage: <root>/<stage>.
func (s *Store) StageDir(stage models.Stage) string {
	return filepath.Join(s.Root, string(stage))
}

// OwnerDir returns an agent's exclusive in-progress area: <root>/In_Progress/<agentID>.
func (s *Store) OwnerDir(agentID string) string {
	return filepath.Join(s.StageDir(models.StageInProgress), agentID)
}

// Ref builds the ref for an item at (stage, owner, domain, identity). Owner is
// ignored outside In_Progress.
func (s *Store) Ref(stage models.Stage, owner, domain, identity string) Ref {
	base := s.StageDir(stage)
	if stage == models.StageInProgress {
		base = filepath.Join(base, owner)
	} else {
		owner = ""
	}
	if domain != "" {
		base = filepath.Join(base, domain)
	}
	return Ref{Stage: stage, Owner: owner, Domain: domain, Identity: identity, Path: filepath.Join(base, identity)}
}

// EnsureLayout creates every stage subtree plus the given agents' in-progress
// areas. Safe to call repeatedly.
func (s *Store) EnsureLayout(agentIDs ...string) error {
	for _, stage := range models.Stages() {
		if err := os.MkdirAll(s.StageDir(stage), 0o755); err != nil {
			return fmt.Errorf("ensure %s: %w", stage, err)
		}
	}
	for _, id := range agentIDs {
		if err := os.MkdirAll(s.OwnerDir(id), 0o755); err != nil {
			return fmt.Errorf("ensure In_Progress/%s: %w", id, err)
		}
	}
	return nil
}

// Scan lists .md items under a stage, recursively, sorted by path. When
// domain is non-empty only that subdirectory is scanned. A missing directory
// is an empty result, not an error. The result is a snapshot: another agent
// may claim any of these items before the caller acts on them.
func (s *Store) Scan(stage models.Stage, domain string) ([]Ref, error) {
	dir := s.StageDir(stage)
	if domain != "" {
		dir = filepath.Join(dir, domain)
	}
	return s.scanDir(stage, "", dir)
}

// ScanOwned lists the items currently held in an agent's in-progress area.
func (s *Store) ScanOwned(agentID string) ([]Ref, error) {
	return s.scanDir(models.StageInProgress, agentID, s.OwnerDir(agentID))
}

func (s *Store) scanDir(stage models.Stage, owner, dir string) ([]Ref, error) {
	var refs []Ref
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".md") {
			return nil
		}
		ref, ok := s.refFromPath(stage, owner, path)
		if ok {
			refs = append(refs, ref)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	return refs, nil
}

func (s *Store) refFromPath(stage models.Stage, owner, path string) (Ref, bool) {
	base := s.StageDir(stage)
	if stage == models.StageInProgress {
		rel, err := filepath.Rel(base, path)
		if err != nil {
			return Ref{}, false
		}
		parts := strings.Split(filepath.ToSlash(rel), "/")
		if len(parts) < 2 {
			return Ref{}, false
		}
		if owner == "" {
			owner = parts[0]
		}
		domain := ""
		if len(parts) > 2 {
			domain = parts[1]
		}
		return Ref{Stage: stage, Owner: owner, Domain: domain, Identity: parts[len(parts)-1], Path: path}, true
	}
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return Ref{}, false
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	domain := ""
	if len(parts) > 1 {
		domain = parts[0]
	}
	return Ref{Stage: stage, Domain: domain, Identity: parts[len(parts)-1], Path: path}, true
}

// Move atomically relocates an item to another stage, preserving its domain.
// The rename is the only mutation; its atomicity is what the claim protocol
// relies on, so no locking is layered on top. The raw rename error is
// returned unwrapped for callers that need to distinguish ENOENT.
func (s *Store) Move(ref Ref, stage models.Stage, owner string) (Ref, error) {
	target := s.Ref(stage, owner, ref.Domain, ref.Identity)
	if err := os.MkdirAll(filepath.Dir(target.Path), 0o755); err != nil {
		return Ref{}, err
	}
	if err := os.Rename(ref.Path, target.Path); err != nil {
		return Ref{}, err
	}
	return target, nil
}

// Read returns the item's current content.
func (s *Store) Read(ref Ref) ([]byte, error) {
	return os.ReadFile(ref.Path)
}

// AppendTrailer appends content to an item in place. Trailers are always
// appended before the item's relocation so the rename stays the last,
// crash-safe step of every transition.
func (s *Store) AppendTrailer(ref Ref, trailer string) error {
	f, err := os.OpenFile(ref.Path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("append trailer to %s: %w", ref.Identity, err)
	}
	defer func() { _ = f.Close() }()
	if _, err := f.WriteString(trailer); err != nil {
		return fmt.Errorf("append trailer to %s: %w", ref.Identity, err)
	}
	return nil
}

// Write creates a new item at (stage, domain, identity). Used by producers
// and by the drafter when it proposes a draft into Pending_Approval.
func (s *Store) Write(stage models.Stage, domain, identity string, content []byte) (Ref, error) {
	ref := s.Ref(stage, "", domain, identity)
	if err := os.MkdirAll(filepath.Dir(ref.Path), 0o755); err != nil {
		return Ref{}, err
	}
	if err := os.WriteFile(ref.Path, content, 0o644); err != nil {
		return Ref{}, err
	}
	return ref, nil
}

// ModTime returns the item's last modification time, used by the stale-claim
// sweep.
func (s *Store) ModTime(ref Ref) (time.Time, error) {
	info, err := os.Stat(ref.Path)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}
