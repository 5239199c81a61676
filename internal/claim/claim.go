// Package claim implements the claim-by-move protocol: at-most-one-owner
// semantics for work items shared by two polling agents, using the
// filesystem's atomic rename as the sole synchronization primitive. No lock
// service, lease, or heartbeat exists; the loser of a concurrent claim
// observes "source not found", never a partial file.
package claim

import (
	"fmt"
	"os"
	"time"

	"github.com/RubaiyaKamal/AI-Employee-Vault/internal/vault"
	"github.com/RubaiyaKamal/AI-Employee-Vault/pkg/models"
)

// Coordinator claims and releases items on behalf of one agent.
type Coordinator struct {
	store   *vault.Store
	agentID string
}

// Result of a claim attempt. Err is set only when Reason is ReasonError.
type Result struct {
	Claimed bool
	Ref     vault.Ref // the owned ref, when claimed
	Reason  string
	Err     error
}

func New(store *vault.Store, agentID string) *Coordinator {
	return &Coordinator{store: store, agentID: agentID}
}

// AgentID returns the owning agent's id.
func (c *Coordinator) AgentID() string { return c.agentID }

// ScanAvailable snapshots the items currently in Needs_Action, optionally
// filtered by domain. Items may be claimed by the other agent between scan
// and claim; that race is handled at claim time, not here.
func (c *Coordinator) ScanAvailable(domain string) ([]vault.Ref, error) {
	return c.store.Scan(models.StageNeedsAction, domain)
}

// ScanApproved snapshots the items awaiting execution in Approved. Only the
// executor profile acts on these; the gate lives in the agent loop.
func (c *Coordinator) ScanApproved(domain string) ([]vault.Ref, error) {
	return c.store.Scan(models.StageApproved, domain)
}

// Claim attempts to atomically relocate ref into this agent's In_Progress
// area. Success is the rename returning without error. ENOENT from the
// rename means the other agent won the race (ReasonAlreadyClaimed): a normal
// outcome, skipped silently and never retried against the same ref. Any other
// failure is ReasonError with Err set.
func (c *Coordinator) Claim(ref vault.Ref) Result {
	if _, err := os.Stat(ref.Path); os.IsNotExist(err) {
		return Result{Reason: models.ReasonNotFound}
	}
	owned, err := c.store.Move(ref, models.StageInProgress, c.agentID)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Reason: models.ReasonAlreadyClaimed}
		}
		return Result{Reason: models.ReasonError, Err: err}
	}
	return Result{Claimed: true, Ref: owned}
}

// IsClaimed is an advisory check across every agent's in-progress area. It is
// inherently racy and must never substitute for Claim itself; it only
// short-circuits items that are obviously already taken.
func (c *Coordinator) IsClaimed(identity string) (bool, string) {
	refs, err := c.store.Scan(models.StageInProgress, "")
	if err != nil {
		return false, ""
	}
	for _, r := range refs {
		if r.Identity == identity {
			return true, r.Owner
		}
	}
	return false, ""
}

// Release relocates an owned item out of In_Progress: to Done on
// OutcomeCompleted, back to Needs_Action on OutcomeFailed so a later pass (or
// the other agent) can retry. Releasing a ref this agent does not own is an
// error; releasing the same ref twice fails with ENOENT from the rename.
func (c *Coordinator) Release(owned vault.Ref, outcome models.Outcome) (vault.Ref, error) {
	if owned.Owner != c.agentID {
		return vault.Ref{}, fmt.Errorf("release %s: owned by %q, not %q", owned.Identity, owned.Owner, c.agentID)
	}
	target := models.StageDone
	if outcome == models.OutcomeFailed {
		target = models.StageNeedsAction
	}
	ref, err := c.store.Move(owned, target, "")
	if err != nil {
		return vault.Ref{}, fmt.Errorf("release %s to %s: %w", owned.Identity, target, err)
	}
	return ref, nil
}

// Claimed lists the items currently held by this agent.
func (c *Coordinator) Claimed() ([]vault.Ref, error) {
	return c.store.ScanOwned(c.agentID)
}

// SweepStale moves in-progress items (any agent's) older than the threshold
// back to Needs_Action and reports what moved. A crash between claim and
// release strands items here on purpose; recovery is this explicit operation,
// never automatic, so a live agent's work is never duplicated by accident.
func (c *Coordinator) SweepStale(olderThan time.Duration) ([]vault.Ref, error) {
	refs, err := c.store.Scan(models.StageInProgress, "")
	if err != nil {
		return nil, err
	}
	cutoff := time.Now().Add(-olderThan)
	var swept []vault.Ref
	for _, r := range refs {
		mt, err := c.store.ModTime(r)
		if err != nil {
			continue // claimed or removed mid-sweep
		}
		if mt.After(cutoff) {
			continue
		}
		moved, err := c.store.Move(r, models.StageNeedsAction, "")
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return swept, err
		}
		swept = append(swept, moved)
	}
	return swept, nil
}
