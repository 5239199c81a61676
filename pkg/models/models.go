// Package models provides shared types for the vault protocol and external tools.
// These types mirror the on-disk layout and the health API JSON and are stable
// for use by other consumers.
package models

import "time"

// Stage is a named position in a work item's lifecycle, physically represented
// as a directory subtree under the vault root.
type Stage string

const (
	StageNeedsAction     Stage = "Needs_Action"
	StageInProgress      Stage = "In_Progress"
	StagePendingApproval Stage = "Pending_Approval"
	StageApproved        Stage = "Approved"
	StageRejected        Stage = "Rejected"
	StageDone            Stage = "Done"
)

// Terminal reports whether the stage is an append-only archive. Items in a
// terminal stage are never relocated again.
func (s Stage) Terminal() bool {
	return s == StageDone || s == StageRejected
}

// Stages lists every stage subtree, in lifecycle order.
func Stages() []Stage {
	return []Stage{
		StageNeedsAction,
		StageInProgress,
		StagePendingApproval,
		StageApproved,
		StageRejected,
		StageDone,
	}
}

// Role is an agent's capability profile. It gates which stage transitions the
// agent may perform, not which items it can observe.
type Role string

const (
	// RoleDrafter claims from Needs_Action and proposes drafts into
	// Pending_Approval. It holds no execution authority.
	RoleDrafter Role = "drafter"
	// RoleExecutor additionally claims from Approved and invokes side-effect
	// executors (mail, social, messaging).
	RoleExecutor Role = "executor"
)

// Valid reports whether the role is one of the two known profiles.
func (r Role) Valid() bool {
	return r == RoleDrafter || r == RoleExecutor
}

// Outcome of processing a claimed item, passed to release.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeFailed    Outcome = "failed"
)

// Claim result reasons.
const (
	// ReasonAlreadyClaimed means another agent won the rename race. Not an
	// error; the item is skipped and never retried against the same ref.
	ReasonAlreadyClaimed = "already_claimed"
	// ReasonNotFound means the source vanished before the claim was attempted.
	ReasonNotFound = "file_not_found"
	// ReasonError is any other I/O failure, surfaced to the caller.
	ReasonError = "error"
)

// ConflictPolicy selects how the sync engine resolves merge conflicts.
type ConflictPolicy string

const (
	// ConflictLocalWins keeps this machine's version of conflicting paths.
	ConflictLocalWins ConflictPolicy = "local-wins"
	// ConflictRemoteWins keeps the other machine's version.
	ConflictRemoteWins ConflictPolicy = "remote-wins"
	// ConflictManual aborts the merge and surfaces the conflict; the engine
	// never guesses.
	ConflictManual ConflictPolicy = "manual"
)

// Valid reports whether the policy is one of the three known strategies.
func (p ConflictPolicy) Valid() bool {
	return p == ConflictLocalWins || p == ConflictRemoteWins || p == ConflictManual
}

// Health is the /health API response.
type Health struct {
	Agent          string    `json:"agent"`
	Role           Role      `json:"role"`
	Status         string    `json:"status"`
	UptimeSeconds  float64   `json:"uptime_seconds"`
	Timestamp      time.Time `json:"timestamp"`
	VaultPath      string    `json:"vault_path"`
	LastSync       *time.Time `json:"last_sync,omitempty"`
	LastScan       *time.Time `json:"last_scan,omitempty"`
	ProcessedCount int64     `json:"processed_count"`
	FailedCount    int64     `json:"failed_count"`
}

// Default intervals and limits.
const (
	DefaultScanInterval   = 30 * time.Second
	DefaultSyncInterval   = 5 * time.Minute
	DefaultGitTimeout     = 60 * time.Second
	DefaultStaleThreshold = 24 * time.Hour
)
