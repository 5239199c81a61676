// Package agent drives one agent process: a scan ticker that claims and
// processes work items according to the agent's role, and a sync ticker that
// reconciles the vault with the shared repository. Both agents run this same
// loop; the role gates which stages they may act on.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/RubaiyaKamal/AI-Employee-Vault/internal/audit"
	"github.com/RubaiyaKamal/AI-Employee-Vault/internal/claim"
	"github.com/RubaiyaKamal/AI-Employee-Vault/internal/config"
	"github.com/RubaiyaKamal/AI-Employee-Vault/internal/executor"
	"github.com/RubaiyaKamal/AI-Employee-Vault/internal/item"
	"github.com/RubaiyaKamal/AI-Employee-Vault/internal/otel"
	vsync "github.com/RubaiyaKamal/AI-Employee-Vault/internal/sync"
	"github.com/RubaiyaKamal/AI-Employee-Vault/internal/vault"
	"github.com/RubaiyaKamal/AI-Employee-Vault/pkg/models"
)

// Syncer reconciles the vault with the shared repository. Satisfied by
// *sync.Engine; loops without a configured remote pass nil.
type Syncer interface {
	Sync(ctx context.Context) vsync.Result
}

// Loop is one agent's processing loop.
type Loop struct {
	cfg    *config.Agent
	store  *vault.Store
	claims *claim.Coordinator
	execs  *executor.Registry
	syncer Syncer
	trail  *audit.Logger
	now    func() time.Time

	mu        sync.Mutex
	started   time.Time
	lastSync  *time.Time
	lastScan  *time.Time
	processed int64
	failed    int64
}

func New(cfg *config.Agent, store *vault.Store, syncer Syncer, execs *executor.Registry, trail *audit.Logger) *Loop {
	return &Loop{
		cfg:    cfg,
		store:  store,
		claims: claim.New(store, cfg.AgentID),
		execs:  execs,
		syncer: syncer,
		trail:  trail,
		now:    time.Now,
	}
}

// Run blocks until ctx is cancelled. One scan and one sync happen immediately
// so a freshly started agent is useful before the first tick.
func (l *Loop) Run(ctx context.Context) error {
	if err := l.store.EnsureLayout(l.cfg.AgentID); err != nil {
		return fmt.Errorf("ensure vault layout: %w", err)
	}
	l.mu.Lock()
	l.started = l.now()
	l.mu.Unlock()

	slog.Info("agent loop starting",
		"agent", l.cfg.AgentID,
		"role", l.cfg.Role,
		"vault", l.store.Root,
		"scan_interval", l.cfg.ScanInterval,
		"sync_interval", l.cfg.SyncInterval)

	l.SyncOnce(ctx)
	l.ScanOnce(ctx)

	scanTick := time.NewTicker(l.cfg.ScanInterval)
	defer scanTick.Stop()
	syncTick := time.NewTicker(l.cfg.SyncInterval)
	defer syncTick.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("agent loop stopping", "agent", l.cfg.AgentID)
			return nil
		case <-syncTick.C:
			l.SyncOnce(ctx)
		case <-scanTick.C:
			l.ScanOnce(ctx)
		}
	}
}

// SyncOnce runs one vault sync cycle. A nil syncer (no remote configured)
// makes it a no-op.
func (l *Loop) SyncOnce(ctx context.Context) {
	if l.syncer == nil {
		return
	}
	start := l.now()
	res := l.syncer.Sync(ctx)
	outcome := "success"
	if !res.Success {
		outcome = "failure"
		slog.Warn("vault sync incomplete", "agent", l.cfg.AgentID, "errors", res.Errors)
	}
	otel.RecordSyncCycle(ctx, l.cfg.AgentID, outcome, time.Since(start))
	l.record("sync", "", "", outcome, joinErrors(res.Errors))

	now := l.now()
	l.mu.Lock()
	l.lastSync = &now
	l.mu.Unlock()
}

// ScanOnce runs one processing pass: the drafter pass over Needs_Action for
// every role, plus the execution pass over Approved when the role allows it.
// Item failures are isolated; one bad item never stops the pass.
func (l *Loop) ScanOnce(ctx context.Context) {
	refs, err := l.claims.ScanAvailable("")
	if err != nil {
		slog.Error("scan Needs_Action failed", "agent", l.cfg.AgentID, "err", err)
	} else {
		for _, ref := range refs {
			if ctx.Err() != nil {
				return
			}
			l.draftOne(ctx, ref)
		}
	}

	if l.cfg.Role == models.RoleExecutor {
		approved, err := l.claims.ScanApproved("")
		if err != nil {
			slog.Error("scan Approved failed", "agent", l.cfg.AgentID, "err", err)
		} else {
			for _, ref := range approved {
				if ctx.Err() != nil {
					return
				}
				l.executeOne(ctx, ref)
			}
		}
	}

	now := l.now()
	l.mu.Lock()
	l.lastScan = &now
	l.mu.Unlock()
}

// draftOne claims one available item and proposes a draft for human review.
// The original is archived to Done; the draft lands in Pending_Approval under
// the same domain.
func (l *Loop) draftOne(ctx context.Context, ref vault.Ref) {
	if taken, by := l.claims.IsClaimed(ref.Identity); taken {
		slog.Debug("skipping item held elsewhere", "item", ref.Identity, "owner", by)
		return
	}
	res := l.claims.Claim(ref)
	if !res.Claimed {
		l.recordClaimMiss(ctx, ref, res)
		return
	}
	otel.RecordClaim(ctx, l.cfg.AgentID, "claimed")
	l.record("claim", ref.Identity, string(models.StageInProgress), "success", "")
	slog.Info("claimed item", "agent", l.cfg.AgentID, "item", ref.Identity, "domain", ref.Domain)

	owned := res.Ref
	content, err := l.store.Read(owned)
	if err != nil {
		l.failItem(ctx, owned, fmt.Errorf("read item: %w", err))
		return
	}
	src := item.Parse(content)
	draft := executor.Draft(src, owned.Identity, owned.Domain, l.cfg.AgentID, l.now())
	draftName := executor.DraftIdentity(owned.Identity)
	if _, err := l.store.Write(models.StagePendingApproval, owned.Domain, draftName, item.Render(draft)); err != nil {
		l.failItem(ctx, owned, fmt.Errorf("write draft: %w", err))
		return
	}

	done, err := l.claims.Release(owned, models.OutcomeCompleted)
	if err != nil {
		slog.Error("release after draft failed", "agent", l.cfg.AgentID, "item", owned.Identity, "err", err)
		return
	}
	otel.RecordRelease(ctx, l.cfg.AgentID, string(done.Stage))
	l.record("draft", owned.Identity, string(models.StagePendingApproval), "success", draftName)
	l.bump(&l.processed)
	slog.Info("draft proposed", "agent", l.cfg.AgentID, "item", owned.Identity, "draft", draftName)
}

// executeOne claims one approved item, performs its side effect, and archives
// it with an execution record. Failures send the item back to Needs_Action
// with an error note so the problem is visible next to the work.
func (l *Loop) executeOne(ctx context.Context, ref vault.Ref) {
	if taken, by := l.claims.IsClaimed(ref.Identity); taken {
		slog.Debug("skipping item held elsewhere", "item", ref.Identity, "owner", by)
		return
	}
	res := l.claims.Claim(ref)
	if !res.Claimed {
		l.recordClaimMiss(ctx, ref, res)
		return
	}
	otel.RecordClaim(ctx, l.cfg.AgentID, "claimed")
	l.record("claim", ref.Identity, string(models.StageInProgress), "success", "")

	owned := res.Ref
	content, err := l.store.Read(owned)
	if err != nil {
		l.failItem(ctx, owned, fmt.Errorf("read item: %w", err))
		return
	}
	it := item.Parse(content)
	name := executor.TypeFor(it, owned.Domain)
	start := l.now()
	execErr := l.execs.Execute(ctx, name, it)
	if execErr != nil {
		otel.RecordExecution(ctx, l.cfg.AgentID, name, "failure", time.Since(start))
		l.failItem(ctx, owned, fmt.Errorf("execute %s: %w", name, execErr))
		return
	}
	otel.RecordExecution(ctx, l.cfg.AgentID, name, "success", time.Since(start))

	if err := l.store.AppendTrailer(owned, item.ExecutionRecord(l.cfg.AgentID, l.now(), "")); err != nil {
		slog.Error("append execution record failed", "agent", l.cfg.AgentID, "item", owned.Identity, "err", err)
	}
	done, err := l.claims.Release(owned, models.OutcomeCompleted)
	if err != nil {
		slog.Error("release after execution failed", "agent", l.cfg.AgentID, "item", owned.Identity, "err", err)
		return
	}
	otel.RecordRelease(ctx, l.cfg.AgentID, string(done.Stage))
	l.record("execute", owned.Identity, string(done.Stage), "success", name)
	l.bump(&l.processed)
	slog.Info("executed item", "agent", l.cfg.AgentID, "item", owned.Identity, "executor", name)
}

// failItem annotates the owned item and routes it back for a later pass.
func (l *Loop) failItem(ctx context.Context, owned vault.Ref, cause error) {
	slog.Error("item processing failed", "agent", l.cfg.AgentID, "item", owned.Identity, "err", cause)
	if err := l.store.AppendTrailer(owned, item.ErrorNote(l.cfg.AgentID, l.now(), cause.Error())); err != nil {
		slog.Error("append error note failed", "agent", l.cfg.AgentID, "item", owned.Identity, "err", err)
	}
	back, err := l.claims.Release(owned, models.OutcomeFailed)
	if err != nil {
		slog.Error("release after failure failed", "agent", l.cfg.AgentID, "item", owned.Identity, "err", err)
		return
	}
	otel.RecordRelease(ctx, l.cfg.AgentID, string(back.Stage))
	l.record("fail", owned.Identity, string(back.Stage), "failure", cause.Error())
	l.bump(&l.failed)
}

func (l *Loop) recordClaimMiss(ctx context.Context, ref vault.Ref, res claim.Result) {
	otel.RecordClaim(ctx, l.cfg.AgentID, res.Reason)
	switch res.Reason {
	case models.ReasonAlreadyClaimed, models.ReasonNotFound:
		// The other agent won the race; normal, never retried.
		slog.Debug("item already claimed", "agent", l.cfg.AgentID, "item", ref.Identity, "reason", res.Reason)
	default:
		slog.Error("claim failed", "agent", l.cfg.AgentID, "item", ref.Identity, "err", res.Err)
		l.record("claim", ref.Identity, "", "failure", res.Err.Error())
	}
}

// Health returns the agent's current liveness view.
func (l *Loop) Health() models.Health {
	l.mu.Lock()
	defer l.mu.Unlock()
	h := models.Health{
		Agent:          l.cfg.AgentID,
		Role:           l.cfg.Role,
		Status:         "running",
		Timestamp:      l.now().UTC(),
		VaultPath:      l.store.Root,
		LastSync:       l.lastSync,
		LastScan:       l.lastScan,
		ProcessedCount: l.processed,
		FailedCount:    l.failed,
	}
	if !l.started.IsZero() {
		h.UptimeSeconds = l.now().Sub(l.started).Seconds()
	}
	return h
}

// StageCounts reports how many items sit in each lifecycle stage, for the
// items gauge.
func (l *Loop) StageCounts() map[string]int64 {
	counts := make(map[string]int64, len(models.Stages()))
	for _, stage := range models.Stages() {
		refs, err := l.store.Scan(stage, "")
		if err != nil {
			continue
		}
		counts[string(stage)] = int64(len(refs))
	}
	return counts
}

func (l *Loop) bump(counter *int64) {
	l.mu.Lock()
	*counter++
	l.mu.Unlock()
}

func (l *Loop) record(action, itemName, stage, outcome, detail string) {
	if l.trail == nil {
		return
	}
	if err := l.trail.Record(action, itemName, stage, outcome, detail); err != nil {
		slog.Warn("audit write failed", "agent", l.cfg.AgentID, "err", err)
	}
}

func joinErrors(errs []string) string {
	switch len(errs) {
	case 0:
		return ""
	case 1:
		return errs[0]
	}
	out := errs[0]
	for _, e := range errs[1:] {
		out += "; " + e
	}
	return out
}
