package otel

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
)

var (
	initMetricsOnce   sync.Once
	claimCounter      metric.Int64Counter
	releaseCounter    metric.Int64Counter
	executionCounter  metric.Int64Counter
	executionDuration metric.Float64Histogram
	syncCounter       metric.Int64Counter
	syncDuration      metric.Float64Histogram
)

// InitMetrics creates the meter instruments. Safe to call multiple times; only runs once.
// Call after InitMeterProvider.
func InitMetrics(ctx context.Context) error {
	var err error
	initMetricsOnce.Do(func() {
		m := Meter()
		claimCounter, err = m.Int64Counter("vault_claim_attempts_total", metric.WithDescription("Total claim attempts by outcome (claimed, already_claimed, file_not_found, error)"))
		if err != nil {
			return
		}
		releaseCounter, err = m.Int64Counter("vault_releases_total", metric.WithDescription("Total item releases by destination stage"))
		if err != nil {
			return
		}
		executionCounter, err = m.Int64Counter("vault_executions_total", metric.WithDescription("Total approved-item executions by domain and outcome"))
		if err != nil {
			return
		}
		executionDuration, err = m.Float64Histogram("vault_execution_duration_seconds", metric.WithDescription("Approved-item execution duration in seconds"))
		if err != nil {
			return
		}
		syncCounter, err = m.Int64Counter("vault_sync_cycles_total", metric.WithDescription("Total vault sync cycles by outcome"))
		if err != nil {
			return
		}
		syncDuration, err = m.Float64Histogram("vault_sync_duration_seconds", metric.WithDescription("Vault sync cycle duration in seconds"))
	})
	return err
}

// RecordClaim records one claim attempt and its outcome.
func RecordClaim(ctx context.Context, agent, outcome string) {
	if claimCounter == nil {
		return
	}
	claimCounter.Add(ctx, 1, metric.WithAttributes(
		AttrAgent.String(agent),
		AttrOutcome.String(outcome),
	))
}

// RecordRelease records one item release and the stage the item landed in.
func RecordRelease(ctx context.Context, agent, stage string) {
	if releaseCounter == nil {
		return
	}
	releaseCounter.Add(ctx, 1, metric.WithAttributes(
		AttrAgent.String(agent),
		AttrStage.String(stage),
	))
}

// RecordExecution records one approved-item execution and its duration.
func RecordExecution(ctx context.Context, agent, domain, outcome string, duration time.Duration) {
	if executionCounter != nil {
		executionCounter.Add(ctx, 1, metric.WithAttributes(
			AttrAgent.String(agent),
			AttrDomain.String(domain),
			AttrOutcome.String(outcome),
		))
	}
	if executionDuration != nil {
		executionDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
			AttrAgent.String(agent),
			AttrDomain.String(domain),
		))
	}
}

// RecordSyncCycle records one sync cycle and its duration.
func RecordSyncCycle(ctx context.Context, agent, outcome string, duration time.Duration) {
	if syncCounter != nil {
		syncCounter.Add(ctx, 1, metric.WithAttributes(
			AttrAgent.String(agent),
			AttrOutcome.String(outcome),
		))
	}
	if syncDuration != nil {
		syncDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(AttrAgent.String(agent)))
	}
}

// StageCountFunc returns the number of items currently in each lifecycle stage.
type StageCountFunc func() map[string]int64

// InitMetricsWithStageCount creates instruments and optionally registers a
// callback reporting per-stage item counts. If stageCount is nil, the stage
// gauge is not reported.
func InitMetricsWithStageCount(ctx context.Context, stageCount StageCountFunc) error {
	if err := InitMetrics(ctx); err != nil {
		return err
	}
	if stageCount == nil {
		return nil
	}
	m := Meter()
	itemsGauge, err := m.Float64ObservableGauge("vault_items_total", metric.WithDescription("Number of work items by lifecycle stage"))
	if err != nil {
		return err
	}
	_, err = m.RegisterCallback(func(ctx context.Context, o metric.Observer) error {
		for stage, n := range stageCount() {
			o.ObserveFloat64(itemsGauge, float64(n), metric.WithAttributes(AttrStage.String(stage)))
		}
		return nil
	}, itemsGauge)
	return err
}
