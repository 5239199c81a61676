package otel

import (
	"context"
	"testing"
	"time"
)

func TestInitMetrics_RecordClaim(t *testing.T) {
	ctx := context.Background()
	_, err := InitMeterProvider(ctx, "metrics-test")
	if err != nil {
		t.Fatalf("InitMeterProvider: %v", err)
	}
	if err := InitMetrics(ctx); err != nil {
		t.Fatalf("InitMetrics: %v", err)
	}
	RecordClaim(ctx, "cloud", "claimed")
	RecordClaim(ctx, "local", "already_claimed")
}

func TestRecordRelease_RecordExecution_RecordSyncCycle(t *testing.T) {
	ctx := context.Background()
	_, _ = InitMeterProvider(ctx, "record-test")
	_ = InitMetrics(ctx)
	RecordRelease(ctx, "cloud", "Pending_Approval")
	RecordExecution(ctx, "local", "email", "success", 100*time.Millisecond)
	RecordSyncCycle(ctx, "local", "success", 2*time.Second)
}

func TestInitMetricsWithStageCount(t *testing.T) {
	ctx := context.Background()
	_, _ = InitMeterProvider(ctx, "stagecount-test")
	err := InitMetricsWithStageCount(ctx, func() map[string]int64 {
		return map[string]int64{"Needs_Action": 2, "Done": 5}
	})
	if err != nil {
		t.Fatalf("InitMetricsWithStageCount: %v", err)
	}
}

func TestInitMetricsWithStageCount_nilFunc(t *testing.T) {
	ctx := context.Background()
	_, _ = InitMeterProvider(ctx, "stagecount-nil-test")
	if err := InitMetricsWithStageCount(ctx, nil); err != nil {
		t.Fatalf("InitMetricsWithStageCount(nil): %v", err)
	}
}
