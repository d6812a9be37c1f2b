package instrumentation

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys.
const (
	attrStatus    = "status"
	attrOperation = "operation"
	attrResult    = "result"
)

// Metrics provides methods for recording observability metrics. The
// zero value is a no-op recorder.
type Metrics struct {
	// Sync metrics
	syncCyclesTotal   metric.Int64Counter
	syncCycleDuration metric.Float64Histogram
	accountsSynced    metric.Int64Counter

	// Google API metrics
	apiOperationsTotal   metric.Int64Counter
	apiOperationDuration metric.Float64Histogram

	// Mutation metrics
	mutationsTotal metric.Int64Counter

	// Account gauge
	connectedAccounts metric.Int64UpDownCounter
}

// NewMetrics creates a new Metrics instance with all instruments
// initialized on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error

	m.syncCyclesTotal, err = meter.Int64Counter(
		"sync_cycles_total",
		metric.WithDescription("Total number of sync cycles by status"),
		metric.WithUnit("{cycle}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create sync_cycles_total counter: %w", err)
	}

	m.syncCycleDuration, err = meter.Float64Histogram(
		"sync_cycle_duration_seconds",
		metric.WithDescription("Sync cycle duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create sync_cycle_duration_seconds histogram: %w", err)
	}

	m.accountsSynced, err = meter.Int64Counter(
		"account_fetches_total",
		metric.WithDescription("Total number of per-account fetches by status"),
		metric.WithUnit("{fetch}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create account_fetches_total counter: %w", err)
	}

	m.apiOperationsTotal, err = meter.Int64Counter(
		"google_api_operations_total",
		metric.WithDescription("Total number of Google Tasks API operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create google_api_operations_total counter: %w", err)
	}

	m.apiOperationDuration, err = meter.Float64Histogram(
		"google_api_operation_duration_seconds",
		metric.WithDescription("Google Tasks API operation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create google_api_operation_duration_seconds histogram: %w", err)
	}

	m.mutationsTotal, err = meter.Int64Counter(
		"mutations_total",
		metric.WithDescription("Total number of optimistic mutations by operation and result"),
		metric.WithUnit("{mutation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mutations_total counter: %w", err)
	}

	m.connectedAccounts, err = meter.Int64UpDownCounter(
		"connected_accounts",
		metric.WithDescription("Number of connected accounts"),
		metric.WithUnit("{account}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create connected_accounts gauge: %w", err)
	}

	return m, nil
}

// SyncCycle records a finished sync cycle: its duration, how many
// accounts it covered, and how many of them failed.
func (m *Metrics) SyncCycle(d time.Duration, accounts, failed int) {
	if m.syncCyclesTotal == nil || m.syncCycleDuration == nil || m.accountsSynced == nil {
		return
	}

	ctx := context.Background()
	status := StatusSuccess
	if accounts > 0 && failed == accounts {
		status = StatusError
	}
	m.syncCyclesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrStatus, status)))
	m.syncCycleDuration.Record(ctx, d.Seconds())

	if ok := accounts - failed; ok > 0 {
		m.accountsSynced.Add(ctx, int64(ok), metric.WithAttributes(attribute.String(attrStatus, StatusSuccess)))
	}
	if failed > 0 {
		m.accountsSynced.Add(ctx, int64(failed), metric.WithAttributes(attribute.String(attrStatus, StatusError)))
	}
}

// Mutation records an optimistic mutation and whether it was rolled
// back.
func (m *Metrics) Mutation(op string, rolledBack bool) {
	if m.mutationsTotal == nil {
		return
	}

	result := ResultApplied
	if rolledBack {
		result = ResultRolledBack
	}
	m.mutationsTotal.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String(attrOperation, op),
		attribute.String(attrResult, result),
	))
}

// RecordAPIOperation records one Google Tasks API operation.
func (m *Metrics) RecordAPIOperation(ctx context.Context, operation, status string, duration time.Duration) {
	if m.apiOperationsTotal == nil || m.apiOperationDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	}
	m.apiOperationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.apiOperationDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// AccountConnected adjusts the connected accounts gauge by delta.
func (m *Metrics) AccountConnected(ctx context.Context, delta int64) {
	if m.connectedAccounts == nil {
		return
	}
	m.connectedAccounts.Add(ctx, delta)
}
