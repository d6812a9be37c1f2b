// Package instrumentation provides OpenTelemetry metrics for the sync
// daemon.
//
// The package exposes the following metrics:
//
// Sync metrics:
//   - sync_cycles_total: Counter of sync cycles by status
//   - sync_cycle_duration_seconds: Histogram of sync cycle durations
//   - account_fetches_total: Counter of per-account fetches by status
//
// Google API metrics:
//   - google_api_operations_total: Counter of Tasks API operations by operation and status
//   - google_api_operation_duration_seconds: Histogram of Tasks API operation durations
//
// Account metrics:
//   - connected_accounts: Gauge of connected accounts
//
// Mutation metrics:
//   - mutations_total: Counter of optimistic mutations by operation and result
//
// Metrics are exported through a Prometheus exporter by default and
// served by the metrics HTTP server; a stdout exporter is available for
// development. Configuration comes from environment variables:
//   - INSTRUMENTATION_ENABLED: Enable/disable instrumentation (default: true)
//   - METRICS_EXPORTER: Metrics exporter type (prometheus, stdout, none, default: prometheus)
//   - OTEL_SERVICE_NAME: Service name (default: gtaskall)
package instrumentation
