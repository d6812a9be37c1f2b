// Package server provides the operational HTTP surface of the sync
// daemon: Prometheus metrics on /metrics and health endpoints for
// liveness (/healthz) and readiness (/readyz) probes, served on a
// dedicated port. Readiness flips once the store is open, accounts are
// loaded, and the cached snapshot is restored; it drops again when
// graceful shutdown begins.
package server
