/*
Package metrics defines the Prometheus metrics recorded by spoolctl.

spoolctl is a short-lived command, so nothing is scraped. All metrics are
registered with the default registry at init and, when --metrics-file is
set, written on exit in the text exposition format for the node exporter
textfile collector. A cron job running sync-delegation can then be
alerted on like any other exporter.

# Metrics

Reconciliation:
  - spoolctl_changes_total{reconciler,kind}: changes planned
  - spoolctl_reconcile_duration_seconds{command}: time spent in a command

Submission:
  - spoolctl_batches_total{mode,status}: batches by send mode and outcome
  - spoolctl_compute_units_estimated: simulated compute units per batch
  - spoolctl_rpc_request_duration_seconds{method}: RPC latency

Pool state, set by ObservePool after every fetch:
  - spoolctl_pool_total_lamports
  - spoolctl_pool_reserve_lamports
  - spoolctl_pool_last_update_epoch
  - spoolctl_pool_validators{status}

# Timing

	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.ReconcileDuration, "sync-delegation")
*/
package metrics
