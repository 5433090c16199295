package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Reconciliation metrics
	ChangesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spoolctl_changes_total",
			Help: "Total number of changes emitted by reconciler and kind",
		},
		[]string{"reconciler", "kind"},
	)

	ReconcileDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "spoolctl_reconcile_duration_seconds",
			Help:    "Time taken by a command from snapshot fetch to last batch in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"command"},
	)

	// Submission metrics
	BatchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spoolctl_batches_total",
			Help: "Total number of batches by send mode and status",
		},
		[]string{"mode", "status"},
	)

	ComputeUnitsEstimated = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "spoolctl_compute_units_estimated",
			Help:    "Compute unit limit attached to estimated batches",
			Buckets: prometheus.ExponentialBuckets(25_000, 2, 7),
		},
	)

	// RPC metrics
	RPCRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "spoolctl_rpc_request_duration_seconds",
			Help:    "RPC request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	// Pool state metrics
	PoolTotalLamports = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "spoolctl_pool_total_lamports",
			Help: "Total lamports under management as of the last pool update",
		},
	)

	PoolReserveLamports = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "spoolctl_pool_reserve_lamports",
			Help: "Balance of the pool reserve stake account",
		},
	)

	PoolLastUpdateEpoch = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "spoolctl_pool_last_update_epoch",
			Help: "Epoch of the last pool balance update",
		},
	)

	PoolValidators = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "spoolctl_pool_validators",
			Help: "Number of validator list entries by status",
		},
		[]string{"status"},
	)
)

func init() {
	prometheus.MustRegister(ChangesTotal)
	prometheus.MustRegister(ReconcileDuration)
	prometheus.MustRegister(BatchesTotal)
	prometheus.MustRegister(ComputeUnitsEstimated)
	prometheus.MustRegister(RPCRequestDuration)
	prometheus.MustRegister(PoolTotalLamports)
	prometheus.MustRegister(PoolReserveLamports)
	prometheus.MustRegister(PoolLastUpdateEpoch)
	prometheus.MustRegister(PoolValidators)
}

// WriteTextfile writes every registered metric to path in the text
// exposition format, for the node exporter textfile collector.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
