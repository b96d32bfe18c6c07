// Package metrics holds the Prometheus collectors for the ledger, the accrual
// jobs and the command layer. Collectors register on the default registry and
// are served by the host HTTP surface at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Job labels.
const (
	JobGeneration  = "generation"
	JobMaintenance = "maintenance"
)

var Accounts = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "sunshine_accounts",
	Help: "Registered accounts in the ledger",
})

var PassesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "sunshine_passes_total",
	Help: "Completed accrual passes by job",
}, []string{"job"})

var PassDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "sunshine_pass_duration_seconds",
	Help:    "Wall time of one accrual pass including the save",
	Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
}, []string{"job"})

var AccountsSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "sunshine_accounts_skipped_total",
	Help: "Accounts skipped during a pass because their record was unusable",
}, []string{"job"})

var EnergyGenerated = promauto.NewCounter(prometheus.CounterOpts{
	Name: "sunshine_energy_generated_total",
	Help: "Energy added to storage by generation ticks",
})

var FuelSkipped = promauto.NewCounter(prometheus.CounterOpts{
	Name: "sunshine_fuel_skipped_total",
	Help: "Account ticks where fuel generators went unfunded",
})

var MaintenanceCollected = promauto.NewCounter(prometheus.CounterOpts{
	Name: "sunshine_maintenance_collected_total",
	Help: "Currency removed by maintenance passes",
})

var SaveFailures = promauto.NewCounter(prometheus.CounterOpts{
	Name: "sunshine_ledger_save_failures_total",
	Help: "Failed whole-table snapshot writes",
})

var Operations = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "sunshine_operations_total",
	Help: "Single-account ledger operations by outcome",
}, []string{"op", "result"})

var Commands = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "sunshine_commands_total",
	Help: "Chat commands handled",
}, []string{"command"})
