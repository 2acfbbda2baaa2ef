package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StoreOpsTotal tracks record store operations by outcome
	StoreOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chargedesk_store_ops_total",
			Help: "Total number of record store operations",
		},
		[]string{"op", "result"},
	)

	// StoreLatency tracks record store round-trip latency
	StoreLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chargedesk_store_latency_seconds",
			Help:    "Record store call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)

	// ChainCallsTotal tracks contract and node calls
	ChainCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chargedesk_chain_calls_total",
			Help: "Total number of chain calls",
		},
		[]string{"method", "result"},
	)

	// ChargesTotal tracks submitted state-changing calls
	ChargesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chargedesk_charges_total",
			Help: "Total number of charge and withdraw submissions",
		},
		[]string{"kind", "result"},
	)

	// ApprovalsSkipped counts records dropped by ListAll because they could not be decoded
	ApprovalsSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chargedesk_approvals_skipped_total",
			Help: "Approval records skipped while listing",
		},
	)

	// HTTPRequestsTotal tracks API requests
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chargedesk_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// DBConnectionPoolUsage tracks ledger pool usage percentage
	DBConnectionPoolUsage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chargedesk_db_pool_usage_percent",
			Help: "Ledger database connection pool usage percentage",
		},
	)
)

// Result maps an error to the "result" label value.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
