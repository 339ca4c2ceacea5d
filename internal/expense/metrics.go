package expense

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Ingestion metrics, registered on the default Prometheus registry and exposed by the
// server on /metrics
var (
	// Parsed requests by ingress channel and outcome
	recordsParsed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "expense_records_parsed_total",
			Help: "Total number of parse requests by channel and outcome",
		},
		[]string{"channel", "outcome"}, // chat, api / accepted, wrong_line_count, ...
	)

	appendsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "expense_appends_total",
			Help: "Total number of append attempts by outcome",
		},
		[]string{"outcome"}, // ok, not_ready, write_failed
	)

	remoteRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "expense_remote_retries_total",
			Help: "Total number of remote calls retried after a transient failure",
		},
		[]string{"operation"}, // open, list, append
	)

	provisionResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "expense_table_provision_total",
			Help: "Total number of table provisioning attempts by result",
		},
		[]string{"result"}, // opened, matched, created, quota_exceeded, failed
	)

	tableState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "expense_table_state",
			Help: "Backing table state: 0 unready, 1 ready, 2 degraded",
		},
	)
)
