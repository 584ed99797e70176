package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PayoutsCreated counts accepted payout creation requests.
	PayoutsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payout_requests_created_total",
		Help: "Number of payout requests created",
	})

	// PipelineOutcomes counts finished pipeline invocations by result
	// status (completed, failed, skipped, error).
	PipelineOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payout_pipeline_outcomes_total",
		Help: "Number of payout pipeline invocations by outcome",
	}, []string{"status"})

	// DispatcherRetries counts pipeline retries after unexpected failures.
	DispatcherRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payout_dispatcher_retries_total",
		Help: "Number of payout pipeline retries scheduled by the dispatcher",
	})

	// GatewayLatency observes settlement gateway call duration.
	GatewayLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "payout_gateway_latency_seconds",
		Help:    "Latency of payment gateway submissions",
		Buckets: prometheus.DefBuckets,
	})
)
