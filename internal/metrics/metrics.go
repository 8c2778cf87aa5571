package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// UpstreamRequests counts provider calls by endpoint family and outcome.
var UpstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "marketdata_upstream_requests_total",
	Help: "Upstream provider calls by provider, endpoint and outcome.",
}, []string{"provider", "endpoint", "outcome"})

// Failovers counts primary->secondary fallbacks by endpoint family.
var Failovers = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "marketdata_failovers_total",
	Help: "Fallbacks from the primary to the secondary provider.",
}, []string{"endpoint"})

// Observe records one provider call outcome.
func Observe(provider, endpoint string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	UpstreamRequests.WithLabelValues(provider, endpoint, outcome).Inc()
}
