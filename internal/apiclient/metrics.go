package apiclient

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "habits_client_requests_total",
			Help: "Total number of API requests issued by the client, by status code and method",
		},
		[]string{"code", "method"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "habits_client_request_duration_seconds",
			Help:    "Duration of API requests issued by the client in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"code", "method"},
	)
)

func instrument(next http.RoundTripper) http.RoundTripper {
	return promhttp.InstrumentRoundTripperCounter(requestsTotal,
		promhttp.InstrumentRoundTripperDuration(requestDuration, next))
}
