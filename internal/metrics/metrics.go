package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registration flow

	LookupsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "registro",
		Name:      "dni_lookups_total",
		Help:      "Total DNI lookups against the worker registry, by result.",
	}, []string{"result"})

	VerificationEmailsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "registro",
		Name:      "verification_emails_total",
		Help:      "Total verification emails requested, by result.",
	}, []string{"result"})

	VerificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "registro",
		Name:      "email_verifications_total",
		Help:      "Total verification-link visits, by outcome.",
	}, []string{"outcome"})

	// Upstream calls

	UpstreamRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "registro",
		Name:      "upstream_request_duration_seconds",
		Help:      "Duration of calls to the worker registry and user service.",
		Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"upstream", "status"})

	// HTTP metrics

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "registro",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "registro",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests.",
	}, []string{"method", "path", "status"})
)

func Register() {
	prometheus.MustRegister(
		LookupsTotal,
		VerificationEmailsTotal,
		VerificationsTotal,
		UpstreamRequestDuration,
		HTTPRequestDuration,
		HTTPRequestsTotal,
	)
}

func NewServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &http.Server{Addr: addr, Handler: mux}
}
