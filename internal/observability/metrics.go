package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels shared by the authentication metrics.
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeRejected = "rejected"
)

// Metrics collects application metrics. Services depend on this interface so
// tests can pass Nop.
type Metrics interface {
	RecordAuthAttempt(method, outcome string)
	RecordTokenIssued(tokenType string)
	RecordFederation(provider, outcome string)
	RecordRequest(method, route string, status int, duration time.Duration)
}

// Nop discards every measurement.
type Nop struct{}

func (Nop) RecordAuthAttempt(string, string) {}

func (Nop) RecordTokenIssued(string) {}

func (Nop) RecordFederation(string, string) {}

func (Nop) RecordRequest(string, string, int, time.Duration) {}

// Collector is the Prometheus implementation of Metrics.
type Collector struct {
	authAttempts    *prometheus.CounterVec
	tokensIssued    *prometheus.CounterVec
	federation      *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		authAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gradconnect_auth_attempts_total",
			Help: "Registration, login and refresh attempts by outcome",
		}, []string{"method", "outcome"}),
		tokensIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gradconnect_tokens_issued_total",
			Help: "Bearer tokens issued by type",
		}, []string{"type"}),
		federation: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gradconnect_federation_logins_total",
			Help: "OAuth federation handshakes by provider and outcome",
		}, []string{"provider", "outcome"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gradconnect_http_requests_total",
			Help: "HTTP requests by method, route and status code",
		}, []string{"method", "route", "status_code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gradconnect_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		c.authAttempts,
		c.tokensIssued,
		c.federation,
		c.httpRequests,
		c.requestDuration,
	)

	return c
}

// RecordAuthAttempt counts a credential operation.
func (c *Collector) RecordAuthAttempt(method, outcome string) {
	c.authAttempts.WithLabelValues(method, outcome).Inc()
}

// RecordTokenIssued counts an issued token.
func (c *Collector) RecordTokenIssued(tokenType string) {
	c.tokensIssued.WithLabelValues(tokenType).Inc()
}

// RecordFederation counts a federation handshake.
func (c *Collector) RecordFederation(provider, outcome string) {
	c.federation.WithLabelValues(provider, outcome).Inc()
}

// RecordRequest counts an HTTP request and observes its latency.
func (c *Collector) RecordRequest(method, route string, status int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Handler returns the HTTP handler for Prometheus scrapes.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
