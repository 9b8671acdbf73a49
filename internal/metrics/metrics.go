package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Ensure Metrics implements Recorder interface at compile time
var _ Recorder = (*Metrics)(nil)

// Recorder records authentication subsystem metrics. A Noop
// implementation is used when metrics are disabled.
type Recorder interface {
	RecordGateDecision(class, action string)
	RecordTokenIssued(kind, lane string)
	RecordTokenVerification(kind, result string)
	RecordMintRequest(result string)
	RecordResolverRequest(name, result string, seconds float64)
	RecordHTTPRequest(method, path, status string, seconds float64)
	IncHTTPInFlight()
	DecHTTPInFlight()
}

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// Edge gate metrics
	GateDecisionsTotal *prometheus.CounterVec

	// Token metrics
	TokensIssuedTotal       *prometheus.CounterVec
	TokenVerificationsTotal *prometheus.CounterVec
	MintRequestsTotal       *prometheus.CounterVec

	// Resolver metrics
	ResolverRequestsTotal   *prometheus.CounterVec
	ResolverRequestDuration *prometheus.HistogramVec

	// HTTP request metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
}

var (
	defaultMetrics *Metrics
	once           sync.Once
)

// Init returns a Prometheus-backed Recorder when enabled, otherwise a
// no-op Recorder. sync.Once keeps registration single-shot across
// repeated calls.
func Init(enabled bool) Recorder {
	if !enabled {
		return NewNoopRecorder()
	}

	once.Do(func() {
		defaultMetrics = initMetrics()
	})
	return defaultMetrics
}

func initMetrics() *Metrics {
	return &Metrics{
		GateDecisionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_gate_decisions_total",
				Help: "Edge gate decisions by route class and action",
			},
			[]string{"class", "action"}, // action: forward, redirect_login, redirect_dashboard
		),
		TokensIssuedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_tokens_issued_total",
				Help: "Session tokens issued by kind and sign-in lane",
			},
			[]string{"kind", "lane"},
		),
		TokenVerificationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_token_verifications_total",
				Help: "Token verification outcomes by kind",
			},
			[]string{"kind", "result"}, // result: valid, invalid, expired
		),
		MintRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_mint_requests_total",
				Help: "Access token mint attempts by outcome",
			},
			[]string{"result"},
		),
		ResolverRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_resolver_requests_total",
				Help: "Outbound resolver calls by endpoint and outcome",
			},
			[]string{"resolver", "result"},
		),
		ResolverRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "portal_resolver_request_duration_seconds",
				Help:    "Outbound resolver call latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"resolver"},
		),
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_http_requests_total",
				Help: "HTTP requests by method, path and status",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "portal_http_request_duration_seconds",
				Help:    "HTTP request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "portal_http_requests_in_flight",
				Help: "HTTP requests currently being served",
			},
		),
	}
}

func (m *Metrics) RecordGateDecision(class, action string) {
	m.GateDecisionsTotal.WithLabelValues(class, action).Inc()
}

func (m *Metrics) RecordTokenIssued(kind, lane string) {
	m.TokensIssuedTotal.WithLabelValues(kind, lane).Inc()
}

func (m *Metrics) RecordTokenVerification(kind, result string) {
	m.TokenVerificationsTotal.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) RecordMintRequest(result string) {
	m.MintRequestsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordResolverRequest(name, result string, seconds float64) {
	m.ResolverRequestsTotal.WithLabelValues(name, result).Inc()
	m.ResolverRequestDuration.WithLabelValues(name).Observe(seconds)
}

func (m *Metrics) RecordHTTPRequest(method, path, status string, seconds float64) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(seconds)
}

func (m *Metrics) IncHTTPInFlight() { m.HTTPRequestsInFlight.Inc() }
func (m *Metrics) DecHTTPInFlight() { m.HTTPRequestsInFlight.Dec() }
