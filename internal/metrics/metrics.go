package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics owns its registry so tests can build as many as they like.
// A nil *Metrics records nothing.
type Metrics struct {
	reg *prometheus.Registry

	AuthFlows          *prometheus.CounterVec
	TokenValidations   *prometheus.CounterVec
	AccessDecisions    *prometheus.CounterVec
	LedgerErrors       prometheus.Counter
	LedgerPurged       prometheus.Counter
	EventPublishErrors *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		AuthFlows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_flows_total",
			Help: "Auth flows by flow name and outcome.",
		}, []string{"flow", "outcome"}),
		TokenValidations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_token_validations_total",
			Help: "Token validations by token type and result.",
		}, []string{"token_type", "result"}),
		AccessDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_access_decisions_total",
			Help: "Role gate decisions.",
		}, []string{"decision"}),
		LedgerErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "auth_ledger_errors_total",
			Help: "Refresh token ledger lookups that failed and were treated as revoked.",
		}),
		LedgerPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "auth_ledger_purged_total",
			Help: "Expired refresh token records removed by the janitor.",
		}),
		EventPublishErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_event_publish_errors_total",
			Help: "Events that could not be published.",
		}, []string{"topic"}),
	}
	m.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.AuthFlows,
		m.TokenValidations,
		m.AccessDecisions,
		m.LedgerErrors,
		m.LedgerPurged,
		m.EventPublishErrors,
	)
	return m
}

func (m *Metrics) Flow(flow string, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	m.AuthFlows.WithLabelValues(flow, outcome).Inc()
}

func (m *Metrics) Token(tokenType, result string) {
	if m == nil {
		return
	}
	m.TokenValidations.WithLabelValues(tokenType, result).Inc()
}

func (m *Metrics) Access(allowed bool) {
	if m == nil {
		return
	}
	decision := "deny"
	if allowed {
		decision = "allow"
	}
	m.AccessDecisions.WithLabelValues(decision).Inc()
}

func (m *Metrics) LedgerError() {
	if m == nil {
		return
	}
	m.LedgerErrors.Inc()
}

func (m *Metrics) Purged(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.LedgerPurged.Add(float64(n))
}

func (m *Metrics) PublishFailed(topic string) {
	if m == nil {
		return
	}
	m.EventPublishErrors.WithLabelValues(topic).Inc()
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}
