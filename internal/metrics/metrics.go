// Package metrics счетчики Prometheus для сервиса сокращения ссылок.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	TokensIssued prometheus.Counter
	AuthFailures *prometheus.CounterVec
	URLOps       *prometheus.CounterVec
	Users        *prometheus.CounterVec
}

// New создает отдельный реестр, чтобы не трогать глобальный prometheus.DefaultRegisterer.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	m := &Metrics{
		registry: reg,
		TokensIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shortener_tokens_issued_total",
			Help: "Total number of bearer tokens issued on login",
		}),
		AuthFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shortener_auth_failures_total",
			Help: "Total number of requests rejected by the auth gate by reason",
		}, []string{"reason"}),
		URLOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shortener_url_operations_total",
			Help: "Total number of short URL operations by operation and result",
		}, []string{"op", "result"}),
		Users: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shortener_user_operations_total",
			Help: "Total number of register/login attempts by operation and result",
		}, []string{"op", "result"}),
	}

	reg.MustRegister(m.TokensIssued, m.AuthFailures, m.URLOps, m.Users)
	return m
}

// AuthFailure реализует auth.FailureRecorder.
func (m *Metrics) AuthFailure(reason string) {
	m.AuthFailures.WithLabelValues(reason).Inc()
}

func (m *Metrics) URLOp(op, result string) {
	m.URLOps.WithLabelValues(op, result).Inc()
}

func (m *Metrics) UserOp(op, result string) {
	m.Users.WithLabelValues(op, result).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{DisableCompression: true})
}
