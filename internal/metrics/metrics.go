// Package metrics exposes Prometheus counters for cross-post outcomes.
// Failures are otherwise only visible in logs, so these are the signal for alerting.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultSkipped = "skipped"
)

type Metrics struct {
	registry *prometheus.Registry

	Sends        *prometheus.CounterVec
	SendDuration *prometheus.HistogramVec
	Dispatches   *prometheus.CounterVec
}

func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Sends: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "crosspost_sends_total",
			Help: "Channel sends by platform and result (success, failure, skipped)",
		}, []string{"platform", "result"}),
		SendDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "crosspost_send_duration_seconds",
			Help:    "Duration of a single channel send",
			Buckets: prometheus.DefBuckets,
		}, []string{"platform"}),
		Dispatches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "crosspost_dispatches_total",
			Help: "Publication events fanned out, by event kind",
		}, []string{"kind"}),
	}
}

// ObserveSend is nil-safe so dispatchers can run without metrics.
func (m *Metrics) ObserveSend(platform, result string, took time.Duration) {
	if m == nil {
		return
	}
	m.Sends.WithLabelValues(platform, result).Inc()
	if result != ResultSkipped {
		m.SendDuration.WithLabelValues(platform).Observe(took.Seconds())
	}
}

func (m *Metrics) ObserveDispatch(kind string) {
	if m == nil {
		return
	}
	m.Dispatches.WithLabelValues(kind).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
