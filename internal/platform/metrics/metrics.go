package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "puppybowl"

// Recorder owns a private prometheus registry. A nil *Recorder records nothing.
type Recorder struct {
	registry      *prometheus.Registry
	remoteCalls   *prometheus.CounterVec
	remoteLatency *prometheus.HistogramVec
	actions       *prometheus.CounterVec
	circuitState  *prometheus.GaugeVec
	sessions      prometheus.Gauge
}

func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	r := &Recorder{
		registry: reg,
		remoteCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "remote_calls_total",
			Help:      "Calls to the remote roster API by operation and outcome.",
		}, []string{"operation", "outcome"}),
		remoteLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "remote_call_duration_seconds",
			Help:      "Latency of calls to the remote roster API.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "roster_actions_total",
			Help:      "User actions handled by roster sessions by outcome.",
		}, []string{"action", "outcome"}),
		circuitState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_state",
			Help:      "1 for the current circuit breaker state of the remote roster API.",
		}, []string{"state"}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Roster sessions currently held in memory.",
		}),
	}

	reg.MustRegister(
		r.remoteCalls,
		r.remoteLatency,
		r.actions,
		r.circuitState,
		r.sessions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	r.circuitState.WithLabelValues("closed").Set(1)

	return r
}

// RecordRemoteCall counts one remote call and observes its latency.
func (r *Recorder) RecordRemoteCall(operation, outcome string, duration time.Duration) {
	if r == nil {
		return
	}
	r.remoteCalls.WithLabelValues(operation, outcome).Inc()
	r.remoteLatency.WithLabelValues(operation).Observe(duration.Seconds())
}

func (r *Recorder) RecordAction(action, outcome string) {
	if r == nil {
		return
	}
	r.actions.WithLabelValues(action, outcome).Inc()
}

// RecordCircuitState marks to as the only active breaker state.
func (r *Recorder) RecordCircuitState(from, to string) {
	if r == nil {
		return
	}
	r.circuitState.WithLabelValues(from).Set(0)
	r.circuitState.WithLabelValues(to).Set(1)
}

func (r *Recorder) SetActiveSessions(n int) {
	if r == nil {
		return
	}
	r.sessions.Set(float64(n))
}

func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Handler exposes the registry in the prometheus text format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
