package metrics

import (
	"context"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mcoot/playgate/internal/model"
	"github.com/mcoot/playgate/internal/services/viewer"
)

const (
	outcomeOK                 = "ok"
	outcomeInvalidCredentials = "invalid_credentials"
	outcomeAccountExists      = "account_exists"
	outcomeNetwork            = "network"
	outcomeRateLimited        = "rate_limited"
	outcomeCanceled           = "canceled"
	outcomeError              = "error"
)

// Metrics holds the service's collectors on a private registry
type Metrics struct {
	registry *prometheus.Registry

	playPauseTotal    *prometheus.CounterVec
	authAttemptsTotal *prometheus.CounterVec
	activeViewers     prometheus.Gauge
	viewersTotal      prometheus.Counter
}

var (
	_ viewer.Recorder = (*Metrics)(nil)
	_ viewer.Observer = (*Metrics)(nil)
)

// New creates Metrics with Go runtime and process collectors registered
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		playPauseTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "playgate_play_pause_requests_total",
			Help: "Play/pause requests by resulting event",
		}, []string{"event"}),
		authAttemptsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "playgate_auth_attempts_total",
			Help: "Login and sign-up round-trips by operation and outcome",
		}, []string{"operation", "outcome"}),
		activeViewers: factory.NewGauge(prometheus.GaugeOpts{
			Name: "playgate_active_viewers",
			Help: "Viewers currently open",
		}),
		viewersTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "playgate_viewers_created_total",
			Help: "Viewers opened since start",
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// PlaybackEvent counts one play/pause request outcome
func (m *Metrics) PlaybackEvent(event model.PlaybackEvent) {
	m.playPauseTotal.WithLabelValues(string(event)).Inc()
}

// AuthAttempt counts one completed login or sign-up
func (m *Metrics) AuthAttempt(op string, err error) {
	m.authAttemptsTotal.WithLabelValues(op, outcomeLabel(err)).Inc()
}

// ViewerOpened tracks a new viewer
func (m *Metrics) ViewerOpened(*viewer.Viewer) {
	m.activeViewers.Inc()
	m.viewersTotal.Inc()
}

// ViewerClosed tracks a closed viewer
func (m *Metrics) ViewerClosed(*viewer.Viewer) {
	m.activeViewers.Dec()
}

// outcomeLabel keeps the outcome label to a fixed set of values
func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return outcomeOK
	case errors.Is(err, model.ErrInvalidCredentials):
		return outcomeInvalidCredentials
	case errors.Is(err, model.ErrAccountExists):
		return outcomeAccountExists
	case errors.Is(err, model.ErrNetwork):
		return outcomeNetwork
	case errors.Is(err, model.ErrTooManyAttempts):
		return outcomeRateLimited
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return outcomeCanceled
	default:
		return outcomeError
	}
}
