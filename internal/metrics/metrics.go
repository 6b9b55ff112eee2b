// Package metrics exposes prometheus instruments for the tenant core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/fx"
)

// Metrics holds application-level instruments.
type Metrics struct {
	EventsPublished   prometheus.Counter
	PublishFailures   prometheus.Counter
	EventsDelivered   *prometheus.CounterVec
	EventsAcked       *prometheus.CounterVec
	EventsNacked      *prometheus.CounterVec
	EventsDeadLetter  *prometheus.CounterVec
	AdmissionAllowed  *prometheus.CounterVec
	AdmissionDenied   *prometheus.CounterVec
	PartialReplicated prometheus.Counter
}

// New registers the application instruments on the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers the instruments on r. Tests pass a fresh registry.
func NewWith(r prometheus.Registerer) *Metrics {
	factory := promauto.With(r)
	return &Metrics{
		EventsPublished: factory.NewCounter(prometheus.CounterOpts{
			Name: "staffhub_events_published_total",
			Help: "Total domain events published to the fanout exchange",
		}),
		PublishFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "staffhub_events_publish_failures_total",
			Help: "Total publish attempts dropped because the broker was unavailable",
		}),
		EventsDelivered: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "staffhub_events_delivered_total",
			Help: "Total deliveries received from the queue",
		}, []string{"queue"}),
		EventsAcked: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "staffhub_events_acked_total",
			Help: "Total deliveries acknowledged",
		}, []string{"queue"}),
		EventsNacked: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "staffhub_events_nacked_total",
			Help: "Total deliveries negatively acknowledged",
		}, []string{"queue"}),
		EventsDeadLetter: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "staffhub_events_dead_lettered_total",
			Help: "Total deliveries parked on the dead-letter queue",
		}, []string{"queue"}),
		AdmissionAllowed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "staffhub_admission_allowed_total",
			Help: "Total mutating operations allowed by the admission gate",
		}, []string{"kind"}),
		AdmissionDenied: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "staffhub_admission_denied_total",
			Help: "Total mutating operations denied by the admission gate",
		}, []string{"kind"}),
		PartialReplicated: factory.NewCounter(prometheus.CounterOpts{
			Name: "staffhub_replication_partial_failures_total",
			Help: "Total dual writes that diverged between tenant and global stores",
		}),
	}
}

// Module provides prometheus instruments.
var Module = fx.Module("metrics",
	fx.Provide(New),
)
