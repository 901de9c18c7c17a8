package prometheus

import (
	"StickyBus/internal/core/domain"
	"StickyBus/internal/core/ports"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector implements ports.Metrics using Prometheus
type Collector struct {
	participantsRegistered   *prometheus.CounterVec
	participantsUnregistered *prometheus.CounterVec
	participantsActive       *prometheus.GaugeVec
	providersReplaced        *prometheus.CounterVec
	providersRejected        *prometheus.CounterVec
	catchUpDeliveries        *prometheus.CounterVec
	accessorFailures         *prometheus.CounterVec
	bindings                 *prometheus.GaugeVec
	eventsPublished          *prometheus.CounterVec
}

var _ ports.Metrics = (*Collector)(nil)

// NewCollector creates a collector registered on reg.
// Pass prometheus.DefaultRegisterer to expose it on the default /metrics handler.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		participantsRegistered: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stickybus_participants_registered_total",
				Help: "Total number of participant registrations",
			},
			[]string{"bus"},
		),
		participantsUnregistered: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stickybus_participants_unregistered_total",
				Help: "Total number of participant unregistrations",
			},
			[]string{"bus"},
		),
		participantsActive: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "stickybus_participants_active",
				Help: "Current number of registered participants",
			},
			[]string{"bus"},
		),
		providersReplaced: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stickybus_providers_replaced_total",
				Help: "Total number of provider bindings replaced by a later registration",
			},
			[]string{"bus", "event_type"},
		),
		providersRejected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stickybus_providers_rejected_total",
				Help: "Total number of provider registrations rejected because the type was already bound",
			},
			[]string{"bus", "event_type"},
		),
		catchUpDeliveries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stickybus_catchup_deliveries_total",
				Help: "Total number of current state values delivered on registration",
			},
			[]string{"bus", "event_type", "direction"},
		),
		accessorFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stickybus_accessor_failures_total",
				Help: "Total number of failed current state accessor invocations",
			},
			[]string{"bus", "event_type"},
		),
		bindings: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "stickybus_provider_bindings",
				Help: "Current number of event types with a provider",
			},
			[]string{"bus"},
		),
		eventsPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stickybus_events_published_total",
				Help: "Total number of events posted",
			},
			[]string{"bus", "event_type"},
		),
	}
}

// ParticipantRegistered records a registration
func (c *Collector) ParticipantRegistered(bus string) {
	c.participantsRegistered.WithLabelValues(bus).Inc()
	c.participantsActive.WithLabelValues(bus).Inc()
}

// ParticipantUnregistered records an unregistration
func (c *Collector) ParticipantUnregistered(bus string) {
	c.participantsUnregistered.WithLabelValues(bus).Inc()
	c.participantsActive.WithLabelValues(bus).Dec()
}

// ProviderReplaced records a last-wins provider overwrite
func (c *Collector) ProviderReplaced(bus string, eventType domain.EventType) {
	c.providersReplaced.WithLabelValues(bus, eventType.String()).Inc()
}

// ProviderRejected records a refused duplicate provider
func (c *Collector) ProviderRejected(bus string, eventType domain.EventType) {
	c.providersRejected.WithLabelValues(bus, eventType.String()).Inc()
}

// CatchUpDelivered records one catch-up delivery
func (c *Collector) CatchUpDelivered(bus string, eventType domain.EventType, direction string) {
	c.catchUpDeliveries.WithLabelValues(bus, eventType.String(), direction).Inc()
}

// AccessorFailed records a failed accessor call
func (c *Collector) AccessorFailed(bus string, eventType domain.EventType) {
	c.accessorFailures.WithLabelValues(bus, eventType.String()).Inc()
}

// BindingsChanged sets the provider binding gauge
func (c *Collector) BindingsChanged(bus string, count int) {
	c.bindings.WithLabelValues(bus).Set(float64(count))
}

// EventPublished records a posted event
func (c *Collector) EventPublished(bus string, eventType domain.EventType) {
	c.eventsPublished.WithLabelValues(bus, eventType.String()).Inc()
}
