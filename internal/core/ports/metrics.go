package ports

import "StickyBus/internal/core/domain"

// Catch-up directions reported to Metrics.
const (
	DirectionToNewcomer = "to_newcomer"
	DirectionAnnounce   = "announce"
)

// Metrics receives dispatcher observations.
type Metrics interface {
	ParticipantRegistered(bus string)
	ParticipantUnregistered(bus string)
	ProviderReplaced(bus string, eventType domain.EventType)
	ProviderRejected(bus string, eventType domain.EventType)
	CatchUpDelivered(bus string, eventType domain.EventType, direction string)
	AccessorFailed(bus string, eventType domain.EventType)
	BindingsChanged(bus string, count int)
	EventPublished(bus string, eventType domain.EventType)
}

// NopMetrics discards every observation.
type NopMetrics struct{}

var _ Metrics = NopMetrics{}

func (NopMetrics) ParticipantRegistered(string) {}
func (NopMetrics) ParticipantUnregistered(string) {}
func (NopMetrics) ProviderReplaced(string, domain.EventType) {}
func (NopMetrics) ProviderRejected(string, domain.EventType) {}
func (NopMetrics) CatchUpDelivered(string, domain.EventType, string) {}
func (NopMetrics) AccessorFailed(string, domain.EventType) {}
func (NopMetrics) BindingsChanged(string, int) {}
func (NopMetrics) EventPublished(string, domain.EventType) {}
