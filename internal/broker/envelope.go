// Package broker implements the fan-out eventing layer: durable exchange,
// per-service durable queues, persistent deliveries, manual ack/nack.
package broker

import (
	"github.com/oklog/ulid/v2"
)

// Event types carried in the envelope discriminator.
const (
	EventTypeSubscriptionUpdated = "subscription.updated"
)

// SubscriptionData is the payload of a subscription change event.
type SubscriptionData struct {
	TenantSlug          string   `json:"tenant_slug"`
	PlanID              string   `json:"plan_id"`
	PlanName            string   `json:"plan_name"`
	PlanType            string   `json:"plan_type"`
	EmployeeLimit       int64    `json:"employee_limit"`
	ManagerLimit        int64    `json:"manager_limit"`
	ServiceRequestLimit int64    `json:"service_request_limit"`
	Features            []string `json:"features,omitempty"`
}

// Event is the wire envelope. A message body is either one Event object or a
// JSON array of them. EventID and EventType are additive fields: consumers
// that predate them ignore unknown keys, so the wire contract stays
// compatible. Keys other than the known payload fields are reserved for
// future event kinds and are ignored, not rejected.
type Event struct {
	EventID          string            `json:"event_id,omitempty"`
	EventType        string            `json:"event_type,omitempty"`
	SubscriptionData *SubscriptionData `json:"subscriptionData,omitempty"`
}

// NewSubscriptionEvent wraps a subscription payload in an envelope with a
// fresh ULID. The ULID doubles as the idempotency key for deduping
// consumers.
func NewSubscriptionEvent(data SubscriptionData) Event {
	return Event{
		EventID:          ulid.Make().String(),
		EventType:        EventTypeSubscriptionUpdated,
		SubscriptionData: &data,
	}
}
