package enums

import "fmt"

// OutboxAggregateType names the aggregate an outbox event belongs to.
type OutboxAggregateType string

const (
	AggregateEvent  OutboxAggregateType = "event"
	AggregateTicket OutboxAggregateType = "ticket"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateEvent,
	AggregateTicket,
}

// IsValid reports whether the value matches a known aggregate type.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType names the domain events the ledger emits.
type OutboxEventType string

const (
	EventEventCreated     OutboxEventType = "ticketing.event.created"
	EventEventUpdated     OutboxEventType = "ticketing.event.updated"
	EventEventDeleted     OutboxEventType = "ticketing.event.deleted"
	EventEventPaidOut     OutboxEventType = "ticketing.event.paid_out"
	EventTicketsPurchased OutboxEventType = "ticketing.tickets.purchased"
)

var validOutboxEventTypes = []OutboxEventType{
	EventEventCreated,
	EventEventUpdated,
	EventEventDeleted,
	EventEventPaidOut,
	EventTicketsPurchased,
}

// IsValid reports whether the value matches a known event type.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
