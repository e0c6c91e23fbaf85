package enums

import "fmt"

// OutboxEventType names the domain events written to the outbox.
type OutboxEventType string

const (
	EventOrderCreated       OutboxEventType = "order.created"
	EventOrderStatusChanged OutboxEventType = "order.status_changed"
	EventPromotionExpired   OutboxEventType = "promotion.expired"
)

var validOutboxEventTypes = []OutboxEventType{
	EventOrderCreated,
	EventOrderStatusChanged,
	EventPromotionExpired,
}

// String implements fmt.Stringer.
func (e OutboxEventType) String() string {
	return string(e)
}

// Aggregate returns the aggregate type the event is recorded against.
func (e OutboxEventType) Aggregate() OutboxAggregateType {
	switch e {
	case EventOrderCreated, EventOrderStatusChanged:
		return AggregateOrder
	case EventPromotionExpired:
		return AggregatePromotion
	}
	return ""
}

// IsValid reports whether the value is a known OutboxEventType.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into an OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid outbox event type %q", value)
}

// OutboxAggregateType names the aggregate an outbox event belongs to.
type OutboxAggregateType string

const (
	AggregateOrder     OutboxAggregateType = "order"
	AggregatePromotion OutboxAggregateType = "promotion"
)

// IsValid reports whether the value is a known OutboxAggregateType.
func (a OutboxAggregateType) IsValid() bool {
	return a == AggregateOrder || a == AggregatePromotion
}
