package registry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
)

// EventDescriptor routes one event type to its topic and payload decoder.
type EventDescriptor struct {
	EventType     enums.OutboxEventType
	AggregateType enums.OutboxAggregateType
	Topic         string
	decode        func(json.RawMessage) (any, error)
}

// ResolvedEvent is an outbox row that passed validation, with its typed payload.
type ResolvedEvent struct {
	Descriptor EventDescriptor
	Envelope   outbox.PayloadEnvelope
	Payload    any
}

// EventRegistry knows every event the storefront publishes.
type EventRegistry struct {
	entries map[enums.OutboxEventType]EventDescriptor
}

// NonRetryableError marks rows that can never be published as stored.
type NonRetryableError struct {
	Err error
}

func (e NonRetryableError) Error() string {
	if e.Err == nil {
		return "non-retryable error"
	}
	return e.Err.Error()
}

func (e NonRetryableError) Unwrap() error {
	return e.Err
}

func NewNonRetryableError(err error) NonRetryableError {
	return NonRetryableError{Err: err}
}

// IsNonRetryable reports whether err, or anything it wraps, is a NonRetryableError.
func IsNonRetryable(err error) bool {
	var target NonRetryableError
	return errors.As(err, &target)
}

func decoderFor[T any]() func(json.RawMessage) (any, error) {
	return func(raw json.RawMessage) (any, error) {
		payload := new(T)
		if err := json.Unmarshal(raw, payload); err != nil {
			return nil, err
		}
		return payload, nil
	}
}

// NewEventRegistry routes order events to the orders topic and promotion
// events to the promotions topic.
func NewEventRegistry(cfg config.PubSubConfig) (*EventRegistry, error) {
	topics := map[enums.OutboxAggregateType]string{
		enums.AggregateOrder:     strings.TrimSpace(cfg.OrdersTopic),
		enums.AggregatePromotion: strings.TrimSpace(cfg.PromotionsTopic),
	}
	for aggregate, topic := range topics {
		if topic == "" {
			return nil, fmt.Errorf("%s topic is required", aggregate)
		}
	}

	decoders := map[enums.OutboxEventType]func(json.RawMessage) (any, error){
		enums.EventOrderCreated:       decoderFor[payloads.OrderCreatedEvent](),
		enums.EventOrderStatusChanged: decoderFor[payloads.OrderStatusChangedEvent](),
		enums.EventPromotionExpired:   decoderFor[payloads.PromotionExpiredEvent](),
	}
	reg := &EventRegistry{entries: make(map[enums.OutboxEventType]EventDescriptor, len(decoders))}
	for eventType, decode := range decoders {
		aggregate := eventType.Aggregate()
		reg.entries[eventType] = EventDescriptor{
			EventType:     eventType,
			AggregateType: aggregate,
			Topic:         topics[aggregate],
			decode:        decode,
		}
	}
	return reg, nil
}

// Topics lists the distinct topics the registry publishes to, sorted.
func (r *EventRegistry) Topics() []string {
	seen := map[string]struct{}{}
	var out []string
	for _, desc := range r.entries {
		if _, ok := seen[desc.Topic]; ok {
			continue
		}
		seen[desc.Topic] = struct{}{}
		out = append(out, desc.Topic)
	}
	sort.Strings(out)
	return out
}

// Resolve validates the row against its descriptor and decodes the payload.
// Every failure is non-retryable: the stored row will not change.
func (r *EventRegistry) Resolve(event models.OutboxEvent) (*ResolvedEvent, error) {
	desc, ok := r.entries[event.EventType]
	switch {
	case !ok:
		return nil, NewNonRetryableError(fmt.Errorf("unsupported event type %s", event.EventType))
	case desc.AggregateType != event.AggregateType:
		return nil, NewNonRetryableError(fmt.Errorf("aggregate mismatch: expected %s got %s", desc.AggregateType, event.AggregateType))
	case event.AggregateID == uuid.Nil:
		return nil, NewNonRetryableError(errors.New("missing aggregate_id"))
	}

	envelope, err := outbox.DecodeEnvelope(event.Payload)
	if err != nil {
		return nil, NewNonRetryableError(fmt.Errorf("decode envelope: %w", err))
	}
	if data := bytes.TrimSpace(envelope.Data); len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, NewNonRetryableError(fmt.Errorf("payload missing for %s", event.EventType))
	}
	payload, err := desc.decode(envelope.Data)
	if err != nil {
		return nil, NewNonRetryableError(fmt.Errorf("decode %s payload: %w", event.EventType, err))
	}

	return &ResolvedEvent{Descriptor: desc, Envelope: envelope, Payload: payload}, nil
}
