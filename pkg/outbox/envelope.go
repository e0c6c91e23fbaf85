package outbox

import (
	"encoding/json"
	"time"
)

// ActorRef identifies who produced the event.
type ActorRef struct {
	CustomerID string `json:"customerId,omitempty"`
	Role       string `json:"role,omitempty"`
}

// PayloadEnvelope is what lands in outbox_events.payload and, unchanged, in the
// published message body. Type and AggregateID are repeated from the row so a
// consumer never needs the message attributes to route it.
type PayloadEnvelope struct {
	Version     int             `json:"version"`
	EventID     string          `json:"eventId"`
	Type        string          `json:"type"`
	AggregateID string          `json:"aggregateId"`
	OccurredAt  time.Time       `json:"occurredAt"`
	Actor       *ActorRef       `json:"actor,omitempty"`
	Data        json.RawMessage `json:"data"`
}

// DecodeEnvelope parses a stored payload.
func DecodeEnvelope(raw []byte) (PayloadEnvelope, error) {
	var env PayloadEnvelope
	err := json.Unmarshal(raw, &env)
	return env, err
}
