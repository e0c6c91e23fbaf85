package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const currentVersion = 1

// DomainEvent is a state change to publish once the surrounding transaction commits.
// AggregateType may be left empty; it is derived from EventType.
type DomainEvent struct {
	EventType     enums.OutboxEventType
	AggregateType enums.OutboxAggregateType
	AggregateID   uuid.UUID
	Actor         *ActorRef
	Data          any
	Version       int
	OccurredAt    time.Time
}

type Service struct {
	repo *Repository
	logg *logger.Logger
	now  func() time.Time
}

func NewService(repo *Repository, logg *logger.Logger) *Service {
	return &Service{repo: repo, logg: logg, now: time.Now}
}

// WithClock overrides the time source used for OccurredAt defaults.
func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

func (s *Service) normalize(event DomainEvent) (DomainEvent, error) {
	if !event.EventType.IsValid() {
		return event, fmt.Errorf("unknown outbox event type %q", event.EventType)
	}
	expected := event.EventType.Aggregate()
	switch {
	case event.AggregateType == "":
		event.AggregateType = expected
	case event.AggregateType != expected:
		return event, fmt.Errorf("event %s belongs to %s, not %s", event.EventType, expected, event.AggregateType)
	}
	if event.AggregateID == uuid.Nil {
		return event, errors.New("aggregate id required")
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = s.now()
	}
	event.OccurredAt = event.OccurredAt.UTC()
	if event.Version == 0 {
		event.Version = currentVersion
	}
	return event, nil
}

// Emit writes the event inside tx so it commits or rolls back with the caller's changes.
func (s *Service) Emit(ctx context.Context, tx *gorm.DB, event DomainEvent) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	event, err := s.normalize(event)
	if err != nil {
		return err
	}
	data, err := json.Marshal(event.Data)
	if err != nil {
		return fmt.Errorf("encode %s data: %w", event.EventType, err)
	}
	envelope := PayloadEnvelope{
		Version:     event.Version,
		EventID:     uuid.NewString(),
		Type:        event.EventType.String(),
		AggregateID: event.AggregateID.String(),
		OccurredAt:  event.OccurredAt,
		Actor:       event.Actor,
		Data:        data,
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	if err := s.repo.Insert(tx, models.OutboxEvent{
		EventType:     event.EventType,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		Payload:       json.RawMessage(payload),
	}); err != nil {
		return err
	}

	if s.logg != nil {
		if ctx == nil {
			ctx = context.Background()
		}
		s.logg.Debug(s.logg.WithFields(ctx, map[string]any{
			"event_id":       envelope.EventID,
			"event_type":     event.EventType,
			"aggregate_type": event.AggregateType,
			"aggregate_id":   envelope.AggregateID,
		}), "outbox event queued")
	}
	return nil
}
