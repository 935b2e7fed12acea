// Package outbox records domain events in the same transaction as the state
// change that caused them. cmd/outbox-publisher delivers them to Pub/Sub.
package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/JoeyLyman/yaycsa/pkg/db/models"
	"github.com/JoeyLyman/yaycsa/pkg/logger"
	"github.com/JoeyLyman/yaycsa/pkg/outbox/payloads"
)

var errNoTx = errors.New("outbox: transaction required")

type Service struct {
	repo *Repository
	logg *logger.Logger
	now  func() time.Time
}

func NewService(repo *Repository, logg *logger.Logger) *Service {
	return &Service{repo: repo, logg: logg, now: time.Now}
}

// Emit queues event inside tx. actor may be nil.
func (s *Service) Emit(ctx context.Context, tx *gorm.DB, event payloads.Event, actor *ActorRef) error {
	if tx == nil {
		return errNoTx
	}
	if event == nil {
		return errors.New("outbox: nil event")
	}
	eventType := event.EventType()
	aggregateType, aggregateID := event.Aggregate()
	if !eventType.IsValid() || !aggregateType.IsValid() {
		return fmt.Errorf("outbox: unknown event %s/%s", eventType, aggregateType)
	}
	if aggregateID == uuid.Nil {
		return fmt.Errorf("outbox: %s has no aggregate id", eventType)
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("outbox: encode %s: %w", eventType, err)
	}
	envelope := PayloadEnvelope{
		Version:    EnvelopeVersion,
		EventID:    uuid.NewString(),
		EventType:  eventType,
		OccurredAt: s.now().UTC(),
		Actor:      actor,
		Data:       data,
	}
	body, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("outbox: encode envelope: %w", err)
	}

	row := models.OutboxEvent{
		EventType:     eventType,
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		Payload:       body,
	}
	if err := s.repo.Insert(tx.WithContext(ctx), row); err != nil {
		return fmt.Errorf("outbox: insert %s: %w", eventType, err)
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"event_id":     envelope.EventID,
			"event_type":   eventType,
			"aggregate_id": aggregateID.String(),
		}), "outbox.queued")
	}
	return nil
}
