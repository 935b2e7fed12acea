// Package registry maps outbox event types to Pub/Sub topics and decodes
// stored rows back into typed payloads before publishing.
package registry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/JoeyLyman/yaycsa/pkg/config"
	"github.com/JoeyLyman/yaycsa/pkg/db/models"
	"github.com/JoeyLyman/yaycsa/pkg/enums"
	"github.com/JoeyLyman/yaycsa/pkg/outbox"
	"github.com/JoeyLyman/yaycsa/pkg/outbox/payloads"
)

type EventDescriptor struct {
	EventType     enums.OutboxEventType
	AggregateType enums.OutboxAggregateType
	Topic         string
	decode        func(json.RawMessage) (payloads.Event, error)
}

type ResolvedEvent struct {
	Descriptor EventDescriptor
	Envelope   outbox.PayloadEnvelope
	Payload    payloads.Event
}

type EventRegistry struct {
	entries map[enums.OutboxEventType]EventDescriptor
}

// NonRetryableError marks a row that can never be published as stored. The
// publisher dead-letters it instead of retrying.
type NonRetryableError struct {
	Err error
}

func NewNonRetryableError(err error) NonRetryableError {
	return NonRetryableError{Err: err}
}

func (e NonRetryableError) Error() string {
	if e.Err == nil {
		return "non-retryable error"
	}
	return e.Err.Error()
}

func (e NonRetryableError) Unwrap() error { return e.Err }

// IsNonRetryable reports whether err, or anything it wraps, is a
// NonRetryableError.
func IsNonRetryable(err error) bool {
	var target NonRetryableError
	return errors.As(err, &target)
}

// describe builds the descriptor for payload type T from its zero value.
func describe[T any, P interface {
	*T
	payloads.Event
}](topic string) EventDescriptor {
	var zero P = new(T)
	aggregate, _ := zero.Aggregate()
	return EventDescriptor{
		EventType:     zero.EventType(),
		AggregateType: aggregate,
		Topic:         topic,
		decode: func(raw json.RawMessage) (payloads.Event, error) {
			var p P = new(T)
			if err := json.Unmarshal(raw, p); err != nil {
				return nil, err
			}
			return p, nil
		},
	}
}

// NewEventRegistry sends offer lifecycle events to the offers topic and
// order events to the orders topic.
func NewEventRegistry(cfg config.PubSubConfig) (*EventRegistry, error) {
	switch {
	case cfg.OffersTopic == "":
		return nil, errors.New("offers topic is required")
	case cfg.OrdersTopic == "":
		return nil, errors.New("orders topic is required")
	}

	reg := &EventRegistry{entries: map[enums.OutboxEventType]EventDescriptor{}}
	for _, desc := range []EventDescriptor{
		describe[payloads.OfferStatusChangedEvent](cfg.OffersTopic),
		describe[payloads.OfferItemAddedToOrderEvent](cfg.OrdersTopic),
		describe[payloads.SellerOrdersCreatedEvent](cfg.OrdersTopic),
	} {
		reg.entries[desc.EventType] = desc
	}
	return reg, nil
}

// Resolve checks a stored row against its descriptor and decodes the payload.
// Every failure is non-retryable: the row will not change on its own.
func (r *EventRegistry) Resolve(event models.OutboxEvent) (*ResolvedEvent, error) {
	desc, ok := r.entries[event.EventType]
	switch {
	case !ok:
		return nil, NewNonRetryableError(fmt.Errorf("unsupported event type %s", event.EventType))
	case desc.AggregateType != event.AggregateType:
		return nil, NewNonRetryableError(fmt.Errorf("%s: aggregate type %s, want %s", event.EventType, event.AggregateType, desc.AggregateType))
	case event.AggregateID == uuid.Nil:
		return nil, NewNonRetryableError(fmt.Errorf("%s: missing aggregate id", event.EventType))
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(event.Payload, &envelope); err != nil {
		return nil, NewNonRetryableError(fmt.Errorf("decode envelope: %w", err))
	}
	if envelope.Version > outbox.EnvelopeVersion {
		return nil, NewNonRetryableError(fmt.Errorf("envelope version %d is newer than %d", envelope.Version, outbox.EnvelopeVersion))
	}
	if envelope.EventType != "" && envelope.EventType != event.EventType {
		return nil, NewNonRetryableError(fmt.Errorf("envelope says %s, row says %s", envelope.EventType, event.EventType))
	}
	if data := bytes.TrimSpace(envelope.Data); len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, NewNonRetryableError(fmt.Errorf("%s: empty payload", event.EventType))
	}

	payload, err := desc.decode(envelope.Data)
	if err != nil {
		return nil, NewNonRetryableError(fmt.Errorf("decode %s payload: %w", event.EventType, err))
	}
	return &ResolvedEvent{Descriptor: desc, Envelope: envelope, Payload: payload}, nil
}
