package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/JoeyLyman/yaycsa/pkg/config"
	"github.com/JoeyLyman/yaycsa/pkg/db/models"
	"github.com/JoeyLyman/yaycsa/pkg/enums"
	"github.com/JoeyLyman/yaycsa/pkg/outbox"
	"github.com/JoeyLyman/yaycsa/pkg/outbox/payloads"
)

func TestEventRegistryResolveSellerOrdersCreated(t *testing.T) {
	reg := newTestEventRegistry(t)

	sellerOrderID := uuid.New()
	payloadBytes := mustMarshal(t, payloads.SellerOrdersCreatedEvent{
		AggregateOrderID: uuid.New(),
		AggregateCode:    "AGG-1",
		SellerOrders:     []payloads.SellerOrderRef{{OrderID: sellerOrderID, LineCount: 2}},
	})

	event := models.OutboxEvent{
		EventType:     enums.EventSellerOrdersCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       mustEnvelope(t, payloadBytes),
	}

	resolved, err := reg.Resolve(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved.Descriptor.Topic != "orders-topic" {
		t.Fatalf("unexpected topic %q", resolved.Descriptor.Topic)
	}
	payload, ok := resolved.Payload.(*payloads.SellerOrdersCreatedEvent)
	if !ok {
		t.Fatalf("unexpected payload type %T", resolved.Payload)
	}
	if len(payload.SellerOrders) != 1 || payload.SellerOrders[0].OrderID != sellerOrderID {
		t.Fatalf("payload mismatch %+v", payload)
	}
	if resolved.Envelope.EventID == "" {
		t.Fatalf("envelope missing event id")
	}
}

func TestEventRegistryRoutesOfferEventsToOffersTopic(t *testing.T) {
	reg := newTestEventRegistry(t)

	event := models.OutboxEvent{
		EventType:     enums.EventOfferStatusChanged,
		AggregateType: enums.AggregateOffer,
		AggregateID:   uuid.New(),
		Payload: mustEnvelope(t, mustMarshal(t, payloads.OfferStatusChangedEvent{
			OfferID:        uuid.New(),
			PreviousStatus: enums.OfferStatusDraft,
			Status:         enums.OfferStatusActive,
		})),
	}

	resolved, err := reg.Resolve(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved.Descriptor.Topic != "offers-topic" {
		t.Fatalf("unexpected topic %q", resolved.Descriptor.Topic)
	}
}

func TestEventRegistryResolveRejects(t *testing.T) {
	reg := newTestEventRegistry(t)

	cases := map[string]models.OutboxEvent{
		"unknown event": {
			EventType:     enums.OutboxEventType("offer_deleted"),
			AggregateType: enums.AggregateOffer,
			AggregateID:   uuid.New(),
			Payload:       mustEnvelope(t, []byte(`{}`)),
		},
		"aggregate mismatch": {
			EventType:     enums.EventSellerOrdersCreated,
			AggregateType: enums.AggregateOffer,
			AggregateID:   uuid.New(),
			Payload:       mustEnvelope(t, []byte(`{}`)),
		},
		"missing aggregate id": {
			EventType:     enums.EventSellerOrdersCreated,
			AggregateType: enums.AggregateOrder,
			Payload:       mustEnvelope(t, []byte(`{}`)),
		},
		"null payload": {
			EventType:     enums.EventSellerOrdersCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   uuid.New(),
			Payload:       mustEnvelope(t, []byte("null")),
		},
		"newer envelope": {
			EventType:     enums.EventSellerOrdersCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   uuid.New(),
			Payload:       json.RawMessage(`{"version":2,"eventId":"e","data":{}}`),
		},
		"envelope type mismatch": {
			EventType:     enums.EventSellerOrdersCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   uuid.New(),
			Payload:       json.RawMessage(`{"version":1,"eventId":"e","eventType":"offer_status_changed","data":{}}`),
		},
		"payload shape": {
			EventType:     enums.EventSellerOrdersCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   uuid.New(),
			Payload:       mustEnvelope(t, []byte(`{"seller_orders":"none"}`)),
		},
	}

	for name, event := range cases {
		_, err := reg.Resolve(event)
		if err == nil {
			t.Fatalf("%s: expected error", name)
		}
		if !IsNonRetryable(err) {
			t.Fatalf("%s: expected non-retryable error, got %T", name, err)
		}
	}
}

func TestIsNonRetryableSeesThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("dispatch: %w", NewNonRetryableError(errors.New("bad row")))
	if !IsNonRetryable(wrapped) {
		t.Fatalf("expected wrapped error to be non-retryable")
	}
	if IsNonRetryable(errors.New("timeout")) {
		t.Fatalf("plain errors are retryable")
	}
}

func TestNewEventRegistryRequiresTopics(t *testing.T) {
	if _, err := NewEventRegistry(config.PubSubConfig{OrdersTopic: "orders"}); err == nil {
		t.Fatalf("expected missing offers topic error")
	}
	if _, err := NewEventRegistry(config.PubSubConfig{OffersTopic: "offers"}); err == nil {
		t.Fatalf("expected missing orders topic error")
	}
}

func newTestEventRegistry(t *testing.T) *EventRegistry {
	t.Helper()
	reg, err := NewEventRegistry(config.PubSubConfig{
		OffersTopic: "offers-topic",
		OrdersTopic: "orders-topic",
	})
	if err != nil {
		t.Fatalf("build registry: %v", err)
	}
	return reg
}

func mustMarshal(t *testing.T, v interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return data
}

func mustEnvelope(t *testing.T, payload []byte) json.RawMessage {
	t.Helper()
	envelope := outbox.PayloadEnvelope{
		Version:    outbox.EnvelopeVersion,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Data:       payload,
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return data
}
