// Package payloads holds the data carried by each outbox event type.
package payloads

import (
	"github.com/google/uuid"

	"github.com/JoeyLyman/yaycsa/pkg/enums"
)

// Event is implemented by every payload. The outbox row's type and
// aggregate columns come from it.
type Event interface {
	EventType() enums.OutboxEventType
	Aggregate() (enums.OutboxAggregateType, uuid.UUID)
}

// OfferStatusChangedEvent is emitted by activate, pause and expire.
type OfferStatusChangedEvent struct {
	OfferID        uuid.UUID         `json:"offer_id"`
	SellerID       uuid.UUID         `json:"seller_id"`
	PreviousStatus enums.OfferStatus `json:"previous_status"`
	Status         enums.OfferStatus `json:"status"`
}

func (OfferStatusChangedEvent) EventType() enums.OutboxEventType {
	return enums.EventOfferStatusChanged
}

func (e OfferStatusChangedEvent) Aggregate() (enums.OutboxAggregateType, uuid.UUID) {
	return enums.AggregateOffer, e.OfferID
}

// OfferItemAddedToOrderEvent records a successful add of an offer item.
type OfferItemAddedToOrderEvent struct {
	OrderID         uuid.UUID        `json:"order_id"`
	OrderLineID     uuid.UUID        `json:"order_line_id"`
	OfferID         uuid.UUID        `json:"offer_id"`
	OfferLineItemID uuid.UUID        `json:"offer_line_item_id"`
	Quantity        int              `json:"quantity"`
	AgreedUnitPrice int              `json:"agreed_unit_price"`
	LineStatus      enums.LineStatus `json:"line_status"`
}

func (OfferItemAddedToOrderEvent) EventType() enums.OutboxEventType {
	return enums.EventOfferItemAddedToOrder
}

func (e OfferItemAddedToOrderEvent) Aggregate() (enums.OutboxAggregateType, uuid.UUID) {
	return enums.AggregateOrder, e.OrderID
}

type SellerOrderRef struct {
	OrderID         uuid.UUID  `json:"order_id"`
	Code            string     `json:"code"`
	SellerChannelID uuid.UUID  `json:"seller_channel_id"`
	OfferID         *uuid.UUID `json:"offer_id,omitempty"`
	LineCount       int        `json:"line_count"`
}

// SellerOrdersCreatedEvent is emitted once when checkout splits an
// aggregate order across sellers.
type SellerOrdersCreatedEvent struct {
	AggregateOrderID uuid.UUID        `json:"aggregate_order_id"`
	AggregateCode    string           `json:"aggregate_code"`
	SellerOrders     []SellerOrderRef `json:"seller_orders"`
}

func (SellerOrdersCreatedEvent) EventType() enums.OutboxEventType {
	return enums.EventSellerOrdersCreated
}

func (e SellerOrdersCreatedEvent) Aggregate() (enums.OutboxAggregateType, uuid.UUID) {
	return enums.AggregateOrder, e.AggregateOrderID
}
