package enums

import "slices"

// OutboxAggregateType is the aggregate_type column of outbox_events.
type OutboxAggregateType string

const (
	AggregateOffer OutboxAggregateType = "offer"
	AggregateOrder OutboxAggregateType = "order"
)

func (a OutboxAggregateType) IsValid() bool {
	return slices.Contains([]OutboxAggregateType{AggregateOffer, AggregateOrder}, a)
}

// OutboxEventType is the event_type column of outbox_events and the
// event_type attribute on published messages.
type OutboxEventType string

const (
	EventOfferStatusChanged    OutboxEventType = "offer_status_changed"
	EventOfferItemAddedToOrder OutboxEventType = "offer_item_added_to_order"
	EventSellerOrdersCreated   OutboxEventType = "seller_orders_created"
)

func (e OutboxEventType) IsValid() bool {
	return slices.Contains([]OutboxEventType{EventOfferStatusChanged, EventOfferItemAddedToOrder, EventSellerOrdersCreated}, e)
}

// OutboxDLQErrorReason records why an event moved to outbox_dead_letters.
type OutboxDLQErrorReason string

const (
	OutboxDLQReasonMaxAttempts  OutboxDLQErrorReason = "max_attempts"
	OutboxDLQReasonNonRetryable OutboxDLQErrorReason = "non_retryable"
)

func (r OutboxDLQErrorReason) IsValid() bool {
	return r == OutboxDLQReasonMaxAttempts || r == OutboxDLQReasonNonRetryable
}
