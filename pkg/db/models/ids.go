package models

import "github.com/google/uuid"

// ensureID assigns primary keys client-side. The postgres column default
// only covers rows inserted outside the service.
func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

// All lists every model owned by the service, parents first.
func All() []any {
	return []any{
		&Seller{},
		&Channel{},
		&Customer{},
		&CustomerGroup{},
		&ProductVariant{},
		&FulfillmentOption{},
		&Offer{},
		&OfferLineItem{},
		&Order{},
		&OrderLine{},
		&OutboxEvent{},
		&OutboxDeadLetter{},
	}
}
