package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/JoeyLyman/yaycsa/pkg/enums"
)

// Offer is a seller's time-bounded sale campaign. Line items are deleted
// with the offer (ON DELETE CASCADE on offer_line_items.offer_id).
type Offer struct {
	ID                   uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	SellerID             uuid.UUID           `gorm:"column:seller_id;type:uuid;not null"`
	Seller               *Seller             `gorm:"foreignKey:SellerID"`
	Status               enums.OfferStatus   `gorm:"column:status;not null"`
	ValidFrom            time.Time           `gorm:"column:valid_from;not null"`
	ValidUntil           *time.Time          `gorm:"column:valid_until"`
	AllowLateOrders      bool                `gorm:"column:allow_late_orders;not null"`
	Notes                *string             `gorm:"column:notes"`
	InternalNotes        *string             `gorm:"column:internal_notes"`
	LineItems            []OfferLineItem     `gorm:"foreignKey:OfferID;constraint:OnDelete:CASCADE"`
	Channels             []Channel           `gorm:"many2many:offer_channels"`
	CustomerGroupFilters []CustomerGroup     `gorm:"many2many:offer_customer_groups"`
	FulfillmentOptions   []FulfillmentOption `gorm:"many2many:offer_fulfillment_options"`
	CreatedAt            time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (Offer) TableName() string { return "offers" }

func (o *Offer) BeforeCreate(*gorm.DB) error {
	ensureID(&o.ID)
	return nil
}

// CustomerGroupIDs returns the visibility filter as identifiers.
func (o *Offer) CustomerGroupIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(o.CustomerGroupFilters))
	for _, g := range o.CustomerGroupFilters {
		ids = append(ids, g.ID)
	}
	return ids
}
