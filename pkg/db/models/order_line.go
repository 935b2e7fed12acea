package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/JoeyLyman/yaycsa/pkg/enums"
)

// OrderLine carries the offer custom fields alongside the framework
// columns. AgreedUnitPrice is written only by add and adjust.
type OrderLine struct {
	ID                   uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	OrderID              uuid.UUID         `gorm:"column:order_id;type:uuid;not null"`
	ProductVariantID     uuid.UUID         `gorm:"column:product_variant_id;type:uuid;not null"`
	Quantity             int               `gorm:"column:quantity;not null"`
	SellerChannelID      *uuid.UUID        `gorm:"column:seller_channel_id;type:uuid"`
	OfferLineItemID      *uuid.UUID        `gorm:"column:offer_line_item_id;type:uuid"`
	OfferLineItem        *OfferLineItem    `gorm:"foreignKey:OfferLineItemID"`
	LineStatus           *enums.LineStatus `gorm:"column:line_status"`
	SelectedCaseQuantity *int              `gorm:"column:selected_case_quantity"`
	AgreedUnitPrice      *int              `gorm:"column:agreed_unit_price"`
	BuyerNotes           *string           `gorm:"column:buyer_notes"`
	CreatedAt            time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (OrderLine) TableName() string { return "order_lines" }

func (l *OrderLine) BeforeCreate(*gorm.DB) error {
	ensureID(&l.ID)
	return nil
}
