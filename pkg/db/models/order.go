package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/JoeyLyman/yaycsa/pkg/enums"
)

// ShippingLine is copied verbatim onto every seller order at checkout.
type ShippingLine struct {
	MethodCode  string `json:"methodCode" validate:"required,max=64"`
	Price       int    `json:"price" validate:"gte=0"`
	Description string `json:"description,omitempty" validate:"max=255"`
}

// Order is either a buyer's aggregate order or, after checkout, a
// per-seller order pointing back at it through AggregateOrderID.
type Order struct {
	ID                  uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	Code                string           `gorm:"column:code;not null;uniqueIndex"`
	CustomerID          *uuid.UUID       `gorm:"column:customer_id;type:uuid"`
	SessionToken        *string          `gorm:"column:session_token"`
	ChannelID           uuid.UUID        `gorm:"column:channel_id;type:uuid;not null"`
	State               enums.OrderState `gorm:"column:state;not null"`
	Active              bool             `gorm:"column:active;not null"`
	AggregateOrderID    *uuid.UUID       `gorm:"column:aggregate_order_id;type:uuid"`
	OfferID             *uuid.UUID       `gorm:"column:offer_id;type:uuid"`
	FulfillmentOptionID *uuid.UUID       `gorm:"column:fulfillment_option_id;type:uuid"`
	ShippingLines       []ShippingLine   `gorm:"column:shipping_lines;type:jsonb;serializer:json"`
	PlacedAt            *time.Time       `gorm:"column:placed_at"`
	Lines               []OrderLine      `gorm:"foreignKey:OrderID"`
	CreatedAt           time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (Order) TableName() string { return "orders" }

func (o *Order) BeforeCreate(*gorm.DB) error {
	ensureID(&o.ID)
	return nil
}
