package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/JoeyLyman/yaycsa/pkg/enums"
)

// FulfillmentOption is a seller-defined pickup or delivery slot.
type FulfillmentOption struct {
	ID                         uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	Code                       string                `gorm:"column:code;not null"`
	Name                       string                `gorm:"column:name;not null"`
	Type                       enums.FulfillmentType `gorm:"column:type;not null"`
	Description                *string               `gorm:"column:description"`
	Active                     bool                  `gorm:"column:active;not null"`
	SortOrder                  int                   `gorm:"column:sort_order;not null"`
	Recurrence                 *enums.Recurrence     `gorm:"column:recurrence"`
	FulfillmentStartDate       *time.Time            `gorm:"column:fulfillment_start_date"`
	FulfillmentEndDate         *time.Time            `gorm:"column:fulfillment_end_date"`
	FulfillmentTimeDescription *string               `gorm:"column:fulfillment_time_description"`
	DeadlineOffsetHours        *int                  `gorm:"column:deadline_offset_hours"`
	SellerID                   uuid.UUID             `gorm:"column:seller_id;type:uuid;not null"`
	Channels                   []Channel             `gorm:"many2many:fulfillment_option_channels"`
	CreatedAt                  time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt                  time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (FulfillmentOption) TableName() string { return "fulfillment_options" }

func (f *FulfillmentOption) BeforeCreate(*gorm.DB) error {
	ensureID(&f.ID)
	return nil
}
