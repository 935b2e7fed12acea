package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/JoeyLyman/yaycsa/pkg/enums"
)

// PriceTier is stored as one JSON object per tier. Which fields are set
// depends on the owning line item's pricing mode: tiered rows carry
// minQuantity/unitPrice, case rows carry quantity/casePrice.
type PriceTier struct {
	MinQuantity *int `json:"minQuantity,omitempty"`
	UnitPrice   *int `json:"unitPrice,omitempty"`
	Quantity    *int `json:"quantity,omitempty"`
	CasePrice   *int `json:"casePrice,omitempty"`
}

// OfferLineItem is a sellable unit within an offer bound to one variant.
// Prices are integer minor currency units.
type OfferLineItem struct {
	ID                uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	OfferID           uuid.UUID               `gorm:"column:offer_id;type:uuid;not null"`
	Offer             *Offer                  `gorm:"foreignKey:OfferID"`
	ProductVariantID  uuid.UUID               `gorm:"column:product_variant_id;type:uuid;not null"`
	ProductVariant    *ProductVariant         `gorm:"foreignKey:ProductVariantID"`
	Price             int                     `gorm:"column:price;not null"`
	PriceIncludesTax  bool                    `gorm:"column:price_includes_tax;not null"`
	PricingMode       enums.PricingMode       `gorm:"column:pricing_mode;not null"`
	PriceTiers        []PriceTier             `gorm:"column:price_tiers;type:jsonb;serializer:json"`
	QuantityLimitMode enums.QuantityLimitMode `gorm:"column:quantity_limit_mode;not null"`
	QuantityLimit     *int                    `gorm:"column:quantity_limit"`
	AutoConfirm       bool                    `gorm:"column:auto_confirm;not null"`
	Notes             *string                 `gorm:"column:notes"`
	SortOrder         int                     `gorm:"column:sort_order;not null"`
	CreatedAt         time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}

func (OfferLineItem) TableName() string { return "offer_line_items" }

func (l *OfferLineItem) BeforeCreate(*gorm.DB) error {
	ensureID(&l.ID)
	return nil
}
