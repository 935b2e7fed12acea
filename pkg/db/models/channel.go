package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Channel scopes catalog, offers and orders. Exactly one channel is the
// platform default; every other channel belongs to a seller.
type Channel struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	Code      string     `gorm:"column:code;not null"`
	Token     string     `gorm:"column:token;not null;uniqueIndex"`
	IsDefault bool       `gorm:"column:is_default;not null"`
	SellerID  *uuid.UUID `gorm:"column:seller_id;type:uuid"`
	Seller    *Seller    `gorm:"foreignKey:SellerID"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Channel) TableName() string { return "channels" }

func (c *Channel) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}
