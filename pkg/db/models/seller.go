package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Seller is a marketplace vendor. Slug is optional until the seller is
// listed publicly.
type Seller struct {
	ID        uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	Name      string         `gorm:"column:name;not null"`
	Slug      *string        `gorm:"column:slug;uniqueIndex"`
	Timezone  *string        `gorm:"column:timezone"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (Seller) TableName() string { return "sellers" }

func (s *Seller) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ID)
	return nil
}
