package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Customer struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	UserID    *uuid.UUID      `gorm:"column:user_id;type:uuid;uniqueIndex"`
	Email     string          `gorm:"column:email;not null"`
	Groups    []CustomerGroup `gorm:"many2many:customer_group_members;joinForeignKey:CustomerID;joinReferences:CustomerGroupID"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (Customer) TableName() string { return "customers" }

func (c *Customer) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

// CustomerGroup drives offer visibility. A nil SellerID marks a global group.
type CustomerGroup struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	Name      string     `gorm:"column:name;not null"`
	SellerID  *uuid.UUID `gorm:"column:seller_id;type:uuid"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (CustomerGroup) TableName() string { return "customer_groups" }

func (g *CustomerGroup) BeforeCreate(*gorm.DB) error {
	ensureID(&g.ID)
	return nil
}
