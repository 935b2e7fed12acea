package sellerstrategy

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/JoeyLyman/yaycsa/pkg/db/models"
)

// Repository resolves offer references for seller orders.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// OfferIDForLineItem returns the offer owning the line item.
func (r *Repository) OfferIDForLineItem(ctx context.Context, lineItemID uuid.UUID) (uuid.UUID, error) {
	var item models.OfferLineItem
	err := r.db.WithContext(ctx).
		Select("id", "offer_id").
		First(&item, "id = ?", lineItemID).Error
	if err != nil {
		return uuid.Nil, err
	}
	return item.OfferID, nil
}

func (r *Repository) SetOrderOffer(ctx context.Context, orderID, offerID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Update("offer_id", offerID).Error
}
