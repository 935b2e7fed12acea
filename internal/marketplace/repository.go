package marketplace

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/JoeyLyman/yaycsa/pkg/db/models"
	"github.com/JoeyLyman/yaycsa/pkg/enums"
)

const currentOfferExists = `EXISTS (
  SELECT 1 FROM offers o
  JOIN offer_channels oc ON oc.offer_id = o.id
  WHERE o.seller_id = sellers.id
    AND o.status = ?
    AND o.valid_from <= ?
    AND (o.valid_until IS NULL OR o.valid_until > ?)
    AND oc.channel_id = ?
)`

// Repository reads listed sellers. Soft-deleted sellers are excluded by
// gorm's DeletedAt scope.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

type sellerQuery struct {
	// WithOfferIn restricts the list to sellers with a current active offer
	// in the channel.
	WithOfferIn *uuid.UUID
	Now         time.Time
}

func (r *Repository) ListSellers(ctx context.Context, q sellerQuery) ([]models.Seller, error) {
	query := r.db.WithContext(ctx).Where("sellers.slug IS NOT NULL")
	if q.WithOfferIn != nil {
		query = query.Where(currentOfferExists, enums.OfferStatusActive, q.Now, q.Now, *q.WithOfferIn)
	}
	var rows []models.Seller
	if err := query.Order("sellers.name ASC, sellers.id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) FindBySlug(ctx context.Context, slug string) (*models.Seller, error) {
	var seller models.Seller
	if err := r.db.WithContext(ctx).First(&seller, "sellers.slug = ?", slug).Error; err != nil {
		return nil, err
	}
	return &seller, nil
}
