package channels

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/JoeyLyman/yaycsa/pkg/db/models"
)

// Repository reads channels and their membership joins.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) FindByToken(ctx context.Context, token string) (*models.Channel, error) {
	var channel models.Channel
	if err := r.db.WithContext(ctx).Where("token = ?", token).First(&channel).Error; err != nil {
		return nil, err
	}
	return &channel, nil
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Channel, error) {
	var channel models.Channel
	if err := r.db.WithContext(ctx).First(&channel, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &channel, nil
}

func (r *Repository) FindDefault(ctx context.Context) (*models.Channel, error) {
	var channel models.Channel
	if err := r.db.WithContext(ctx).Where("is_default = ?", true).First(&channel).Error; err != nil {
		return nil, err
	}
	return &channel, nil
}

// FindBySeller returns the seller's own channel, never the default one.
func (r *Repository) FindBySeller(ctx context.Context, sellerID uuid.UUID) (*models.Channel, error) {
	var channel models.Channel
	err := r.db.WithContext(ctx).
		Where("seller_id = ? AND is_default = ?", sellerID, false).
		Order("created_at ASC").
		First(&channel).Error
	if err != nil {
		return nil, err
	}
	return &channel, nil
}

// VariantChannels lists every channel the product variant is assigned to.
func (r *Repository) VariantChannels(ctx context.Context, variantID uuid.UUID) ([]models.Channel, error) {
	var channels []models.Channel
	err := r.db.WithContext(ctx).
		Joins("JOIN product_variant_channels pvc ON pvc.channel_id = channels.id").
		Where("pvc.product_variant_id = ?", variantID).
		Order("channels.created_at ASC").
		Find(&channels).Error
	if err != nil {
		return nil, err
	}
	return channels, nil
}
