package fulfillment

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/JoeyLyman/yaycsa/pkg/db/models"
	"github.com/JoeyLyman/yaycsa/pkg/pagination"
)

// Repository persists fulfillment options and their channel assignments.
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

func inChannel(channelID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("fulfillment_options.id IN (?)",
			db.Session(&gorm.Session{NewDB: true}).
				Table("fulfillment_option_channels").
				Select("fulfillment_option_id").
				Where("channel_id = ?", channelID))
	}
}

// List returns one page of the channel's options, newest first.
func (r *Repository) List(ctx context.Context, channelID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.FulfillmentOption, *pagination.Cursor, error) {
	var rows []models.FulfillmentOption
	err := r.db.WithContext(ctx).
		Scopes(inChannel(channelID), pagination.Keyset("fulfillment_options", cursor, limit)).
		Find(&rows).Error
	if err != nil {
		return nil, nil, err
	}
	page, next := pagination.Trim(rows, limit, func(o models.FulfillmentOption) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	})
	return page, next, nil
}

func (r *Repository) FindInChannel(ctx context.Context, channelID, id uuid.UUID) (*models.FulfillmentOption, error) {
	var option models.FulfillmentOption
	err := r.db.WithContext(ctx).
		Scopes(inChannel(channelID)).
		First(&option, "fulfillment_options.id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &option, nil
}

// Create inserts the option and its channel joins without touching the
// channel rows themselves.
func (r *Repository) Create(ctx context.Context, option *models.FulfillmentOption) error {
	return r.db.WithContext(ctx).Omit("Channels.*").Create(option).Error
}

func (r *Repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.FulfillmentOption{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// Delete removes the option together with its channel and offer joins.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	db := r.db.WithContext(ctx)
	if err := db.Exec("DELETE FROM fulfillment_option_channels WHERE fulfillment_option_id = ?", id).Error; err != nil {
		return err
	}
	if err := db.Exec("DELETE FROM offer_fulfillment_options WHERE fulfillment_option_id = ?", id).Error; err != nil {
		return err
	}
	return db.Delete(&models.FulfillmentOption{}, "id = ?", id).Error
}
