package offers

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/JoeyLyman/yaycsa/pkg/db/models"
	"github.com/JoeyLyman/yaycsa/pkg/enums"
	"github.com/JoeyLyman/yaycsa/pkg/pagination"
)

// Repository persists offers, their line items and association joins.
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

type listQuery struct {
	ChannelID uuid.UUID
	Limit     int
	Cursor    *pagination.Cursor
	Status    *enums.OfferStatus
	SellerID  *uuid.UUID
}

func withDetail(db *gorm.DB) *gorm.DB {
	return db.
		Preload("LineItems", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC, created_at ASC")
		}).
		Preload("LineItems.ProductVariant").
		Preload("CustomerGroupFilters").
		Preload("FulfillmentOptions", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		})
}

func inChannel(channelID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("offers.id IN (?)",
			db.Session(&gorm.Session{NewDB: true}).
				Table("offer_channels").
				Select("offer_id").
				Where("channel_id = ?", channelID))
	}
}

// FindOffer loads the offer with line items, group filters and
// fulfillment options.
func (r *Repository) FindOffer(ctx context.Context, id uuid.UUID) (*models.Offer, error) {
	var offer models.Offer
	if err := withDetail(r.db.WithContext(ctx)).First(&offer, "offers.id = ?", id).Error; err != nil {
		return nil, err
	}
	return &offer, nil
}

// FindOfferInChannel is FindOffer restricted to offers assigned to the channel.
func (r *Repository) FindOfferInChannel(ctx context.Context, channelID, id uuid.UUID) (*models.Offer, error) {
	var offer models.Offer
	err := withDetail(r.db.WithContext(ctx)).
		Scopes(inChannel(channelID)).
		First(&offer, "offers.id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &offer, nil
}

// List returns one page of channel offers, newest first. The returned
// cursor is nil on the last page.
func (r *Repository) List(ctx context.Context, q listQuery) ([]models.Offer, *pagination.Cursor, error) {
	query := r.db.WithContext(ctx).Model(&models.Offer{}).Scopes(inChannel(q.ChannelID))
	if q.Status != nil {
		query = query.Where("offers.status = ?", *q.Status)
	}
	if q.SellerID != nil {
		query = query.Where("offers.seller_id = ?", *q.SellerID)
	}

	var rows []models.Offer
	if err := withDetail(query).Scopes(pagination.Keyset("offers", q.Cursor, q.Limit)).Find(&rows).Error; err != nil {
		return nil, nil, err
	}
	page, next := pagination.Trim(rows, q.Limit, func(o models.Offer) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	})
	return page, next, nil
}

// ListCurrent returns active offers in the channel whose validity window
// contains now, optionally scoped to one seller.
func (r *Repository) ListCurrent(ctx context.Context, channelID uuid.UUID, now time.Time, sellerID *uuid.UUID) ([]models.Offer, error) {
	query := r.db.WithContext(ctx).
		Scopes(inChannel(channelID)).
		Where("offers.status = ?", enums.OfferStatusActive).
		Where("offers.valid_from <= ?", now).
		Where("(offers.valid_until IS NULL OR offers.valid_until > ?)", now)
	if sellerID != nil {
		query = query.Where("offers.seller_id = ?", *sellerID)
	}
	var rows []models.Offer
	if err := withDetail(query).Order("offers.valid_from DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// LatestActive returns the most recently created active offer in the channel.
func (r *Repository) LatestActive(ctx context.Context, channelID uuid.UUID) (*models.Offer, error) {
	var offer models.Offer
	err := withDetail(r.db.WithContext(ctx)).
		Scopes(inChannel(channelID)).
		Where("offers.status = ?", enums.OfferStatusActive).
		Order("offers.created_at DESC").
		First(&offer).Error
	if err != nil {
		return nil, err
	}
	return &offer, nil
}

// Create inserts the offer and its line items and links the already
// persisted channels, groups and fulfillment options.
func (r *Repository) Create(ctx context.Context, offer *models.Offer) error {
	return r.db.WithContext(ctx).
		Omit("Channels.*", "CustomerGroupFilters.*", "FulfillmentOptions.*", "Seller").
		Create(offer).Error
}

func (r *Repository) UpdateFields(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&models.Offer{}).Where("id = ?", id).Updates(updates).Error
}

// SetStatus updates the status and returns the affected row count.
func (r *Repository) SetStatus(ctx context.Context, id uuid.UUID, status enums.OfferStatus) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Offer{}).Where("id = ?", id).Update("status", status)
	return res.RowsAffected, res.Error
}

func (r *Repository) ReplaceCustomerGroups(ctx context.Context, offer *models.Offer, groups []models.CustomerGroup) error {
	return r.db.WithContext(ctx).Model(offer).Association("CustomerGroupFilters").Replace(groups)
}

func (r *Repository) ReplaceFulfillmentOptions(ctx context.Context, offer *models.Offer, options []models.FulfillmentOption) error {
	return r.db.WithContext(ctx).Model(offer).Association("FulfillmentOptions").Replace(options)
}

// FindFulfillmentOptions loads the seller's fulfillment options by id.
func (r *Repository) FindFulfillmentOptions(ctx context.Context, sellerID uuid.UUID, ids []uuid.UUID) ([]models.FulfillmentOption, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var options []models.FulfillmentOption
	err := r.db.WithContext(ctx).
		Where("id IN ? AND seller_id = ?", ids, sellerID).
		Find(&options).Error
	if err != nil {
		return nil, err
	}
	return options, nil
}

// FindLineItem loads a line item with its offer and the offer's group filters.
func (r *Repository) FindLineItem(ctx context.Context, id uuid.UUID) (*models.OfferLineItem, error) {
	var item models.OfferLineItem
	err := r.db.WithContext(ctx).
		Preload("Offer").
		Preload("Offer.CustomerGroupFilters").
		Preload("ProductVariant").
		First(&item, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// LockLineItem takes a row lock on the line item for the rest of the
// transaction. Drivers without row locks ignore the clause.
func (r *Repository) LockLineItem(ctx context.Context, id uuid.UUID) error {
	var locked models.OfferLineItem
	return r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		First(&locked, "id = ?", id).Error
}

func (r *Repository) CreateLineItems(ctx context.Context, items []models.OfferLineItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *Repository) SaveLineItem(ctx context.Context, item *models.OfferLineItem) error {
	return r.db.WithContext(ctx).Omit("Offer", "ProductVariant").Save(item).Error
}

func (r *Repository) DeleteLineItems(ctx context.Context, offerID uuid.UUID, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("offer_id = ? AND id IN ?", offerID, ids).
		Delete(&models.OfferLineItem{}).Error
}
