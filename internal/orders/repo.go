package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/JoeyLyman/yaycsa/internal/customers"
	"github.com/JoeyLyman/yaycsa/pkg/db/models"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func withLines(db *gorm.DB) *gorm.DB {
	return db.Preload("Lines", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at ASC, id ASC")
	})
}

// FindActive returns the owner's active order. Customers are matched by id,
// guests by session token.
func (r *repository) FindActive(ctx context.Context, owner customers.Buyer) (*models.Order, error) {
	query := withLines(r.db.WithContext(ctx)).Where("active = ?", true)
	if owner.Authenticated() {
		query = query.Where("customer_id = ?", *owner.CustomerID)
	} else {
		query = query.Where("customer_id IS NULL AND session_token = ?", owner.SessionToken)
	}

	var order models.Order
	if err := query.Order("created_at DESC").First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := withLines(r.db.WithContext(ctx)).First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// LockOrder takes a row lock on the order for the rest of the transaction.
func (r *repository) LockOrder(ctx context.Context, id uuid.UUID) error {
	var locked models.Order
	return r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		First(&locked, "id = ?", id).Error
}

func (r *repository) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Omit("Lines").Create(order).Error
}

// SaveOrder writes the named columns from the order struct, so JSON
// serialized columns go through their serializer.
func (r *repository) SaveOrder(ctx context.Context, order *models.Order, columns ...string) error {
	if len(columns) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(order).Select(columns).Updates(order).Error
}

func (r *repository) FindLine(ctx context.Context, orderID, lineID uuid.UUID) (*models.OrderLine, error) {
	var line models.OrderLine
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND id = ?", orderID, lineID).
		First(&line).Error
	if err != nil {
		return nil, err
	}
	return &line, nil
}

func (r *repository) CreateLine(ctx context.Context, line *models.OrderLine) error {
	return r.db.WithContext(ctx).Omit("OfferLineItem").Create(line).Error
}

func (r *repository) SaveLine(ctx context.Context, line *models.OrderLine) error {
	return r.db.WithContext(ctx).Omit("OfferLineItem").Save(line).Error
}

// MoveLines reassigns lines to another order, used when checkout splits an
// aggregate order into seller orders.
func (r *repository) MoveLines(ctx context.Context, lineIDs []uuid.UUID, orderID uuid.UUID) error {
	if len(lineIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.OrderLine{}).
		Where("id IN ?", lineIDs).
		Update("order_id", orderID).Error
}

// OfferIDsForSeller lists the distinct offers of the seller already
// referenced by lines of the order.
func (r *repository) OfferIDsForSeller(ctx context.Context, orderID, sellerID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Table("order_lines AS ol").
		Joins("JOIN offer_line_items oli ON oli.id = ol.offer_line_item_id").
		Joins("JOIN offers o ON o.id = oli.offer_id").
		Where("ol.order_id = ? AND o.seller_id = ?", orderID, sellerID).
		Distinct().
		Pluck("oli.offer_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
