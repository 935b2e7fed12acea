package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/JoeyLyman/yaycsa/internal/customers"
	"github.com/JoeyLyman/yaycsa/pkg/db/models"
)

// Repository defines persistence operations for orders and order lines.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindActive(ctx context.Context, owner customers.Buyer) (*models.Order, error)
	FindOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	LockOrder(ctx context.Context, id uuid.UUID) error
	CreateOrder(ctx context.Context, order *models.Order) error
	SaveOrder(ctx context.Context, order *models.Order, columns ...string) error
	FindLine(ctx context.Context, orderID, lineID uuid.UUID) (*models.OrderLine, error)
	CreateLine(ctx context.Context, line *models.OrderLine) error
	SaveLine(ctx context.Context, line *models.OrderLine) error
	MoveLines(ctx context.Context, lineIDs []uuid.UUID, orderID uuid.UUID) error
	OfferIDsForSeller(ctx context.Context, orderID, sellerID uuid.UUID) ([]uuid.UUID, error)
}

// LineChannelAssigner picks the seller channel recorded on a new order line.
// A nil channel leaves the line unassigned.
type LineChannelAssigner interface {
	AssignSellerChannel(ctx context.Context, tx *gorm.DB, line *models.OrderLine) (*models.Channel, error)
}
