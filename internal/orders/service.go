package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/JoeyLyman/yaycsa/internal/customers"
	pkgdb "github.com/JoeyLyman/yaycsa/pkg/db"
	"github.com/JoeyLyman/yaycsa/pkg/db/models"
	"github.com/JoeyLyman/yaycsa/pkg/enums"
	pkgerrors "github.com/JoeyLyman/yaycsa/pkg/errors"
)

// Service is the order-mutation API. Every method taking a tx runs inside
// the caller's transaction.
type Service interface {
	ActiveOrder(ctx context.Context, tx *gorm.DB, owner customers.Buyer) (*models.Order, error)
	GetOrCreateActiveOrder(ctx context.Context, tx *gorm.DB, owner customers.Buyer, channelID uuid.UUID) (*models.Order, error)
	AddItemToOrder(ctx context.Context, tx *gorm.DB, order *models.Order, variantID uuid.UUID, quantity int, fields LineFields) (*models.OrderLine, error)
	AdjustOrderLine(ctx context.Context, tx *gorm.DB, order *models.Order, lineID uuid.UUID, quantity int, fields LineFields) (*models.OrderLine, error)
	Order(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Order, error)
	SellerOfferIDs(ctx context.Context, tx *gorm.DB, orderID, sellerID uuid.UUID) ([]uuid.UUID, error)
	Get(ctx context.Context, owner customers.Buyer) (*OrderDTO, error)
}

type service struct {
	repo     Repository
	assigner LineChannelAssigner
}

// NewService builds the order-mutation API.
func NewService(repo Repository, assigner LineChannelAssigner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if assigner == nil {
		return nil, fmt.Errorf("line channel assigner required")
	}
	return &service{repo: repo, assigner: assigner}, nil
}

// ActiveOrder returns the owner's active order with lines, or nil.
func (s *service) ActiveOrder(ctx context.Context, tx *gorm.DB, owner customers.Buyer) (*models.Order, error) {
	if !owner.Identified() {
		return nil, nil
	}
	order, err := s.repo.WithTx(tx).FindActive(ctx, owner)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load active order")
	}
	return order, nil
}

func (s *service) GetOrCreateActiveOrder(ctx context.Context, tx *gorm.DB, owner customers.Buyer, channelID uuid.UUID) (*models.Order, error) {
	if !owner.Identified() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "a customer or guest session is required")
	}
	order, err := s.ActiveOrder(ctx, tx, owner)
	if err != nil {
		return nil, err
	}
	if order != nil {
		// serializes mutations of one order, so per-seller checks see
		// lines added by a concurrent request
		if err := s.repo.WithTx(tx).LockOrder(ctx, order.ID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock active order")
		}
		return order, nil
	}

	order = &models.Order{
		Code:      newOrderCode(),
		ChannelID: channelID,
		State:     enums.OrderStateAddingItems,
		Active:    true,
	}
	if owner.Authenticated() {
		id := *owner.CustomerID
		order.CustomerID = &id
	} else {
		token := owner.SessionToken
		order.SessionToken = &token
	}
	if err := s.repo.WithTx(tx).CreateOrder(ctx, order); err != nil {
		if pkgdb.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "an active order was opened concurrently; retry")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create active order")
	}
	return order, nil
}

// AddItemToOrder adds quantity units of the variant. An existing line with
// the same variant, offer line item, case selection and agreed price absorbs
// the quantity; otherwise a new line is created and assigned a seller
// channel. Domain rejections are returned as *MutationError.
func (s *service) AddItemToOrder(ctx context.Context, tx *gorm.DB, order *models.Order, variantID uuid.UUID, quantity int, fields LineFields) (*models.OrderLine, error) {
	if !order.State.AcceptsLineChanges() {
		return nil, orderModificationError(order.State)
	}
	if quantity < 1 {
		return nil, negativeQuantityError()
	}
	repo := s.repo.WithTx(tx)

	if line := mergeableLine(order.Lines, variantID, fields); line != nil {
		line.Quantity += quantity
		if fields.BuyerNotes != nil {
			line.BuyerNotes = fields.BuyerNotes
		}
		if err := repo.SaveLine(ctx, line); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order line")
		}
		return line, nil
	}

	line := models.OrderLine{
		OrderID:          order.ID,
		ProductVariantID: variantID,
		Quantity:         quantity,
	}
	applyFields(&line, fields)
	channel, err := s.assigner.AssignSellerChannel(ctx, tx, &line)
	if err != nil {
		return nil, err
	}
	if channel != nil {
		id := channel.ID
		line.SellerChannelID = &id
	}
	if err := repo.CreateLine(ctx, &line); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order line")
	}
	order.Lines = append(order.Lines, line)
	return &order.Lines[len(order.Lines)-1], nil
}

// AdjustOrderLine sets the line's quantity and overwrites the non-nil fields.
func (s *service) AdjustOrderLine(ctx context.Context, tx *gorm.DB, order *models.Order, lineID uuid.UUID, quantity int, fields LineFields) (*models.OrderLine, error) {
	if !order.State.AcceptsLineChanges() {
		return nil, orderModificationError(order.State)
	}
	if quantity < 1 {
		return nil, negativeQuantityError()
	}
	repo := s.repo.WithTx(tx)

	line, err := repo.FindLine(ctx, order.ID, lineID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Order line not found in active order")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order line")
	}
	line.Quantity = quantity
	applyFields(line, fields)
	if err := repo.SaveLine(ctx, line); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order line")
	}
	for i := range order.Lines {
		if order.Lines[i].ID == line.ID {
			order.Lines[i] = *line
		}
	}
	return line, nil
}

func (s *service) Order(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Order, error) {
	order, err := s.repo.WithTx(tx).FindOrder(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

// SellerOfferIDs lists the offers of one seller already on the order.
func (s *service) SellerOfferIDs(ctx context.Context, tx *gorm.DB, orderID, sellerID uuid.UUID) ([]uuid.UUID, error) {
	ids, err := s.repo.WithTx(tx).OfferIDsForSeller(ctx, orderID, sellerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order offers")
	}
	return ids, nil
}

// Get returns the buyer's active order, or nil when there is none.
func (s *service) Get(ctx context.Context, owner customers.Buyer) (*OrderDTO, error) {
	order, err := s.ActiveOrder(ctx, nil, owner)
	if err != nil || order == nil {
		return nil, err
	}
	dto := NewOrderDTO(order)
	return &dto, nil
}

func mergeableLine(lines []models.OrderLine, variantID uuid.UUID, fields LineFields) *models.OrderLine {
	for i := range lines {
		line := &lines[i]
		if line.ProductVariantID != variantID {
			continue
		}
		if !equalUUID(line.OfferLineItemID, fields.OfferLineItemID) ||
			!equalInt(line.SelectedCaseQuantity, fields.SelectedCaseQuantity) ||
			!equalInt(line.AgreedUnitPrice, fields.AgreedUnitPrice) {
			continue
		}
		return line
	}
	return nil
}

func applyFields(line *models.OrderLine, fields LineFields) {
	if fields.OfferLineItemID != nil {
		line.OfferLineItemID = fields.OfferLineItemID
	}
	if fields.LineStatus != nil {
		line.LineStatus = fields.LineStatus
	}
	if fields.SelectedCaseQuantity != nil {
		line.SelectedCaseQuantity = fields.SelectedCaseQuantity
	}
	if fields.AgreedUnitPrice != nil {
		line.AgreedUnitPrice = fields.AgreedUnitPrice
	}
	if fields.BuyerNotes != nil {
		line.BuyerNotes = fields.BuyerNotes
	}
}

func equalUUID(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func equalInt(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func newOrderCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:16]
}
