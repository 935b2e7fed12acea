// Package offerorders adds offer items to a buyer's active order and
// adjusts their quantities, enforcing the offer gates, quantity limits and
// the one-offer-per-seller rule before delegating to the order-mutation API.
package offerorders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/JoeyLyman/yaycsa/internal/customers"
	"github.com/JoeyLyman/yaycsa/internal/offers"
	"github.com/JoeyLyman/yaycsa/internal/orders"
	"github.com/JoeyLyman/yaycsa/internal/pricing"
	"github.com/JoeyLyman/yaycsa/pkg/db/models"
	"github.com/JoeyLyman/yaycsa/pkg/enums"
	pkgerrors "github.com/JoeyLyman/yaycsa/pkg/errors"
	"github.com/JoeyLyman/yaycsa/pkg/logger"
	"github.com/JoeyLyman/yaycsa/pkg/metrics"
	"github.com/JoeyLyman/yaycsa/pkg/outbox"
	"github.com/JoeyLyman/yaycsa/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event payloads.Event, actor *outbox.ActorRef) error
}

type mutationRecorder interface {
	Observe(operation, outcome string, duration time.Duration)
}

// AddOfferItemInput is the buyer's request to add an offer line item.
type AddOfferItemInput struct {
	OfferLineItemID      uuid.UUID `json:"offerLineItemId" validate:"required"`
	Quantity             int       `json:"quantity" validate:"gte=1"`
	SelectedCaseQuantity *int      `json:"selectedCaseQuantity,omitempty" validate:"omitempty,gte=1"`
	BuyerNotes           *string   `json:"buyerNotes,omitempty" validate:"omitempty,max=2000"`
}

// AdjustOfferItemInput changes the quantity of an order line that came from
// an offer.
type AdjustOfferItemInput struct {
	OrderLineID uuid.UUID `json:"-"`
	Quantity    int       `json:"quantity" validate:"gte=1"`
}

type Deps struct {
	Offers    *offers.Repository
	Validator *offers.Validator
	Groups    offers.GroupLookup
	Orders    orders.Service
	Tx        txRunner
	Outbox    outboxPublisher
	Metrics   mutationRecorder
	Logger    *logger.Logger
}

type Service struct {
	offers    *offers.Repository
	validator *offers.Validator
	groups    offers.GroupLookup
	orders    orders.Service
	tx        txRunner
	outbox    outboxPublisher
	metrics   mutationRecorder
	logg      *logger.Logger
}

func NewService(deps Deps) (*Service, error) {
	switch {
	case deps.Offers == nil:
		return nil, fmt.Errorf("offers repository required")
	case deps.Validator == nil:
		return nil, fmt.Errorf("offer validator required")
	case deps.Groups == nil:
		return nil, fmt.Errorf("group lookup required")
	case deps.Orders == nil:
		return nil, fmt.Errorf("orders service required")
	case deps.Tx == nil:
		return nil, fmt.Errorf("transaction runner required")
	case deps.Outbox == nil:
		return nil, fmt.Errorf("outbox publisher required")
	case deps.Logger == nil:
		return nil, fmt.Errorf("logger required")
	}
	recorder := deps.Metrics
	if recorder == nil {
		recorder = metrics.NewOrderMutationMetrics(nil)
	}
	return &Service{
		offers:    deps.Offers,
		validator: deps.Validator,
		groups:    deps.Groups,
		orders:    deps.Orders,
		tx:        deps.Tx,
		outbox:    deps.Outbox,
		metrics:   recorder,
		logg:      deps.Logger,
	}, nil
}

// AddOfferItem adds the offer line item to the buyer's active order,
// creating the order when needed, and returns the updated order.
func (s *Service) AddOfferItem(ctx context.Context, buyer customers.Buyer, channelID uuid.UUID, input AddOfferItemInput) (dto *orders.OrderDTO, err error) {
	start := time.Now()
	defer func() { s.metrics.Observe(metrics.OpAddOfferItem, outcome(err), time.Since(start)) }()

	if input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	validator, err := s.buyerValidator(ctx, buyer)
	if err != nil {
		return nil, err
	}

	var (
		order *models.Order
		line  *models.OrderLine
		item  *models.OfferLineItem
	)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.offers.WithTx(tx)
		item, err = lockAndLoad(ctx, repo, input.OfferLineItemID)
		if err != nil {
			return err
		}
		offer := item.Offer
		if err := validator.ValidateOfferForBuyer(ctx, offer, buyer); err != nil {
			return err
		}
		if item.QuantityLimitMode == enums.QuantityLimitOfferSpecific {
			ordered, err := repo.QuantityOrdered(ctx, item.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "compute quantity ordered")
			}
			if err := offers.CheckQuantityLimit(item, input.Quantity, ordered); err != nil {
				return err
			}
		}

		def := pricing.FromLineItem(item)
		var selected *int
		if item.PricingMode == enums.PricingModeCase {
			if _, err := pricing.SelectCaseTier(def, input.SelectedCaseQuantity); err != nil {
				return err
			}
			selected = input.SelectedCaseQuantity
		}

		order, err = s.orders.GetOrCreateActiveOrder(ctx, tx, buyer, channelID)
		if err != nil {
			return err
		}
		offerIDs, err := s.orders.SellerOfferIDs(ctx, tx, order.ID, offer.SellerID)
		if err != nil {
			return err
		}
		for _, id := range offerIDs {
			if id != offer.ID {
				return pkgerrors.New(pkgerrors.CodeStateConflict,
					"Cannot add items from a different offer of the same seller to this order")
			}
		}

		price, err := pricing.PriceForQuantity(def, input.Quantity, selected)
		if err != nil {
			return err
		}
		status := enums.LineStatusPending
		if item.AutoConfirm {
			status = enums.LineStatusConfirmed
		}
		itemID := item.ID
		line, err = s.orders.AddItemToOrder(ctx, tx, order, item.ProductVariantID, input.Quantity, orders.LineFields{
			OfferLineItemID:      &itemID,
			LineStatus:           &status,
			SelectedCaseQuantity: selected,
			AgreedUnitPrice:      &price,
			BuyerNotes:           input.BuyerNotes,
		})
		if err != nil {
			return mutationErr(err)
		}

		event := payloads.OfferItemAddedToOrderEvent{
			OrderID:         order.ID,
			OrderLineID:     line.ID,
			OfferID:         offer.ID,
			OfferLineItemID: item.ID,
			Quantity:        input.Quantity,
			AgreedUnitPrice: price,
			LineStatus:      status,
		}
		if err := s.outbox.Emit(ctx, tx, event, nil); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit offer item event")
		}

		order, err = s.orders.Order(ctx, tx, order.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"order_id":           order.ID.String(),
		"order_line_id":      line.ID.String(),
		"offer_line_item_id": item.ID.String(),
		"quantity":           input.Quantity,
		"agreed_unit_price":  *line.AgreedUnitPrice,
	})
	s.logg.Info(logCtx, "order.offer_item_added")

	result := orders.NewOrderDTO(order)
	return &result, nil
}

// AdjustOfferItemQuantity sets a new quantity on an offer line of the
// buyer's active order, re-running every gate and re-pricing the line.
func (s *Service) AdjustOfferItemQuantity(ctx context.Context, buyer customers.Buyer, input AdjustOfferItemInput) (dto *orders.OrderDTO, err error) {
	start := time.Now()
	defer func() { s.metrics.Observe(metrics.OpAdjustOfferItem, outcome(err), time.Since(start)) }()

	if input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	validator, err := s.buyerValidator(ctx, buyer)
	if err != nil {
		return nil, err
	}

	var (
		order    *models.Order
		price    int
		previous int
	)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err = s.orders.ActiveOrder(ctx, tx, buyer)
		if err != nil {
			return err
		}
		if order == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "No active order found")
		}
		line := findLine(order.Lines, input.OrderLineID)
		if line == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "Order line not found in active order")
		}
		if line.OfferLineItemID == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "Order line has no associated offer line item")
		}
		previous = line.Quantity

		repo := s.offers.WithTx(tx)
		item, err := lockAndLoad(ctx, repo, *line.OfferLineItemID)
		if err != nil {
			return err
		}
		if err := validator.ValidateOfferForBuyer(ctx, item.Offer, buyer); err != nil {
			return err
		}
		if item.QuantityLimitMode == enums.QuantityLimitOfferSpecific {
			ordered, err := repo.QuantityOrdered(ctx, item.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "compute quantity ordered")
			}
			if err := offers.CheckAdjustedQuantityLimit(item, input.Quantity, ordered, line.Quantity); err != nil {
				return err
			}
		}

		price, err = pricing.PriceForQuantity(pricing.FromLineItem(item), input.Quantity, line.SelectedCaseQuantity)
		if err != nil {
			return err
		}
		if _, err := s.orders.AdjustOrderLine(ctx, tx, order, line.ID, input.Quantity, orders.LineFields{AgreedUnitPrice: &price}); err != nil {
			return mutationErr(err)
		}

		order, err = s.orders.Order(ctx, tx, order.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"order_id":          order.ID.String(),
		"order_line_id":     input.OrderLineID.String(),
		"previous_quantity": previous,
		"quantity":          input.Quantity,
		"agreed_unit_price": price,
	})
	s.logg.Info(logCtx, "order.offer_item_adjusted")

	result := orders.NewOrderDTO(order)
	return &result, nil
}

// buyerValidator resolves the buyer's groups up front so the gates inside
// the transaction never query outside it.
func (s *Service) buyerValidator(ctx context.Context, buyer customers.Buyer) (*offers.Validator, error) {
	groupIDs, err := s.groups.GroupIDs(ctx, buyer)
	if err != nil {
		return nil, err
	}
	return s.validator.WithGroups(groupIDs), nil
}

// lockAndLoad takes the row lock before anything reads the ledger, so
// concurrent mutations of the same line item run one after another.
func lockAndLoad(ctx context.Context, repo *offers.Repository, id uuid.UUID) (*models.OfferLineItem, error) {
	if err := repo.LockLineItem(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Offer line item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock offer line item")
	}
	item, err := repo.FindLineItem(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Offer line item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load offer line item")
	}
	return item, nil
}

func findLine(lines []models.OrderLine, id uuid.UUID) *models.OrderLine {
	for i := range lines {
		if lines[i].ID == id {
			return &lines[i]
		}
	}
	return nil
}

// mutationErr re-shapes order-mutation rejections into the caller-facing
// state conflict, keeping the original code in the details.
func mutationErr(err error) error {
	var mErr *orders.MutationError
	if errors.As(err, &mErr) {
		return pkgerrors.New(pkgerrors.CodeStateConflict, mErr.Message).
			WithDetails(map[string]any{"mutationError": string(mErr.Code)})
	}
	return err
}

func outcome(err error) string {
	if err == nil {
		return metrics.OutcomeSuccess
	}
	if typed := pkgerrors.As(err); typed != nil {
		return strings.ToLower(string(typed.Code()))
	}
	return strings.ToLower(string(pkgerrors.CodeInternal))
}
