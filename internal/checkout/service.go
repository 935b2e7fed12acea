// Package checkout places the buyer's active order and splits it into one
// order per seller.
package checkout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/JoeyLyman/yaycsa/internal/customers"
	"github.com/JoeyLyman/yaycsa/internal/orders"
	"github.com/JoeyLyman/yaycsa/internal/sellerstrategy"
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

type orderSplitter interface {
	SplitOrder(order *models.Order) []sellerstrategy.SellerOrder
	AfterSellerOrdersCreated(ctx context.Context, tx *gorm.DB, aggregate *models.Order, sellerOrders []*models.Order) error
}

type fulfillmentLookup interface {
	FindForOrder(ctx context.Context, tx *gorm.DB, channelID, id uuid.UUID) (*models.FulfillmentOption, error)
}

type mutationRecorder interface {
	Observe(operation, outcome string, duration time.Duration)
}

// PlaceOrderInput captures the buyer's fulfillment choice.
type PlaceOrderInput struct {
	FulfillmentOptionID *uuid.UUID            `json:"fulfillmentOptionId,omitempty"`
	ShippingLines       []models.ShippingLine `json:"shippingLines" validate:"dive"`
}

// PlaceOrderResult is the placed aggregate order plus the seller orders
// created from it. SellerOrders is empty when no split was needed.
type PlaceOrderResult struct {
	Order        orders.OrderDTO   `json:"order"`
	SellerOrders []orders.OrderDTO `json:"sellerOrders"`
}

type Deps struct {
	Orders      orders.Service
	OrdersRepo  orders.Repository
	Splitter    orderSplitter
	Fulfillment fulfillmentLookup
	Tx          txRunner
	Outbox      outboxPublisher
	Metrics     mutationRecorder
	Logger      *logger.Logger
	Now         func() time.Time
}

// Service executes checkout orchestration.
type Service interface {
	PlaceOrder(ctx context.Context, owner customers.Buyer, input PlaceOrderInput) (*PlaceOrderResult, error)
}

type service struct {
	orders      orders.Service
	ordersRepo  orders.Repository
	splitter    orderSplitter
	fulfillment fulfillmentLookup
	tx          txRunner
	outbox      outboxPublisher
	metrics     mutationRecorder
	logg        *logger.Logger
	now         func() time.Time
}

// NewService builds the checkout service.
func NewService(deps Deps) (Service, error) {
	switch {
	case deps.Orders == nil:
		return nil, fmt.Errorf("orders service required")
	case deps.OrdersRepo == nil:
		return nil, fmt.Errorf("orders repository required")
	case deps.Splitter == nil:
		return nil, fmt.Errorf("order splitter required")
	case deps.Fulfillment == nil:
		return nil, fmt.Errorf("fulfillment lookup required")
	case deps.Tx == nil:
		return nil, fmt.Errorf("tx runner required")
	case deps.Outbox == nil:
		return nil, fmt.Errorf("outbox publisher required")
	case deps.Logger == nil:
		return nil, fmt.Errorf("logger required")
	}
	recorder := deps.Metrics
	if recorder == nil {
		recorder = metrics.NewOrderMutationMetrics(nil)
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		orders:      deps.Orders,
		ordersRepo:  deps.OrdersRepo,
		splitter:    deps.Splitter,
		fulfillment: deps.Fulfillment,
		tx:          deps.Tx,
		outbox:      deps.Outbox,
		metrics:     recorder,
		logg:        deps.Logger,
		now:         now,
	}, nil
}

func (s *service) PlaceOrder(ctx context.Context, owner customers.Buyer, input PlaceOrderInput) (result *PlaceOrderResult, err error) {
	start := time.Now()
	defer func() { s.metrics.Observe(metrics.OpPlaceOrder, outcome(err), time.Since(start)) }()

	if !owner.Identified() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "a customer or guest session is required")
	}

	var (
		aggregate    *models.Order
		sellerOrders []*models.Order
	)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.ordersRepo.WithTx(tx)

		order, err := s.orders.ActiveOrder(ctx, tx, owner)
		if err != nil {
			return err
		}
		if order == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "No active order found")
		}
		if len(order.Lines) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "Cannot place an order without lines")
		}
		if order.State != enums.OrderStateAddingItems {
			return pkgerrors.Newf(pkgerrors.CodeStateConflict, "Order cannot be placed from state %s", order.State)
		}
		if input.FulfillmentOptionID != nil {
			option, err := s.fulfillment.FindForOrder(ctx, tx, order.ChannelID, *input.FulfillmentOptionID)
			if err != nil {
				return err
			}
			order.FulfillmentOptionID = &option.ID
		}

		placedAt := s.now().UTC()
		order.ShippingLines = input.ShippingLines
		if order.ShippingLines == nil {
			order.ShippingLines = []models.ShippingLine{}
		}
		order.State = enums.OrderStateArrangingPayment
		order.Active = false
		order.PlacedAt = &placedAt
		if err := repo.SaveOrder(ctx, order, "fulfillment_option_id", "shipping_lines", "state", "active", "placed_at"); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "place order")
		}
		aggregate = order

		groups := s.splitter.SplitOrder(order)
		if !needsSplit(order, groups) {
			return nil
		}

		for i, group := range groups {
			sellerOrder := newSellerOrder(order, group, i)
			if err := repo.CreateOrder(ctx, sellerOrder); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create seller order")
			}
			lineIDs := make([]uuid.UUID, 0, len(group.Lines))
			for _, line := range group.Lines {
				lineIDs = append(lineIDs, line.ID)
				line.OrderID = sellerOrder.ID
				sellerOrder.Lines = append(sellerOrder.Lines, line)
			}
			if err := repo.MoveLines(ctx, lineIDs, sellerOrder.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "move order lines")
			}
			sellerOrders = append(sellerOrders, sellerOrder)
		}

		if err := s.splitter.AfterSellerOrdersCreated(ctx, tx, order, sellerOrders); err != nil {
			return err
		}
		if err := s.emitSellerOrdersCreated(ctx, tx, order, sellerOrders); err != nil {
			return err
		}

		reloaded, err := s.orders.Order(ctx, tx, order.ID)
		if err != nil {
			return err
		}
		aggregate = reloaded
		return nil
	})
	if err != nil {
		return nil, err
	}

	result = &PlaceOrderResult{
		Order:        orders.NewOrderDTO(aggregate),
		SellerOrders: make([]orders.OrderDTO, 0, len(sellerOrders)),
	}
	for _, so := range sellerOrders {
		result.SellerOrders = append(result.SellerOrders, orders.NewOrderDTO(so))
	}

	logCtx := s.logg.WithOrderID(ctx, aggregate.ID.String())
	if len(sellerOrders) > 0 {
		logCtx = s.logg.WithField(logCtx, "seller_orders", len(sellerOrders))
		s.logg.Info(logCtx, "checkout.seller_orders_created")
	} else {
		s.logg.Info(logCtx, "checkout.order_placed")
	}
	return result, nil
}

// needsSplit is false only when every line stays on the order's own channel.
func needsSplit(order *models.Order, groups []sellerstrategy.SellerOrder) bool {
	if len(groups) > 1 {
		return true
	}
	return len(groups) == 1 && groups[0].ChannelID != order.ChannelID
}

func newSellerOrder(aggregate *models.Order, group sellerstrategy.SellerOrder, index int) *models.Order {
	aggregateID := aggregate.ID
	return &models.Order{
		Code:                fmt.Sprintf("%s-%d", aggregate.Code, index+1),
		CustomerID:          aggregate.CustomerID,
		SessionToken:        aggregate.SessionToken,
		ChannelID:           group.ChannelID,
		State:               group.State,
		AggregateOrderID:    &aggregateID,
		FulfillmentOptionID: aggregate.FulfillmentOptionID,
		ShippingLines:       group.ShippingLines,
		PlacedAt:            aggregate.PlacedAt,
	}
}

func (s *service) emitSellerOrdersCreated(ctx context.Context, tx *gorm.DB, aggregate *models.Order, sellerOrders []*models.Order) error {
	refs := make([]payloads.SellerOrderRef, 0, len(sellerOrders))
	for _, so := range sellerOrders {
		refs = append(refs, payloads.SellerOrderRef{
			OrderID:         so.ID,
			Code:            so.Code,
			SellerChannelID: so.ChannelID,
			OfferID:         so.OfferID,
			LineCount:       len(so.Lines),
		})
	}
	event := payloads.SellerOrdersCreatedEvent{
		AggregateOrderID: aggregate.ID,
		AggregateCode:    aggregate.Code,
		SellerOrders:     refs,
	}
	if err := s.outbox.Emit(ctx, tx, event, nil); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit seller orders event")
	}
	return nil
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
