// Package sellerstrategy assigns order lines to seller channels and splits
// an aggregate order into one order per seller at checkout.
package sellerstrategy

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/JoeyLyman/yaycsa/pkg/db/models"
	"github.com/JoeyLyman/yaycsa/pkg/enums"
	pkgerrors "github.com/JoeyLyman/yaycsa/pkg/errors"
)

type variantChannels interface {
	SellerChannelForVariant(ctx context.Context, tx *gorm.DB, variantID uuid.UUID) (*models.Channel, error)
}

// SellerOrder describes one per-seller order produced by SplitOrder.
type SellerOrder struct {
	ChannelID     uuid.UUID
	State         enums.OrderState
	Lines         []models.OrderLine
	ShippingLines []models.ShippingLine
}

type Strategy struct {
	channels variantChannels
	repo     *Repository
}

func New(channels variantChannels, repo *Repository) (*Strategy, error) {
	if channels == nil {
		return nil, fmt.Errorf("channel resolver required")
	}
	if repo == nil {
		return nil, fmt.Errorf("seller strategy repository required")
	}
	return &Strategy{channels: channels, repo: repo}, nil
}

// AssignSellerChannel returns the variant's seller channel, or nil when the
// variant only belongs to the default channel.
func (s *Strategy) AssignSellerChannel(ctx context.Context, tx *gorm.DB, line *models.OrderLine) (*models.Channel, error) {
	return s.channels.SellerChannelForVariant(ctx, tx, line.ProductVariantID)
}

// SplitOrder groups the order's lines by seller channel, in first-seen
// order. Unassigned lines fall into a group on the order's own channel.
func (s *Strategy) SplitOrder(order *models.Order) []SellerOrder {
	index := map[uuid.UUID]int{}
	var groups []SellerOrder
	for _, line := range order.Lines {
		channelID := order.ChannelID
		if line.SellerChannelID != nil {
			channelID = *line.SellerChannelID
		}
		i, ok := index[channelID]
		if !ok {
			i = len(groups)
			index[channelID] = i
			groups = append(groups, SellerOrder{
				ChannelID:     channelID,
				State:         order.State,
				ShippingLines: order.ShippingLines,
			})
		}
		groups[i].Lines = append(groups[i].Lines, line)
	}
	return groups
}

// AfterSellerOrdersCreated stores on each seller order the offer referenced
// by its first line. Orders whose first line has no offer are skipped.
func (s *Strategy) AfterSellerOrdersCreated(ctx context.Context, tx *gorm.DB, aggregate *models.Order, sellerOrders []*models.Order) error {
	repo := s.repo.WithTx(tx)
	var errs error
	for _, order := range sellerOrders {
		if len(order.Lines) == 0 || order.Lines[0].OfferLineItemID == nil {
			continue
		}
		offerID, err := repo.OfferIDForLineItem(ctx, *order.Lines[0].OfferLineItemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			errs = multierr.Append(errs, fmt.Errorf("order %s: %w", order.Code, err))
			continue
		}
		if err := repo.SetOrderOffer(ctx, order.ID, offerID); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("order %s: %w", order.Code, err))
			continue
		}
		order.OfferID = &offerID
	}
	if errs != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, errs, "link seller orders to offers").
			WithDetails(map[string]any{"aggregateOrderId": aggregate.ID})
	}
	return nil
}
