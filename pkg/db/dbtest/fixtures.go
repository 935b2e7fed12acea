package dbtest

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/JoeyLyman/yaycsa/pkg/db/models"
	"github.com/JoeyLyman/yaycsa/pkg/enums"
)

// Marketplace is the minimal catalog most service tests start from: the
// platform default channel plus one seller with its own channel.
type Marketplace struct {
	DefaultChannel *models.Channel
	Seller         *models.Seller
	SellerChannel  *models.Channel
}

func MustCreateMarketplace(t *testing.T, db *gorm.DB) Marketplace {
	t.Helper()
	def := &models.Channel{Code: "default", Token: "__default_channel__", IsDefault: true}
	require.NoError(t, db.Create(def).Error)
	seller, channel := MustCreateSeller(t, db, "Farm One")
	return Marketplace{DefaultChannel: def, Seller: seller, SellerChannel: channel}
}

// MustCreateSeller inserts a seller and the seller's channel.
func MustCreateSeller(t *testing.T, db *gorm.DB, name string) (*models.Seller, *models.Channel) {
	t.Helper()
	slug := fmt.Sprintf("seller-%s", uuid.NewString()[:8])
	seller := &models.Seller{Name: name, Slug: &slug}
	require.NoError(t, db.Create(seller).Error)
	channel := &models.Channel{
		Code:     slug,
		Token:    "tok-" + slug,
		SellerID: &seller.ID,
	}
	require.NoError(t, db.Create(channel).Error)
	return seller, channel
}

// MustCreateVariant inserts a product variant assigned to the channels.
func MustCreateVariant(t *testing.T, db *gorm.DB, channels ...*models.Channel) *models.ProductVariant {
	t.Helper()
	variant := &models.ProductVariant{
		Name: "Variant",
		SKU:  fmt.Sprintf("SKU-%s", uuid.NewString()[:8]),
	}
	for _, ch := range channels {
		variant.Channels = append(variant.Channels, *ch)
	}
	require.NoError(t, db.Omit("Channels.*").Create(variant).Error)
	return variant
}

// MustCreateCustomer inserts a customer belonging to the groups.
func MustCreateCustomer(t *testing.T, db *gorm.DB, groups ...*models.CustomerGroup) *models.Customer {
	t.Helper()
	userID := uuid.New()
	customer := &models.Customer{
		UserID: &userID,
		Email:  fmt.Sprintf("buyer_%s@example.com", uuid.NewString()[:8]),
	}
	for _, g := range groups {
		customer.Groups = append(customer.Groups, *g)
	}
	require.NoError(t, db.Omit("Groups.*").Create(customer).Error)
	return customer
}

func MustCreateGroup(t *testing.T, db *gorm.DB, name string, sellerID *uuid.UUID) *models.CustomerGroup {
	t.Helper()
	group := &models.CustomerGroup{Name: name, SellerID: sellerID}
	require.NoError(t, db.Create(group).Error)
	return group
}

// OfferFixture tweaks MustCreateOffer. Zero values produce an active offer
// valid since an hour ago with no end date.
type OfferFixture struct {
	Status     enums.OfferStatus
	ValidFrom  time.Time
	ValidUntil *time.Time
	Groups     []*models.CustomerGroup
	Channels   []*models.Channel
}

// MustCreateOffer inserts an offer with the given line items.
func MustCreateOffer(t *testing.T, db *gorm.DB, sellerID uuid.UUID, fx OfferFixture, items ...models.OfferLineItem) *models.Offer {
	t.Helper()
	if fx.Status == "" {
		fx.Status = enums.OfferStatusActive
	}
	if fx.ValidFrom.IsZero() {
		fx.ValidFrom = time.Now().UTC().Add(-time.Hour)
	}
	offer := &models.Offer{
		SellerID:        sellerID,
		Status:          fx.Status,
		ValidFrom:       fx.ValidFrom,
		ValidUntil:      fx.ValidUntil,
		AllowLateOrders: true,
	}
	for _, g := range fx.Groups {
		offer.CustomerGroupFilters = append(offer.CustomerGroupFilters, *g)
	}
	for _, ch := range fx.Channels {
		offer.Channels = append(offer.Channels, *ch)
	}
	for i := range items {
		if items[i].PricingMode == "" {
			items[i].PricingMode = enums.PricingModeTiered
		}
		if items[i].QuantityLimitMode == "" {
			items[i].QuantityLimitMode = enums.QuantityLimitUnlimited
		}
		items[i].SortOrder = i
	}
	offer.LineItems = items
	require.NoError(t, db.Omit("Channels.*", "CustomerGroupFilters.*").Create(offer).Error)
	return offer
}

// MustCreateOrder inserts an order with lines, bypassing the mutation API.
func MustCreateOrder(t *testing.T, db *gorm.DB, channelID uuid.UUID, state enums.OrderState, lines ...models.OrderLine) *models.Order {
	t.Helper()
	customerID := uuid.New()
	order := &models.Order{
		Code:       "T-" + uuid.NewString()[:8],
		CustomerID: &customerID,
		ChannelID:  channelID,
		State:      state,
		Active:     state == enums.OrderStateAddingItems,
		Lines:      lines,
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

func IntPtr(v int) *int { return &v }
