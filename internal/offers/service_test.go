package offers

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/JoeyLyman/yaycsa/internal/customers"
	pkgdb "github.com/JoeyLyman/yaycsa/pkg/db"
	"github.com/JoeyLyman/yaycsa/pkg/db/dbtest"
	"github.com/JoeyLyman/yaycsa/pkg/db/models"
	"github.com/JoeyLyman/yaycsa/pkg/enums"
	pkgerrors "github.com/JoeyLyman/yaycsa/pkg/errors"
	"github.com/JoeyLyman/yaycsa/pkg/logger"
	"github.com/JoeyLyman/yaycsa/pkg/outbox"
	"github.com/JoeyLyman/yaycsa/pkg/outbox/payloads"
	"github.com/JoeyLyman/yaycsa/pkg/pagination"
	"github.com/JoeyLyman/yaycsa/pkg/types"
)

type defaultChannelStub struct {
	channel *models.Channel
}

func (d defaultChannelStub) Default(context.Context) (*models.Channel, error) {
	return d.channel, nil
}

type offerHarness struct {
	db     *gorm.DB
	market dbtest.Marketplace
	svc    *Service
	repo   *Repository
}

func newOfferHarness(t *testing.T) offerHarness {
	t.Helper()
	db := dbtest.Open(t)
	market := dbtest.MustCreateMarketplace(t, db)

	custSvc, err := customers.NewService(customers.NewRepository(db))
	require.NoError(t, err)
	validator, err := NewValidator(custSvc, nil)
	require.NoError(t, err)
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})

	repo := NewRepository(db)
	svc, err := NewService(Deps{
		Repo:      repo,
		Tx:        pkgdb.FromConn(db),
		Outbox:    outbox.NewService(outbox.NewRepository(db), logg),
		Validator: validator,
		Groups:    custSvc,
		Ownership: custSvc,
		Channels:  defaultChannelStub{channel: market.DefaultChannel},
		Logger:    logg,
	})
	require.NoError(t, err)
	return offerHarness{db: db, market: market, svc: svc, repo: repo}
}

func intp(v int) *int { return &v }

func tieredInput(variantID uuid.UUID) LineItemInput {
	return LineItemInput{
		ProductVariantID: variantID,
		Price:            600,
		PriceTiers: []models.PriceTier{
			{MinQuantity: intp(1), UnitPrice: intp(500)},
			{MinQuantity: intp(10), UnitPrice: intp(400)},
		},
	}
}

func TestCreateAppliesDefaultsAndChannels(t *testing.T) {
	h := newOfferHarness(t)
	ctx := context.Background()
	variant := dbtest.MustCreateVariant(t, h.db, h.market.DefaultChannel, h.market.SellerChannel)

	created, err := h.svc.Create(ctx, h.market.SellerChannel, CreateOfferInput{
		ValidFrom: time.Now().Add(-time.Hour),
		LineItems: []LineItemInput{tieredInput(variant.ID), tieredInput(variant.ID)},
	})
	require.NoError(t, err)

	assert.Equal(t, enums.OfferStatusDraft, created.Status)
	assert.True(t, created.AllowLateOrders)
	assert.Equal(t, h.market.Seller.ID, created.SellerID)
	require.Len(t, created.LineItems, 2)
	for i, item := range created.LineItems {
		assert.Equal(t, enums.PricingModeTiered, item.PricingMode)
		assert.Equal(t, enums.QuantityLimitUnlimited, item.QuantityLimitMode)
		assert.False(t, item.AutoConfirm)
		assert.Equal(t, i, item.SortOrder)
	}

	var channelIDs []uuid.UUID
	require.NoError(t, h.db.Table("offer_channels").Where("offer_id = ?", created.ID).Pluck("channel_id", &channelIDs).Error)
	assert.ElementsMatch(t, []uuid.UUID{h.market.SellerChannel.ID, h.market.DefaultChannel.ID}, channelIDs)

	var events int64
	require.NoError(t, h.db.Model(&models.OutboxEvent{}).Count(&events).Error)
	assert.Zero(t, events)
}

func TestCreateRejections(t *testing.T) {
	h := newOfferHarness(t)
	ctx := context.Background()
	variant := dbtest.MustCreateVariant(t, h.db, h.market.SellerChannel)
	other, _ := dbtest.MustCreateSeller(t, h.db, "Other")
	foreign := dbtest.MustCreateGroup(t, h.db, "foreign", &other.ID)

	_, err := h.svc.Create(ctx, h.market.DefaultChannel, CreateOfferInput{ValidFrom: time.Now()})
	require.Error(t, err)
	assert.Equal(t, "Cannot create offer without a seller channel", pkgerrors.As(err).Message())

	_, err = h.svc.Create(ctx, h.market.SellerChannel, CreateOfferInput{
		ValidFrom:              time.Now(),
		CustomerGroupFilterIDs: []uuid.UUID{foreign.ID},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "belongs to a different seller")

	caseMode := enums.PricingModeCase
	_, err = h.svc.Create(ctx, h.market.SellerChannel, CreateOfferInput{
		ValidFrom: time.Now(),
		LineItems: []LineItemInput{{
			ProductVariantID: variant.ID,
			Price:            100,
			PricingMode:      &caseMode,
			PriceTiers: []models.PriceTier{
				{Quantity: intp(6), CasePrice: intp(500)},
				{Quantity: intp(12), CasePrice: intp(1300)},
			},
		}},
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Contains(t, err.Error(), "non-increasing unit price")

	var offers int64
	require.NoError(t, h.db.Model(&models.Offer{}).Count(&offers).Error)
	assert.Zero(t, offers)
}

func TestCreateCollectsEveryLineItemError(t *testing.T) {
	h := newOfferHarness(t)
	badMode := enums.PricingMode("bulk")
	caseMode := enums.PricingModeCase
	_, err := h.svc.Create(context.Background(), h.market.SellerChannel, CreateOfferInput{
		ValidFrom: time.Now(),
		LineItems: []LineItemInput{
			{ProductVariantID: uuid.New(), PricingMode: &badMode},
			{ProductVariantID: uuid.New(), PricingMode: &caseMode},
		},
	})
	require.Error(t, err)
	details, ok := pkgerrors.As(err).Details().(map[string]any)
	require.True(t, ok)
	assert.Len(t, details["errors"], 2)
}

func TestUpdatePatchesFieldsAndLineItems(t *testing.T) {
	h := newOfferHarness(t)
	ctx := context.Background()
	variant := dbtest.MustCreateVariant(t, h.db, h.market.SellerChannel)
	group := dbtest.MustCreateGroup(t, h.db, "members", &h.market.Seller.ID)

	created, err := h.svc.Create(ctx, h.market.SellerChannel, CreateOfferInput{
		ValidFrom: time.Now().Add(-time.Hour),
		Notes:     strp("first"),
		LineItems: []LineItemInput{tieredInput(variant.ID), tieredInput(variant.ID)},
	})
	require.NoError(t, err)
	keep, drop := created.LineItems[0], created.LineItems[1]

	groups := []uuid.UUID{group.ID}
	limitMode := enums.QuantityLimitOfferSpecific
	updated, err := h.svc.Update(ctx, h.market.SellerChannel.ID, UpdateOfferInput{
		ID:                     created.ID,
		Notes:                  types.Nullable[string]{Set: true},
		CustomerGroupFilterIDs: &groups,
		RemoveLineItemIDs:      []uuid.UUID{drop.ID},
		UpdateLineItems: []UpdateLineItemInput{{
			ID:                keep.ID,
			Price:             intp(700),
			QuantityLimitMode: &limitMode,
			QuantityLimit:     types.Nullable[int]{Set: true, Value: intp(25)},
		}},
		AddLineItems: []LineItemInput{tieredInput(variant.ID)},
	})
	require.NoError(t, err)

	assert.Nil(t, updated.Notes)
	assert.Equal(t, []uuid.UUID{group.ID}, updated.CustomerGroupFilterIDs)
	require.Len(t, updated.LineItems, 2)
	assert.Equal(t, keep.ID, updated.LineItems[0].ID)
	assert.Equal(t, 700, updated.LineItems[0].Price)
	assert.Equal(t, enums.QuantityLimitOfferSpecific, updated.LineItems[0].QuantityLimitMode)
	assert.Equal(t, 25, *updated.LineItems[0].QuantityLimit)
	// added items continue after the items loaded before removal
	assert.Equal(t, 2, updated.LineItems[1].SortOrder)
}

func TestUpdateDoesNotRestoreRemovedLineItem(t *testing.T) {
	h := newOfferHarness(t)
	ctx := context.Background()
	variant := dbtest.MustCreateVariant(t, h.db, h.market.SellerChannel)

	created, err := h.svc.Create(ctx, h.market.SellerChannel, CreateOfferInput{
		ValidFrom: time.Now().Add(-time.Hour),
		LineItems: []LineItemInput{tieredInput(variant.ID), tieredInput(variant.ID)},
	})
	require.NoError(t, err)
	keep, drop := created.LineItems[0], created.LineItems[1]

	updated, err := h.svc.Update(ctx, h.market.SellerChannel.ID, UpdateOfferInput{
		ID:                created.ID,
		RemoveLineItemIDs: []uuid.UUID{drop.ID},
		UpdateLineItems:   []UpdateLineItemInput{{ID: drop.ID, Price: intp(900)}},
	})
	require.NoError(t, err)

	require.Len(t, updated.LineItems, 1)
	assert.Equal(t, keep.ID, updated.LineItems[0].ID)
	assert.Equal(t, 600, updated.LineItems[0].Price)

	var rows int64
	require.NoError(t, h.db.Model(&models.OfferLineItem{}).Where("id = ?", drop.ID).Count(&rows).Error)
	assert.Zero(t, rows)
}

func TestUpdateUnknownOfferIsNotFound(t *testing.T) {
	h := newOfferHarness(t)
	id := uuid.New()
	_, err := h.svc.Update(context.Background(), h.market.SellerChannel.ID, UpdateOfferInput{ID: id})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	assert.Equal(t, "Offer with id '"+id.String()+"' not found", pkgerrors.As(err).Message())
}

func TestStatusTransitionsEmitOutboxEvents(t *testing.T) {
	h := newOfferHarness(t)
	ctx := context.Background()
	offer := dbtest.MustCreateOffer(t, h.db, h.market.Seller.ID, dbtest.OfferFixture{
		Status:   enums.OfferStatusDraft,
		Channels: []*models.Channel{h.market.SellerChannel},
	})

	activated, err := h.svc.Activate(ctx, h.market.SellerChannel.ID, offer.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, enums.OfferStatusActive, activated.Status)

	_, err = h.svc.Pause(ctx, h.market.SellerChannel.ID, offer.ID, nil)
	require.NoError(t, err)
	expired, err := h.svc.Expire(ctx, h.market.SellerChannel.ID, offer.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, enums.OfferStatusExpired, expired.Status)

	var rows []models.OutboxEvent
	require.NoError(t, h.db.Find(&rows).Error)
	require.Len(t, rows, 3)

	transitions := map[enums.OfferStatus]enums.OfferStatus{}
	for _, row := range rows {
		assert.Equal(t, enums.EventOfferStatusChanged, row.EventType)
		assert.Equal(t, offer.ID, row.AggregateID)
		var envelope outbox.PayloadEnvelope
		require.NoError(t, json.Unmarshal(row.Payload, &envelope))
		var data payloads.OfferStatusChangedEvent
		require.NoError(t, json.Unmarshal(envelope.Data, &data))
		transitions[data.PreviousStatus] = data.Status
	}
	assert.Equal(t, map[enums.OfferStatus]enums.OfferStatus{
		enums.OfferStatusDraft:  enums.OfferStatusActive,
		enums.OfferStatusActive: enums.OfferStatusPaused,
		enums.OfferStatusPaused: enums.OfferStatusExpired,
	}, transitions)

	_, err = h.svc.Activate(ctx, h.market.DefaultChannel.ID, offer.ID, nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestListActiveForBuyerVisibility(t *testing.T) {
	h := newOfferHarness(t)
	ctx := context.Background()
	group := dbtest.MustCreateGroup(t, h.db, "members", nil)
	member := dbtest.MustCreateCustomer(t, h.db, group)
	outsider := dbtest.MustCreateCustomer(t, h.db)
	past := time.Now().UTC().Add(-time.Minute)
	channels := []*models.Channel{h.market.DefaultChannel}

	public := dbtest.MustCreateOffer(t, h.db, h.market.Seller.ID, dbtest.OfferFixture{Channels: channels})
	private := dbtest.MustCreateOffer(t, h.db, h.market.Seller.ID, dbtest.OfferFixture{Channels: channels, Groups: []*models.CustomerGroup{group}})
	dbtest.MustCreateOffer(t, h.db, h.market.Seller.ID, dbtest.OfferFixture{Channels: channels, ValidUntil: &past})
	dbtest.MustCreateOffer(t, h.db, h.market.Seller.ID, dbtest.OfferFixture{Channels: channels, Status: enums.OfferStatusPaused})
	dbtest.MustCreateOffer(t, h.db, h.market.Seller.ID, dbtest.OfferFixture{Channels: []*models.Channel{h.market.SellerChannel}})

	ids := func(list []OfferDTO) []uuid.UUID {
		out := make([]uuid.UUID, 0, len(list))
		for _, o := range list {
			out = append(out, o.ID)
		}
		return out
	}

	anon, err := h.svc.ListActiveForBuyer(ctx, h.market.DefaultChannel.ID, customers.Buyer{}, nil)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{public.ID}, ids(anon))

	out, err := h.svc.ListActiveForBuyer(ctx, h.market.DefaultChannel.ID, customers.Buyer{CustomerID: &outsider.ID}, nil)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{public.ID}, ids(out))

	in, err := h.svc.ListActiveForBuyer(ctx, h.market.DefaultChannel.ID, customers.Buyer{CustomerID: &member.ID}, nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{public.ID, private.ID}, ids(in))

	otherSeller := uuid.New()
	none, err := h.svc.ListActiveForBuyer(ctx, h.market.DefaultChannel.ID, customers.Buyer{}, &otherSeller)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestOfferLineItemForBuyer(t *testing.T) {
	h := newOfferHarness(t)
	ctx := context.Background()
	variant := dbtest.MustCreateVariant(t, h.db, h.market.SellerChannel)
	offer := dbtest.MustCreateOffer(t, h.db, h.market.Seller.ID, dbtest.OfferFixture{}, models.OfferLineItem{
		ProductVariantID:  variant.ID,
		Price:             500,
		QuantityLimitMode: enums.QuantityLimitOfferSpecific,
		QuantityLimit:     intp(10),
	})
	item := offer.LineItems[0]
	dbtest.MustCreateOrder(t, h.db, h.market.DefaultChannel.ID, enums.OrderStateArrangingPayment,
		models.OrderLine{ProductVariantID: variant.ID, Quantity: 7, OfferLineItemID: &item.ID})

	view, err := h.svc.OfferLineItemForBuyer(ctx, customers.Buyer{}, item.ID)
	require.NoError(t, err)
	require.NotNil(t, view)
	assert.Equal(t, 7, view.QuantityOrdered)
	require.NotNil(t, view.QuantityRemaining)
	assert.Equal(t, 3, *view.QuantityRemaining)

	missing, err := h.svc.OfferLineItemForBuyer(ctx, customers.Buyer{}, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, h.db.Model(&models.Offer{}).Where("id = ?", offer.ID).Update("status", enums.OfferStatusPaused).Error)
	hidden, err := h.svc.OfferLineItemForBuyer(ctx, customers.Buyer{}, item.ID)
	require.NoError(t, err)
	assert.Nil(t, hidden)
}

func TestListPaginatesAndPrefill(t *testing.T) {
	h := newOfferHarness(t)
	ctx := context.Background()
	channels := []*models.Channel{h.market.SellerChannel}
	for i := 0; i < 3; i++ {
		dbtest.MustCreateOffer(t, h.db, h.market.Seller.ID, dbtest.OfferFixture{Channels: channels})
		time.Sleep(2 * time.Millisecond)
	}
	latest := dbtest.MustCreateOffer(t, h.db, h.market.Seller.ID, dbtest.OfferFixture{Channels: channels})
	dbtest.MustCreateOffer(t, h.db, h.market.Seller.ID, dbtest.OfferFixture{Channels: channels, Status: enums.OfferStatusDraft})

	first, err := h.svc.List(ctx, h.market.SellerChannel.ID, ListParams{Params: pagination.Params{Limit: 3}})
	require.NoError(t, err)
	require.Len(t, first.Items, 3)
	require.NotEmpty(t, first.Cursor)

	second, err := h.svc.List(ctx, h.market.SellerChannel.ID, ListParams{Params: pagination.Params{Limit: 3, Cursor: first.Cursor}})
	require.NoError(t, err)
	assert.Len(t, second.Items, 2)
	assert.Empty(t, second.Cursor)

	draft := enums.OfferStatusDraft
	drafts, err := h.svc.List(ctx, h.market.SellerChannel.ID, ListParams{Status: &draft})
	require.NoError(t, err)
	assert.Len(t, drafts.Items, 1)

	prefill, err := h.svc.PrefillData(ctx, h.market.SellerChannel.ID)
	require.NoError(t, err)
	require.NotNil(t, prefill)
	assert.Equal(t, latest.ID, prefill.ID)

	empty, err := h.svc.PrefillData(ctx, h.market.DefaultChannel.ID)
	require.NoError(t, err)
	assert.Nil(t, empty)
}

func strp(v string) *string { return &v }
