package marketplace

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JoeyLyman/yaycsa/pkg/db/dbtest"
	"github.com/JoeyLyman/yaycsa/pkg/db/models"
	"github.com/JoeyLyman/yaycsa/pkg/enums"
	pkgerrors "github.com/JoeyLyman/yaycsa/pkg/errors"
)

type defaultChannel struct {
	channel *models.Channel
}

func (d defaultChannel) Default(context.Context) (*models.Channel, error) {
	return d.channel, nil
}

func sellerNames(sellers []SellerDTO) []string {
	names := make([]string, 0, len(sellers))
	for _, s := range sellers {
		names = append(names, s.Name)
	}
	return names
}

func TestListSellersFiltersByCurrentOffers(t *testing.T) {
	db := dbtest.Open(t)
	market := dbtest.MustCreateMarketplace(t, db)
	svc, err := NewService(NewRepository(db), defaultChannel{channel: market.DefaultChannel}, nil)
	require.NoError(t, err)
	ctx := context.Background()

	dbtest.MustCreateOffer(t, db, market.Seller.ID, dbtest.OfferFixture{
		Channels: []*models.Channel{market.SellerChannel, market.DefaultChannel},
	})

	paused, _ := dbtest.MustCreateSeller(t, db, "Paused Farm")
	dbtest.MustCreateOffer(t, db, paused.ID, dbtest.OfferFixture{
		Status:   enums.OfferStatusPaused,
		Channels: []*models.Channel{market.DefaultChannel},
	})

	ended, _ := dbtest.MustCreateSeller(t, db, "Ended Farm")
	past := time.Now().UTC().Add(-time.Minute)
	dbtest.MustCreateOffer(t, db, ended.ID, dbtest.OfferFixture{
		ValidFrom:  past.Add(-time.Hour),
		ValidUntil: &past,
		Channels:   []*models.Channel{market.DefaultChannel},
	})

	sellerOnly, sellerOnlyChannel := dbtest.MustCreateSeller(t, db, "Channel Farm")
	dbtest.MustCreateOffer(t, db, sellerOnly.ID, dbtest.OfferFixture{Channels: []*models.Channel{sellerOnlyChannel}})

	unlisted := &models.Seller{Name: "Hidden Farm"}
	require.NoError(t, db.Create(unlisted).Error)

	gone, _ := dbtest.MustCreateSeller(t, db, "Gone Farm")
	require.NoError(t, db.Delete(gone).Error)

	all, err := svc.ListSellers(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"Channel Farm", "Ended Farm", "Farm One", "Paused Farm"}, sellerNames(all))

	active, err := svc.ListSellers(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"Farm One"}, sellerNames(active))
}

func TestSellerBySlug(t *testing.T) {
	db := dbtest.Open(t)
	market := dbtest.MustCreateMarketplace(t, db)
	svc, err := NewService(NewRepository(db), defaultChannel{channel: market.DefaultChannel}, nil)
	require.NoError(t, err)

	seller, err := svc.SellerBySlug(context.Background(), *market.Seller.Slug)
	require.NoError(t, err)
	assert.Equal(t, market.Seller.ID, seller.ID)

	_, err = svc.SellerBySlug(context.Background(), "nobody")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = svc.SellerBySlug(context.Background(), "  ")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
