// Package shop serves the buyer-facing storefront API.
package shop

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/JoeyLyman/yaycsa/api/controllers/requestctx"
	"github.com/JoeyLyman/yaycsa/api/middleware"
	"github.com/JoeyLyman/yaycsa/api/responses"
	"github.com/JoeyLyman/yaycsa/api/validators"
	"github.com/JoeyLyman/yaycsa/internal/customers"
	"github.com/JoeyLyman/yaycsa/internal/offers"
	pkgerrors "github.com/JoeyLyman/yaycsa/pkg/errors"
	"github.com/JoeyLyman/yaycsa/pkg/logger"
)

type offerCatalog interface {
	ListActiveForBuyer(ctx context.Context, channelID uuid.UUID, buyer customers.Buyer, sellerID *uuid.UUID) ([]offers.OfferDTO, error)
	OfferLineItemForBuyer(ctx context.Context, buyer customers.Buyer, id uuid.UUID) (*offers.LineItemView, error)
}

// ListOffers returns the offers the buyer may order from in this channel.
func ListOffers(svc offerCatalog, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "offer service unavailable"))
			return
		}
		channel, err := requestctx.Channel(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sellerID, err := validators.ParseQueryUUID(r, "sellerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListActiveForBuyer(r.Context(), channel.ID, middleware.BuyerFromContext(r.Context()), sellerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// OfferLineItem returns one line item with its remaining quantity. Items the
// buyer cannot order resolve to null rather than an error.
func OfferLineItem(svc offerCatalog, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "offer service unavailable"))
			return
		}
		id, err := validators.URLParamUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.OfferLineItemForBuyer(r.Context(), middleware.BuyerFromContext(r.Context()), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if view == nil {
			responses.WriteSuccess(w, nil)
			return
		}
		responses.WriteSuccess(w, view)
	}
}
