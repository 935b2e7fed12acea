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
	"github.com/JoeyLyman/yaycsa/internal/offerorders"
	"github.com/JoeyLyman/yaycsa/internal/orders"
	pkgerrors "github.com/JoeyLyman/yaycsa/pkg/errors"
	"github.com/JoeyLyman/yaycsa/pkg/logger"
)

const maxBuyerNotes = 2000

type activeOrders interface {
	Get(ctx context.Context, owner customers.Buyer) (*orders.OrderDTO, error)
}

type offerItemMutator interface {
	AddOfferItem(ctx context.Context, buyer customers.Buyer, channelID uuid.UUID, input offerorders.AddOfferItemInput) (*orders.OrderDTO, error)
	AdjustOfferItemQuantity(ctx context.Context, buyer customers.Buyer, input offerorders.AdjustOfferItemInput) (*orders.OrderDTO, error)
}

// ActiveOrder returns the buyer's open order, or null when there is none.
func ActiveOrder(svc activeOrders, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}
		buyer := middleware.BuyerFromContext(r.Context())
		if !buyer.Identified() {
			responses.WriteSuccess(w, nil)
			return
		}

		order, err := svc.Get(r.Context(), buyer)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if order == nil {
			responses.WriteSuccess(w, nil)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// AddOfferItem adds an offer line item to the buyer's active order.
func AddOfferItem(svc offerItemMutator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}
		channel, err := requestctx.Channel(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var input offerorders.AddOfferItemInput
		if err := validators.DecodeJSONBody(w, r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if input.BuyerNotes != nil {
			notes := validators.SanitizeString(*input.BuyerNotes, maxBuyerNotes)
			input.BuyerNotes = &notes
			if notes == "" {
				input.BuyerNotes = nil
			}
		}

		order, err := svc.AddOfferItem(r.Context(), middleware.BuyerFromContext(r.Context()), channel.ID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// AdjustOfferItemQuantity reprices an offer line at its new quantity.
func AdjustOfferItemQuantity(svc offerItemMutator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}
		lineID, err := validators.URLParamUUID(r, "lineId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var input offerorders.AdjustOfferItemInput
		if err := validators.DecodeJSONBody(w, r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input.OrderLineID = lineID

		order, err := svc.AdjustOfferItemQuantity(r.Context(), middleware.BuyerFromContext(r.Context()), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}
