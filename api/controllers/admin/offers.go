// Package admin serves offer and fulfillment administration for sellers
// and platform administrators.
package admin

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/JoeyLyman/yaycsa/api/controllers/requestctx"
	"github.com/JoeyLyman/yaycsa/api/responses"
	"github.com/JoeyLyman/yaycsa/api/validators"
	"github.com/JoeyLyman/yaycsa/internal/offers"
	"github.com/JoeyLyman/yaycsa/pkg/db/models"
	"github.com/JoeyLyman/yaycsa/pkg/enums"
	pkgerrors "github.com/JoeyLyman/yaycsa/pkg/errors"
	"github.com/JoeyLyman/yaycsa/pkg/logger"
	"github.com/JoeyLyman/yaycsa/pkg/outbox"
)

type offerAdmin interface {
	List(ctx context.Context, channelID uuid.UUID, params offers.ListParams) (*offers.ListResult, error)
	Get(ctx context.Context, channelID, id uuid.UUID) (*offers.OfferDTO, error)
	Create(ctx context.Context, channel *models.Channel, input offers.CreateOfferInput) (*offers.OfferDTO, error)
	Update(ctx context.Context, channelID uuid.UUID, input offers.UpdateOfferInput) (*offers.OfferDTO, error)
	Activate(ctx context.Context, channelID, id uuid.UUID, actor *outbox.ActorRef) (*offers.OfferDTO, error)
	Pause(ctx context.Context, channelID, id uuid.UUID, actor *outbox.ActorRef) (*offers.OfferDTO, error)
	Expire(ctx context.Context, channelID, id uuid.UUID, actor *outbox.ActorRef) (*offers.OfferDTO, error)
	PrefillData(ctx context.Context, channelID uuid.UUID) (*offers.OfferDTO, error)
}

func ListOffers(svc offerAdmin, logg *logger.Logger) http.HandlerFunc {
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
		params, err := offerListParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), channel.ID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func offerListParams(r *http.Request) (offers.ListParams, error) {
	page, err := validators.ParsePagination(r)
	if err != nil {
		return offers.ListParams{}, err
	}
	params := offers.ListParams{Params: page}
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		status, err := enums.ParseOfferStatus(raw)
		if err != nil {
			return offers.ListParams{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status").WithDetails(map[string]any{"field": "status"})
		}
		params.Status = &status
	}
	params.SellerID, err = validators.ParseQueryUUID(r, "sellerId")
	if err != nil {
		return offers.ListParams{}, err
	}
	return params, nil
}

func GetOffer(svc offerAdmin, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "offer service unavailable"))
			return
		}
		channel, id, err := channelAndID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		offer, err := svc.Get(r.Context(), channel.ID, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, offer)
	}
}

// OfferPrefill returns the latest active offer in the channel as a
// template for a new one, or null.
func OfferPrefill(svc offerAdmin, logg *logger.Logger) http.HandlerFunc {
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
		offer, err := svc.PrefillData(r.Context(), channel.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if offer == nil {
			responses.WriteSuccess(w, nil)
			return
		}
		responses.WriteSuccess(w, offer)
	}
}

func CreateOffer(svc offerAdmin, logg *logger.Logger) http.HandlerFunc {
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
		var input offers.CreateOfferInput
		if err := validators.DecodeJSONBody(w, r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		offer, err := svc.Create(r.Context(), channel, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, offer)
	}
}

func UpdateOffer(svc offerAdmin, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "offer service unavailable"))
			return
		}
		channel, id, err := channelAndID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var input offers.UpdateOfferInput
		if err := validators.DecodeJSONBody(w, r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input.ID = id

		offer, err := svc.Update(r.Context(), channel.ID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, offer)
	}
}

type statusTransition func(ctx context.Context, channelID, id uuid.UUID, actor *outbox.ActorRef) (*offers.OfferDTO, error)

// TransitionOffer serves the activate, pause and expire endpoints.
func TransitionOffer(transition statusTransition, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if transition == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "offer service unavailable"))
			return
		}
		channel, id, err := channelAndID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		offer, err := transition(r.Context(), channel.ID, id, requestctx.Actor(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, offer)
	}
}

func channelAndID(r *http.Request) (*models.Channel, uuid.UUID, error) {
	channel, err := requestctx.Channel(r)
	if err != nil {
		return nil, uuid.Nil, err
	}
	id, err := validators.URLParamUUID(r, "id")
	if err != nil {
		return nil, uuid.Nil, err
	}
	return channel, id, nil
}
