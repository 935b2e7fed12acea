package admin

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/JoeyLyman/yaycsa/api/controllers/requestctx"
	"github.com/JoeyLyman/yaycsa/api/responses"
	"github.com/JoeyLyman/yaycsa/api/validators"
	"github.com/JoeyLyman/yaycsa/internal/fulfillment"
	"github.com/JoeyLyman/yaycsa/pkg/db/models"
	pkgerrors "github.com/JoeyLyman/yaycsa/pkg/errors"
	"github.com/JoeyLyman/yaycsa/pkg/logger"
)

type fulfillmentAdmin interface {
	List(ctx context.Context, channelID uuid.UUID, params fulfillment.ListParams) (*fulfillment.ListResult, error)
	Get(ctx context.Context, channelID, id uuid.UUID) (*fulfillment.OptionDTO, error)
	Create(ctx context.Context, channel *models.Channel, input fulfillment.CreateInput) (*fulfillment.OptionDTO, error)
	Update(ctx context.Context, channelID uuid.UUID, input fulfillment.UpdateInput) (*fulfillment.OptionDTO, error)
	Delete(ctx context.Context, channelID, id uuid.UUID) (*fulfillment.DeletionResponse, error)
}

func ListFulfillmentOptions(svc fulfillmentAdmin, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "fulfillment service unavailable"))
			return
		}
		channel, err := requestctx.Channel(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := validators.ParsePagination(r)
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

func GetFulfillmentOption(svc fulfillmentAdmin, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "fulfillment service unavailable"))
			return
		}
		channel, id, err := channelAndID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		option, err := svc.Get(r.Context(), channel.ID, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, option)
	}
}

func CreateFulfillmentOption(svc fulfillmentAdmin, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "fulfillment service unavailable"))
			return
		}
		channel, err := requestctx.Channel(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var input fulfillment.CreateInput
		if err := validators.DecodeJSONBody(w, r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		option, err := svc.Create(r.Context(), channel, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, option)
	}
}

func UpdateFulfillmentOption(svc fulfillmentAdmin, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "fulfillment service unavailable"))
			return
		}
		channel, id, err := channelAndID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var input fulfillment.UpdateInput
		if err := validators.DecodeJSONBody(w, r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input.ID = id
		option, err := svc.Update(r.Context(), channel.ID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, option)
	}
}

// DeleteFulfillmentOption always answers 200; the body says whether a row
// was removed.
func DeleteFulfillmentOption(svc fulfillmentAdmin, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "fulfillment service unavailable"))
			return
		}
		channel, id, err := channelAndID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Delete(r.Context(), channel.ID, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
