package shop

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JoeyLyman/yaycsa/api/responses"
	"github.com/JoeyLyman/yaycsa/api/validators"
	"github.com/JoeyLyman/yaycsa/internal/marketplace"
	pkgerrors "github.com/JoeyLyman/yaycsa/pkg/errors"
	"github.com/JoeyLyman/yaycsa/pkg/logger"
)

type sellerDirectory interface {
	ListSellers(ctx context.Context, activeOffersOnly bool) ([]marketplace.SellerDTO, error)
	SellerBySlug(ctx context.Context, slug string) (*marketplace.SellerDTO, error)
}

func ListSellers(svc sellerDirectory, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "marketplace service unavailable"))
			return
		}
		activeOnly, err := validators.ParseQueryBool(r, "activeOffersOnly", true)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sellers, err := svc.ListSellers(r.Context(), activeOnly)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, sellers)
	}
}

func SellerBySlug(svc sellerDirectory, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "marketplace service unavailable"))
			return
		}
		seller, err := svc.SellerBySlug(r.Context(), strings.TrimSpace(chi.URLParam(r, "slug")))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, seller)
	}
}
