package shop

import (
	"net/http"

	"github.com/JoeyLyman/yaycsa/api/middleware"
	"github.com/JoeyLyman/yaycsa/api/responses"
	"github.com/JoeyLyman/yaycsa/api/validators"
	checkoutsvc "github.com/JoeyLyman/yaycsa/internal/checkout"
	pkgerrors "github.com/JoeyLyman/yaycsa/pkg/errors"
	"github.com/JoeyLyman/yaycsa/pkg/logger"
)

// Checkout places the buyer's active order.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var input checkoutsvc.PlaceOrderInput
		if err := validators.DecodeJSONBody(w, r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.PlaceOrder(r.Context(), middleware.BuyerFromContext(r.Context()), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
