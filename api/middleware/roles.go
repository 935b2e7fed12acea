package middleware

import (
	"net/http"
	"slices"

	"github.com/JoeyLyman/yaycsa/api/responses"
	"github.com/JoeyLyman/yaycsa/pkg/enums"
	pkgerrors "github.com/JoeyLyman/yaycsa/pkg/errors"
	"github.com/JoeyLyman/yaycsa/pkg/logger"
)

// RequireRole runs after Auth. Anonymous callers get 401, authenticated
// callers without one of roles get 403.
func RequireRole(logg *logger.Logger, roles ...enums.ActorRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			role := RoleFromContext(ctx)
			switch {
			case role == "":
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			case !slices.Contains(roles, role):
				responses.WriteError(ctx, logg, w, pkgerrors.Newf(pkgerrors.CodeForbidden, "role %s may not use this endpoint", role).
					WithDetail("allowedRoles", roles))
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}
