package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/JoeyLyman/yaycsa/api/responses"
	pkgAuth "github.com/JoeyLyman/yaycsa/pkg/auth"
	"github.com/JoeyLyman/yaycsa/pkg/config"
	"github.com/JoeyLyman/yaycsa/pkg/enums"
	pkgerrors "github.com/JoeyLyman/yaycsa/pkg/errors"
	"github.com/JoeyLyman/yaycsa/pkg/logger"
)

// CustomerResolver maps a user to their customer record when the token
// does not carry one.
type CustomerResolver interface {
	CustomerIDForUser(ctx context.Context, userID uuid.UUID) (*uuid.UUID, error)
}

// Auth validates a bearer token and seeds the request context with the claims.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			ctx := withClaims(r.Context(), logg, claims, claims.CustomerID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth accepts anonymous shoppers. A bearer token, when present,
// must be valid; guests are identified by the session header instead.
func OptionalAuth(cfg config.JWTConfig, sessionHeader string, resolver CustomerResolver, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			session := strings.TrimSpace(r.Header.Get(sessionHeader))

			token := bearerToken(r)
			if token == "" {
				ctx = WithIdentity(ctx, Identity{SessionToken: session})
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			customerID := claims.CustomerID
			if customerID == nil && resolver != nil && claims.Role == enums.ActorRoleCustomer {
				customerID, err = resolver.CustomerIDForUser(ctx, claims.UserID)
				if err != nil {
					responses.WriteError(ctx, logg, w, err)
					return
				}
			}

			ctx = withClaims(ctx, logg, claims, customerID)
			if customerID == nil && session != "" {
				ctx = WithIdentity(ctx, Identity{SessionToken: session})
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	token := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	return token
}

func withClaims(ctx context.Context, logg *logger.Logger, claims *pkgAuth.AccessTokenClaims, customerID *uuid.UUID) context.Context {
	ctx = WithIdentity(ctx, Identity{
		UserID:     claims.UserID,
		Role:       claims.Role,
		CustomerID: customerID,
		SellerID:   claims.SellerID,
	})
	if logg == nil {
		return ctx
	}
	ctx = logg.WithUserID(ctx, claims.UserID.String())
	ctx = logg.WithActorRole(ctx, string(claims.Role))
	if claims.SellerID != nil {
		ctx = logg.WithSellerID(ctx, claims.SellerID.String())
	}
	return ctx
}
