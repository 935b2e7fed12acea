package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/JoeyLyman/yaycsa/api/responses"
	"github.com/JoeyLyman/yaycsa/pkg/db/models"
	"github.com/JoeyLyman/yaycsa/pkg/enums"
	pkgerrors "github.com/JoeyLyman/yaycsa/pkg/errors"
	"github.com/JoeyLyman/yaycsa/pkg/logger"
)

// ChannelResolver maps a channel token to a channel.
type ChannelResolver interface {
	Resolve(ctx context.Context, token string) (*models.Channel, error)
}

// SellerChannelResolver finds the channel owned by a seller.
type SellerChannelResolver interface {
	SellerChannel(ctx context.Context, sellerID uuid.UUID) (*models.Channel, error)
}

// Channel resolves the request channel from the token header. A missing
// header selects the default channel.
func Channel(header string, resolver ChannelResolver, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			channel, err := resolver.Resolve(r.Context(), strings.TrimSpace(r.Header.Get(header)))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(withChannelFields(r.Context(), logg, channel)))
		})
	}
}

// SellerScope confines seller callers to their own channel. A seller that
// sent no channel header is moved onto its seller channel; admins pass
// through untouched.
func SellerScope(header string, resolver SellerChannelResolver, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if RoleFromContext(ctx) != enums.ActorRoleSeller {
				next.ServeHTTP(w, r)
				return
			}
			sellerID := SellerIDFromContext(ctx)
			if sellerID == nil {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "seller context required"))
				return
			}

			channel := ChannelFromContext(ctx)
			if strings.TrimSpace(r.Header.Get(header)) == "" {
				own, err := resolver.SellerChannel(ctx, *sellerID)
				if err != nil {
					responses.WriteError(ctx, logg, w, err)
					return
				}
				channel = own
			}
			if channel == nil || channel.SellerID == nil || *channel.SellerID != *sellerID {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "channel belongs to a different seller"))
				return
			}
			next.ServeHTTP(w, r.WithContext(withChannelFields(ctx, logg, channel)))
		})
	}
}

func withChannelFields(ctx context.Context, logg *logger.Logger, channel *models.Channel) context.Context {
	ctx = WithChannel(ctx, channel)
	if logg != nil {
		ctx = logg.WithChannelID(ctx, channel.ID.String())
	}
	return ctx
}
