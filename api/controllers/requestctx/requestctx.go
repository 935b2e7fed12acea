// Package requestctx reads the request-scoped values the middleware chain
// established.
package requestctx

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/JoeyLyman/yaycsa/api/middleware"
	"github.com/JoeyLyman/yaycsa/pkg/db/models"
	pkgerrors "github.com/JoeyLyman/yaycsa/pkg/errors"
	"github.com/JoeyLyman/yaycsa/pkg/outbox"
)

// Channel returns the resolved request channel.
func Channel(r *http.Request) (*models.Channel, error) {
	channel := middleware.ChannelFromContext(r.Context())
	if channel == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "channel context missing")
	}
	return channel, nil
}

// Actor describes the authenticated caller for outbox events.
func Actor(r *http.Request) *outbox.ActorRef {
	ctx := r.Context()
	ref := &outbox.ActorRef{
		SellerID: middleware.SellerIDFromContext(ctx),
		Role:     string(middleware.RoleFromContext(ctx)),
	}
	if id, err := uuid.Parse(middleware.UserIDFromContext(ctx)); err == nil {
		ref.UserID = &id
	}
	return ref
}
