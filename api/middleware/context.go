package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/JoeyLyman/yaycsa/internal/customers"
	"github.com/JoeyLyman/yaycsa/pkg/db/models"
	"github.com/JoeyLyman/yaycsa/pkg/enums"
)

type contextKey string

const (
	ctxUserID       contextKey = "user_id"
	ctxRole         contextKey = "actor_role"
	ctxCustomerID   contextKey = "customer_id"
	ctxSellerID     contextKey = "seller_id"
	ctxSessionToken contextKey = "session_token"
	ctxChannel      contextKey = "channel"
)

// Identity is what the auth middleware learned about the caller.
type Identity struct {
	UserID       uuid.UUID
	Role         enums.ActorRole
	CustomerID   *uuid.UUID
	SellerID     *uuid.UUID
	SessionToken string
}

func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxUserID).(string); ok {
		return v
	}
	return ""
}

func RoleFromContext(ctx context.Context) enums.ActorRole {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(enums.ActorRole); ok {
		return v
	}
	return ""
}

func CustomerIDFromContext(ctx context.Context) *uuid.UUID {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxCustomerID).(uuid.UUID); ok {
		return &v
	}
	return nil
}

func SellerIDFromContext(ctx context.Context) *uuid.UUID {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxSellerID).(uuid.UUID); ok {
		return &v
	}
	return nil
}

func SessionTokenFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxSessionToken).(string); ok {
		return v
	}
	return ""
}

// ChannelFromContext returns the channel resolved by the Channel middleware.
func ChannelFromContext(ctx context.Context) *models.Channel {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxChannel).(*models.Channel); ok {
		return v
	}
	return nil
}

// BuyerFromContext builds the shopping identity for the current request.
func BuyerFromContext(ctx context.Context) customers.Buyer {
	return customers.Buyer{
		CustomerID:   CustomerIDFromContext(ctx),
		SessionToken: SessionTokenFromContext(ctx),
	}
}

// WithIdentity injects the caller identity into the context.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if id.UserID != uuid.Nil {
		ctx = context.WithValue(ctx, ctxUserID, id.UserID.String())
	}
	if id.Role != "" {
		ctx = context.WithValue(ctx, ctxRole, id.Role)
	}
	if id.CustomerID != nil {
		ctx = context.WithValue(ctx, ctxCustomerID, *id.CustomerID)
	}
	if id.SellerID != nil {
		ctx = context.WithValue(ctx, ctxSellerID, *id.SellerID)
	}
	if id.SessionToken != "" {
		ctx = context.WithValue(ctx, ctxSessionToken, id.SessionToken)
	}
	return ctx
}

// WithChannel injects the request channel into the context.
func WithChannel(ctx context.Context, channel *models.Channel) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxChannel, channel)
}
