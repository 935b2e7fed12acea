package offers

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/JoeyLyman/yaycsa/internal/customers"
	"github.com/JoeyLyman/yaycsa/pkg/db/models"
	"github.com/JoeyLyman/yaycsa/pkg/enums"
	pkgerrors "github.com/JoeyLyman/yaycsa/pkg/errors"
)

// GroupLookup resolves the buyer's customer-group memberships.
type GroupLookup interface {
	GroupIDs(ctx context.Context, buyer customers.Buyer) ([]uuid.UUID, error)
}

// Validator gates buyer access to offers. Mutations surface the failing
// gate as an error; read paths use Visible and hide the offer instead.
type Validator struct {
	groups GroupLookup
	now    func() time.Time
}

func NewValidator(groups GroupLookup, now func() time.Time) (*Validator, error) {
	if groups == nil {
		return nil, fmt.Errorf("group lookup required")
	}
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Validator{groups: groups, now: now}, nil
}

// WithGroups returns a validator that answers membership lookups from ids
// resolved earlier, for callers that must not query outside their
// transaction.
func (v *Validator) WithGroups(ids []uuid.UUID) *Validator {
	return &Validator{groups: staticGroups(ids), now: v.now}
}

type staticGroups []uuid.UUID

func (g staticGroups) GroupIDs(context.Context, customers.Buyer) ([]uuid.UUID, error) {
	return g, nil
}

// Now returns the validator's clock reading.
func (v *Validator) Now() time.Time {
	return v.now()
}

// ValidateOfferForBuyer runs the status, validity window and group gates in
// order. Group memberships are only looked up for filtered offers.
func (v *Validator) ValidateOfferForBuyer(ctx context.Context, offer *models.Offer, buyer customers.Buyer) error {
	if err := CheckWindow(offer, v.now()); err != nil {
		return err
	}
	if len(offer.CustomerGroupFilters) == 0 {
		return nil
	}
	if !buyer.Authenticated() {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "This offer requires authentication")
	}
	groupIDs, err := v.groups.GroupIDs(ctx, buyer)
	if err != nil {
		return err
	}
	return CheckGroups(offer, groupIDs)
}

// Visible reports whether the buyer may see the offer. Only lookup
// failures are returned as errors.
func (v *Validator) Visible(ctx context.Context, offer *models.Offer, buyer customers.Buyer) (bool, error) {
	err := v.ValidateOfferForBuyer(ctx, offer, buyer)
	if err == nil {
		return true, nil
	}
	if isGateFailure(err) {
		return false, nil
	}
	return false, err
}

// CheckWindow enforces the status and validity window gates.
func CheckWindow(offer *models.Offer, now time.Time) error {
	if offer.Status != enums.OfferStatusActive {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "Offer is not active")
	}
	if now.Before(offer.ValidFrom) {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "Offer is not yet valid")
	}
	if offer.ValidUntil != nil && !now.Before(*offer.ValidUntil) {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "Offer has expired")
	}
	return nil
}

// CheckGroups passes when the offer is public or the buyer shares at least
// one group with its filter.
func CheckGroups(offer *models.Offer, buyerGroupIDs []uuid.UUID) error {
	if len(offer.CustomerGroupFilters) == 0 {
		return nil
	}
	member := make(map[uuid.UUID]struct{}, len(buyerGroupIDs))
	for _, id := range buyerGroupIDs {
		member[id] = struct{}{}
	}
	for _, group := range offer.CustomerGroupFilters {
		if _, ok := member[group.ID]; ok {
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "You do not have access to this offer")
}

// CheckQuantityLimit rejects a new add that would take the line item past
// its offer-specific limit.
func CheckQuantityLimit(item *models.OfferLineItem, requested, ordered int) error {
	remaining := Remaining(item, ordered)
	if remaining == nil || requested <= *remaining {
		return nil
	}
	return pkgerrors.Newf(pkgerrors.CodeStateConflict,
		"Quantity %d exceeds available quantity (%d remaining)", requested, *remaining).
		WithDetails(map[string]any{"remaining": *remaining})
}

// CheckAdjustedQuantityLimit is CheckQuantityLimit for an existing line.
// The ledger already counts the line's current quantity, so it is added
// back before comparing.
func CheckAdjustedQuantityLimit(item *models.OfferLineItem, requested, ordered, current int) error {
	remaining := Remaining(item, ordered)
	if remaining == nil {
		return nil
	}
	available := *remaining + current
	if requested <= available {
		return nil
	}
	return pkgerrors.Newf(pkgerrors.CodeStateConflict,
		"Quantity %d exceeds available quantity (%d available)", requested, available).
		WithDetails(map[string]any{"available": available})
}

func isGateFailure(err error) bool {
	return pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) ||
		pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) ||
		pkgerrors.IsCode(err, pkgerrors.CodeForbidden)
}
