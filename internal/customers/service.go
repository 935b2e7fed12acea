package customers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/JoeyLyman/yaycsa/pkg/db/models"
	pkgerrors "github.com/JoeyLyman/yaycsa/pkg/errors"
)

// Buyer identifies who is shopping. Authenticated buyers carry a customer
// id; guests are tracked by their session token only.
type Buyer struct {
	CustomerID   *uuid.UUID
	SessionToken string
}

// Authenticated reports whether the buyer is a known customer.
func (b Buyer) Authenticated() bool {
	return b.CustomerID != nil && *b.CustomerID != uuid.Nil
}

// Identified reports whether the buyer can own an order.
func (b Buyer) Identified() bool {
	return b.Authenticated() || strings.TrimSpace(b.SessionToken) != ""
}

type Service struct {
	repo *Repository
}

func NewService(repo *Repository) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("customers repository required")
	}
	return &Service{repo: repo}, nil
}

// GroupIDs returns the buyer's customer-group memberships. Guests belong
// to no group.
func (s *Service) GroupIDs(ctx context.Context, buyer Buyer) ([]uuid.UUID, error) {
	if !buyer.Authenticated() {
		return nil, nil
	}
	ids, err := s.repo.GroupIDsForCustomer(ctx, *buyer.CustomerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer groups")
	}
	return ids, nil
}

// CustomerIDForUser maps an authenticated user to their customer record.
// A user without one is treated as a guest.
func (s *Service) CustomerIDForUser(ctx context.Context, userID uuid.UUID) (*uuid.UUID, error) {
	customer, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}
	return &customer.ID, nil
}

// GroupsForSeller loads the groups and checks each is global or owned by
// the seller.
func (s *Service) GroupsForSeller(ctx context.Context, tx *gorm.DB, sellerID uuid.UUID, ids []uuid.UUID) ([]models.CustomerGroup, error) {
	if len(ids) == 0 {
		return []models.CustomerGroup{}, nil
	}
	groups, err := s.repo.WithTx(tx).FindGroups(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer groups")
	}
	byID := make(map[uuid.UUID]models.CustomerGroup, len(groups))
	for _, g := range groups {
		byID[g.ID] = g
	}
	out := make([]models.CustomerGroup, 0, len(ids))
	for _, id := range ids {
		group, ok := byID[id]
		if !ok {
			return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "CustomerGroup '%s' not found", id)
		}
		if group.SellerID != nil && *group.SellerID != sellerID {
			return nil, pkgerrors.Newf(pkgerrors.CodeForbidden, "CustomerGroup '%s' belongs to a different seller", id)
		}
		out = append(out, group)
	}
	return out, nil
}
