package channels

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

// Service answers "which channel is this request in" and "which seller
// channel owns this variant".
type Service struct {
	repo         *Repository
	defaultToken string
}

func NewService(repo *Repository, defaultToken string) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("channels repository required")
	}
	return &Service{repo: repo, defaultToken: strings.TrimSpace(defaultToken)}, nil
}

// Resolve maps a request token to a channel. An empty token or the
// configured default token resolves to the platform default channel.
func (s *Service) Resolve(ctx context.Context, token string) (*models.Channel, error) {
	token = strings.TrimSpace(token)
	if token == "" || token == s.defaultToken {
		return s.Default(ctx)
	}
	channel, err := s.repo.FindByToken(ctx, token)
	if err != nil {
		return nil, mapLookupErr(err, "channel not found")
	}
	return channel, nil
}

func (s *Service) Default(ctx context.Context) (*models.Channel, error) {
	channel, err := s.repo.FindDefault(ctx)
	if err != nil {
		return nil, mapLookupErr(err, "default channel not configured")
	}
	return channel, nil
}

// SellerChannel returns the channel owned by the seller.
func (s *Service) SellerChannel(ctx context.Context, sellerID uuid.UUID) (*models.Channel, error) {
	channel, err := s.repo.FindBySeller(ctx, sellerID)
	if err != nil {
		return nil, mapLookupErr(err, "seller channel not found")
	}
	return channel, nil
}

// SellerChannelForVariant picks the variant's membership that is not the
// default channel. It returns nil when the variant only lives in the
// default channel.
func (s *Service) SellerChannelForVariant(ctx context.Context, tx *gorm.DB, variantID uuid.UUID) (*models.Channel, error) {
	memberships, err := s.repo.WithTx(tx).VariantChannels(ctx, variantID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load variant channels")
	}
	for i := range memberships {
		if !memberships[i].IsDefault {
			return &memberships[i], nil
		}
	}
	return nil, nil
}

func mapLookupErr(err error, notFound string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, notFound)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load channel")
}
