// Package marketplace lists the sellers buyers can browse.
package marketplace

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/JoeyLyman/yaycsa/pkg/db/models"
	pkgerrors "github.com/JoeyLyman/yaycsa/pkg/errors"
)

type defaultChannelResolver interface {
	Default(ctx context.Context) (*models.Channel, error)
}

type SellerDTO struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Slug string    `json:"slug"`
}

func newSellerDTO(s *models.Seller) SellerDTO {
	dto := SellerDTO{ID: s.ID, Name: s.Name}
	if s.Slug != nil {
		dto.Slug = *s.Slug
	}
	return dto
}

type Service struct {
	repo     *Repository
	channels defaultChannelResolver
	now      func() time.Time
}

func NewService(repo *Repository, channels defaultChannelResolver, now func() time.Time) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("marketplace repository required")
	}
	if channels == nil {
		return nil, fmt.Errorf("channel resolver required")
	}
	if now == nil {
		now = time.Now
	}
	return &Service{repo: repo, channels: channels, now: now}, nil
}

// ListSellers returns sellers with a public slug. With activeOffersOnly
// only sellers that currently run an active offer on the default channel
// are returned.
func (s *Service) ListSellers(ctx context.Context, activeOffersOnly bool) ([]SellerDTO, error) {
	q := sellerQuery{Now: s.now().UTC()}
	if activeOffersOnly {
		def, err := s.channels.Default(ctx)
		if err != nil {
			return nil, err
		}
		q.WithOfferIn = &def.ID
	}
	rows, err := s.repo.ListSellers(ctx, q)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list sellers")
	}
	out := make([]SellerDTO, 0, len(rows))
	for i := range rows {
		out = append(out, newSellerDTO(&rows[i]))
	}
	return out, nil
}

func (s *Service) SellerBySlug(ctx context.Context, slug string) (*SellerDTO, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "slug is required")
	}
	seller, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "Seller with slug '%s' not found", slug)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load seller")
	}
	dto := newSellerDTO(seller)
	return &dto, nil
}
