package offers

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/JoeyLyman/yaycsa/internal/customers"
	"github.com/JoeyLyman/yaycsa/pkg/db/models"
	"github.com/JoeyLyman/yaycsa/pkg/enums"
	pkgerrors "github.com/JoeyLyman/yaycsa/pkg/errors"
	"github.com/JoeyLyman/yaycsa/pkg/logger"
	"github.com/JoeyLyman/yaycsa/pkg/outbox"
	"github.com/JoeyLyman/yaycsa/pkg/outbox/payloads"
	"github.com/JoeyLyman/yaycsa/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event payloads.Event, actor *outbox.ActorRef) error
}

type defaultChannelResolver interface {
	Default(ctx context.Context) (*models.Channel, error)
}

type groupOwnership interface {
	GroupsForSeller(ctx context.Context, tx *gorm.DB, sellerID uuid.UUID, ids []uuid.UUID) ([]models.CustomerGroup, error)
}

// Deps bundles the collaborators of the offer service.
type Deps struct {
	Repo      *Repository
	Tx        txRunner
	Outbox    outboxPublisher
	Validator *Validator
	Groups    GroupLookup
	Ownership groupOwnership
	Channels  defaultChannelResolver
	Logger    *logger.Logger
}

type Service struct {
	repo      *Repository
	tx        txRunner
	outbox    outboxPublisher
	validator *Validator
	groups    GroupLookup
	ownership groupOwnership
	channels  defaultChannelResolver
	logg      *logger.Logger
}

func NewService(deps Deps) (*Service, error) {
	switch {
	case deps.Repo == nil:
		return nil, fmt.Errorf("offers repository required")
	case deps.Tx == nil:
		return nil, fmt.Errorf("transaction runner required")
	case deps.Outbox == nil:
		return nil, fmt.Errorf("outbox publisher required")
	case deps.Validator == nil:
		return nil, fmt.Errorf("offer validator required")
	case deps.Groups == nil:
		return nil, fmt.Errorf("group lookup required")
	case deps.Ownership == nil:
		return nil, fmt.Errorf("group ownership check required")
	case deps.Channels == nil:
		return nil, fmt.Errorf("channel resolver required")
	case deps.Logger == nil:
		return nil, fmt.Errorf("logger required")
	}
	return &Service{
		repo:      deps.Repo,
		tx:        deps.Tx,
		outbox:    deps.Outbox,
		validator: deps.Validator,
		groups:    deps.Groups,
		ownership: deps.Ownership,
		channels:  deps.Channels,
		logg:      deps.Logger,
	}, nil
}

func (s *Service) List(ctx context.Context, channelID uuid.UUID, params ListParams) (*ListResult, error) {
	q := listQuery{
		ChannelID: channelID,
		Limit:     params.Limit,
		Status:    params.Status,
		SellerID:  params.SellerID,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		q.Cursor = cursor
	}
	if q.Status != nil && !q.Status.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid offer status %q", *q.Status)
	}

	rows, next, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list offers")
	}
	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ListResult{Items: newOfferDTOs(rows, true), Cursor: cursor}, nil
}

func (s *Service) Get(ctx context.Context, channelID, id uuid.UUID) (*OfferDTO, error) {
	offer, err := s.repo.FindOfferInChannel(ctx, channelID, id)
	if err != nil {
		return nil, offerLookupErr(err, id)
	}
	dto := NewOfferDTO(offer, true)
	return &dto, nil
}

// ListActiveForBuyer returns the channel's current offers the buyer may
// see. Anonymous buyers only see offers without a group filter.
func (s *Service) ListActiveForBuyer(ctx context.Context, channelID uuid.UUID, buyer customers.Buyer, sellerID *uuid.UUID) ([]OfferDTO, error) {
	rows, err := s.repo.ListCurrent(ctx, channelID, s.validator.Now(), sellerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list active offers")
	}

	var groupIDs []uuid.UUID
	if buyer.Authenticated() {
		groupIDs, err = s.groups.GroupIDs(ctx, buyer)
		if err != nil {
			return nil, err
		}
	}

	visible := make([]OfferDTO, 0, len(rows))
	for i := range rows {
		offer := &rows[i]
		if len(offer.CustomerGroupFilters) > 0 && !buyer.Authenticated() {
			continue
		}
		if CheckGroups(offer, groupIDs) != nil {
			continue
		}
		visible = append(visible, NewOfferDTO(offer, false))
	}
	return visible, nil
}

// Create stores a draft offer for the seller owning the request channel
// and assigns it to that channel and the default channel.
func (s *Service) Create(ctx context.Context, channel *models.Channel, input CreateOfferInput) (*OfferDTO, error) {
	if channel == nil || channel.SellerID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Cannot create offer without a seller channel")
	}
	sellerID := *channel.SellerID
	if err := checkWindowInput(input.ValidFrom, input.ValidUntil); err != nil {
		return nil, err
	}

	items := make([]models.OfferLineItem, 0, len(input.LineItems))
	for i, in := range input.LineItems {
		items = append(items, newLineItem(uuid.Nil, in, i))
	}
	if err := validateLineItems(items); err != nil {
		return nil, err
	}

	defaultChannel, err := s.channels.Default(ctx)
	if err != nil {
		return nil, err
	}

	allowLate := true
	if input.AllowLateOrders != nil {
		allowLate = *input.AllowLateOrders
	}
	offer := &models.Offer{
		SellerID:        sellerID,
		Status:          enums.OfferStatusDraft,
		ValidFrom:       input.ValidFrom.UTC(),
		ValidUntil:      utcPtr(input.ValidUntil),
		AllowLateOrders: allowLate,
		Notes:           input.Notes,
		InternalNotes:   input.InternalNotes,
		LineItems:       items,
		Channels:        channelSet(channel, defaultChannel),
	}

	var created *models.Offer
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		groups, err := s.ownership.GroupsForSeller(ctx, tx, sellerID, input.CustomerGroupFilterIDs)
		if err != nil {
			return err
		}
		options, err := s.loadFulfillmentOptions(ctx, repo, sellerID, input.FulfillmentOptionIDs)
		if err != nil {
			return err
		}
		offer.CustomerGroupFilters = groups
		offer.FulfillmentOptions = options

		if err := repo.Create(ctx, offer); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create offer")
		}
		created, err = repo.FindOffer(ctx, offer.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload offer")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"offer_id":   created.ID.String(),
		"seller_id":  sellerID.String(),
		"line_items": len(created.LineItems),
	})
	s.logg.Info(logCtx, "offer.created")

	dto := NewOfferDTO(created, true)
	return &dto, nil
}

// Update patches offer fields and associations and removes, updates and
// adds line items, in that order.
func (s *Service) Update(ctx context.Context, channelID uuid.UUID, input UpdateOfferInput) (*OfferDTO, error) {
	var updated *models.Offer
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		offer, err := repo.FindOfferInChannel(ctx, channelID, input.ID)
		if err != nil {
			return offerLookupErr(err, input.ID)
		}

		validFrom := offer.ValidFrom
		validUntil := offer.ValidUntil
		updates := map[string]any{}
		if input.ValidFrom != nil {
			validFrom = input.ValidFrom.UTC()
			updates["valid_from"] = validFrom
		}
		if input.ValidUntil.Set {
			validUntil = utcPtr(input.ValidUntil.Value)
			updates["valid_until"] = validUntil
		}
		if err := checkWindowInput(validFrom, validUntil); err != nil {
			return err
		}
		if input.AllowLateOrders != nil {
			updates["allow_late_orders"] = *input.AllowLateOrders
		}
		if input.Notes.Set {
			updates["notes"] = input.Notes.Value
		}
		if input.InternalNotes.Set {
			updates["internal_notes"] = input.InternalNotes.Value
		}
		if err := repo.UpdateFields(ctx, offer.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update offer")
		}

		if input.FulfillmentOptionIDs != nil {
			options, err := s.loadFulfillmentOptions(ctx, repo, offer.SellerID, *input.FulfillmentOptionIDs)
			if err != nil {
				return err
			}
			if err := repo.ReplaceFulfillmentOptions(ctx, offer, options); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replace fulfillment options")
			}
		}
		if input.CustomerGroupFilterIDs != nil {
			groups, err := s.ownership.GroupsForSeller(ctx, tx, offer.SellerID, *input.CustomerGroupFilterIDs)
			if err != nil {
				return err
			}
			if err := repo.ReplaceCustomerGroups(ctx, offer, groups); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replace customer groups")
			}
		}

		if err := repo.DeleteLineItems(ctx, offer.ID, input.RemoveLineItemIDs); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove line items")
		}

		touched := make([]models.OfferLineItem, 0, len(input.UpdateLineItems))
		for _, patch := range input.UpdateLineItems {
			// removed items are gone even when the same request patches them
			if slices.Contains(input.RemoveLineItemIDs, patch.ID) {
				continue
			}
			item := findLineItem(offer.LineItems, patch.ID)
			if item == nil {
				continue
			}
			applyLineItemUpdate(item, patch)
			touched = append(touched, *item)
		}
		added := make([]models.OfferLineItem, 0, len(input.AddLineItems))
		for i, in := range input.AddLineItems {
			added = append(added, newLineItem(offer.ID, in, len(offer.LineItems)+i))
		}
		if err := validateLineItems(append(append([]models.OfferLineItem{}, touched...), added...)); err != nil {
			return err
		}
		for i := range touched {
			if err := repo.SaveLineItem(ctx, &touched[i]); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update line item")
			}
		}
		if err := repo.CreateLineItems(ctx, added); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add line items")
		}

		updated, err = repo.FindOffer(ctx, offer.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload offer")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	dto := NewOfferDTO(updated, true)
	return &dto, nil
}

func (s *Service) Activate(ctx context.Context, channelID, id uuid.UUID, actor *outbox.ActorRef) (*OfferDTO, error) {
	return s.transition(ctx, channelID, id, enums.OfferStatusActive, actor)
}

func (s *Service) Pause(ctx context.Context, channelID, id uuid.UUID, actor *outbox.ActorRef) (*OfferDTO, error) {
	return s.transition(ctx, channelID, id, enums.OfferStatusPaused, actor)
}

func (s *Service) Expire(ctx context.Context, channelID, id uuid.UUID, actor *outbox.ActorRef) (*OfferDTO, error) {
	return s.transition(ctx, channelID, id, enums.OfferStatusExpired, actor)
}

func (s *Service) transition(ctx context.Context, channelID, id uuid.UUID, status enums.OfferStatus, actor *outbox.ActorRef) (*OfferDTO, error) {
	var (
		offer    *models.Offer
		previous enums.OfferStatus
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := repo.FindOfferInChannel(ctx, channelID, id)
		if err != nil {
			return offerLookupErr(err, id)
		}
		previous = current.Status
		if _, err := repo.SetStatus(ctx, id, status); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update offer status")
		}
		current.Status = status

		event := payloads.OfferStatusChangedEvent{
			OfferID:        current.ID,
			SellerID:       current.SellerID,
			PreviousStatus: previous,
			Status:         status,
		}
		if err := s.outbox.Emit(ctx, tx, event, actor); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit offer status event")
		}
		offer = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"offer_id":        offer.ID.String(),
		"previous_status": previous.String(),
		"status":          status.String(),
	})
	s.logg.Info(logCtx, "offer.status_changed")

	dto := NewOfferDTO(offer, true)
	return &dto, nil
}

// PrefillData returns the channel's most recent active offer, or nil.
func (s *Service) PrefillData(ctx context.Context, channelID uuid.UUID) (*OfferDTO, error) {
	offer, err := s.repo.LatestActive(ctx, channelID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load prefill offer")
	}
	dto := NewOfferDTO(offer, true)
	return &dto, nil
}

// OfferLineItemForBuyer returns the line item with live ledger figures, or
// nil when it does not exist or its offer fails any buyer gate.
func (s *Service) OfferLineItemForBuyer(ctx context.Context, buyer customers.Buyer, id uuid.UUID) (*LineItemView, error) {
	item, err := s.repo.FindLineItem(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load offer line item")
	}
	visible, err := s.validator.Visible(ctx, item.Offer, buyer)
	if err != nil {
		return nil, err
	}
	if !visible {
		return nil, nil
	}
	ordered, err := s.repo.QuantityOrdered(ctx, item.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "compute quantity ordered")
	}
	return &LineItemView{
		LineItemDTO:       NewLineItemDTO(item),
		QuantityOrdered:   ordered,
		QuantityRemaining: Remaining(item, ordered),
	}, nil
}

func (s *Service) loadFulfillmentOptions(ctx context.Context, repo *Repository, sellerID uuid.UUID, ids []uuid.UUID) ([]models.FulfillmentOption, error) {
	if len(ids) == 0 {
		return []models.FulfillmentOption{}, nil
	}
	options, err := repo.FindFulfillmentOptions(ctx, sellerID, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load fulfillment options")
	}
	found := make(map[uuid.UUID]struct{}, len(options))
	for _, o := range options {
		found[o.ID] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "FulfillmentOption '%s' not found", id)
		}
	}
	return options, nil
}

func offerLookupErr(err error, id uuid.UUID) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Newf(pkgerrors.CodeNotFound, "Offer with id '%s' not found", id)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load offer")
}

func checkWindowInput(from time.Time, until *time.Time) error {
	if from.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "validFrom is required")
	}
	if until != nil && !until.After(from) {
		return pkgerrors.New(pkgerrors.CodeValidation, "validUntil must be after validFrom")
	}
	return nil
}

func findLineItem(items []models.OfferLineItem, id uuid.UUID) *models.OfferLineItem {
	for i := range items {
		if items[i].ID == id {
			return &items[i]
		}
	}
	return nil
}

func channelSet(channels ...*models.Channel) []models.Channel {
	seen := make(map[uuid.UUID]struct{}, len(channels))
	out := make([]models.Channel, 0, len(channels))
	for _, ch := range channels {
		if ch == nil {
			continue
		}
		if _, ok := seen[ch.ID]; ok {
			continue
		}
		seen[ch.ID] = struct{}{}
		out = append(out, *ch)
	}
	return out
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
