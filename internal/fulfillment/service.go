// Package fulfillment manages the pickup and delivery options sellers
// attach to their offers.
package fulfillment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/JoeyLyman/yaycsa/pkg/db/models"
	"github.com/JoeyLyman/yaycsa/pkg/enums"
	pkgerrors "github.com/JoeyLyman/yaycsa/pkg/errors"
	"github.com/JoeyLyman/yaycsa/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type defaultChannelResolver interface {
	Default(ctx context.Context) (*models.Channel, error)
}

type Service struct {
	repo     *Repository
	tx       txRunner
	channels defaultChannelResolver
}

func NewService(repo *Repository, tx txRunner, channels defaultChannelResolver) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("fulfillment repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if channels == nil {
		return nil, fmt.Errorf("channel resolver required")
	}
	return &Service{repo: repo, tx: tx, channels: channels}, nil
}

func (s *Service) List(ctx context.Context, channelID uuid.UUID, params ListParams) (*ListResult, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, next, err := s.repo.List(ctx, channelID, params.Limit, cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list fulfillment options")
	}
	items := make([]OptionDTO, 0, len(rows))
	for i := range rows {
		items = append(items, NewOptionDTO(&rows[i]))
	}
	result := &ListResult{Items: items}
	if next != nil {
		result.Cursor = pagination.EncodeCursor(*next)
	}
	return result, nil
}

func (s *Service) Get(ctx context.Context, channelID, id uuid.UUID) (*OptionDTO, error) {
	option, err := s.repo.FindInChannel(ctx, channelID, id)
	if err != nil {
		return nil, lookupErr(err, id)
	}
	dto := NewOptionDTO(option)
	return &dto, nil
}

// Create stores an option for the seller owning the request channel and
// assigns it to that channel and the default channel.
func (s *Service) Create(ctx context.Context, channel *models.Channel, input CreateInput) (*OptionDTO, error) {
	if channel == nil || channel.SellerID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Cannot create fulfillment option without a seller channel")
	}
	if err := validateEnums(&input.Type, input.Recurrence); err != nil {
		return nil, err
	}

	option := &models.FulfillmentOption{
		Code:                       strings.TrimSpace(input.Code),
		Name:                       strings.TrimSpace(input.Name),
		Type:                       input.Type,
		Description:                input.Description,
		Active:                     true,
		Recurrence:                 input.Recurrence,
		FulfillmentStartDate:       input.FulfillmentStartDate,
		FulfillmentEndDate:         input.FulfillmentEndDate,
		FulfillmentTimeDescription: input.FulfillmentTimeDescription,
		DeadlineOffsetHours:        input.DeadlineOffsetHours,
		SellerID:                   *channel.SellerID,
	}
	if input.Active != nil {
		option.Active = *input.Active
	}
	if input.SortOrder != nil {
		option.SortOrder = *input.SortOrder
	}

	def, err := s.channels.Default(ctx)
	if err != nil {
		return nil, err
	}
	option.Channels = []models.Channel{*channel}
	if def.ID != channel.ID {
		option.Channels = append(option.Channels, *def)
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, option); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create fulfillment option")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	dto := NewOptionDTO(option)
	return &dto, nil
}

func (s *Service) Update(ctx context.Context, channelID uuid.UUID, input UpdateInput) (*OptionDTO, error) {
	if err := validateEnums(input.Type, input.Recurrence.Value); err != nil {
		return nil, err
	}
	var updated *models.FulfillmentOption
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.FindInChannel(ctx, channelID, input.ID); err != nil {
			return lookupErr(err, input.ID)
		}

		updates := map[string]any{}
		if input.Code != nil {
			updates["code"] = strings.TrimSpace(*input.Code)
		}
		if input.Name != nil {
			updates["name"] = strings.TrimSpace(*input.Name)
		}
		if input.Type != nil {
			updates["type"] = *input.Type
		}
		if input.Active != nil {
			updates["active"] = *input.Active
		}
		if input.SortOrder != nil {
			updates["sort_order"] = *input.SortOrder
		}
		if input.Description.Set {
			updates["description"] = input.Description.Value
		}
		if input.Recurrence.Set {
			updates["recurrence"] = input.Recurrence.Value
		}
		if input.FulfillmentStartDate.Set {
			updates["fulfillment_start_date"] = input.FulfillmentStartDate.Value
		}
		if input.FulfillmentEndDate.Set {
			updates["fulfillment_end_date"] = input.FulfillmentEndDate.Value
		}
		if input.FulfillmentTimeDescription.Set {
			updates["fulfillment_time_description"] = input.FulfillmentTimeDescription.Value
		}
		if input.DeadlineOffsetHours.Set {
			updates["deadline_offset_hours"] = input.DeadlineOffsetHours.Value
		}
		if err := repo.Update(ctx, input.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update fulfillment option")
		}

		var err error
		updated, err = repo.FindInChannel(ctx, channelID, input.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	dto := NewOptionDTO(updated)
	return &dto, nil
}

// Delete reports NOT_DELETED rather than failing when the option is not
// visible in the channel.
func (s *Service) Delete(ctx context.Context, channelID, id uuid.UUID) (*DeletionResponse, error) {
	var resp *DeletionResponse
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.FindInChannel(ctx, channelID, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				resp = &DeletionResponse{
					Result:  NotDeleted,
					Message: fmt.Sprintf("FulfillmentOption with id '%s' not found", id),
				}
				return nil
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load fulfillment option")
		}
		if err := repo.Delete(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete fulfillment option")
		}
		resp = &DeletionResponse{Result: Deleted}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// FindForOrder returns the option when it is active and assigned to the
// channel. Checkout calls it inside its transaction.
func (s *Service) FindForOrder(ctx context.Context, tx *gorm.DB, channelID, id uuid.UUID) (*models.FulfillmentOption, error) {
	option, err := s.repo.WithTx(tx).FindInChannel(ctx, channelID, id)
	if err != nil {
		return nil, lookupErr(err, id)
	}
	if !option.Active {
		return nil, pkgerrors.Newf(pkgerrors.CodeStateConflict, "FulfillmentOption with id '%s' is not active", id)
	}
	return option, nil
}

func validateEnums(kind *enums.FulfillmentType, recurrence *enums.Recurrence) error {
	if kind != nil && !kind.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "type must be pickup or delivery")
	}
	if recurrence != nil && !recurrence.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid recurrence")
	}
	return nil
}

func lookupErr(err error, id uuid.UUID) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Newf(pkgerrors.CodeNotFound, "FulfillmentOption with id '%s' not found", id)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load fulfillment option")
}
