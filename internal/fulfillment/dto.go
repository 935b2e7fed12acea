package fulfillment

import (
	"time"

	"github.com/google/uuid"

	"github.com/JoeyLyman/yaycsa/pkg/db/models"
	"github.com/JoeyLyman/yaycsa/pkg/enums"
	"github.com/JoeyLyman/yaycsa/pkg/pagination"
	"github.com/JoeyLyman/yaycsa/pkg/types"
)

type CreateInput struct {
	Code                       string                `json:"code" validate:"required,max=64"`
	Name                       string                `json:"name" validate:"required,max=255"`
	Type                       enums.FulfillmentType `json:"type" validate:"required,enum"`
	Description                *string               `json:"description,omitempty"`
	Active                     *bool                 `json:"active,omitempty"`
	SortOrder                  *int                  `json:"sortOrder,omitempty"`
	Recurrence                 *enums.Recurrence     `json:"recurrence,omitempty" validate:"omitempty,enum"`
	FulfillmentStartDate       *time.Time            `json:"fulfillmentStartDate,omitempty"`
	FulfillmentEndDate         *time.Time            `json:"fulfillmentEndDate,omitempty"`
	FulfillmentTimeDescription *string               `json:"fulfillmentTimeDescription,omitempty"`
	DeadlineOffsetHours        *int                  `json:"deadlineOffsetHours,omitempty" validate:"omitempty,gte=0"`
}

// UpdateInput patches an option. Nullable fields may be cleared with an
// explicit null.
type UpdateInput struct {
	ID                         uuid.UUID                        `json:"-"`
	Code                       *string                          `json:"code,omitempty" validate:"omitempty,max=64"`
	Name                       *string                          `json:"name,omitempty" validate:"omitempty,max=255"`
	Type                       *enums.FulfillmentType           `json:"type,omitempty" validate:"omitempty,enum"`
	Description                types.Nullable[string]           `json:"description"`
	Active                     *bool                            `json:"active,omitempty"`
	SortOrder                  *int                             `json:"sortOrder,omitempty"`
	Recurrence                 types.Nullable[enums.Recurrence] `json:"recurrence"`
	FulfillmentStartDate       types.Nullable[time.Time]        `json:"fulfillmentStartDate"`
	FulfillmentEndDate         types.Nullable[time.Time]        `json:"fulfillmentEndDate"`
	FulfillmentTimeDescription types.Nullable[string]           `json:"fulfillmentTimeDescription"`
	DeadlineOffsetHours        types.Nullable[int]              `json:"deadlineOffsetHours"`
}

type OptionDTO struct {
	ID                         uuid.UUID             `json:"id"`
	Code                       string                `json:"code"`
	Name                       string                `json:"name"`
	Type                       enums.FulfillmentType `json:"type"`
	Description                *string               `json:"description"`
	Active                     bool                  `json:"active"`
	SortOrder                  int                   `json:"sortOrder"`
	Recurrence                 *enums.Recurrence     `json:"recurrence"`
	FulfillmentStartDate       *time.Time            `json:"fulfillmentStartDate"`
	FulfillmentEndDate         *time.Time            `json:"fulfillmentEndDate"`
	FulfillmentTimeDescription *string               `json:"fulfillmentTimeDescription"`
	DeadlineOffsetHours        *int                  `json:"deadlineOffsetHours"`
	SellerID                   uuid.UUID             `json:"sellerId"`
	CreatedAt                  time.Time             `json:"createdAt"`
	UpdatedAt                  time.Time             `json:"updatedAt"`
}

func NewOptionDTO(o *models.FulfillmentOption) OptionDTO {
	return OptionDTO{
		ID:                         o.ID,
		Code:                       o.Code,
		Name:                       o.Name,
		Type:                       o.Type,
		Description:                o.Description,
		Active:                     o.Active,
		SortOrder:                  o.SortOrder,
		Recurrence:                 o.Recurrence,
		FulfillmentStartDate:       o.FulfillmentStartDate,
		FulfillmentEndDate:         o.FulfillmentEndDate,
		FulfillmentTimeDescription: o.FulfillmentTimeDescription,
		DeadlineOffsetHours:        o.DeadlineOffsetHours,
		SellerID:                   o.SellerID,
		CreatedAt:                  o.CreatedAt,
		UpdatedAt:                  o.UpdatedAt,
	}
}

type ListResult struct {
	Items  []OptionDTO `json:"items"`
	Cursor string      `json:"cursor"`
}

type DeletionResult string

const (
	Deleted    DeletionResult = "DELETED"
	NotDeleted DeletionResult = "NOT_DELETED"
)

type DeletionResponse struct {
	Result  DeletionResult `json:"result"`
	Message string         `json:"message,omitempty"`
}

type ListParams = pagination.Params
