package offers

import (
	"time"

	"github.com/google/uuid"

	"github.com/JoeyLyman/yaycsa/pkg/db/models"
	"github.com/JoeyLyman/yaycsa/pkg/enums"
	"github.com/JoeyLyman/yaycsa/pkg/pagination"
	"github.com/JoeyLyman/yaycsa/pkg/types"
)

// LineItemInput describes a line item to create. Nil optionals take the
// documented defaults.
type LineItemInput struct {
	ProductVariantID  uuid.UUID                `json:"productVariantId" validate:"required"`
	Price             int                      `json:"price" validate:"gte=0"`
	PriceIncludesTax  *bool                    `json:"priceIncludesTax,omitempty"`
	PricingMode       *enums.PricingMode       `json:"pricingMode,omitempty" validate:"omitempty,enum"`
	PriceTiers        []models.PriceTier       `json:"priceTiers,omitempty"`
	QuantityLimitMode *enums.QuantityLimitMode `json:"quantityLimitMode,omitempty" validate:"omitempty,enum"`
	QuantityLimit     *int                     `json:"quantityLimit,omitempty" validate:"omitempty,gte=0"`
	AutoConfirm       *bool                    `json:"autoConfirm,omitempty"`
	Notes             *string                  `json:"notes,omitempty"`
	SortOrder         *int                     `json:"sortOrder,omitempty"`
}

type CreateOfferInput struct {
	ValidFrom              time.Time       `json:"validFrom" validate:"required"`
	ValidUntil             *time.Time      `json:"validUntil,omitempty"`
	CustomerGroupFilterIDs []uuid.UUID     `json:"customerGroupFilterIds,omitempty"`
	FulfillmentOptionIDs   []uuid.UUID     `json:"fulfillmentOptionIds"`
	LineItems              []LineItemInput `json:"lineItems" validate:"dive"`
	AllowLateOrders        *bool           `json:"allowLateOrders,omitempty"`
	Notes                  *string         `json:"notes,omitempty"`
	InternalNotes          *string         `json:"internalNotes,omitempty"`
}

// UpdateLineItemInput patches one existing line item. Nullable fields
// distinguish "clear" from "leave unchanged".
type UpdateLineItemInput struct {
	ID                uuid.UUID                          `json:"id" validate:"required"`
	Price             *int                               `json:"price,omitempty" validate:"omitempty,gte=0"`
	PriceIncludesTax  *bool                              `json:"priceIncludesTax,omitempty"`
	PricingMode       *enums.PricingMode                 `json:"pricingMode,omitempty" validate:"omitempty,enum"`
	PriceTiers        types.Nullable[[]models.PriceTier] `json:"priceTiers"`
	QuantityLimitMode *enums.QuantityLimitMode           `json:"quantityLimitMode,omitempty" validate:"omitempty,enum"`
	QuantityLimit     types.Nullable[int]                `json:"quantityLimit"`
	AutoConfirm       *bool                              `json:"autoConfirm,omitempty"`
	Notes             types.Nullable[string]             `json:"notes"`
	SortOrder         *int                               `json:"sortOrder,omitempty"`
}

type UpdateOfferInput struct {
	ID                     uuid.UUID                 `json:"-"`
	ValidFrom              *time.Time                `json:"validFrom,omitempty"`
	ValidUntil             types.Nullable[time.Time] `json:"validUntil"`
	CustomerGroupFilterIDs *[]uuid.UUID              `json:"customerGroupFilterIds,omitempty"`
	FulfillmentOptionIDs   *[]uuid.UUID              `json:"fulfillmentOptionIds,omitempty"`
	AllowLateOrders        *bool                     `json:"allowLateOrders,omitempty"`
	Notes                  types.Nullable[string]    `json:"notes"`
	InternalNotes          types.Nullable[string]    `json:"internalNotes"`
	AddLineItems           []LineItemInput           `json:"addLineItems,omitempty" validate:"dive"`
	UpdateLineItems        []UpdateLineItemInput     `json:"updateLineItems,omitempty" validate:"dive"`
	RemoveLineItemIDs      []uuid.UUID               `json:"removeLineItemIds,omitempty"`
}

// ListParams filters the admin offer list.
type ListParams struct {
	pagination.Params
	Status   *enums.OfferStatus
	SellerID *uuid.UUID
}

type ListResult struct {
	Items  []OfferDTO `json:"items"`
	Cursor string     `json:"cursor"`
}

type VariantSummary struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	SKU      string    `json:"sku"`
	UnitType *string   `json:"unitType,omitempty"`
}

type FulfillmentOptionSummary struct {
	ID   uuid.UUID             `json:"id"`
	Code string                `json:"code"`
	Name string                `json:"name"`
	Type enums.FulfillmentType `json:"type"`
}

type LineItemDTO struct {
	ID                uuid.UUID               `json:"id"`
	OfferID           uuid.UUID               `json:"offerId"`
	ProductVariantID  uuid.UUID               `json:"productVariantId"`
	ProductVariant    *VariantSummary         `json:"productVariant,omitempty"`
	Price             int                     `json:"price"`
	PriceIncludesTax  bool                    `json:"priceIncludesTax"`
	PricingMode       enums.PricingMode       `json:"pricingMode"`
	PriceTiers        []models.PriceTier      `json:"priceTiers"`
	QuantityLimitMode enums.QuantityLimitMode `json:"quantityLimitMode"`
	QuantityLimit     *int                    `json:"quantityLimit"`
	AutoConfirm       bool                    `json:"autoConfirm"`
	Notes             *string                 `json:"notes"`
	SortOrder         int                     `json:"sortOrder"`
}

// LineItemView is a line item as a buyer sees it, with the live ledger
// figures attached.
type LineItemView struct {
	LineItemDTO
	QuantityOrdered   int  `json:"quantityOrdered"`
	QuantityRemaining *int `json:"quantityRemaining"`
}

type OfferDTO struct {
	ID                     uuid.UUID                  `json:"id"`
	SellerID               uuid.UUID                  `json:"sellerId"`
	Status                 enums.OfferStatus          `json:"status"`
	ValidFrom              time.Time                  `json:"validFrom"`
	ValidUntil             *time.Time                 `json:"validUntil"`
	AllowLateOrders        bool                       `json:"allowLateOrders"`
	Notes                  *string                    `json:"notes"`
	InternalNotes          *string                    `json:"internalNotes,omitempty"`
	CustomerGroupFilterIDs []uuid.UUID                `json:"customerGroupFilterIds"`
	FulfillmentOptions     []FulfillmentOptionSummary `json:"fulfillmentOptions"`
	LineItems              []LineItemDTO              `json:"lineItems"`
	CreatedAt              time.Time                  `json:"createdAt"`
	UpdatedAt              time.Time                  `json:"updatedAt"`
}

// NewOfferDTO maps the offer for responses. Internal notes are only kept
// for administrators.
func NewOfferDTO(offer *models.Offer, includeInternal bool) OfferDTO {
	dto := OfferDTO{
		ID:                     offer.ID,
		SellerID:               offer.SellerID,
		Status:                 offer.Status,
		ValidFrom:              offer.ValidFrom,
		ValidUntil:             offer.ValidUntil,
		AllowLateOrders:        offer.AllowLateOrders,
		Notes:                  offer.Notes,
		CustomerGroupFilterIDs: offer.CustomerGroupIDs(),
		FulfillmentOptions:     make([]FulfillmentOptionSummary, 0, len(offer.FulfillmentOptions)),
		LineItems:              make([]LineItemDTO, 0, len(offer.LineItems)),
		CreatedAt:              offer.CreatedAt,
		UpdatedAt:              offer.UpdatedAt,
	}
	if includeInternal {
		dto.InternalNotes = offer.InternalNotes
	}
	for _, fo := range offer.FulfillmentOptions {
		dto.FulfillmentOptions = append(dto.FulfillmentOptions, FulfillmentOptionSummary{
			ID:   fo.ID,
			Code: fo.Code,
			Name: fo.Name,
			Type: fo.Type,
		})
	}
	for i := range offer.LineItems {
		dto.LineItems = append(dto.LineItems, NewLineItemDTO(&offer.LineItems[i]))
	}
	return dto
}

func NewLineItemDTO(item *models.OfferLineItem) LineItemDTO {
	dto := LineItemDTO{
		ID:                item.ID,
		OfferID:           item.OfferID,
		ProductVariantID:  item.ProductVariantID,
		Price:             item.Price,
		PriceIncludesTax:  item.PriceIncludesTax,
		PricingMode:       item.PricingMode,
		PriceTiers:        item.PriceTiers,
		QuantityLimitMode: item.QuantityLimitMode,
		QuantityLimit:     item.QuantityLimit,
		AutoConfirm:       item.AutoConfirm,
		Notes:             item.Notes,
		SortOrder:         item.SortOrder,
	}
	if dto.PriceTiers == nil {
		dto.PriceTiers = []models.PriceTier{}
	}
	if v := item.ProductVariant; v != nil {
		dto.ProductVariant = &VariantSummary{ID: v.ID, Name: v.Name, SKU: v.SKU, UnitType: v.UnitType}
	}
	return dto
}

func newOfferDTOs(offers []models.Offer, includeInternal bool) []OfferDTO {
	out := make([]OfferDTO, 0, len(offers))
	for i := range offers {
		out = append(out, NewOfferDTO(&offers[i], includeInternal))
	}
	return out
}
