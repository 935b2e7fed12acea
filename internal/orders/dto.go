package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/JoeyLyman/yaycsa/pkg/db/models"
	"github.com/JoeyLyman/yaycsa/pkg/enums"
)

// LineFields are the offer attributes stored alongside an order line.
// Nil fields are left untouched on adjust.
type LineFields struct {
	OfferLineItemID      *uuid.UUID
	LineStatus           *enums.LineStatus
	SelectedCaseQuantity *int
	AgreedUnitPrice      *int
	BuyerNotes           *string
}

// OrderLineDTO is an order line as returned to buyers.
type OrderLineDTO struct {
	ID                   uuid.UUID         `json:"id"`
	ProductVariantID     uuid.UUID         `json:"productVariantId"`
	Quantity             int               `json:"quantity"`
	SellerChannelID      *uuid.UUID        `json:"sellerChannelId"`
	OfferLineItemID      *uuid.UUID        `json:"offerLineItemId"`
	LineStatus           *enums.LineStatus `json:"lineStatus"`
	SelectedCaseQuantity *int              `json:"selectedCaseQuantity"`
	AgreedUnitPrice      *int              `json:"agreedUnitPrice"`
	BuyerNotes           *string           `json:"buyerNotes"`
	LineTotal            int               `json:"lineTotal"`
}

// OrderDTO is an order with its lines. Subtotal only counts lines with an
// agreed unit price.
type OrderDTO struct {
	ID                  uuid.UUID             `json:"id"`
	Code                string                `json:"code"`
	State               enums.OrderState      `json:"state"`
	Active              bool                  `json:"active"`
	ChannelID           uuid.UUID             `json:"channelId"`
	AggregateOrderID    *uuid.UUID            `json:"aggregateOrderId,omitempty"`
	OfferID             *uuid.UUID            `json:"offerId,omitempty"`
	FulfillmentOptionID *uuid.UUID            `json:"fulfillmentOptionId,omitempty"`
	ShippingLines       []models.ShippingLine `json:"shippingLines"`
	PlacedAt            *time.Time            `json:"placedAt,omitempty"`
	Lines               []OrderLineDTO        `json:"lines"`
	TotalQuantity       int                   `json:"totalQuantity"`
	Subtotal            int                   `json:"subtotal"`
	CreatedAt           time.Time             `json:"createdAt"`
	UpdatedAt           time.Time             `json:"updatedAt"`
}

func NewOrderLineDTO(line *models.OrderLine) OrderLineDTO {
	dto := OrderLineDTO{
		ID:                   line.ID,
		ProductVariantID:     line.ProductVariantID,
		Quantity:             line.Quantity,
		SellerChannelID:      line.SellerChannelID,
		OfferLineItemID:      line.OfferLineItemID,
		LineStatus:           line.LineStatus,
		SelectedCaseQuantity: line.SelectedCaseQuantity,
		AgreedUnitPrice:      line.AgreedUnitPrice,
		BuyerNotes:           line.BuyerNotes,
	}
	if line.AgreedUnitPrice != nil {
		dto.LineTotal = *line.AgreedUnitPrice * line.Quantity
	}
	return dto
}

func NewOrderDTO(order *models.Order) OrderDTO {
	dto := OrderDTO{
		ID:                  order.ID,
		Code:                order.Code,
		State:               order.State,
		Active:              order.Active,
		ChannelID:           order.ChannelID,
		AggregateOrderID:    order.AggregateOrderID,
		OfferID:             order.OfferID,
		FulfillmentOptionID: order.FulfillmentOptionID,
		ShippingLines:       order.ShippingLines,
		PlacedAt:            order.PlacedAt,
		Lines:               make([]OrderLineDTO, 0, len(order.Lines)),
		CreatedAt:           order.CreatedAt,
		UpdatedAt:           order.UpdatedAt,
	}
	if dto.ShippingLines == nil {
		dto.ShippingLines = []models.ShippingLine{}
	}
	for i := range order.Lines {
		line := NewOrderLineDTO(&order.Lines[i])
		dto.TotalQuantity += line.Quantity
		dto.Subtotal += line.LineTotal
		dto.Lines = append(dto.Lines, line)
	}
	return dto
}
