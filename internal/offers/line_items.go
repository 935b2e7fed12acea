package offers

import (
	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/JoeyLyman/yaycsa/internal/pricing"
	"github.com/JoeyLyman/yaycsa/pkg/db/models"
	"github.com/JoeyLyman/yaycsa/pkg/enums"
	pkgerrors "github.com/JoeyLyman/yaycsa/pkg/errors"
)

func newLineItem(offerID uuid.UUID, in LineItemInput, sortOrder int) models.OfferLineItem {
	item := models.OfferLineItem{
		OfferID:           offerID,
		ProductVariantID:  in.ProductVariantID,
		Price:             in.Price,
		PricingMode:       enums.PricingModeTiered,
		PriceTiers:        in.PriceTiers,
		QuantityLimitMode: enums.QuantityLimitUnlimited,
		QuantityLimit:     in.QuantityLimit,
		Notes:             in.Notes,
		SortOrder:         sortOrder,
	}
	if in.PriceIncludesTax != nil {
		item.PriceIncludesTax = *in.PriceIncludesTax
	}
	if in.PricingMode != nil {
		item.PricingMode = *in.PricingMode
	}
	if in.QuantityLimitMode != nil {
		item.QuantityLimitMode = *in.QuantityLimitMode
	}
	if in.AutoConfirm != nil {
		item.AutoConfirm = *in.AutoConfirm
	}
	if in.SortOrder != nil {
		item.SortOrder = *in.SortOrder
	}
	return item
}

func applyLineItemUpdate(item *models.OfferLineItem, in UpdateLineItemInput) {
	if in.Price != nil {
		item.Price = *in.Price
	}
	if in.PriceIncludesTax != nil {
		item.PriceIncludesTax = *in.PriceIncludesTax
	}
	if in.PricingMode != nil {
		item.PricingMode = *in.PricingMode
	}
	if in.PriceTiers.Set {
		item.PriceTiers = nil
		if in.PriceTiers.Value != nil {
			item.PriceTiers = *in.PriceTiers.Value
		}
	}
	if in.QuantityLimitMode != nil {
		item.QuantityLimitMode = *in.QuantityLimitMode
	}
	in.QuantityLimit.Apply(&item.QuantityLimit)
	if in.AutoConfirm != nil {
		item.AutoConfirm = *in.AutoConfirm
	}
	in.Notes.Apply(&item.Notes)
	if in.SortOrder != nil {
		item.SortOrder = *in.SortOrder
	}
}

// validateLineItems checks every item and reports all failures at once.
// A single failure is returned as-is so its message and details survive.
func validateLineItems(items []models.OfferLineItem) error {
	var combined error
	for i := range items {
		if err := validateLineItem(&items[i]); err != nil {
			combined = multierr.Append(combined, err)
		}
	}
	errs := multierr.Errors(combined)
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	}
	messages := make([]string, 0, len(errs))
	for _, err := range errs {
		messages = append(messages, err.Error())
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "invalid offer line items").
		WithDetails(map[string]any{"errors": messages})
}

func validateLineItem(item *models.OfferLineItem) error {
	if !item.PricingMode.IsValid() {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "invalid pricing mode %q", item.PricingMode)
	}
	if !item.QuantityLimitMode.IsValid() {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "invalid quantity limit mode %q", item.QuantityLimitMode)
	}
	if item.Price < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
	}
	if item.QuantityLimit != nil && *item.QuantityLimit < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantityLimit must not be negative")
	}

	switch item.PricingMode {
	case enums.PricingModeCase:
		for i, row := range item.PriceTiers {
			if row.Quantity == nil || row.CasePrice == nil {
				return pkgerrors.Newf(pkgerrors.CodeValidation, "case price tier %d requires quantity and casePrice", i)
			}
		}
		if len(item.PriceTiers) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "case pricing requires at least one price tier")
		}
		return pricing.ValidateCaseTiers(pricing.CaseTiersFromModels(item.PriceTiers))
	default:
		for i, row := range item.PriceTiers {
			if row.MinQuantity == nil || row.UnitPrice == nil {
				return pkgerrors.Newf(pkgerrors.CodeValidation, "tiered price tier %d requires minQuantity and unitPrice", i)
			}
		}
	}
	return nil
}
