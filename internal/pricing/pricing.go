// Package pricing resolves the unit price an offer line item charges for a
// requested quantity. It performs no I/O.
package pricing

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/JoeyLyman/yaycsa/pkg/db/models"
	"github.com/JoeyLyman/yaycsa/pkg/enums"
	pkgerrors "github.com/JoeyLyman/yaycsa/pkg/errors"
)

// TieredTier applies UnitPrice once the requested quantity reaches MinQuantity.
type TieredTier struct {
	MinQuantity int
	UnitPrice   int
}

// CaseTier sells a fixed pack of Quantity units for CasePrice.
type CaseTier struct {
	Quantity  int
	CasePrice int
}

// Definition is the pricing shape of one line item. Only the slice that
// matches Mode is consulted.
type Definition struct {
	Price            int
	PriceIncludesTax bool
	Mode             enums.PricingMode
	Tiered           []TieredTier
	Case             []CaseTier
}

// FromLineItem converts the stored tier rows into the variant matching the
// line item's pricing mode. Rows missing a field for that mode are skipped.
func FromLineItem(item *models.OfferLineItem) Definition {
	def := Definition{
		Price:            item.Price,
		PriceIncludesTax: item.PriceIncludesTax,
		Mode:             item.PricingMode,
	}
	switch item.PricingMode {
	case enums.PricingModeCase:
		def.Case = CaseTiersFromModels(item.PriceTiers)
	default:
		def.Mode = enums.PricingModeTiered
		def.Tiered = TieredTiersFromModels(item.PriceTiers)
	}
	return def
}

func CaseTiersFromModels(rows []models.PriceTier) []CaseTier {
	tiers := make([]CaseTier, 0, len(rows))
	for _, row := range rows {
		if row.Quantity == nil || row.CasePrice == nil {
			continue
		}
		tiers = append(tiers, CaseTier{Quantity: *row.Quantity, CasePrice: *row.CasePrice})
	}
	return tiers
}

func TieredTiersFromModels(rows []models.PriceTier) []TieredTier {
	tiers := make([]TieredTier, 0, len(rows))
	for _, row := range rows {
		if row.MinQuantity == nil || row.UnitPrice == nil {
			continue
		}
		tiers = append(tiers, TieredTier{MinQuantity: *row.MinQuantity, UnitPrice: *row.UnitPrice})
	}
	return tiers
}

// PriceForQuantity returns the unit price in minor units. Case mode needs a
// selector that exactly matches one tier; tiered mode falls back to the base
// price when no threshold is reached.
func PriceForQuantity(def Definition, quantity int, selectedCaseQuantity *int) (int, error) {
	switch def.Mode {
	case enums.PricingModeCase:
		tier, err := SelectCaseTier(def, selectedCaseQuantity)
		if err != nil {
			return 0, err
		}
		return CaseUnitPrice(tier), nil
	default:
		return tieredPrice(def, quantity), nil
	}
}

// SelectCaseTier finds the tier whose pack size equals the selector.
func SelectCaseTier(def Definition, selectedCaseQuantity *int) (CaseTier, error) {
	if selectedCaseQuantity == nil {
		return CaseTier{}, pkgerrors.New(pkgerrors.CodeValidation, "selectedCaseQuantity is required for case pricing")
	}
	for _, tier := range def.Case {
		if tier.Quantity == *selectedCaseQuantity {
			return tier, nil
		}
	}
	return CaseTier{}, pkgerrors.Newf(pkgerrors.CodeStateConflict, "Invalid case quantity: %d", *selectedCaseQuantity)
}

// CaseUnitPrice divides the case price over the pack, rounding half away
// from zero.
func CaseUnitPrice(tier CaseTier) int {
	if tier.Quantity <= 0 {
		return tier.CasePrice
	}
	return int(caseUnit(tier).Round(0).IntPart())
}

func caseUnit(tier CaseTier) decimal.Decimal {
	return decimal.NewFromInt(int64(tier.CasePrice)).Div(decimal.NewFromInt(int64(tier.Quantity)))
}

func tieredPrice(def Definition, quantity int) int {
	if len(def.Tiered) == 0 {
		return def.Price
	}
	tiers := make([]TieredTier, len(def.Tiered))
	copy(tiers, def.Tiered)
	sort.SliceStable(tiers, func(i, j int) bool { return tiers[i].MinQuantity > tiers[j].MinQuantity })
	for _, tier := range tiers {
		if tier.MinQuantity <= quantity {
			return tier.UnitPrice
		}
	}
	return def.Price
}
