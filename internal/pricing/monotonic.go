package pricing

import (
	"sort"

	pkgerrors "github.com/JoeyLyman/yaycsa/pkg/errors"
)

// ValidateCaseTiers rejects case tiers whose per-unit price rises as the
// pack grows. Only write paths call this; PriceForQuantity trusts stored data.
func ValidateCaseTiers(tiers []CaseTier) error {
	sorted := make([]CaseTier, 0, len(tiers))
	for _, tier := range tiers {
		if tier.Quantity <= 0 {
			return pkgerrors.Newf(pkgerrors.CodeValidation, "Case tier quantity must be at least 1, got %d", tier.Quantity)
		}
		sorted = append(sorted, tier)
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Quantity < sorted[j].Quantity })

	for i := 1; i < len(sorted); i++ {
		prev := caseUnit(sorted[i-1])
		curr := caseUnit(sorted[i])
		if curr.GreaterThan(prev) {
			return pkgerrors.Newf(pkgerrors.CodeValidation,
				"Case pricing must have non-increasing unit price for larger quantities. "+
					"Quantity %d has unit price %s which is higher than quantity %d at %s",
				sorted[i].Quantity, curr.StringFixed(2), sorted[i-1].Quantity, prev.StringFixed(2),
			).WithDetails(map[string]any{
				"tiers": []map[string]any{
					{"quantity": sorted[i-1].Quantity, "unitPrice": prev.StringFixed(2)},
					{"quantity": sorted[i].Quantity, "unitPrice": curr.StringFixed(2)},
				},
			})
		}
	}
	return nil
}
