package offers

import (
	"context"

	"github.com/google/uuid"

	"github.com/JoeyLyman/yaycsa/pkg/db/models"
	"github.com/JoeyLyman/yaycsa/pkg/enums"
)

const quantityOrderedQuery = `
SELECT COALESCE(SUM(ol.quantity), 0)
FROM order_lines ol
JOIN orders o ON o.id = ol.order_id
WHERE ol.offer_line_item_id = ?
  AND (ol.line_status IS NULL OR ol.line_status <> ?)
  AND o.state NOT IN ?
`

// QuantityOrdered sums the units committed against the line item by
// non-cancelled lines on orders outside the excluded states. It is read
// live on every call.
func (r *Repository) QuantityOrdered(ctx context.Context, lineItemID uuid.UUID) (int, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Raw(quantityOrderedQuery, lineItemID, enums.LineStatusCancelled, enums.LedgerExcludedOrderStates).
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return int(total), nil
}

// Remaining is limit minus ordered for offer-specific limits. Every other
// mode has no remaining figure.
func Remaining(item *models.OfferLineItem, ordered int) *int {
	if item.QuantityLimitMode != enums.QuantityLimitOfferSpecific || item.QuantityLimit == nil {
		return nil
	}
	remaining := *item.QuantityLimit - ordered
	return &remaining
}
