package discounts

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-promotions/internal/orders"
	"github.com/angelmondragon/storefront-promotions/pkg/enums"
	"github.com/angelmondragon/storefront-promotions/pkg/types"
)

// UsageRecord is a ledger row joined to its order and discount.
type UsageRecord struct {
	ID            uuid.UUID           `gorm:"column:id"`
	OrderID       uuid.UUID           `gorm:"column:order_id"`
	DiscountID    uuid.UUID           `gorm:"column:discount_id"`
	Code          *string             `gorm:"column:code"`
	Amount        decimal.Decimal     `gorm:"column:amount"`
	CreatedAt     time.Time           `gorm:"column:created_at"`
	OrderNumber   *string             `gorm:"column:order_number"`
	CustomerEmail *string             `gorm:"column:customer_email"`
	OrderTotal    decimal.NullDecimal `gorm:"column:order_total"`
	Currency      *string             `gorm:"column:currency"`
	DiscountType  enums.DiscountType  `gorm:"column:discount_type"`
	Kind          enums.PromotionKind `gorm:"column:promotion_kind"`

	Metadata types.PromotionMetadata `gorm:"column:metadata;serializer:json"`

	// EffectiveAmount is Amount, or the reconstructed savings when Reconstructed is set.
	EffectiveAmount decimal.Decimal `gorm:"-"`
	Reconstructed   bool            `gorm:"-"`
}

// ReconstructStats summarizes a reconstruction pass.
type ReconstructStats struct {
	ReconstructedByKind map[enums.PromotionKind]int
	UnresolvedLines     int
}

type orderSavings struct {
	offer decimal.Decimal
	gift  decimal.Decimal
}

// IsReconstructionCandidate reports whether a zero-amount ledger row stands for savings
// that only show up as altered item prices. Only explicit offer/standard and deal/bxgy
// metadata qualifies; an automatic discount without metadata keeps its stored amount.
func IsReconstructionCandidate(r UsageRecord) bool {
	if !r.Amount.IsZero() || r.DiscountType == enums.DiscountTypeFreeShipping {
		return false
	}
	_, ok := r.Metadata.PriceSavingsSource()
	return ok
}

// CandidateOrderIDs lists, without duplicates, the orders whose items must be fetched.
func CandidateOrderIDs(records []UsageRecord) []uuid.UUID {
	seen := map[uuid.UUID]struct{}{}
	ids := []uuid.UUID{}
	for _, r := range records {
		if !IsReconstructionCandidate(r) {
			continue
		}
		if _, ok := seen[r.OrderID]; ok {
			continue
		}
		seen[r.OrderID] = struct{}{}
		ids = append(ids, r.OrderID)
	}
	return ids
}

// Reconstruct fills EffectiveAmount for every record. Candidates take the offer or gift
// savings of their order, diffed against the current catalog price; the rest keep their
// stored amount.
func Reconstruct(records []UsageRecord, items []orders.ItemPrice) ([]UsageRecord, ReconstructStats) {
	stats := ReconstructStats{ReconstructedByKind: map[enums.PromotionKind]int{}}
	savings := map[uuid.UUID]*orderSavings{}

	for _, item := range items {
		if item.Quantity <= 0 {
			continue
		}
		if !item.BasePrice.Valid || !item.BasePrice.Decimal.IsPositive() {
			stats.UnresolvedLines++
			continue
		}
		base := item.BasePrice.Decimal
		qty := decimal.NewFromInt(int64(item.Quantity))

		acc, ok := savings[item.OrderID]
		if !ok {
			acc = &orderSavings{offer: decimal.Zero, gift: decimal.Zero}
			savings[item.OrderID] = acc
		}

		switch {
		case item.IsGift():
			acc.gift = acc.gift.Add(base.Mul(qty))
		case item.UnitPrice.IsPositive() && item.UnitPrice.LessThan(base):
			acc.offer = acc.offer.Add(base.Sub(item.UnitPrice).Mul(qty))
		}
	}

	out := make([]UsageRecord, len(records))
	for i, r := range records {
		r.EffectiveAmount = r.Amount
		r.Reconstructed = false
		if IsReconstructionCandidate(r) {
			amount := decimal.Zero
			if acc, ok := savings[r.OrderID]; ok {
				switch source, _ := r.Metadata.PriceSavingsSource(); source {
				case types.SavingsFromReducedPrice:
					amount = acc.offer
				case types.SavingsFromGiftLines:
					amount = acc.gift
				}
			}
			amount = amount.Round(moneyPlaces)
			if amount.IsNegative() {
				amount = decimal.Zero
			}
			r.EffectiveAmount = amount
			r.Reconstructed = true
			stats.ReconstructedByKind[r.Kind]++
		}
		out[i] = r
	}
	return out, stats
}
