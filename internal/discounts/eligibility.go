package discounts

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-promotions/pkg/db/models"
	"github.com/angelmondragon/storefront-promotions/pkg/enums"
)

const (
	ReasonNotActive         = "not_active"
	ReasonNotStarted        = "not_started"
	ReasonEnded             = "ended"
	ReasonUsageLimitReached = "usage_limit_reached"
	ReasonBelowMinSubtotal  = "below_min_subtotal"
)

// IsActiveAt reports whether the discount is active and its window contains now.
// Both window bounds are inclusive; a nil bound is unbounded.
func IsActiveAt(d *models.Discount, now time.Time) bool {
	if d == nil || d.Status != enums.DiscountStatusActive {
		return false
	}
	if d.StartsAt != nil && d.StartsAt.After(now) {
		return false
	}
	if d.EndsAt != nil && d.EndsAt.Before(now) {
		return false
	}
	return true
}

// UsageRemaining returns how many redemptions are left and whether a limit applies.
func UsageRemaining(d *models.Discount) (int, bool) {
	if d == nil || d.UsageLimit == nil {
		return 0, false
	}
	remaining := *d.UsageLimit - d.UsageCount
	if remaining < 0 {
		remaining = 0
	}
	return remaining, true
}

// Eligibility is an advisory answer to "could this discount be redeemed right now".
type Eligibility struct {
	Usable  bool     `json:"usable"`
	Reasons []string `json:"reasons"`
}

// Evaluate explains why a discount is or is not usable at now. Counters are never touched.
func Evaluate(d *models.Discount, now time.Time) Eligibility {
	reasons := []string{}
	if d.Status != enums.DiscountStatusActive {
		reasons = append(reasons, ReasonNotActive)
	}
	if d.StartsAt != nil && d.StartsAt.After(now) {
		reasons = append(reasons, ReasonNotStarted)
	}
	if d.EndsAt != nil && d.EndsAt.Before(now) {
		reasons = append(reasons, ReasonEnded)
	}
	if remaining, limited := UsageRemaining(d); limited && remaining == 0 {
		reasons = append(reasons, ReasonUsageLimitReached)
	}
	return Eligibility{Usable: len(reasons) == 0, Reasons: reasons}
}

// Targets holds the materialized association sets of a discount.
type Targets struct {
	ProductIDs  []uuid.UUID
	CategoryIDs []uuid.UUID
}

// MatchesProduct reports whether a product falls under the discount's scope.
// Collections and customer groups resolve outside this service and never match here.
func MatchesProduct(d *models.Discount, targets Targets, productID uuid.UUID, categoryIDs []uuid.UUID) bool {
	switch d.Scope {
	case enums.DiscountScopeAll:
		return true
	case enums.DiscountScopeProducts:
		return containsID(targets.ProductIDs, productID)
	case enums.DiscountScopeCategories:
		for _, categoryID := range categoryIDs {
			if containsID(targets.CategoryIDs, categoryID) {
				return true
			}
		}
		return false
	case enums.DiscountScopeCollections, enums.DiscountScopeCustomerGroups:
		return false
	default:
		return false
	}
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
