package enums

import "fmt"

// PromotionKind classifies a discount by the mechanism it uses at checkout.
type PromotionKind string

const (
	PromotionKindCoupon         PromotionKind = "coupon"
	PromotionKindScheduledOffer PromotionKind = "scheduled_offer"
	PromotionKindBundleOffer    PromotionKind = "bundle_offer"
	PromotionKindBxgyGeneric    PromotionKind = "bxgy_generic"
	PromotionKindBxgyBundle     PromotionKind = "bxgy_bundle"
)

var validPromotionKinds = []PromotionKind{
	PromotionKindCoupon,
	PromotionKindScheduledOffer,
	PromotionKindBundleOffer,
	PromotionKindBxgyGeneric,
	PromotionKindBxgyBundle,
}

// String implements fmt.Stringer.
func (k PromotionKind) String() string {
	return string(k)
}

// IsValid reports whether the value is a known PromotionKind.
func (k PromotionKind) IsValid() bool {
	for _, candidate := range validPromotionKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// IsAutomatic reports whether the kind applies without a customer-entered code.
func (k PromotionKind) IsAutomatic() bool {
	return k != PromotionKindCoupon
}

// IsBxgy reports whether the kind grants free or discounted extra units.
func (k PromotionKind) IsBxgy() bool {
	return k == PromotionKindBxgyGeneric || k == PromotionKindBxgyBundle
}

// PromotionKinds lists every kind, used for zero-filled breakdowns.
func PromotionKinds() []PromotionKind {
	return append([]PromotionKind(nil), validPromotionKinds...)
}

// ParsePromotionKind converts raw input into a PromotionKind.
func ParsePromotionKind(value string) (PromotionKind, error) {
	for _, candidate := range validPromotionKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid promotion kind %q", value)
}
