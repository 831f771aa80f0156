package enums

import "fmt"

// DiscountStatus is the admin-managed lifecycle state. It is never derived from dates.
type DiscountStatus string

const (
	DiscountStatusDraft    DiscountStatus = "draft"
	DiscountStatusActive   DiscountStatus = "active"
	DiscountStatusExpired  DiscountStatus = "expired"
	DiscountStatusArchived DiscountStatus = "archived"
)

var validDiscountStatuses = []DiscountStatus{
	DiscountStatusDraft,
	DiscountStatusActive,
	DiscountStatusExpired,
	DiscountStatusArchived,
}

// String implements fmt.Stringer.
func (s DiscountStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known DiscountStatus.
func (s DiscountStatus) IsValid() bool {
	for _, candidate := range validDiscountStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// DiscountStatuses lists every lifecycle state in display order.
func DiscountStatuses() []DiscountStatus {
	return append([]DiscountStatus(nil), validDiscountStatuses...)
}

// ParseDiscountStatus converts raw input into a DiscountStatus.
func ParseDiscountStatus(value string) (DiscountStatus, error) {
	for _, candidate := range validDiscountStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid discount status %q", value)
}
