package enums

import "fmt"

// DiscountScope selects which target set a discount consults.
type DiscountScope string

const (
	DiscountScopeAll            DiscountScope = "all"
	DiscountScopeProducts       DiscountScope = "products"
	DiscountScopeCategories     DiscountScope = "categories"
	DiscountScopeCollections    DiscountScope = "collections"
	DiscountScopeCustomerGroups DiscountScope = "customer_groups"
)

var validDiscountScopes = []DiscountScope{
	DiscountScopeAll,
	DiscountScopeProducts,
	DiscountScopeCategories,
	DiscountScopeCollections,
	DiscountScopeCustomerGroups,
}

// String implements fmt.Stringer.
func (s DiscountScope) String() string {
	return string(s)
}

// IsValid reports whether the value is a known DiscountScope.
func (s DiscountScope) IsValid() bool {
	for _, candidate := range validDiscountScopes {
		if candidate == s {
			return true
		}
	}
	return false
}

// UsesProductTargets reports whether the scope is materialized by discount_products rows.
func (s DiscountScope) UsesProductTargets() bool {
	return s == DiscountScopeProducts
}

// UsesCategoryTargets reports whether the scope is materialized by discount_categories rows.
func (s DiscountScope) UsesCategoryTargets() bool {
	return s == DiscountScopeCategories
}

// ParseDiscountScope converts raw input into a DiscountScope.
func ParseDiscountScope(value string) (DiscountScope, error) {
	for _, candidate := range validDiscountScopes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid discount scope %q", value)
}
