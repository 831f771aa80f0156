package enums

import "fmt"

// DiscountSort is the fixed set of orderings the catalog list supports.
type DiscountSort string

const (
	DiscountSortCreatedAtDesc DiscountSort = "created_at_desc"
	DiscountSortCreatedAtAsc  DiscountSort = "created_at_asc"
	DiscountSortStartsAtDesc  DiscountSort = "starts_at_desc"
	DiscountSortStartsAtAsc   DiscountSort = "starts_at_asc"
)

var validDiscountSorts = []DiscountSort{
	DiscountSortCreatedAtDesc,
	DiscountSortCreatedAtAsc,
	DiscountSortStartsAtDesc,
	DiscountSortStartsAtAsc,
}

// String implements fmt.Stringer.
func (s DiscountSort) String() string {
	return string(s)
}

// IsValid reports whether the value is a known DiscountSort.
func (s DiscountSort) IsValid() bool {
	for _, candidate := range validDiscountSorts {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseDiscountSort converts raw input into a DiscountSort.
func ParseDiscountSort(value string) (DiscountSort, error) {
	for _, candidate := range validDiscountSorts {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid discount sort %q", value)
}
