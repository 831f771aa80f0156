package discounts

import (
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-promotions/pkg/enums"
)

// Filters is the predicate set shared by the catalog list and the metrics rollup.
// Every set field narrows the result.
type Filters struct {
	Query       string
	Status      *enums.DiscountStatus
	Type        *enums.DiscountType
	Scope       *enums.DiscountScope
	Kind        *enums.PromotionKind
	IsAutomatic *bool
	DateFrom    *time.Time
	DateTo      *time.Time
	ActiveNow   *bool
}

const activeNowPredicate = "discounts.status = ? AND (discounts.starts_at IS NULL OR discounts.starts_at <= ?) AND (discounts.ends_at IS NULL OR discounts.ends_at >= ?)"

// applyFilters narrows a query that has the discounts table in scope.
func applyFilters(q *gorm.DB, f Filters, now time.Time) *gorm.DB {
	if term := strings.TrimSpace(f.Query); term != "" {
		pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
		q = q.Where(`(LOWER(discounts.name) LIKE ? ESCAPE '\' OR LOWER(COALESCE(discounts.code, '')) LIKE ? ESCAPE '\')`, pattern, pattern)
	}
	if f.Status != nil {
		q = q.Where("discounts.status = ?", *f.Status)
	}
	if f.Type != nil {
		q = q.Where("discounts.type = ?", *f.Type)
	}
	if f.Scope != nil {
		q = q.Where("discounts.scope = ?", *f.Scope)
	}
	if f.Kind != nil {
		q = q.Where("discounts.promotion_kind = ?", *f.Kind)
	}
	if f.IsAutomatic != nil {
		q = q.Where("discounts.is_automatic = ?", *f.IsAutomatic)
	}
	if f.DateFrom != nil {
		q = q.Where("discounts.created_at >= ?", f.DateFrom.UTC())
	}
	if f.DateTo != nil {
		q = q.Where("discounts.created_at <= ?", f.DateTo.UTC())
	}
	if f.ActiveNow != nil {
		if *f.ActiveNow {
			q = applyActiveNow(q, now)
		} else {
			q = q.Where("NOT ("+activeNowPredicate+")", enums.DiscountStatusActive, now.UTC(), now.UTC())
		}
	}
	return q
}

// applyActiveNow is the SQL form of IsActiveAt.
func applyActiveNow(q *gorm.DB, now time.Time) *gorm.DB {
	now = now.UTC()
	return q.Where(activeNowPredicate, enums.DiscountStatusActive, now, now)
}

func applySort(q *gorm.DB, sort enums.DiscountSort) *gorm.DB {
	switch sort {
	case enums.DiscountSortCreatedAtAsc:
		return q.Order("discounts.created_at ASC").Order("discounts.id ASC")
	case enums.DiscountSortStartsAtDesc:
		return q.Order("discounts.starts_at IS NULL ASC").Order("discounts.starts_at DESC").Order("discounts.id DESC")
	case enums.DiscountSortStartsAtAsc:
		return q.Order("discounts.starts_at IS NULL ASC").Order("discounts.starts_at ASC").Order("discounts.id ASC")
	default:
		return q.Order("discounts.created_at DESC").Order("discounts.id DESC")
	}
}

func escapeLike(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(value)
}
