package discounts

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-promotions/pkg/enums"
	"github.com/angelmondragon/storefront-promotions/pkg/pagination"
)

const usageSelect = `od.id AS id,
	od.order_id AS order_id,
	od.discount_id AS discount_id,
	od.code AS code,
	od.amount AS amount,
	od.created_at AS created_at,
	o.order_number AS order_number,
	o.customer_email AS customer_email,
	o.total_amount AS order_total,
	o.currency AS currency,
	discounts.type AS discount_type,
	discounts.promotion_kind AS promotion_kind,
	discounts.metadata AS metadata`

var reconstructableKinds = []enums.PromotionKind{
	enums.PromotionKindScheduledOffer,
	enums.PromotionKindBxgyGeneric,
	enums.PromotionKindBxgyBundle,
}

// UsageRepository reads the order_discounts and order_item_discounts ledgers.
type UsageRepository struct {
	db *gorm.DB
}

// NewUsageRepository builds a ledger reader tied to the provided GORM DB.
func NewUsageRepository(db *gorm.DB) *UsageRepository {
	return &UsageRepository{db: db}
}

func (r *UsageRepository) ledger(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("order_discounts AS od").
		Joins("JOIN discounts ON discounts.id = od.discount_id").
		Joins("LEFT JOIN orders o ON o.id = od.order_id")
}

// ListByDiscount returns a newest-first page of ledger rows for one discount plus the
// count of all its rows.
func (r *UsageRepository) ListByDiscount(ctx context.Context, discountID uuid.UUID, params pagination.Params) ([]UsageRecord, int64, error) {
	params = params.Normalize()

	var total int64
	if err := r.db.WithContext(ctx).
		Table("order_discounts").
		Where("discount_id = ?", discountID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []UsageRecord
	if err := r.ledger(ctx).
		Select(usageSelect).
		Where("od.discount_id = ?", discountID).
		Order("od.created_at DESC").
		Order("od.id DESC").
		Limit(params.Limit).
		Offset(params.Offset()).
		Scan(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// SumStored adds stored order-level and item-level amounts for discounts matching f.
// A non-nil since restricts to ledger rows created at or after it.
func (r *UsageRepository) SumStored(ctx context.Context, f Filters, since *time.Time, now time.Time) (decimal.Decimal, error) {
	orderLevel, err := r.sum(ctx, "order_discounts", f, since, now)
	if err != nil {
		return decimal.Zero, err
	}
	itemLevel, err := r.sum(ctx, "order_item_discounts", f, since, now)
	if err != nil {
		return decimal.Zero, err
	}
	return orderLevel.Add(itemLevel), nil
}

func (r *UsageRepository) sum(ctx context.Context, table string, f Filters, since *time.Time, now time.Time) (decimal.Decimal, error) {
	var out struct {
		Total decimal.NullDecimal `gorm:"column:total"`
	}
	q := r.db.WithContext(ctx).
		Table(table + " AS l").
		Select("COALESCE(SUM(l.amount), 0) AS total").
		Joins("JOIN discounts ON discounts.id = l.discount_id")
	q = applyFilters(q, f, now)
	if since != nil {
		q = q.Where("l.created_at >= ?", since.UTC())
	}
	if err := q.Scan(&out).Error; err != nil {
		return decimal.Zero, err
	}
	if !out.Total.Valid {
		return decimal.Zero, nil
	}
	return out.Total.Decimal, nil
}

// ListCandidates returns every zero-amount order-level row whose discount can carry
// implied savings, for discounts matching f. The kind filter only narrows the scan; the
// stored metadata decides.
func (r *UsageRepository) ListCandidates(ctx context.Context, f Filters, now time.Time) ([]UsageRecord, error) {
	var rows []UsageRecord
	q := r.ledger(ctx).
		Select(usageSelect).
		Where("od.amount = 0").
		Where("discounts.type <> ?", enums.DiscountTypeFreeShipping).
		Where("discounts.promotion_kind IN ?", reconstructableKinds)
	q = applyFilters(q, f, now)
	if err := q.Order("od.created_at DESC").Order("od.id DESC").Scan(&rows).Error; err != nil {
		return nil, err
	}
	return slices.DeleteFunc(rows, func(r UsageRecord) bool { return !IsReconstructionCandidate(r) }), nil
}
