package discounts

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-promotions/pkg/db/models"
	"github.com/angelmondragon/storefront-promotions/pkg/enums"
	"github.com/angelmondragon/storefront-promotions/pkg/pagination"
)

// Repository persists discounts and their target associations.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts the discount row.
func (r *Repository) Create(ctx context.Context, d *models.Discount) error {
	return r.db.WithContext(ctx).Create(d).Error
}

// Save writes every column of an existing discount.
func (r *Repository) Save(ctx context.Context, d *models.Discount) error {
	return r.db.WithContext(ctx).Save(d).Error
}

// Delete hard-deletes the discount and reports whether a row existed.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Discount{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// FindByID loads a discount or returns gorm.ErrRecordNotFound.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Discount, error) {
	var d models.Discount
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&d).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

// List returns one page of discounts matching filters plus the unpaginated total.
func (r *Repository) List(ctx context.Context, f Filters, params pagination.Params, sort enums.DiscountSort, now time.Time) ([]models.Discount, int64, error) {
	params = params.Normalize()

	var total int64
	if err := applyFilters(r.db.WithContext(ctx).Model(&models.Discount{}), f, now).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Discount
	q := applyFilters(r.db.WithContext(ctx).Model(&models.Discount{}), f, now)
	if err := applySort(q, sort).Limit(params.Limit).Offset(params.Offset()).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// LoadTargets resolves product and category ids for the given discounts.
func (r *Repository) LoadTargets(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]Targets, error) {
	out := make(map[uuid.UUID]Targets, len(ids))
	for _, id := range ids {
		out[id] = Targets{ProductIDs: []uuid.UUID{}, CategoryIDs: []uuid.UUID{}}
	}
	if len(ids) == 0 {
		return out, nil
	}

	var products []models.DiscountProduct
	if err := r.db.WithContext(ctx).
		Where("discount_id IN ?", ids).
		Order("created_at ASC").Order("product_id ASC").
		Find(&products).Error; err != nil {
		return nil, err
	}
	for _, row := range products {
		t := out[row.DiscountID]
		t.ProductIDs = append(t.ProductIDs, row.ProductID)
		out[row.DiscountID] = t
	}

	var categories []models.DiscountCategory
	if err := r.db.WithContext(ctx).
		Where("discount_id IN ?", ids).
		Order("created_at ASC").Order("category_id ASC").
		Find(&categories).Error; err != nil {
		return nil, err
	}
	for _, row := range categories {
		t := out[row.DiscountID]
		t.CategoryIDs = append(t.CategoryIDs, row.CategoryID)
		out[row.DiscountID] = t
	}
	return out, nil
}

// ReplaceProducts swaps the product target set; an empty list clears it.
func (r *Repository) ReplaceProducts(ctx context.Context, discountID uuid.UUID, productIDs []uuid.UUID) error {
	if err := r.db.WithContext(ctx).Where("discount_id = ?", discountID).Delete(&models.DiscountProduct{}).Error; err != nil {
		return err
	}
	if len(productIDs) == 0 {
		return nil
	}
	rows := make([]models.DiscountProduct, len(productIDs))
	for i, id := range productIDs {
		rows[i] = models.DiscountProduct{DiscountID: discountID, ProductID: id}
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

// ReplaceCategories swaps the category target set; an empty list clears it.
func (r *Repository) ReplaceCategories(ctx context.Context, discountID uuid.UUID, categoryIDs []uuid.UUID) error {
	if err := r.db.WithContext(ctx).Where("discount_id = ?", discountID).Delete(&models.DiscountCategory{}).Error; err != nil {
		return err
	}
	if len(categoryIDs) == 0 {
		return nil
	}
	rows := make([]models.DiscountCategory, len(categoryIDs))
	for i, id := range categoryIDs {
		rows[i] = models.DiscountCategory{DiscountID: discountID, CategoryID: id}
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

// GroupCount is a COUNT(*) bucket keyed by a discount column value.
type GroupCount struct {
	Key   string `gorm:"column:bucket"`
	Count int64  `gorm:"column:total"`
}

var groupableColumns = map[string]string{
	"status":         "discounts.status",
	"type":           "discounts.type",
	"promotion_kind": "discounts.promotion_kind",
}

// CountBy groups discounts matching f by one of status, type or promotion_kind.
func (r *Repository) CountBy(ctx context.Context, column string, f Filters, now time.Time) ([]GroupCount, error) {
	expr, ok := groupableColumns[column]
	if !ok {
		return nil, fmt.Errorf("cannot group discounts by %q", column)
	}
	var rows []GroupCount
	q := applyFilters(r.db.WithContext(ctx).Model(&models.Discount{}), f, now)
	if err := q.Select(expr + " AS bucket, COUNT(*) AS total").Group(expr).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// CountActiveNow counts discounts matching f that are active at now.
func (r *Repository) CountActiveNow(ctx context.Context, f Filters, now time.Time) (int64, error) {
	var total int64
	q := applyFilters(r.db.WithContext(ctx).Model(&models.Discount{}), f, now)
	if err := applyActiveNow(q, now).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// SumUsageCount adds the catalog redemption counters of discounts matching f.
func (r *Repository) SumUsageCount(ctx context.Context, f Filters, now time.Time) (int64, error) {
	var out struct {
		Total int64 `gorm:"column:total"`
	}
	q := applyFilters(r.db.WithContext(ctx).Model(&models.Discount{}), f, now)
	if err := q.Select("COALESCE(SUM(discounts.usage_count), 0) AS total").Scan(&out).Error; err != nil {
		return 0, err
	}
	return out.Total, nil
}

// ExpireEnded moves active discounts whose window closed before now to expired and
// returns the ids it changed.
func (r *Repository) ExpireEnded(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.Discount{}).
		Where("status = ? AND ends_at IS NOT NULL AND ends_at < ?", enums.DiscountStatusActive, now).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return ids, nil
	}
	err = r.db.WithContext(ctx).
		Model(&models.Discount{}).
		Where("id IN ?", ids).
		Updates(map[string]any{"status": enums.DiscountStatusExpired, "updated_at": now}).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
