package discounts

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-promotions/internal/audit"
	"github.com/angelmondragon/storefront-promotions/internal/orders"
	"github.com/angelmondragon/storefront-promotions/pkg/db"
	"github.com/angelmondragon/storefront-promotions/pkg/db/models"
	"github.com/angelmondragon/storefront-promotions/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-promotions/pkg/errors"
	"github.com/angelmondragon/storefront-promotions/pkg/logger"
	"github.com/angelmondragon/storefront-promotions/pkg/metrics"
	"github.com/angelmondragon/storefront-promotions/pkg/pagination"
	"github.com/angelmondragon/storefront-promotions/pkg/types"
)

const AuditEntityType = "discount"

// Service exposes the admin operations of the discount engine.
type Service interface {
	CreateDiscount(ctx context.Context, actor audit.Actor, input CreateDiscountInput) (*DiscountDTO, error)
	UpdateDiscount(ctx context.Context, actor audit.Actor, id uuid.UUID, input UpdateDiscountInput) (*DiscountDTO, error)
	DeleteDiscount(ctx context.Context, actor audit.Actor, id uuid.UUID) error
	GetDiscount(ctx context.Context, id uuid.UUID) (*DiscountDTO, error)
	ListDiscounts(ctx context.Context, input ListDiscountsInput) (*DiscountListResult, error)
	ListUsage(ctx context.Context, id uuid.UUID, params pagination.Params) (*UsageListResult, error)
	Metrics(ctx context.Context, filters Filters) (*MetricsResult, error)
	Quote(ctx context.Context, id uuid.UUID, input QuoteInput) (*QuoteResult, error)
}

// CreateDiscountInput holds the validated payload to create a discount.
type CreateDiscountInput struct {
	Name        string
	Code        *string
	Type        enums.DiscountType
	Value       decimal.Decimal
	Scope       enums.DiscountScope
	IsAutomatic bool
	Status      enums.DiscountStatus
	UsageLimit  *int
	StartsAt    *time.Time
	EndsAt      *time.Time
	MinSubtotal *decimal.Decimal
	Metadata    types.PromotionMetadata
	ProductIDs  []uuid.UUID
	CategoryIDs []uuid.UUID
}

// UpdateDiscountInput holds optional mutation values. Nullable fields distinguish
// "absent" from an explicit null; non-nil target lists replace the stored set.
type UpdateDiscountInput struct {
	Name        *string
	Code        types.Nullable[string]
	Type        *enums.DiscountType
	Value       *decimal.Decimal
	Scope       *enums.DiscountScope
	IsAutomatic *bool
	Status      *enums.DiscountStatus
	UsageLimit  types.Nullable[int]
	StartsAt    types.Nullable[time.Time]
	EndsAt      types.Nullable[time.Time]
	MinSubtotal types.Nullable[decimal.Decimal]
	Metadata    types.Nullable[types.PromotionMetadata]
	ProductIDs  *[]uuid.UUID
	CategoryIDs *[]uuid.UUID
}

// ListDiscountsInput carries list filters, paging and sort.
type ListDiscountsInput struct {
	Filters Filters
	Params  pagination.Params
	Sort    enums.DiscountSort
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type itemPriceReader interface {
	ListItemPrices(ctx context.Context, orderIDs []uuid.UUID) ([]orders.ItemPrice, error)
}

type currencyResolver interface {
	DisplayCurrency(ctx context.Context) (string, error)
}

// ServiceParams bundles the dependencies required to build a discounts service.
type ServiceParams struct {
	Repo      *Repository
	UsageRepo *UsageRepository
	Tx        txRunner
	Orders    itemPriceReader
	Settings  currencyResolver
	Audit     audit.Sink
	Metrics   *metrics.DiscountMetrics
	Logger    *logger.Logger
	Now       func() time.Time
}

type service struct {
	repo     *Repository
	usage    *UsageRepository
	tx       txRunner
	orders   itemPriceReader
	settings currencyResolver
	audit    audit.Sink
	metrics  *metrics.DiscountMetrics
	logg     *logger.Logger
	now      func() time.Time
}

// NewService constructs a discounts service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("discount repository is required")
	}
	if params.UsageRepo == nil {
		return nil, fmt.Errorf("usage repository is required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository is required")
	}
	if params.Settings == nil {
		return nil, fmt.Errorf("settings service is required")
	}
	if params.Audit == nil {
		return nil, fmt.Errorf("audit sink is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		repo:     params.Repo,
		usage:    params.UsageRepo,
		tx:       params.Tx,
		orders:   params.Orders,
		settings: params.Settings,
		audit:    params.Audit,
		metrics:  params.Metrics,
		logg:     params.Logger,
		now:      now,
	}, nil
}

// CreateDiscount validates and inserts a discount with the targets its scope implies.
func (s *service) CreateDiscount(ctx context.Context, actor audit.Actor, input CreateDiscountInput) (*DiscountDTO, error) {
	status := input.Status
	if status == "" {
		status = enums.DiscountStatusDraft
	}
	scope := input.Scope
	if scope == "" {
		scope = enums.DiscountScopeAll
	}
	discount := &models.Discount{
		Name:        input.Name,
		Code:        input.Code,
		Type:        input.Type,
		Value:       input.Value,
		Scope:       scope,
		IsAutomatic: input.IsAutomatic,
		Status:      status,
		UsageLimit:  input.UsageLimit,
		StartsAt:    input.StartsAt,
		EndsAt:      input.EndsAt,
		MinSubtotal: input.MinSubtotal,
		Metadata:    input.Metadata,
	}
	if err := prepare(discount); err != nil {
		return nil, err
	}

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := txRepo.Create(ctx, discount); err != nil {
			return err
		}
		if scope.UsesProductTargets() {
			if err := txRepo.ReplaceProducts(ctx, discount.ID, dedupeIDs(input.ProductIDs)); err != nil {
				return err
			}
		}
		if scope.UsesCategoryTargets() {
			if err := txRepo.ReplaceCategories(ctx, discount.ID, dedupeIDs(input.CategoryIDs)); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return nil, s.mutationError(err, "create discount")
	}

	s.record(ctx, audit.Entry{
		Actor:      actor,
		Action:     audit.ActionCreate,
		EntityType: AuditEntityType,
		EntityID:   discount.ID,
		Changes: map[string]any{
			"name": discount.Name,
			"code": discount.Code,
			"type": discount.Type,
			"kind": discount.PromotionKind,
		},
	})
	return s.GetDiscount(ctx, discount.ID)
}

// UpdateDiscount applies a partial patch, re-validates the result and replaces target
// sets, all in one transaction.
func (s *service) UpdateDiscount(ctx context.Context, actor audit.Actor, id uuid.UUID, input UpdateDiscountInput) (*DiscountDTO, error) {
	discount, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err)
	}
	before := *discount
	applyUpdate(discount, input)
	if err := prepare(discount); err != nil {
		return nil, err
	}

	changed := changedFields(&before, discount)
	if input.ProductIDs != nil {
		changed = append(changed, "productIds")
	}
	if input.CategoryIDs != nil {
		changed = append(changed, "categoryIds")
	}

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := txRepo.Save(ctx, discount); err != nil {
			return err
		}
		switch {
		case !discount.Scope.UsesProductTargets():
			if before.Scope.UsesProductTargets() || input.ProductIDs != nil {
				if err := txRepo.ReplaceProducts(ctx, discount.ID, nil); err != nil {
					return err
				}
			}
		case input.ProductIDs != nil:
			if err := txRepo.ReplaceProducts(ctx, discount.ID, dedupeIDs(*input.ProductIDs)); err != nil {
				return err
			}
		}
		switch {
		case !discount.Scope.UsesCategoryTargets():
			if before.Scope.UsesCategoryTargets() || input.CategoryIDs != nil {
				if err := txRepo.ReplaceCategories(ctx, discount.ID, nil); err != nil {
					return err
				}
			}
		case input.CategoryIDs != nil:
			if err := txRepo.ReplaceCategories(ctx, discount.ID, dedupeIDs(*input.CategoryIDs)); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return nil, s.mutationError(err, "update discount")
	}

	s.record(ctx, audit.Entry{
		Actor:      actor,
		Action:     audit.ActionUpdate,
		EntityType: AuditEntityType,
		EntityID:   discount.ID,
		Changes:    map[string]any{"fields": changed},
	})
	return s.GetDiscount(ctx, discount.ID)
}

// DeleteDiscount hard-deletes a discount and its target rows.
func (s *service) DeleteDiscount(ctx context.Context, actor audit.Actor, id uuid.UUID) error {
	discount, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return lookupError(err)
	}

	var deleted bool
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := txRepo.ReplaceProducts(ctx, id, nil); err != nil {
			return err
		}
		if err := txRepo.ReplaceCategories(ctx, id, nil); err != nil {
			return err
		}
		var err error
		deleted, err = txRepo.Delete(ctx, id)
		return err
	}); err != nil {
		return s.mutationError(err, "delete discount")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "discount not found")
	}

	s.record(ctx, audit.Entry{
		Actor:      actor,
		Action:     audit.ActionDelete,
		EntityType: AuditEntityType,
		EntityID:   id,
		Changes:    map[string]any{"name": discount.Name, "code": discount.Code},
	})
	return nil
}

// GetDiscount returns a discount with its resolved targets.
func (s *service) GetDiscount(ctx context.Context, id uuid.UUID) (*DiscountDTO, error) {
	discount, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err)
	}
	targets, err := s.repo.LoadTargets(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load discount targets")
	}
	return NewDiscountDTO(discount, targets[id], s.now()), nil
}

// ListDiscounts returns a filtered, sorted page of the catalog.
func (s *service) ListDiscounts(ctx context.Context, input ListDiscountsInput) (*DiscountListResult, error) {
	params := input.Params.Normalize()
	sort := input.Sort
	if sort == "" {
		sort = enums.DiscountSortCreatedAtDesc
	}
	if !sort.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid sort").WithDetails(map[string]any{"field": "sort"})
	}

	now := s.now()
	rows, total, err := s.repo.List(ctx, input.Filters, params, sort, now)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list discounts")
	}

	ids := make([]uuid.UUID, len(rows))
	for i := range rows {
		ids[i] = rows[i].ID
	}
	targets, err := s.repo.LoadTargets(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load discount targets")
	}

	items := make([]DiscountDTO, len(rows))
	for i := range rows {
		items[i] = *NewDiscountDTO(&rows[i], targets[rows[i].ID], now)
	}
	return &DiscountListResult{Items: items, Total: total, Page: params.Page, Limit: params.Limit}, nil
}

// ListUsage returns a page of the discount's ledger with implied savings reconstructed.
func (s *service) ListUsage(ctx context.Context, id uuid.UUID, params pagination.Params) (*UsageListResult, error) {
	started := time.Now()
	defer func() { s.metrics.ObserveReport("usage", time.Since(started)) }()

	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, lookupError(err)
	}
	params = params.Normalize()
	records, total, err := s.usage.ListByDiscount(ctx, id, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list discount usage")
	}

	records = s.reconstruct(ctx, records)
	items := make([]UsageDTO, len(records))
	for i, r := range records {
		items[i] = NewUsageDTO(r)
	}
	return &UsageListResult{Items: items, Total: total, Page: params.Page, Limit: params.Limit}, nil
}

// Quote evaluates a rule against a hypothetical cart without touching usage counters.
func (s *service) Quote(ctx context.Context, id uuid.UUID, input QuoteInput) (*QuoteResult, error) {
	discount, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err)
	}
	eligibility := Evaluate(discount, s.now())
	savings := Calculate(discount, input)

	reasons := append(eligibility.Reasons, savings.Reasons...)
	return &QuoteResult{
		DiscountID:  discount.ID,
		Usable:      len(reasons) == 0,
		Reasons:     reasons,
		Merchandise: formatMoney(savings.Merchandise),
		Shipping:    formatMoney(savings.Shipping),
		Total:       formatMoney(savings.Total),
	}, nil
}

// reconstruct never fails: when item prices cannot be read, rows keep their stored amount.
func (s *service) reconstruct(ctx context.Context, records []UsageRecord) []UsageRecord {
	orderIDs := CandidateOrderIDs(records)
	var items []orders.ItemPrice
	if len(orderIDs) > 0 {
		var err error
		items, err = s.orders.ListItemPrices(ctx, orderIDs)
		if err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "discounts.reconstruct_failed")
			return passThrough(records)
		}
	}
	out, stats := Reconstruct(records, items)
	for kind, n := range stats.ReconstructedByKind {
		s.metrics.AddReconstructed(kind.String(), n)
	}
	s.metrics.AddUnresolvedLines(stats.UnresolvedLines)
	return out
}

func (s *service) record(ctx context.Context, entry audit.Entry) {
	if err := s.audit.Record(ctx, entry); err != nil {
		fields := map[string]any{
			"error":     err.Error(),
			"action":    entry.Action,
			"entity_id": entry.EntityID.String(),
		}
		if entry.Actor.ID != uuid.Nil {
			ctx = s.logg.WithActor(ctx, entry.Actor.ID.String())
		}
		s.logg.Warn(s.logg.WithFields(ctx, fields), "discounts.audit_failed")
	}
}

func (s *service) mutationError(err error, message string) error {
	if pkgerrors.As(err) != nil {
		return err
	}
	if db.IsUniqueViolation(err, "") {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "discount code already exists").
			WithDetails(map[string]any{"field": "code"})
	}
	if db.IsForeignKeyViolation(err, "") {
		const reason = "target product does not exist"
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, reason).
			WithDetails(map[string]any{"fields": []pkgerrors.FieldError{{Field: "productIds", Reason: reason}}})
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, message)
}

func lookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "discount not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load discount")
}

func applyUpdate(d *models.Discount, input UpdateDiscountInput) {
	if input.Name != nil {
		d.Name = *input.Name
	}
	if input.Code.Valid {
		d.Code = input.Code.Clone().Value
	}
	if input.Type != nil {
		d.Type = *input.Type
	}
	if input.Value != nil {
		d.Value = *input.Value
	}
	if input.Scope != nil {
		d.Scope = *input.Scope
	}
	if input.IsAutomatic != nil {
		d.IsAutomatic = *input.IsAutomatic
	}
	if input.Status != nil {
		d.Status = *input.Status
	}
	if input.UsageLimit.Valid {
		d.UsageLimit = input.UsageLimit.Clone().Value
	}
	if input.StartsAt.Valid {
		d.StartsAt = input.StartsAt.Clone().Value
	}
	if input.EndsAt.Valid {
		d.EndsAt = input.EndsAt.Clone().Value
	}
	if input.MinSubtotal.Valid {
		d.MinSubtotal = input.MinSubtotal.Clone().Value
	}
	if input.Metadata.Valid {
		if input.Metadata.Value == nil {
			d.Metadata = types.PromotionMetadata{}
		} else {
			d.Metadata = *input.Metadata.Value
		}
	}
}

func changedFields(before, after *models.Discount) []string {
	fields := []string{}
	add := func(name string, changed bool) {
		if changed {
			fields = append(fields, name)
		}
	}
	add("name", before.Name != after.Name)
	add("code", !reflect.DeepEqual(before.Code, after.Code))
	add("type", before.Type != after.Type)
	add("value", !before.Value.Equal(after.Value))
	add("scope", before.Scope != after.Scope)
	add("isAutomatic", before.IsAutomatic != after.IsAutomatic)
	add("status", before.Status != after.Status)
	add("usageLimit", !reflect.DeepEqual(before.UsageLimit, after.UsageLimit))
	add("startsAt", !sameTime(before.StartsAt, after.StartsAt))
	add("endsAt", !sameTime(before.EndsAt, after.EndsAt))
	add("minSubtotal", !sameDecimal(before.MinSubtotal, after.MinSubtotal))
	add("metadata", !reflect.DeepEqual(before.Metadata, after.Metadata))
	return fields
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func sameDecimal(a, b *decimal.Decimal) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func dedupeIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// passThrough keeps every stored amount as the effective amount.
func passThrough(records []UsageRecord) []UsageRecord {
	out := make([]UsageRecord, len(records))
	for i, r := range records {
		r.EffectiveAmount = r.Amount
		r.Reconstructed = false
		out[i] = r
	}
	return out
}
