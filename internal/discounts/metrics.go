package discounts

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/storefront-promotions/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-promotions/pkg/errors"
)

const trailingWindow = 30 * 24 * time.Hour

// Metrics rolls up the catalog and ledger for discounts matching filters. Savings totals
// include implied savings reconstructed for zero-amount offer and deal rows so they agree
// with the usage listing.
func (s *service) Metrics(ctx context.Context, filters Filters) (*MetricsResult, error) {
	started := time.Now()
	defer func() { s.metrics.ObserveReport("metrics", time.Since(started)) }()

	now := s.now()
	since := now.Add(-trailingWindow)

	var (
		byStatus, byType, byKind []GroupCount
		activeNow, totalUsage    int64
		stored, stored30d        decimal.Decimal
		implied, implied30d      decimal.Decimal
		currency                 string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		byStatus, err = s.repo.CountBy(gctx, "status", filters, now)
		return wrapDependency(err, "db: count discounts by status")
	})
	g.Go(func() error {
		var err error
		byType, err = s.repo.CountBy(gctx, "type", filters, now)
		return wrapDependency(err, "db: count discounts by type")
	})
	g.Go(func() error {
		var err error
		byKind, err = s.repo.CountBy(gctx, "promotion_kind", filters, now)
		return wrapDependency(err, "db: count discounts by kind")
	})
	g.Go(func() error {
		var err error
		activeNow, err = s.repo.CountActiveNow(gctx, filters, now)
		return wrapDependency(err, "db: count active discounts")
	})
	g.Go(func() error {
		var err error
		totalUsage, err = s.repo.SumUsageCount(gctx, filters, now)
		return wrapDependency(err, "db: sum usage count")
	})
	g.Go(func() error {
		var err error
		stored, err = s.usage.SumStored(gctx, filters, nil, now)
		return wrapDependency(err, "db: sum discount ledger")
	})
	g.Go(func() error {
		var err error
		stored30d, err = s.usage.SumStored(gctx, filters, &since, now)
		return wrapDependency(err, "db: sum trailing discount ledger")
	})
	g.Go(func() error {
		var err error
		implied, implied30d, err = s.impliedSavings(gctx, filters, since, now)
		return err
	})
	g.Go(func() error {
		var err error
		currency, err = s.settings.DisplayCurrency(gctx)
		return wrapDependency(err, "resolve display currency")
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &MetricsResult{
		ActiveNowCount:        activeNow,
		TotalUsage:            totalUsage,
		TotalDiscountGiven:    formatMoney(stored.Add(implied)),
		TotalDiscountGiven30d: formatMoney(stored30d.Add(implied30d)),
		ByType:                map[enums.DiscountType]int64{},
		ByKind:                map[enums.PromotionKind]int64{},
		Currency:              currency,
	}
	for _, row := range byStatus {
		switch enums.DiscountStatus(row.Key) {
		case enums.DiscountStatusDraft:
			result.DraftCount = row.Count
		case enums.DiscountStatusActive:
			result.ActiveCount = row.Count
		case enums.DiscountStatusExpired:
			result.ExpiredCount = row.Count
		case enums.DiscountStatusArchived:
			result.ArchivedCount = row.Count
		}
	}
	for _, t := range enums.DiscountTypes() {
		result.ByType[t] = 0
	}
	for _, row := range byType {
		result.ByType[enums.DiscountType(row.Key)] = row.Count
	}
	for _, k := range enums.PromotionKinds() {
		result.ByKind[k] = 0
	}
	for _, row := range byKind {
		result.ByKind[enums.PromotionKind(row.Key)] = row.Count
	}
	return result, nil
}

// impliedSavings reconstructs zero-amount candidate rows and returns their overall and
// trailing-window totals. Item lookup failures degrade to zero.
func (s *service) impliedSavings(ctx context.Context, filters Filters, since, now time.Time) (decimal.Decimal, decimal.Decimal, error) {
	candidates, err := s.usage.ListCandidates(ctx, filters, now)
	if err != nil {
		return decimal.Zero, decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list reconstruction candidates")
	}
	if len(candidates) == 0 {
		return decimal.Zero, decimal.Zero, nil
	}

	items, err := s.orders.ListItemPrices(ctx, CandidateOrderIDs(candidates))
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "discounts.reconstruct_failed")
		return decimal.Zero, decimal.Zero, nil
	}

	records, _ := Reconstruct(candidates, items)
	total, trailing := decimal.Zero, decimal.Zero
	for _, r := range records {
		total = total.Add(r.EffectiveAmount)
		if !r.CreatedAt.Before(since) {
			trailing = trailing.Add(r.EffectiveAmount)
		}
	}
	return total, trailing, nil
}

func wrapDependency(err error, message string) error {
	if err == nil {
		return nil
	}
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, message)
}
