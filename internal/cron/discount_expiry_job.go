package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-promotions/internal/audit"
	"github.com/angelmondragon/storefront-promotions/internal/discounts"
	"github.com/angelmondragon/storefront-promotions/pkg/enums"
	"github.com/angelmondragon/storefront-promotions/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type DiscountExpiryJobParams struct {
	Logger     *logger.Logger
	DB         txRunner
	Repository *discounts.Repository
	Audit      audit.Sink
	Now        func() time.Time
}

// NewDiscountExpiryJob builds the job that closes out active discounts past their end.
func NewDiscountExpiryJob(params DiscountExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("discounts repository required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &discountExpiryJob{
		logg:  params.Logger,
		db:    params.DB,
		repo:  params.Repository,
		audit: params.Audit,
		now:   now,
	}, nil
}

type discountExpiryJob struct {
	logg  *logger.Logger
	db    txRunner
	repo  *discounts.Repository
	audit audit.Sink
	now   func() time.Time
}

func (j *discountExpiryJob) Name() string { return "discount-expiry" }

func (j *discountExpiryJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	var expired []uuid.UUID
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		ids, err := j.repo.WithTx(tx).ExpireEnded(ctx, now)
		if err != nil {
			return err
		}
		expired = ids
		return nil
	})
	if err != nil {
		return fmt.Errorf("discount expiry: %w", err)
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":  now,
		"expired": len(expired),
	})
	if auditErr := j.recordAudit(ctx, expired); auditErr != nil {
		j.logg.Warn(j.logg.WithField(logCtx, "error", auditErr.Error()), "discounts.audit_failed")
	}
	j.logg.Info(logCtx, "discount expiry complete")
	return nil
}

func (j *discountExpiryJob) recordAudit(ctx context.Context, ids []uuid.UUID) error {
	if j.audit == nil {
		return nil
	}
	var errs error
	for _, id := range ids {
		errs = multierr.Append(errs, j.audit.Record(ctx, audit.Entry{
			Action:     audit.ActionExpire,
			EntityType: discounts.AuditEntityType,
			EntityID:   id,
			Changes: map[string]any{
				"status": map[string]any{"from": enums.DiscountStatusActive, "to": enums.DiscountStatusExpired},
			},
		}))
	}
	return errs
}
