package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-promotions/internal/audit"
	"github.com/angelmondragon/storefront-promotions/internal/discounts"
	"github.com/angelmondragon/storefront-promotions/pkg/db"
	"github.com/angelmondragon/storefront-promotions/pkg/db/models"
	"github.com/angelmondragon/storefront-promotions/pkg/enums"
	"github.com/angelmondragon/storefront-promotions/pkg/types"
)

var expiryNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

const discountsDDL = `
CREATE TABLE IF NOT EXISTS discounts (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  code TEXT UNIQUE,
  type TEXT NOT NULL,
  value NUMERIC NOT NULL DEFAULT 0,
  scope TEXT NOT NULL DEFAULT 'all',
  is_automatic INTEGER NOT NULL DEFAULT 0,
  status TEXT NOT NULL DEFAULT 'draft',
  usage_limit INTEGER,
  usage_count INTEGER NOT NULL DEFAULT 0,
  starts_at DATETIME,
  ends_at DATETIME,
  min_subtotal NUMERIC,
  metadata TEXT NOT NULL DEFAULT '{}',
  promotion_kind TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`

type auditRecorder struct {
	entries []audit.Entry
	err     error
}

func (a *auditRecorder) Record(_ context.Context, entry audit.Entry) error {
	a.entries = append(a.entries, entry)
	return a.err
}

func setupExpiryDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{NowFunc: func() time.Time { return expiryNow }})
	require.NoError(t, err)
	require.NoError(t, conn.Exec(discountsDDL).Error)
	return conn
}

func seedDiscount(t *testing.T, conn *gorm.DB, status enums.DiscountStatus, endsAt *time.Time) uuid.UUID {
	t.Helper()
	d := &models.Discount{
		Name:          "promo " + uuid.NewString()[:8],
		Type:          enums.DiscountTypePercentage,
		Value:         decimal.NewFromInt(10),
		Scope:         enums.DiscountScopeAll,
		IsAutomatic:   true,
		Status:        status,
		EndsAt:        endsAt,
		Metadata:      types.PromotionMetadata{},
		PromotionKind: enums.PromotionKindScheduledOffer,
	}
	require.NoError(t, conn.Create(d).Error)
	return d.ID
}

func statusOf(t *testing.T, conn *gorm.DB, id uuid.UUID) enums.DiscountStatus {
	t.Helper()
	var d models.Discount
	require.NoError(t, conn.Where("id = ?", id).Take(&d).Error)
	return d.Status
}

func TestDiscountExpiryJobExpiresEndedActiveDiscounts(t *testing.T) {
	conn := setupExpiryDB(t)
	past := expiryNow.Add(-time.Hour)
	future := expiryNow.Add(time.Hour)

	ended := seedDiscount(t, conn, enums.DiscountStatusActive, &past)
	running := seedDiscount(t, conn, enums.DiscountStatusActive, &future)
	unbounded := seedDiscount(t, conn, enums.DiscountStatusActive, nil)
	draft := seedDiscount(t, conn, enums.DiscountStatusDraft, &past)

	sink := &auditRecorder{}
	job, err := NewDiscountExpiryJob(DiscountExpiryJobParams{
		Logger:     quietLogger(),
		DB:         db.Wrap(conn),
		Repository: discounts.NewRepository(conn),
		Audit:      sink,
		Now:        func() time.Time { return expiryNow },
	})
	require.NoError(t, err)
	assert.Equal(t, "discount-expiry", job.Name())

	require.NoError(t, job.Run(context.Background()))

	assert.Equal(t, enums.DiscountStatusExpired, statusOf(t, conn, ended))
	assert.Equal(t, enums.DiscountStatusActive, statusOf(t, conn, running))
	assert.Equal(t, enums.DiscountStatusActive, statusOf(t, conn, unbounded))
	assert.Equal(t, enums.DiscountStatusDraft, statusOf(t, conn, draft))

	require.Len(t, sink.entries, 1)
	assert.Equal(t, audit.ActionExpire, sink.entries[0].Action)
	assert.Equal(t, discounts.AuditEntityType, sink.entries[0].EntityType)
	assert.Equal(t, ended, sink.entries[0].EntityID)

	// a second pass finds nothing left to expire
	require.NoError(t, job.Run(context.Background()))
	assert.Len(t, sink.entries, 1)
}

func TestDiscountExpiryJobToleratesAuditFailure(t *testing.T) {
	conn := setupExpiryDB(t)
	past := expiryNow.Add(-time.Minute)
	id := seedDiscount(t, conn, enums.DiscountStatusActive, &past)

	job, err := NewDiscountExpiryJob(DiscountExpiryJobParams{
		Logger:     quietLogger(),
		DB:         db.Wrap(conn),
		Repository: discounts.NewRepository(conn),
		Audit:      &auditRecorder{err: errors.New("audit store down")},
		Now:        func() time.Time { return expiryNow },
	})
	require.NoError(t, err)

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, enums.DiscountStatusExpired, statusOf(t, conn, id))
}

func TestNewDiscountExpiryJobValidatesParams(t *testing.T) {
	_, err := NewDiscountExpiryJob(DiscountExpiryJobParams{Logger: quietLogger()})
	assert.Error(t, err)
}
