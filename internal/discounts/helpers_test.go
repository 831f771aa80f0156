package discounts

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-promotions/internal/audit"
	"github.com/angelmondragon/storefront-promotions/internal/orders"
	"github.com/angelmondragon/storefront-promotions/pkg/db"
	"github.com/angelmondragon/storefront-promotions/pkg/db/models"
	"github.com/angelmondragon/storefront-promotions/pkg/enums"
	"github.com/angelmondragon/storefront-promotions/pkg/logger"
	"github.com/angelmondragon/storefront-promotions/pkg/metrics"
	"github.com/angelmondragon/storefront-promotions/pkg/types"
)

var testNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

var schema = []string{`
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
);`, `
CREATE TABLE IF NOT EXISTS discount_products (
  discount_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  created_at DATETIME,
  PRIMARY KEY (discount_id, product_id)
);`, `
CREATE TABLE IF NOT EXISTS discount_categories (
  discount_id TEXT NOT NULL,
  category_id TEXT NOT NULL,
  created_at DATETIME,
  PRIMARY KEY (discount_id, category_id)
);`, `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  order_number TEXT NOT NULL,
  customer_email TEXT NOT NULL,
  total_amount NUMERIC NOT NULL,
  currency TEXT NOT NULL,
  created_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  variant_id TEXT,
  quantity INTEGER NOT NULL,
  unit_price NUMERIC NOT NULL,
  total_price NUMERIC NOT NULL
);`, `
CREATE TABLE IF NOT EXISTS order_discounts (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  discount_id TEXT NOT NULL,
  code TEXT,
  amount NUMERIC NOT NULL DEFAULT 0,
  created_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS order_item_discounts (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  order_item_id TEXT NOT NULL,
  discount_id TEXT NOT NULL,
  code TEXT,
  amount NUMERIC NOT NULL DEFAULT 0,
  created_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  price NUMERIC NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS product_variants (
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL,
  price NUMERIC
);`}

func setupDiscountsDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		NowFunc: func() time.Time { return testNow },
	})
	require.NoError(t, err)
	for _, ddl := range schema {
		require.NoError(t, conn.Exec(ddl).Error)
	}
	return conn
}

type recordingSink struct {
	entries []audit.Entry
	err     error
}

func (s *recordingSink) Record(_ context.Context, entry audit.Entry) error {
	s.entries = append(s.entries, entry)
	return s.err
}

type staticCurrency string

func (c staticCurrency) DisplayCurrency(context.Context) (string, error) {
	return string(c), nil
}

type failingItems struct{}

func (failingItems) ListItemPrices(context.Context, []uuid.UUID) ([]orders.ItemPrice, error) {
	return nil, errors.New("orders unavailable")
}

type testEnv struct {
	db   *gorm.DB
	svc  *service
	sink *recordingSink
	reg  *prometheus.Registry
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	conn := setupDiscountsDB(t)
	sink := &recordingSink{}
	reg := prometheus.NewRegistry()
	svc, err := NewService(ServiceParams{
		Repo:      NewRepository(conn),
		UsageRepo: NewUsageRepository(conn),
		Tx:        db.Wrap(conn),
		Orders:    orders.NewRepository(conn),
		Settings:  staticCurrency("EUR"),
		Audit:     sink,
		Metrics:   metrics.NewDiscountMetrics(reg),
		Logger:    logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		Now:       func() time.Time { return testNow },
	})
	require.NoError(t, err)
	return &testEnv{db: conn, svc: svc.(*service), sink: sink, reg: reg}
}

func money(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func ptr[T any](v T) *T {
	return &v
}

type discountFixture struct {
	name      string
	code      *string
	typ       enums.DiscountType
	value     string
	status    enums.DiscountStatus
	meta      types.PromotionMetadata
	automatic bool
	startsAt  *time.Time
	endsAt    *time.Time
	createdAt time.Time
	usage     int
}

func insertDiscount(t *testing.T, conn *gorm.DB, f discountFixture) *models.Discount {
	t.Helper()

	if f.typ == "" {
		f.typ = enums.DiscountTypePercentage
	}
	if f.value == "" {
		f.value = "10"
	}
	if f.status == "" {
		f.status = enums.DiscountStatusActive
	}
	if f.createdAt.IsZero() {
		f.createdAt = testNow.Add(-time.Hour)
	}
	kind, err := f.meta.ResolveKind(f.automatic)
	require.NoError(t, err)

	d := &models.Discount{
		Name:          f.name,
		Code:          f.code,
		Type:          f.typ,
		Value:         money(f.value),
		Scope:         enums.DiscountScopeAll,
		IsAutomatic:   f.automatic,
		Status:        f.status,
		UsageCount:    f.usage,
		StartsAt:      f.startsAt,
		EndsAt:        f.endsAt,
		Metadata:      f.meta,
		PromotionKind: kind,
		CreatedAt:     f.createdAt,
		UpdatedAt:     f.createdAt,
	}
	require.NoError(t, conn.Create(d).Error)
	return d
}

func insertOrder(t *testing.T, conn *gorm.DB, number string) *models.Order {
	t.Helper()
	o := &models.Order{
		OrderNumber:   number,
		CustomerEmail: number + "@example.com",
		TotalAmount:   money("100.00"),
		Currency:      "EUR",
		CreatedAt:     testNow.Add(-time.Hour),
	}
	require.NoError(t, conn.Create(o).Error)
	return o
}

func insertProduct(t *testing.T, conn *gorm.DB, price string) *models.Product {
	t.Helper()
	p := &models.Product{Name: "product-" + price, Price: money(price)}
	require.NoError(t, conn.Create(p).Error)
	return p
}

func insertItem(t *testing.T, conn *gorm.DB, orderID, productID uuid.UUID, qty int, unit, total string) {
	t.Helper()
	require.NoError(t, conn.Create(&models.OrderItem{
		OrderID:    orderID,
		ProductID:  productID,
		Quantity:   qty,
		UnitPrice:  money(unit),
		TotalPrice: money(total),
	}).Error)
}

func insertLedger(t *testing.T, conn *gorm.DB, orderID, discountID uuid.UUID, amount string, at time.Time) *models.OrderDiscount {
	t.Helper()
	row := &models.OrderDiscount{OrderID: orderID, DiscountID: discountID, Amount: money(amount), CreatedAt: at}
	require.NoError(t, conn.Create(row).Error)
	return row
}
