package db

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/angelmondragon/storefront-promotions/pkg/logger"
)

type testModel struct {
	ID   int
	Name string
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&testModel{}); err != nil {
		t.Fatalf("failed to migrate sqlite: %v", err)
	}
	return conn
}

func TestWithTx_CommitsAndRollbacks(t *testing.T) {
	db := newTestDB(t)
	client := &Client{conn: db}

	ctx := context.Background()
	if err := client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&testModel{Name: "committed"}).Error
	}); err != nil {
		t.Fatalf("WithTx commit failed: %v", err)
	}

	var count int64
	if err := db.Model(&testModel{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 record, got %d", count)
	}

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&testModel{Name: "rolled"}).Error; err != nil {
			return err
		}
		return errors.New("boom")
	})
	if err == nil {
		t.Fatal("expected WithTx to return an error")
	}
	if err := db.Model(&testModel{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed after rollback: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected rollback to leave 1 record, got %d", count)
	}
}

func TestPing(t *testing.T) {
	db := newTestDB(t)
	client := &Client{conn: db}
	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected ping error: %v", err)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		constraint string
		want       bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "postgres text", err: errors.New(`ERROR: duplicate key value violates unique constraint "discounts_code_key"`), want: true},
		{name: "postgres text constraint match", err: errors.New(`duplicate key value violates unique constraint "discounts_code_key"`), constraint: "discounts_code_key", want: true},
		{name: "postgres text constraint mismatch", err: errors.New(`duplicate key value violates unique constraint "other_key"`), constraint: "discounts_code_key", want: false},
		{name: "sqlite", err: errors.New("UNIQUE constraint failed: discounts.code"), want: true},
		{name: "unrelated", err: errors.New("connection reset"), want: false},
		{name: "pgx", err: fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "ux_discounts_code"}), constraint: "ux_discounts_code", want: true},
		{name: "pq", err: &pq.Error{Code: "23505", Constraint: "ux_discounts_code"}, want: true},
		{name: "pgx other code", err: &pgconn.PgError{Code: "23503", ConstraintName: "ux_discounts_code"}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUniqueViolation(tt.err, tt.constraint); got != tt.want {
				t.Fatalf("IsUniqueViolation() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsForeignKeyViolation(t *testing.T) {
	fk := &pgconn.PgError{Code: "23503", ConstraintName: "discount_products_product_id_fkey"}
	if !IsForeignKeyViolation(fk, "") {
		t.Fatal("expected pgx foreign key violation")
	}
	if IsForeignKeyViolation(fk, "discount_categories_discount_id_fkey") {
		t.Fatal("expected constraint mismatch to be rejected")
	}
	if !IsForeignKeyViolation(errors.New("FOREIGN KEY constraint failed"), "") {
		t.Fatal("expected sqlite foreign key violation")
	}
	if IsForeignKeyViolation(&pq.Error{Code: "23505"}, "") {
		t.Fatal("unique violation is not a foreign key violation")
	}
}

func TestWrapExposesConnection(t *testing.T) {
	conn := newTestDB(t)
	client := Wrap(conn)
	if client.DB() != conn {
		t.Fatal("expected wrapped client to expose the same connection")
	}
}

func TestGormLoggerReportsFailuresAndSlowQueries(t *testing.T) {
	buf := &bytes.Buffer{}
	logg := logger.New(logger.Options{ServiceName: "db-test", Output: buf, Format: "json"})
	gl := NewGormLogger(logg, 50*time.Millisecond)
	query := func() (string, int64) { return "SELECT * FROM discounts", 3 }

	gl.Trace(context.Background(), time.Now(), query, nil)
	gl.Trace(context.Background(), time.Now(), query, gorm.ErrRecordNotFound)
	if buf.Len() != 0 {
		t.Fatalf("expected fast and not-found queries to be dropped, got %s", buf.String())
	}

	gl.Trace(context.Background(), time.Now().Add(-time.Second), query, nil)
	if !strings.Contains(buf.String(), "db.slow_query") || !strings.Contains(buf.String(), "SELECT * FROM discounts") {
		t.Fatalf("expected slow query warning, got %s", buf.String())
	}

	buf.Reset()
	gl.Trace(context.Background(), time.Now(), query, errors.New("relation does not exist"))
	if !strings.Contains(buf.String(), "db.query_failed") {
		t.Fatalf("expected failed query error, got %s", buf.String())
	}

	buf.Reset()
	gl.LogMode(gormlogger.Silent).Trace(context.Background(), time.Now(), query, errors.New("boom"))
	if buf.Len() != 0 {
		t.Fatalf("expected silent mode to drop everything, got %s", buf.String())
	}

	if NewGormLogger(nil, time.Second) != gormlogger.Discard {
		t.Fatal("expected nil logger to discard")
	}
}
