package migrate_test

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/angelmondragon/storefront-promotions/pkg/migrate"
	"github.com/angelmondragon/storefront-promotions/pkg/migrate/migrations"
)

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected one migration matching %q, got %d", pattern, len(matches))
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func TestMigrationsDirIsValid(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("ValidateDir: %v", err)
	}
}

func TestDiscountsMigrationContainsSchema(t *testing.T) {
	content := readMigration(t, "*_create_discounts.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS discounts",
		"CONSTRAINT chk_discounts_automatic_code CHECK (NOT is_automatic OR code IS NULL)",
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_discounts_code ON discounts (code) WHERE code IS NOT NULL",
		"CREATE TABLE IF NOT EXISTS discount_products",
		"CREATE TABLE IF NOT EXISTS discount_categories",
		"REFERENCES discounts(id) ON DELETE CASCADE",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestUsageLedgerMigrationContainsSchema(t *testing.T) {
	content := readMigration(t, "*_create_discount_usage_ledger.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS order_discounts",
		"CREATE TABLE IF NOT EXISTS order_item_discounts",
		"CREATE INDEX IF NOT EXISTS idx_order_discounts_discount_created",
		"amount numeric(12,2) NOT NULL DEFAULT 0 CHECK (amount >= 0)",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestEmbeddedMigrationsMatchDisk(t *testing.T) {
	embedded, err := fs.Glob(migrations.FS, "*.sql")
	if err != nil {
		t.Fatalf("glob embedded: %v", err)
	}
	onDisk, err := filepath.Glob(filepath.Join("migrations", "*.sql"))
	if err != nil {
		t.Fatalf("glob disk: %v", err)
	}
	if len(embedded) == 0 || len(embedded) != len(onDisk) {
		t.Fatalf("embedded %d migrations, disk has %d", len(embedded), len(onDisk))
	}
	if err := migrate.Validate(migrations.FS); err != nil {
		t.Fatalf("Validate embedded: %v", err)
	}
}

func TestValidateRejectsBrokenFiles(t *testing.T) {
	cases := map[string]string{
		"20260101000000_no_down.sql":    "-- +goose Up\nCREATE TABLE a (id int);\n",
		"20260101000000_empty_up.sql":   "-- +goose Up\n-- nothing\n-- +goose Down\nDROP TABLE a;\n",
		"20260101000000_unbalanced.sql": "-- +goose Up\n-- +goose StatementBegin\nSELECT 1;\n-- +goose Down\nSELECT 1;\n",
		"20260101000000_down_first.sql": "-- +goose Down\nDROP TABLE a;\n-- +goose Up\nCREATE TABLE a (id int);\n",
		"2026_bad_version.sql":          "-- +goose Up\nSELECT 1;\n-- +goose Down\nSELECT 1;\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			fsys := fstest.MapFS{name: &fstest.MapFile{Data: []byte(body)}}
			if err := migrate.Validate(fsys); err == nil {
				t.Fatalf("expected %s to be rejected", name)
			}
		})
	}
}

func TestValidateRejectsDuplicateVersions(t *testing.T) {
	body := []byte("-- +goose Up\nSELECT 1;\n-- +goose Down\nSELECT 1;\n")
	fsys := fstest.MapFS{
		"20260101000000_first.sql":  &fstest.MapFile{Data: body},
		"20260101000000_second.sql": &fstest.MapFile{Data: body},
	}
	if err := migrate.Validate(fsys); err == nil || !strings.Contains(err.Error(), "duplicate migration version") {
		t.Fatalf("expected duplicate version error, got %v", err)
	}
}

func TestParseVersion(t *testing.T) {
	if v, err := migrate.ParseVersion("20260301090100"); err != nil || v != 20260301090100 {
		t.Fatalf("ParseVersion valid: %d %v", v, err)
	}
	for _, raw := range []string{"", "2026", "2026030109010x", "-0260301090100"} {
		if _, err := migrate.ParseVersion(raw); err == nil {
			t.Fatalf("expected %q to be rejected", raw)
		}
	}
}

func TestCreateSQLMigrationWritesGooseHeaders(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	path, err := migrate.CreateSQLMigration(dir, "Add Discount Notes!", now)
	if err != nil {
		t.Fatalf("CreateSQLMigration: %v", err)
	}
	if filepath.Base(path) != "20260304050607_add_discount_notes.sql" {
		t.Fatalf("unexpected migration path %q", path)
	}
	if err := migrate.ValidateDir(dir); err != nil {
		t.Fatalf("ValidateDir on generated file: %v", err)
	}

	if _, err := migrate.CreateSQLMigration(dir, "add discount notes", now.Add(time.Hour)); err == nil {
		t.Fatal("expected reused migration name to be rejected")
	}
	if _, err := migrate.CreateSQLMigration(dir, "!!!", now); err == nil {
		t.Fatal("expected empty slug to be rejected")
	}
}
