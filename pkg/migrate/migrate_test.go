package migrate

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"
)

func TestMigrationsDirIsValid(t *testing.T) {
	if err := ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations: %v", err)
	}
}

func TestEmbeddedMigrationsMatchDir(t *testing.T) {
	if err := ValidateFS(Embedded()); err != nil {
		t.Fatalf("validate embedded migrations: %v", err)
	}
	onDisk, err := filepath.Glob(filepath.Join("migrations", "*.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	embeddedFiles, err := fs.Glob(Embedded(), "*.sql")
	if err != nil {
		t.Fatalf("glob embedded: %v", err)
	}
	if len(embeddedFiles) != len(onDisk) {
		t.Fatalf("expected %d embedded migrations, got %d", len(onDisk), len(embeddedFiles))
	}
}

func TestValidateFSRejectsEmptySet(t *testing.T) {
	if err := ValidateFS(fstest.MapFS{}); err == nil {
		t.Fatal("expected error for empty migrations set")
	}
}

func TestRunRequiresDB(t *testing.T) {
	if err := Run(context.Background(), nil, "", "up", nil); err == nil {
		t.Fatal("expected error without db")
	}
}

func TestMigrationsCoverEveryTable(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("migrations", "*.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	var all strings.Builder
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			t.Fatalf("read %s: %v", file, err)
		}
		all.Write(data)
	}
	content := all.String()

	checks := []string{
		"CREATE TABLE IF NOT EXISTS products",
		"CHECK (stock >= 0)",
		"CREATE TABLE IF NOT EXISTS promotions",
		"CREATE TABLE IF NOT EXISTS promotion_products",
		"CREATE TABLE IF NOT EXISTS orders",
		"CREATE TABLE IF NOT EXISTS order_line_items",
		"CREATE UNIQUE INDEX IF NOT EXISTS favorites_customer_product_key",
		"CREATE TABLE IF NOT EXISTS outbox_events",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 6, 1, 8, 30, 0, 0, time.UTC)

	path, err := CreateSQLMigration(dir, " Add Product SKU! ", now)
	if err != nil {
		t.Fatalf("create migration: %v", err)
	}
	if filepath.Base(path) != "20260601083000_add_product_sku.sql" {
		t.Fatalf("unexpected filename %s", filepath.Base(path))
	}
	if err := ValidateDir(dir); err != nil {
		t.Fatalf("created migration is invalid: %v", err)
	}
	if _, err := CreateSQLMigration(dir, "add product sku", now); err == nil {
		t.Fatal("expected error for existing migration")
	}
	if _, err := CreateSQLMigration(dir, "!!!", now); err == nil {
		t.Fatal("expected error for empty sanitized name")
	}
}

func TestValidateDirRejectsBadFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad-name.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := ValidateDir(dir); err == nil {
		t.Fatal("expected invalid filename error")
	}

	dir = t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "20260101000000_missing_down.sql"), []byte("-- +goose Up\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := ValidateDir(dir); err == nil {
		t.Fatal("expected missing down marker error")
	}
}
