package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/memoria-ph/memoria-backend/pkg/migrate"
)

func TestOrdersMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_orders.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS orders",
		"status TEXT NOT NULL DEFAULT 'pending'",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_orders_external_id",
		"idx_orders_carrier_tracking",
		"CHECK (total >= 0)",
		"DROP TABLE IF EXISTS orders",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestCartMigrationEnforcesOneRowPerProduct(t *testing.T) {
	content := readMigration(t, "*_create_carts.sql")

	checks := []string{
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_carts_user_id",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_cart_items_cart_product ON cart_items (cart_id, product_id)",
		"FOREIGN KEY (cart_id) REFERENCES carts(id) ON DELETE CASCADE",
		"CHECK (quantity > 0)",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestTrackingSequencesMigration(t *testing.T) {
	content := readMigration(t, "*_create_tracking_sequences.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS tracking_sequences",
		"carrier TEXT PRIMARY KEY",
		"next_seq BIGINT NOT NULL DEFAULT 1",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestMigrationDirIsValid(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations dir: %v", err)
	}
}

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration matching %q", pattern)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}
