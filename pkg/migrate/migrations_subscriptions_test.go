package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grocerly/grocerly-backend/pkg/migrate"
)

func TestSubscriptionsMigrationContainsSchedule(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_subscriptions.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no subscriptions migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS subscription_orders",
		"CREATE TABLE IF NOT EXISTS subscription_line_items",
		"CREATE TABLE IF NOT EXISTS pause_records",
		"CHECK (end_date >= start_date)",
		"CHECK (pause_end >= pause_start)",
		"WHERE refunded_at IS NULL",
	}
	for _, day := range []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"} {
		checks = append(checks, "qty_"+day)
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestMigrationsDirIsValid(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations dir: %v", err)
	}
}
