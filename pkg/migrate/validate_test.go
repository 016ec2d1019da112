package migrate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestValidateDirAcceptsRepoMigrations(t *testing.T) {
	if err := ValidateDir("../../migrations"); err != nil {
		t.Fatalf("repo migrations invalid: %v", err)
	}
}

func TestValidateDirRejectsBadFilename(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "001_bad.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := ValidateDir(dir); err == nil {
		t.Fatal("expected filename error")
	}
}

func TestValidateDirRequiresGooseMarkers(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "20240101000000_missing_down.sql"), []byte("-- +goose Up\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	err := ValidateDir(dir)
	if err == nil || !strings.Contains(err.Error(), "goose Down") {
		t.Fatalf("expected missing Down error, got %v", err)
	}
}

func TestCreateSQLMigrationWritesTemplate(t *testing.T) {
	dir := t.TempDir()
	path, err := CreateSQLMigration(dir, "Add Vendor Earnings")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(path, "_add_vendor_earnings.sql") {
		t.Fatalf("unexpected path %s", path)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), "-- +goose Up") || !strings.Contains(string(b), "-- +goose Down") {
		t.Fatalf("template missing goose markers:\n%s", b)
	}
}
