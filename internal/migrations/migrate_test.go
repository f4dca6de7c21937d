package migrations

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLatestVersion(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"000001_init.up.sql",
		"000001_init.down.sql",
		"000003_more.up.sql",
		"000007_pending.down.sql", // down only, ignored
		"README.md",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("--"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if got := LatestVersion(dir); got != 3 {
		t.Errorf("LatestVersion = %d, want 3", got)
	}
	if got := LatestVersion(filepath.Join(dir, "missing")); got != 0 {
		t.Errorf("missing dir = %d, want 0", got)
	}
}

func TestRepositoryMigrationsPaired(t *testing.T) {
	dir := filepath.Join("..", "..", DefaultDir)
	if LatestVersion(dir) < 2 {
		t.Fatalf("expected at least two migrations in %s", dir)
	}
	ups, _ := filepath.Glob(filepath.Join(dir, "*.up.sql"))
	downs, _ := filepath.Glob(filepath.Join(dir, "*.down.sql"))
	if len(ups) != len(downs) {
		t.Errorf("%d up files but %d down files", len(ups), len(downs))
	}
}

func TestRunMigrationsRequiresURL(t *testing.T) {
	if err := RunMigrations("", DefaultDir); err == nil {
		t.Error("empty database URL should fail")
	}
}
