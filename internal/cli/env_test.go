package cli

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
)

func writeEnvFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	return path
}

func TestEnvLoaderLoadsRequestedFile(t *testing.T) {
	dir := t.TempDir()
	path := writeEnvFile(t, dir, "custom.env", "AIDE_TEST_KEY=from-custom\n")

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	loader := AddEnvFlag(fs, ".env", "")
	if err := fs.Parse([]string{"--env", path}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	t.Setenv("AIDE_ENV_FILE", "")
	t.Setenv("AIDE_TEST_KEY", "")
	loaded, err := loader.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded != path {
		t.Fatalf("unexpected loaded path: %q", loaded)
	}
	if got := os.Getenv("AIDE_TEST_KEY"); got != "from-custom" {
		t.Fatalf("unexpected env value: %q", got)
	}
}

func TestEnvLoaderHonorsOverrideVariable(t *testing.T) {
	dir := t.TempDir()
	override := writeEnvFile(t, dir, "override.env", "AIDE_TEST_KEY=from-override\n")

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	loader := AddEnvFlag(fs, ".env", "")
	if err := fs.Parse(nil); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	t.Setenv("AIDE_ENV_FILE", override)
	t.Setenv("AIDE_TEST_KEY", "")
	loaded, err := loader.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded != override {
		t.Fatalf("expected override path, got %q", loaded)
	}
	if got := os.Getenv("AIDE_TEST_KEY"); got != "from-override" {
		t.Fatalf("unexpected env value: %q", got)
	}
}

func TestEnvLoaderMissingFile(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	loader := AddEnvFlag(fs, filepath.Join(t.TempDir(), "missing.env"), "")
	if err := fs.Parse(nil); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	t.Setenv("AIDE_ENV_FILE", "")
	if _, err := loader.Load(); err == nil {
		t.Fatalf("expected error for missing env file")
	}
}
