package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/certen/ledgercore/pkg/cellerr"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `environment: dev`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Store.Backend != "memory" {
		t.Errorf("default backend: got %q, want memory", cfg.Store.Backend)
	}
	if cfg.Store.CacheSize != 1024 {
		t.Errorf("default cache size: got %d, want 1024", cfg.Store.CacheSize)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("default log level: got %q, want info", cfg.Logging.Level)
	}
}

func TestLoadSubstitutesEnvVars(t *testing.T) {
	t.Setenv("LEDGERCORE_DATA_DIR", "/var/lib/ledgercore")
	path := writeConfig(t, `
store:
  backend: goleveldb
  data_dir: ${LEDGERCORE_DATA_DIR}
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Store.DataDir != "/var/lib/ledgercore" {
		t.Errorf("data_dir: got %q, want /var/lib/ledgercore", cfg.Store.DataDir)
	}
}

func TestLoadEnvVarDefault(t *testing.T) {
	path := writeConfig(t, `
store:
  backend: memory
  data_dir: ${UNSET_DATA_DIR:-./fallback}
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Store.DataDir != "./fallback" {
		t.Errorf("data_dir fallback: got %q, want ./fallback", cfg.Store.DataDir)
	}
}

func TestLoadRejectsUnsupportedBackend(t *testing.T) {
	path := writeConfig(t, `store: {backend: sqlite}`)
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected an error for an unsupported backend")
	}
	if !cellerr.Is(err, cellerr.KindConfigInvalid) {
		t.Errorf("expected a KindConfigInvalid error, got %v", err)
	}
}

func TestLoadRejectsMismatchedEmbedThreshold(t *testing.T) {
	path := writeConfig(t, `store: {embed_threshold: 64}`)
	if _, err := Load(path); err == nil {
		t.Error("expected an error when embed_threshold diverges from the wire format constant")
	}
}

func TestLoadRejectsPostgresWithoutURL(t *testing.T) {
	path := writeConfig(t, `store: {backend: postgres}`)
	if _, err := Load(path); err == nil {
		t.Error("expected an error for postgres backend without a database_url")
	}
}
