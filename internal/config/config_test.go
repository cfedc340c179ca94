package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sentractl.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadAndValidate_Defaults(t *testing.T) {
	path := writeConfig(t, `
api:
  url: https://api.sentra.example
  key: secret
  org_uid: org-1
`)

	cfg, err := LoadAndValidate(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.API.Timeout != DefaultAPITimeout {
		t.Errorf("API.Timeout = %v, want %v", cfg.API.Timeout, DefaultAPITimeout)
	}
	if cfg.Retrieval.MaxWindow != DefaultMaxWindow {
		t.Errorf("MaxWindow = %v, want %v", cfg.Retrieval.MaxWindow, DefaultMaxWindow)
	}
	if cfg.Retrieval.CacheCapacity != DefaultCacheCapacity {
		t.Errorf("CacheCapacity = %d, want %d", cfg.Retrieval.CacheCapacity, DefaultCacheCapacity)
	}
	if cfg.Retrieval.Concurrency != DefaultConcurrency {
		t.Errorf("Concurrency = %d, want %d", cfg.Retrieval.Concurrency, DefaultConcurrency)
	}
	if cfg.Archive.Enabled() {
		t.Error("Archive enabled without a host")
	}
}

func TestLoadAndValidate_EnvExpansion(t *testing.T) {
	t.Setenv("SENTRA_API_KEY", "from-env")

	path := writeConfig(t, `
api:
  url: https://api.sentra.example
  key: ${SENTRA_API_KEY}
  org_uid: org-1
`)

	cfg, err := LoadAndValidate(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.API.Key != "from-env" {
		t.Errorf("API.Key = %q, want from-env", cfg.API.Key)
	}
}

func TestLoadAndValidate_ArchiveDefaults(t *testing.T) {
	path := writeConfig(t, `
api:
  url: https://api.sentra.example
  key: secret
  org_uid: org-1
archive:
  host: db.internal
  name: sentra
  user: archiver
`)

	cfg, err := LoadAndValidate(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Archive.Enabled() {
		t.Fatal("Archive not enabled")
	}
	if cfg.Archive.Port != DefaultDBPort {
		t.Errorf("Port = %d, want %d", cfg.Archive.Port, DefaultDBPort)
	}
	if cfg.Archive.SSLMode != DefaultDBSSLMode {
		t.Errorf("SSLMode = %q, want %q", cfg.Archive.SSLMode, DefaultDBSSLMode)
	}
	if cfg.Archive.Table != DefaultArchiveTable {
		t.Errorf("Table = %q, want %q", cfg.Archive.Table, DefaultArchiveTable)
	}
}

func TestValidate_Failures(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing url", "api:\n  key: k\n  org_uid: o\n"},
		{"missing key", "api:\n  url: u\n  org_uid: o\n"},
		{"missing org", "api:\n  url: u\n  key: k\n"},
		{"archive without name", "api:\n  url: u\n  key: k\n  org_uid: o\narchive:\n  host: h\n  user: u\n"},
		{"archive without user", "api:\n  url: u\n  key: k\n  org_uid: o\narchive:\n  host: h\n  name: n\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.yaml)
			if _, err := LoadAndValidate(path); err == nil {
				t.Error("LoadAndValidate succeeded, want error")
			}
		})
	}
}

func TestLoad_Durations(t *testing.T) {
	path := writeConfig(t, `
api:
  url: u
  key: k
  org_uid: o
  timeout: 30s
retrieval:
  max_window: 2h
`)

	cfg, err := LoadAndValidate(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.API.Timeout.Std() != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", cfg.API.Timeout)
	}
	if cfg.Retrieval.MaxWindow.Std() != 2*time.Hour {
		t.Errorf("MaxWindow = %v, want 2h", cfg.Retrieval.MaxWindow)
	}
}
