package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Backend != BackendMemory {
		t.Errorf("expected default backend %s, got %s", BackendMemory, cfg.Backend)
	}
	if cfg.Cache.TTL != 15*time.Second {
		t.Errorf("expected default cache TTL 15s, got %v", cfg.Cache.TTL)
	}
	if cfg.Cache.MaxEntries != 100 {
		t.Errorf("expected default cache max entries 100, got %d", cfg.Cache.MaxEntries)
	}
	if cfg.NATS.URL != "nats://localhost:4222" {
		t.Errorf("expected default NATS URL nats://localhost:4222, got %s", cfg.NATS.URL)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "unknown backend",
			modify:  func(c *Config) { c.Backend = "postgres" },
			wantErr: true,
		},
		{
			name:    "zero cache ttl",
			modify:  func(c *Config) { c.Cache.TTL = 0 },
			wantErr: true,
		},
		{
			name:    "negative max entries",
			modify:  func(c *Config) { c.Cache.MaxEntries = -1 },
			wantErr: true,
		},
		{
			name: "nats backend without url",
			modify: func(c *Config) {
				c.Backend = BackendNATS
				c.NATS.URL = ""
			},
			wantErr: true,
		},
		{
			name: "nats backend with url",
			modify: func(c *Config) {
				c.Backend = BackendNATS
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	// Create temp file with config
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `
backend: nats
cache:
  ttl: 30s
  max_entries: 50
nats:
  url: "nats://test:4222"
intents:
  concepts:
    person: "employee"
  properties:
    geoLocation: "location"
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if cfg.Backend != BackendNATS {
		t.Errorf("expected backend nats, got %s", cfg.Backend)
	}
	if cfg.Cache.TTL != 30*time.Second {
		t.Errorf("expected cache TTL 30s, got %v", cfg.Cache.TTL)
	}
	if cfg.Cache.MaxEntries != 50 {
		t.Errorf("expected cache max entries 50, got %d", cfg.Cache.MaxEntries)
	}
	if cfg.NATS.URL != "nats://test:4222" {
		t.Errorf("expected NATS URL nats://test:4222, got %s", cfg.NATS.URL)
	}
	if got := cfg.IntentOverride("concept", "person"); got != "employee" {
		t.Errorf("expected concept intent override employee, got %s", got)
	}
	if got := cfg.IntentOverride("property", "geoLocation"); got != "location" {
		t.Errorf("expected property intent override location, got %s", got)
	}
	if got := cfg.IntentOverride("relationship", "worksFor"); got != "" {
		t.Errorf("expected no relationship override, got %s", got)
	}
}

func TestConfigMerge(t *testing.T) {
	base := DefaultConfig()
	override := &Config{
		Backend: BackendNATS,
		Cache: CacheConfig{
			MaxEntries: 7,
		},
	}

	base.Merge(override)

	if base.Backend != BackendNATS {
		t.Errorf("expected backend nats, got %s", base.Backend)
	}
	if base.Cache.MaxEntries != 7 {
		t.Errorf("expected cache max entries 7, got %d", base.Cache.MaxEntries)
	}
	// TTL should remain from base since override didn't set it
	if base.Cache.TTL != 15*time.Second {
		t.Errorf("expected cache TTL to remain default, got %v", base.Cache.TTL)
	}
}

func TestConfigSaveToFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "subdir", "config.yaml")

	cfg := DefaultConfig()
	cfg.Cache.MaxEntries = 42

	if err := cfg.SaveToFile(configPath); err != nil {
		t.Fatalf("SaveToFile() error = %v", err)
	}

	// Verify file was created
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Error("config file was not created")
	}

	// Load and verify
	loaded, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("failed to load saved config: %v", err)
	}
	if loaded.Cache.MaxEntries != 42 {
		t.Errorf("expected cache max entries 42, got %d", loaded.Cache.MaxEntries)
	}
}
