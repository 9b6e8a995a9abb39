// Package config provides configuration loading and management for Semreg.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Backend names accepted in Config.Backend
const (
	BackendMemory = "memory"
	BackendNATS   = "nats"
)

// Config represents the complete Semreg configuration
type Config struct {
	Backend string        `yaml:"backend"`
	Cache   CacheConfig   `yaml:"cache"`
	NATS    NATSConfig    `yaml:"nats"`
	Intents IntentsConfig `yaml:"intents"`
}

// CacheConfig tunes the per-namespace schema snapshot cache
type CacheConfig struct {
	// TTL is how long a snapshot stays valid without explicit invalidation
	TTL time.Duration `yaml:"ttl"`
	// MaxEntries bounds the number of cached namespaces
	MaxEntries int `yaml:"max_entries"`
	// CleanupInterval is how often expired entries are swept
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

// NATSConfig configures the NATS connection for the nats backend
type NATSConfig struct {
	// URL is the NATS server URL
	URL string `yaml:"url"`
}

// IntentsConfig overrides intent resolution per element kind. The
// value is the element name the intent resolves to, bypassing the
// catalog scan entirely.
type IntentsConfig struct {
	Concepts      map[string]string `yaml:"concepts"`
	Relationships map[string]string `yaml:"relationships"`
	Properties    map[string]string `yaml:"properties"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Backend: BackendMemory,
		Cache: CacheConfig{
			TTL:             15 * time.Second,
			MaxEntries:      100,
			CleanupInterval: 5 * time.Second,
		},
		NATS: NATSConfig{
			URL: "nats://localhost:4222",
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendMemory, BackendNATS:
	default:
		return fmt.Errorf("backend must be %q or %q, got %q", BackendMemory, BackendNATS, c.Backend)
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive")
	}
	if c.Cache.MaxEntries <= 0 {
		return fmt.Errorf("cache.max_entries must be positive")
	}
	if c.Backend == BackendNATS && c.NATS.URL == "" {
		return fmt.Errorf("nats.url is required for the nats backend")
	}
	return nil
}

// IntentOverride returns the configured element name for an intent of
// the given kind ("concept", "relationship", "property"), or empty
// when no override exists.
func (c *Config) IntentOverride(kind, intent string) string {
	var m map[string]string
	switch kind {
	case "concept":
		m = c.Intents.Concepts
	case "relationship":
		m = c.Intents.Relationships
	case "property":
		m = c.Intents.Properties
	}
	return m[intent]
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if other.Backend != "" {
		c.Backend = other.Backend
	}

	// Cache
	if other.Cache.TTL != 0 {
		c.Cache.TTL = other.Cache.TTL
	}
	if other.Cache.MaxEntries != 0 {
		c.Cache.MaxEntries = other.Cache.MaxEntries
	}
	if other.Cache.CleanupInterval != 0 {
		c.Cache.CleanupInterval = other.Cache.CleanupInterval
	}

	// NATS
	if other.NATS.URL != "" {
		c.NATS.URL = other.NATS.URL
	}

	// Intents
	if other.Intents.Concepts != nil {
		c.Intents.Concepts = other.Intents.Concepts
	}
	if other.Intents.Relationships != nil {
		c.Intents.Relationships = other.Intents.Relationships
	}
	if other.Intents.Properties != nil {
		c.Intents.Properties = other.Intents.Properties
	}
}
