package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for sentractl.
type Config struct {
	API       APIConfig       `yaml:"api"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Archive   ArchiveConfig   `yaml:"archive"`
}

// Duration is a time.Duration that unmarshals from YAML strings like "30s"
// or "12h" (plain integers are taken as nanoseconds).
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		dur, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("parse duration %q: %w", s, err)
		}
		*d = Duration(dur)
		return nil
	}
	var n int64
	if err := value.Decode(&n); err != nil {
		return fmt.Errorf("parse duration: %w", err)
	}
	*d = Duration(n)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// APIConfig holds Sentra API settings.
type APIConfig struct {
	URL     string   `yaml:"url"`
	Key     string   `yaml:"key"`
	OrgUID  string   `yaml:"org_uid"`
	Timeout Duration `yaml:"timeout"`
}

// RetrievalConfig holds retrieval engine settings.
type RetrievalConfig struct {
	// MaxWindow caps the width of one query window.
	MaxWindow Duration `yaml:"max_window"`

	// CacheCapacity bounds the dedup cache. Ignored when UnboundedMemory
	// is set.
	CacheCapacity int `yaml:"cache_capacity"`

	// UnboundedMemory trades memory for exactly-once output per id.
	UnboundedMemory bool `yaml:"unbounded_memory"`

	// Concurrency caps in-flight fetches.
	Concurrency int `yaml:"concurrency"`
}

// ArchiveConfig holds the optional Postgres target for archiving retrieved
// records. Archiving is enabled by configuring a host.
type ArchiveConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
	Table    string `yaml:"table"`
}

// Enabled reports whether an archive target is configured.
func (a ArchiveConfig) Enabled() bool {
	return a.Host != ""
}
