package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultAPITimeout    = Duration(5 * time.Minute)
	DefaultMaxWindow     = Duration(12 * time.Hour)
	DefaultCacheCapacity = 10000
	DefaultConcurrency   = 10
	DefaultDBPort        = 5432
	DefaultDBSSLMode     = "prefer"
	DefaultMaxConns      = 10
	DefaultMinConns      = 2
	DefaultArchiveTable  = "retrieved_records"
)

func (c *Config) applyDefaults() {
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultAPITimeout
	}

	if c.Retrieval.MaxWindow == 0 {
		c.Retrieval.MaxWindow = DefaultMaxWindow
	}
	if c.Retrieval.CacheCapacity == 0 {
		c.Retrieval.CacheCapacity = DefaultCacheCapacity
	}
	if c.Retrieval.Concurrency == 0 {
		c.Retrieval.Concurrency = DefaultConcurrency
	}

	if c.Archive.Enabled() {
		if c.Archive.Port == 0 {
			c.Archive.Port = DefaultDBPort
		}
		if c.Archive.SSLMode == "" {
			c.Archive.SSLMode = DefaultDBSSLMode
		}
		if c.Archive.MaxConns == 0 {
			c.Archive.MaxConns = DefaultMaxConns
		}
		if c.Archive.MinConns == 0 {
			c.Archive.MinConns = DefaultMinConns
		}
		if c.Archive.Table == "" {
			c.Archive.Table = DefaultArchiveTable
		}
	}
}
