package config

import (
	"errors"
	"fmt"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.API.URL == "" {
		return errors.New("api.url is required")
	}
	if c.API.Key == "" {
		return errors.New("api.key is required")
	}
	if c.API.OrgUID == "" {
		return errors.New("api.org_uid is required")
	}

	if c.Retrieval.MaxWindow <= 0 {
		return errors.New("retrieval.max_window must be positive")
	}
	if c.Retrieval.CacheCapacity < 1 {
		return errors.New("retrieval.cache_capacity must be >= 1")
	}
	if c.Retrieval.Concurrency < 1 {
		return errors.New("retrieval.concurrency must be >= 1")
	}

	if c.Archive.Enabled() {
		if err := c.Archive.validate(); err != nil {
			return err
		}
	}

	return nil
}

func (a *ArchiveConfig) validate() error {
	if a.Name == "" {
		return errors.New("archive.name is required")
	}
	if a.User == "" {
		return errors.New("archive.user is required")
	}
	if a.MaxConns < 1 {
		return errors.New("archive.max_conns must be >= 1")
	}
	if a.MinConns < 0 {
		return errors.New("archive.min_conns must be >= 0")
	}
	if a.MinConns > a.MaxConns {
		return fmt.Errorf("archive.min_conns (%d) cannot exceed max_conns (%d)", a.MinConns, a.MaxConns)
	}
	return nil
}
