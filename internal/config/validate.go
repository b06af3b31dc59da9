package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateBackend(); err != nil {
		return err
	}
	if err := c.validateAnki(); err != nil {
		return err
	}
	if err := c.validatePreprocess(); err != nil {
		return err
	}
	if err := c.validateCache(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateBackend() error {
	if err := validateHTTPURL("backend.base_url", c.Backend.BaseURL); err != nil {
		return err
	}
	if c.Backend.TimeoutSeconds <= 0 {
		return errors.New("backend.timeout_seconds must be positive")
	}
	if c.Backend.UploadConcurrency < 1 || c.Backend.UploadConcurrency > maxUploadConcurrency {
		return fmt.Errorf("backend.upload_concurrency must be between 1 and %d", maxUploadConcurrency)
	}
	return nil
}

func (c *Config) validateAnki() error {
	if err := validateHTTPURL("anki.url", c.Anki.URL); err != nil {
		return err
	}
	if strings.TrimSpace(c.Anki.Deck) == "" {
		return errors.New("anki.deck must be set")
	}
	if strings.TrimSpace(c.Anki.Model) == "" {
		return errors.New("anki.model must be set")
	}
	switch c.Anki.DuplicateScope {
	case "deck", "collection":
	default:
		return fmt.Errorf("anki.duplicate_scope must be \"deck\" or \"collection\", got %q", c.Anki.DuplicateScope)
	}
	if c.Anki.TimeoutSeconds <= 0 {
		return errors.New("anki.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validatePreprocess() error {
	if c.Preprocess.MaxLongEdge < 64 {
		return errors.New("preprocess.max_long_edge must be at least 64 pixels")
	}
	if c.Preprocess.JPEGQuality < 1 || c.Preprocess.JPEGQuality > 100 {
		return errors.New("preprocess.jpeg_quality must be between 1 and 100")
	}
	return nil
}

func (c *Config) validateCache() error {
	if c.Cache.Enabled && strings.TrimSpace(c.Cache.Path) == "" {
		return errors.New("cache.path must be set when cache.enabled is true")
	}
	return nil
}

func validateHTTPURL(key, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s must be set", key)
	}
	parsed, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s must use http or https, got %q", key, value)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s must include a host, got %q", key, value)
	}
	return nil
}
