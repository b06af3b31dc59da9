package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeBackend()
	c.normalizeAnki()
	c.normalizePreprocess()
	if err := c.normalizeCache(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = filepath.Join(c.Paths.StateDir, "logs")
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.ExportDir) == "" {
		c.Paths.ExportDir = os.TempDir()
	}
	if c.Paths.ExportDir, err = expandPath(c.Paths.ExportDir); err != nil {
		return fmt.Errorf("paths.export_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeBackend() {
	if value, ok := os.LookupEnv("DECKIFY_BACKEND_URL"); ok && strings.TrimSpace(value) != "" {
		c.Backend.BaseURL = value
	}
	c.Backend.BaseURL = strings.TrimRight(strings.TrimSpace(c.Backend.BaseURL), "/")
	if c.Backend.BaseURL == "" {
		c.Backend.BaseURL = defaultBackendBaseURL
	}
	if c.Backend.TimeoutSeconds <= 0 {
		c.Backend.TimeoutSeconds = defaultBackendTimeoutSeconds
	}
	if c.Backend.UploadConcurrency <= 0 {
		c.Backend.UploadConcurrency = defaultUploadConcurrency
	}
}

func (c *Config) normalizeAnki() {
	c.Anki.URL = strings.TrimRight(strings.TrimSpace(c.Anki.URL), "/")
	if c.Anki.URL == "" {
		c.Anki.URL = defaultAnkiURL
	}
	c.Anki.APIKey = strings.TrimSpace(c.Anki.APIKey)
	if c.Anki.APIKey == "" {
		if value, ok := os.LookupEnv("ANKICONNECT_API_KEY"); ok {
			c.Anki.APIKey = strings.TrimSpace(value)
		}
	}
	c.Anki.Deck = strings.TrimSpace(c.Anki.Deck)
	if c.Anki.Deck == "" {
		c.Anki.Deck = defaultAnkiDeck
	}
	c.Anki.Model = strings.TrimSpace(c.Anki.Model)
	if c.Anki.Model == "" {
		c.Anki.Model = defaultAnkiModel
	}
	c.Anki.DuplicateScope = strings.ToLower(strings.TrimSpace(c.Anki.DuplicateScope))
	if c.Anki.DuplicateScope == "" {
		c.Anki.DuplicateScope = defaultAnkiDuplicateScope
	}
	if c.Anki.TimeoutSeconds <= 0 {
		c.Anki.TimeoutSeconds = defaultAnkiTimeoutSeconds
	}
}

func (c *Config) normalizePreprocess() {
	if c.Preprocess.MaxLongEdge <= 0 {
		c.Preprocess.MaxLongEdge = defaultMaxLongEdge
	}
	if c.Preprocess.JPEGQuality <= 0 {
		c.Preprocess.JPEGQuality = defaultJPEGQuality
	}
}

func (c *Config) normalizeCache() error {
	var err error
	if strings.TrimSpace(c.Cache.Path) == "" {
		c.Cache.Path = filepath.Join(c.Paths.StateDir, defaultCacheFileName)
	}
	if c.Cache.Path, err = expandPath(c.Cache.Path); err != nil {
		return fmt.Errorf("cache.path: %w", err)
	}
	if c.Cache.RetentionDays < 0 {
		c.Cache.RetentionDays = 0
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
