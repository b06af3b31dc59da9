package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	StateDir  string `toml:"state_dir"`
	LogDir    string `toml:"log_dir"`
	ExportDir string `toml:"export_dir"`
}

// Backend contains configuration for the page analysis backend.
type Backend struct {
	BaseURL           string `toml:"base_url"`
	TimeoutSeconds    int    `toml:"timeout_seconds"`
	UploadConcurrency int    `toml:"upload_concurrency"`
}

// Anki contains configuration for the AnkiConnect bridge.
type Anki struct {
	URL            string `toml:"url"`
	APIKey         string `toml:"api_key"`
	Deck           string `toml:"deck"`
	Model          string `toml:"model"`
	AllowDuplicate bool   `toml:"allow_duplicate"`
	DuplicateScope string `toml:"duplicate_scope"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Preprocess contains configuration for page image preparation before upload.
type Preprocess struct {
	MaxLongEdge int `toml:"max_long_edge"`
	JPEGQuality int `toml:"jpeg_quality"`
}

// Cache contains configuration for the analysis response cache.
type Cache struct {
	Enabled       bool   `toml:"enabled"` // Default: false
	Path          string `toml:"path"`    // Default: <state_dir>/analysis.db
	RetentionDays int    `toml:"retention_days"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for Deckify.
//
// Configuration sections by subsystem:
//   - Paths: state, log and CSV export directories
//   - Backend: page analysis service endpoint and upload behaviour
//   - Anki: AnkiConnect endpoint, target deck and note model
//   - Preprocess: image scaling and JPEG quality
//   - Cache: optional SQLite cache of analysis responses
//   - Logging: log format and level
type Config struct {
	Paths      Paths      `toml:"paths"`
	Backend    Backend    `toml:"backend"`
	Anki       Anki       `toml:"anki"`
	Preprocess Preprocess `toml:"preprocess"`
	Cache      Cache      `toml:"cache"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/deckify/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("deckify.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state and log directories. The export
// directory is created lazily by the exporter.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// ReviewSheetPath returns the default location of the review sheet written by
// an analysis run.
func (c *Config) ReviewSheetPath() string {
	return filepath.Join(c.Paths.StateDir, "review.yaml")
}

// LockPath returns the lock file guarding concurrent analysis runs.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "deckify.lock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
