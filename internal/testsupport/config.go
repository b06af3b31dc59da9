package testsupport

import (
	"path/filepath"
	"testing"

	"deckify/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.ExportDir = filepath.Join(base, "exports")
	cfgVal.Cache.Path = filepath.Join(base, "state", "analysis.db")
	cfgVal.Backend.BaseURL = "http://127.0.0.1:1"
	cfgVal.Backend.TimeoutSeconds = 5
	cfgVal.Anki.URL = "http://127.0.0.1:1"
	cfgVal.Anki.TimeoutSeconds = 5

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithBackendURL points the config at a test analysis backend.
func WithBackendURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Backend.BaseURL = url
	}
}

// WithAnkiURL points the config at a test AnkiConnect server.
func WithAnkiURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Anki.URL = url
	}
}

// WithCache enables the analysis cache inside the test state directory.
func WithCache() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Cache.Enabled = true
	}
}

// WithUploadConcurrency sets the number of parallel uploads.
func WithUploadConcurrency(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Backend.UploadConcurrency = n
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
