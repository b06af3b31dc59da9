package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"deckify/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("DECKIFY_BACKEND_URL", "")
	t.Setenv("ANKICONNECT_API_KEY", "")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantState := filepath.Join(tempHome, ".local", "share", "deckify")
	if cfg.Paths.StateDir != wantState {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Paths.StateDir, wantState)
	}
	if cfg.Paths.LogDir != filepath.Join(wantState, "logs") {
		t.Fatalf("unexpected log dir: %q", cfg.Paths.LogDir)
	}
	if cfg.Paths.ExportDir == "" {
		t.Fatal("expected export dir to default to the temp directory")
	}
	if cfg.Backend.BaseURL != "http://localhost:8787" {
		t.Fatalf("unexpected backend url: %q", cfg.Backend.BaseURL)
	}
	if cfg.Backend.UploadConcurrency != 1 {
		t.Fatalf("expected sequential uploads by default, got %d", cfg.Backend.UploadConcurrency)
	}
	if cfg.Anki.URL != "http://127.0.0.1:8765" {
		t.Fatalf("unexpected anki url: %q", cfg.Anki.URL)
	}
	if cfg.Anki.AllowDuplicate {
		t.Fatal("expected duplicates to be rejected by default")
	}
	if cfg.Anki.DuplicateScope != "deck" {
		t.Fatalf("unexpected duplicate scope: %q", cfg.Anki.DuplicateScope)
	}
	if cfg.Preprocess.MaxLongEdge != 1800 || cfg.Preprocess.JPEGQuality != 80 {
		t.Fatalf("unexpected preprocess defaults: %+v", cfg.Preprocess)
	}
	if cfg.Cache.Enabled {
		t.Fatal("expected cache disabled by default")
	}
	if cfg.Cache.Path != filepath.Join(wantState, "analysis.db") {
		t.Fatalf("unexpected cache path: %q", cfg.Cache.Path)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.StateDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	t.Setenv("DECKIFY_BACKEND_URL", "")
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "deckify.toml")

	type payload struct {
		Backend struct {
			BaseURL           string `toml:"base_url"`
			UploadConcurrency int    `toml:"upload_concurrency"`
		} `toml:"backend"`
		Anki struct {
			Deck  string `toml:"deck"`
			Model string `toml:"model"`
		} `toml:"anki"`
		Logging struct {
			Format string `toml:"format"`
		} `toml:"logging"`
	}
	custom := payload{}
	custom.Backend.BaseURL = "https://analysis.example.com/"
	custom.Backend.UploadConcurrency = 3
	custom.Anki.Deck = "Japanese::Textbook"
	custom.Anki.Model = "Vocab"
	custom.Logging.Format = "JSON"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Backend.BaseURL != "https://analysis.example.com" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Backend.BaseURL)
	}
	if cfg.Backend.UploadConcurrency != 3 {
		t.Fatalf("expected upload concurrency 3, got %d", cfg.Backend.UploadConcurrency)
	}
	if cfg.Anki.Deck != "Japanese::Textbook" || cfg.Anki.Model != "Vocab" {
		t.Fatalf("unexpected anki settings: %+v", cfg.Anki)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("expected json log format, got %q", cfg.Logging.Format)
	}
	if cfg.Anki.URL != "http://127.0.0.1:8765" {
		t.Fatalf("expected default anki url to survive partial config, got %q", cfg.Anki.URL)
	}
}

func TestEnvVarOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("DECKIFY_BACKEND_URL", "http://10.0.0.5:9000/")
	t.Setenv("ANKICONNECT_API_KEY", "env-key")

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Backend.BaseURL != "http://10.0.0.5:9000" {
		t.Errorf("expected backend url from env, got %q", cfg.Backend.BaseURL)
	}
	if cfg.Anki.APIKey != "env-key" {
		t.Errorf("expected anki key from env, got %q", cfg.Anki.APIKey)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "[anki]") {
		t.Fatalf("sample config missing anki section: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if cfg.Preprocess.MaxLongEdge != 1800 {
		t.Fatalf("expected sample max_long_edge 1800, got %d", cfg.Preprocess.MaxLongEdge)
	}
	if !strings.Contains(cfg.Paths.StateDir, "deckify") {
		t.Fatalf("expected state dir to contain deckify, got %q", cfg.Paths.StateDir)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"backend url scheme", func(c *config.Config) { c.Backend.BaseURL = "ftp://example.com" }},
		{"backend url empty", func(c *config.Config) { c.Backend.BaseURL = "" }},
		{"backend timeout", func(c *config.Config) { c.Backend.TimeoutSeconds = 0 }},
		{"upload concurrency low", func(c *config.Config) { c.Backend.UploadConcurrency = 0 }},
		{"upload concurrency high", func(c *config.Config) { c.Backend.UploadConcurrency = 99 }},
		{"anki url host", func(c *config.Config) { c.Anki.URL = "http://" }},
		{"anki deck", func(c *config.Config) { c.Anki.Deck = " " }},
		{"anki model", func(c *config.Config) { c.Anki.Model = "" }},
		{"duplicate scope", func(c *config.Config) { c.Anki.DuplicateScope = "everywhere" }},
		{"max long edge", func(c *config.Config) { c.Preprocess.MaxLongEdge = 10 }},
		{"jpeg quality", func(c *config.Config) { c.Preprocess.JPEGQuality = 101 }},
		{"cache path", func(c *config.Config) { c.Cache.Enabled = true; c.Cache.Path = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error for %s", tc.name)
			}
		})
	}

	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
}
