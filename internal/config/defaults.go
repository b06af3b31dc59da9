package config

const (
	defaultStateDir              = "~/.local/share/deckify"
	defaultLogDir                = "~/.local/share/deckify/logs"
	defaultBackendBaseURL        = "http://localhost:8787"
	defaultBackendTimeoutSeconds = 60
	defaultUploadConcurrency     = 1
	maxUploadConcurrency         = 8
	defaultAnkiURL               = "http://127.0.0.1:8765"
	defaultAnkiDeck              = "Deckify"
	defaultAnkiModel             = "SnapToFlash"
	defaultAnkiDuplicateScope    = "deck"
	defaultAnkiTimeoutSeconds    = 15
	defaultMaxLongEdge           = 1800
	defaultJPEGQuality           = 80
	defaultCacheFileName         = "analysis.db"
	defaultCacheRetentionDays    = 30
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Backend: Backend{
			BaseURL:           defaultBackendBaseURL,
			TimeoutSeconds:    defaultBackendTimeoutSeconds,
			UploadConcurrency: defaultUploadConcurrency,
		},
		Anki: Anki{
			URL:            defaultAnkiURL,
			Deck:           defaultAnkiDeck,
			Model:          defaultAnkiModel,
			DuplicateScope: defaultAnkiDuplicateScope,
			TimeoutSeconds: defaultAnkiTimeoutSeconds,
		},
		Preprocess: Preprocess{
			MaxLongEdge: defaultMaxLongEdge,
			JPEGQuality: defaultJPEGQuality,
		},
		Cache: Cache{
			RetentionDays: defaultCacheRetentionDays,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
