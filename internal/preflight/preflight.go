package preflight

import (
	"context"
	"os"

	"deckify/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string `json:"name"`
	Passed   bool   `json:"passed"`
	Optional bool   `json:"optional,omitempty"`
	Detail   string `json:"detail"`
}

// RunAll executes every preflight check for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDirectoryAccess("State directory", cfg.Paths.StateDir))

	// The export directory is created on first export.
	if _, err := os.Stat(cfg.Paths.ExportDir); err == nil {
		results = append(results, CheckDirectoryAccess("Export directory", cfg.Paths.ExportDir))
	} else {
		results = append(results, Result{Name: "Export directory", Passed: true, Detail: cfg.Paths.ExportDir + " (created on first export)"})
	}

	results = append(results, CheckBackend(ctx, cfg.Backend))
	results = append(results, CheckAnki(ctx, cfg.Anki))
	return results
}
