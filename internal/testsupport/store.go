package testsupport

import (
	"context"
	"testing"

	"deckify/internal/analysiscache"
	"deckify/internal/config"
)

// MustOpenCache opens the analysis cache configured in cfg and registers cleanup.
func MustOpenCache(t testing.TB, cfg *config.Config) *analysiscache.Store {
	t.Helper()

	store, err := analysiscache.Open(context.Background(), cfg.Cache.Path)
	if err != nil {
		t.Fatalf("analysiscache.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
