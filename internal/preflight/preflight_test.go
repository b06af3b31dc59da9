package preflight

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"deckify/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckBackend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = io.WriteString(w, `{"status":"ok"}`)
	}))
	defer srv.Close()

	result := CheckBackend(context.Background(), config.Backend{BaseURL: srv.URL})
	if !result.Passed || result.Detail != srv.URL {
		t.Fatalf("expected pass, got: %+v", result)
	}
}

func TestCheckBackend_Unhealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"status":"loading"}`)
	}))
	defer srv.Close()

	result := CheckBackend(context.Background(), config.Backend{BaseURL: srv.URL})
	if result.Passed {
		t.Fatal("expected failure for non-ok status")
	}
	if result.Optional {
		t.Fatal("backend check must not be optional")
	}
}

func TestCheckAnki(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"result": 6, "error": null}`)
	}))
	defer srv.Close()

	result := CheckAnki(context.Background(), config.Anki{URL: srv.URL})
	if !result.Passed || !result.Optional {
		t.Fatalf("expected optional pass, got: %+v", result)
	}
	if !strings.Contains(result.Detail, "version 6") {
		t.Fatalf("expected version in detail, got %q", result.Detail)
	}
}

func TestCheckAnki_Unreachable(t *testing.T) {
	result := CheckAnki(context.Background(), config.Anki{URL: "http://127.0.0.1:1"})
	if result.Passed {
		t.Fatal("expected failure for unreachable AnkiConnect")
	}
	if !strings.Contains(result.Detail, "unreachable") {
		t.Fatalf("unexpected detail %q", result.Detail)
	}
}

func TestRunAll(t *testing.T) {
	cfg := config.Default()
	base := t.TempDir()
	cfg.Paths.StateDir = base
	cfg.Paths.ExportDir = filepath.Join(base, "exports")
	cfg.Backend.BaseURL = "http://127.0.0.1:1"
	cfg.Anki.URL = "http://127.0.0.1:1"

	results := RunAll(context.Background(), &cfg)
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	want := []string{"State directory", "Export directory", "Backend", "AnkiConnect"}
	for i, name := range want {
		if results[i].Name != name {
			t.Fatalf("result %d: expected %s, got %s", i, name, results[i].Name)
		}
	}
	if !results[0].Passed || !results[1].Passed {
		t.Fatalf("expected directory checks to pass: %+v", results[:2])
	}
	if results[2].Passed || results[3].Passed {
		t.Fatalf("expected service checks to fail: %+v", results[2:])
	}
	if RunAll(context.Background(), nil) != nil {
		t.Fatal("expected nil results for nil config")
	}
}
