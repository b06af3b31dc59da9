package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"deckify/internal/config"
	"deckify/internal/mockbackend"
	"deckify/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
	backend    *httptest.Server
	anki       *fakeAnki
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	t.Setenv("HOME", t.TempDir())
	t.Setenv("DECKIFY_BACKEND_URL", "")
	t.Setenv("ANKICONNECT_API_KEY", "")

	backendSrv := httptest.NewServer(mockbackend.New(mockbackend.Options{}).Handler())
	t.Cleanup(backendSrv.Close)
	anki := newFakeAnki(t)

	opts = append([]testsupport.ConfigOption{
		testsupport.WithBackendURL(backendSrv.URL),
		testsupport.WithAnkiURL(anki.server.URL),
	}, opts...)
	cfg := testsupport.NewConfig(t, opts...)

	base := testsupport.BaseDir(cfg)
	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{
		cfg:        cfg,
		configPath: configPath,
		baseDir:    base,
		backend:    backendSrv,
		anki:       anki,
	}
}

func (e *cliTestEnv) writePages(t *testing.T, names ...string) []string {
	t.Helper()
	paths := make([]string, 0, len(names))
	for _, name := range names {
		path := filepath.Join(e.baseDir, "scans", name+".png")
		testsupport.WritePNG(t, path, 64, 48)
		paths = append(paths, path)
	}
	return paths
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	return runCLIWithInput(t, args, configPath, nil)
}

func runCLIWithInput(t *testing.T, args []string, configPath string, stdin io.Reader) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if stdin != nil {
		cmd.SetIn(stdin)
	} else {
		cmd.SetIn(strings.NewReader(""))
	}
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

type ankiRequest struct {
	Action string          `json:"action"`
	Params json.RawMessage `json:"params"`
}

type fakeAnki struct {
	server *httptest.Server

	mu       sync.Mutex
	requests []ankiRequest
}

func newFakeAnki(t *testing.T) *fakeAnki {
	t.Helper()
	f := &fakeAnki{}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ankiRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		f.requests = append(f.requests, req)
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		switch req.Action {
		case "version":
			_, _ = io.WriteString(w, `{"result": 6, "error": null}`)
		case "createDeck":
			_, _ = io.WriteString(w, `{"result": 1, "error": null}`)
		case "addNotes":
			var params struct {
				Notes []json.RawMessage `json:"notes"`
			}
			_ = json.Unmarshal(req.Params, &params)
			ids := make([]int64, len(params.Notes))
			for i := range ids {
				ids[i] = int64(1000 + i)
			}
			payload, _ := json.Marshal(map[string]any{"result": ids, "error": nil})
			_, _ = w.Write(payload)
		default:
			_, _ = io.WriteString(w, `{"result": null, "error": "unsupported action"}`)
		}
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeAnki) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.requests))
	for _, req := range f.requests {
		out = append(out, req.Action)
	}
	return out
}
