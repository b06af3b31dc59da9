package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"deckify/internal/review"
	"deckify/internal/testsupport"
)

func TestAnalyzeReviewExportFlow(t *testing.T) {
	env := setupCLITestEnv(t)
	pages := env.writePages(t, "page-1", "page-2")

	out, stderr, err := runCLI(t, append([]string{"analyze"}, pages...), env.configPath)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	requireContains(t, stderr, "Analyzing page 1 of 2...")
	requireContains(t, stderr, "Analyzing page 2 of 2...")
	requireContains(t, out, "Generated 1 cards")
	requireContains(t, out, "example")

	sheetPath := env.cfg.ReviewSheetPath()
	if _, err := os.Stat(sheetPath); err != nil {
		t.Fatalf("expected review sheet at %s: %v", sheetPath, err)
	}

	out, _, err = runCLI(t, []string{"cards", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("cards --json: %v", err)
	}
	var entries []review.Entry
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		t.Fatalf("decode cards output: %v\n%s", err, out)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one consolidated card, got %d", len(entries))
	}
	if entries[0].Decision != review.DecisionPending || entries[0].SourcePage != "page-1, page-2" {
		t.Fatalf("unexpected entry %+v", entries[0])
	}

	if _, _, err := runCLI(t, []string{"export", "csv"}, env.configPath); err == nil {
		t.Fatal("expected export to refuse a sheet without approved cards")
	}

	out, _, err = runCLI(t, []string{"review", "--approve-all"}, env.configPath)
	if err != nil {
		t.Fatalf("review --approve-all: %v", err)
	}
	requireContains(t, out, "Approved 1 pending card(s)")

	exportDir := t.TempDir()
	out, _, err = runCLI(t, []string{"export", "csv", "--out", exportDir, "--deck", "My Deck"}, env.configPath)
	if err != nil {
		t.Fatalf("export csv: %v", err)
	}
	requireContains(t, out, "Exported 1 cards to")
	matches, _ := filepath.Glob(filepath.Join(exportDir, "My-Deck-*.csv"))
	if len(matches) != 1 {
		t.Fatalf("expected one csv file, got %v", matches)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(string(data), "\n")
	if lines[0] != "ExpressionOrWord,Reading,Meaning,Example" {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if lines[1] != "example,ex-am-ple,sample card,This is an example sentence." {
		t.Fatalf("unexpected row %q", lines[1])
	}

	out, _, err = runCLI(t, []string{"export", "anki", "--deck", "Japanese"}, env.configPath)
	if err != nil {
		t.Fatalf("export anki: %v", err)
	}
	requireContains(t, out, "Sent 1 cards to Anki")
	actions := env.anki.actions()
	if !slices.Contains(actions, "createDeck") || actions[len(actions)-1] != "addNotes" {
		t.Fatalf("unexpected AnkiConnect actions %v", actions)
	}
}

func TestAnalyzeApproveAllWithParallelUploads(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithUploadConcurrency(3))
	pages := env.writePages(t, "a", "b", "c")

	sheet := filepath.Join(t.TempDir(), "sheet.yaml")
	if _, _, err := runCLI(t, append([]string{"analyze", "--approve-all", "--sheet", sheet}, pages...), env.configPath); err != nil {
		t.Fatalf("analyze: %v", err)
	}
	out, _, err := runCLI(t, []string{"cards", "--sheet", sheet, "--decision", "approve", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("cards: %v", err)
	}
	var entries []review.Entry
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(entries) != 1 || entries[0].SourcePage != "a, b, c" {
		t.Fatalf("unexpected approved entries %+v", entries)
	}
}

func TestAnalyzeReportsBackendFailure(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"model offline"}`, http.StatusServiceUnavailable)
	}))
	t.Cleanup(failing.Close)

	env := setupCLITestEnv(t, testsupport.WithBackendURL(failing.URL))
	pages := env.writePages(t, "only")

	out, stderr, err := runCLI(t, append([]string{"analyze"}, pages...), env.configPath)
	if err == nil {
		t.Fatal("expected analyze to fail")
	}
	requireContains(t, err.Error(), "analysis stopped at only")
	requireContains(t, stderr, "Page only failed")
	requireContains(t, out, "Review sheet:")

	sheet, err := review.Load(env.cfg.ReviewSheetPath())
	if err != nil {
		t.Fatalf("failed runs still write the sheet: %v", err)
	}
	if sheet.Error == "" || len(sheet.Cards) != 0 {
		t.Fatalf("unexpected sheet after failure: %+v", sheet)
	}
}

func TestCardsWithoutSheet(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, []string{"cards"}, env.configPath)
	if err == nil {
		t.Fatal("expected missing sheet error")
	}
	requireContains(t, err.Error(), "deckify analyze")
}

func TestReviewRequiresTerminal(t *testing.T) {
	env := setupCLITestEnv(t)
	pages := env.writePages(t, "p")
	if _, _, err := runCLI(t, append([]string{"analyze"}, pages...), env.configPath); err != nil {
		t.Fatalf("analyze: %v", err)
	}
	_, _, err := runCLIWithInput(t, []string{"review"}, env.configPath, strings.NewReader("y\n"))
	if err == nil {
		t.Fatal("expected review without a terminal to fail")
	}
	requireContains(t, err.Error(), "--approve-all")
}

func TestStatusJSON(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"status", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	var report statusReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode status: %v\n%s", err, out)
	}
	if len(report.Checks) != 4 {
		t.Fatalf("expected 4 checks, got %+v", report.Checks)
	}
	for _, check := range report.Checks {
		if !check.Passed {
			t.Fatalf("expected %s to pass: %s", check.Name, check.Detail)
		}
	}
	requireContains(t, report.Checks[3].Detail, "version 6")
	if report.SheetExists || report.CacheEnabled {
		t.Fatalf("unexpected local state %+v", report)
	}
	if report.ConfigPath != env.configPath {
		t.Fatalf("expected config path %s, got %s", env.configPath, report.ConfigPath)
	}
}

func TestStatusReportsUnreachableServices(t *testing.T) {
	env := setupCLITestEnv(t,
		testsupport.WithBackendURL("http://127.0.0.1:1"),
		testsupport.WithAnkiURL("http://127.0.0.1:1"),
	)
	out, _, err := runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Backend")
	requireContains(t, out, "export csv still works")
}

func TestCacheCommands(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithCache())
	pages := env.writePages(t, "cached")

	out, _, err := runCLI(t, []string{"cache", "stats"}, env.configPath)
	if err != nil {
		t.Fatalf("cache stats: %v", err)
	}
	if out == "" {
		t.Fatal("expected stats output")
	}

	for range 2 {
		if _, _, err := runCLI(t, append([]string{"analyze"}, pages...), env.configPath); err != nil {
			t.Fatalf("analyze: %v", err)
		}
	}

	out, _, err = runCLI(t, []string{"cache", "stats", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("cache stats --json: %v", err)
	}
	var stats struct {
		Entries int `json:"entries"`
	}
	if err := json.Unmarshal([]byte(out), &stats); err != nil {
		t.Fatalf("decode stats: %v\n%s", err, out)
	}
	if stats.Entries != 1 {
		t.Fatalf("expected one cached analysis, got %d", stats.Entries)
	}

	out, _, err = runCLI(t, []string{"cache", "prune", "--days", "30"}, env.configPath)
	if err != nil {
		t.Fatalf("cache prune: %v", err)
	}
	requireContains(t, out, "Removed 0 entries older than 30 days")

	out, _, err = runCLI(t, []string{"cache", "clear"}, env.configPath)
	if err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	requireContains(t, out, "Removed 1 entries")
}

func TestCacheDisabled(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"cache", "clear"}, env.configPath)
	if err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	requireContains(t, out, "disabled")
}

func TestLogsShowsAnalyzeRun(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"logs"}, env.configPath)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	requireContains(t, out, "No log entries")

	pages := env.writePages(t, "logged")
	if _, _, err := runCLI(t, append([]string{"analyze"}, pages...), env.configPath); err != nil {
		t.Fatalf("analyze: %v", err)
	}
	out, _, err = runCLI(t, []string{"logs", "-n", "200"}, env.configPath)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	requireContains(t, out, "logged")
}

func TestAnalyzeKeepsSameNamedPagesApart(t *testing.T) {
	env := setupCLITestEnv(t)
	first := filepath.Join(env.baseDir, "lesson1", "page.png")
	second := filepath.Join(env.baseDir, "lesson2", "page.png")
	testsupport.WritePNG(t, first, 32, 32)
	testsupport.WritePNG(t, second, 32, 32)

	_, stderr, err := runCLI(t, []string{"analyze", first, second}, env.configPath)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	requireContains(t, stderr, "Analyzing page 2 of 2...")

	out, _, err := runCLI(t, []string{"cards", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("cards: %v", err)
	}
	var entries []review.Entry
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(entries) != 1 || entries[0].SourcePage != "lesson1/page, lesson2/page" {
		t.Fatalf("unexpected entries %+v", entries)
	}
}
