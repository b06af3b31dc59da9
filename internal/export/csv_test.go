package export_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"deckify/internal/export"
	"deckify/internal/notes"
)

func TestMakeCSVHeaderOnly(t *testing.T) {
	if got := export.MakeCSV(nil); got != "ExpressionOrWord,Reading,Meaning,Example" {
		t.Fatalf("unexpected csv %q", got)
	}
}

func TestMakeCSVQuoting(t *testing.T) {
	cards := []notes.Card{
		{Expression: "猫", Reading: "ねこ", Meaning: "cat"},
		{Expression: "a,b", Meaning: `say "hi"`, Example: "line1\nline2"},
		{Expression: " spaced ", Meaning: "plain"},
	}
	want := "ExpressionOrWord,Reading,Meaning,Example\n" +
		"猫,ねこ,cat,\n" +
		`"a,b",,"say ""hi""","line1` + "\n" + `line2"` + "\n" +
		" spaced ,,plain,"
	if got := export.MakeCSV(cards); got != want {
		t.Fatalf("unexpected csv:\n got: %q\nwant: %q", got, want)
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, []notes.Card{{Expression: "x", Meaning: "y"}}); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	if buf.String() != "ExpressionOrWord,Reading,Meaning,Example\nx,,y," {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	cards := []notes.Card{{Expression: "水", Meaning: "water"}}

	path, err := export.WriteFile(dir, "Genki 1: Lesson 3", cards, now)
	if err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if want := filepath.Join(dir, "Genki-1-Lesson-3-20260304-050607.csv"); path != want {
		t.Fatalf("unexpected path %q want %q", path, want)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != export.MakeCSV(cards) {
		t.Fatalf("unexpected file contents %q", data)
	}
}

func TestFileNameFallsBackToDefaultDeck(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	if got := export.FileName("  ", now); got != "Deckify-20260102-030405.csv" {
		t.Fatalf("unexpected name %q", got)
	}
}
