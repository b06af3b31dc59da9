package main

import (
	"bytes"
	"strings"
	"testing"

	"deckify/internal/notes"
	"deckify/internal/review"
)

func sheetWithCards(ids ...string) review.Sheet {
	sheet := review.Sheet{Version: review.SheetVersion}
	for _, id := range ids {
		sheet.Cards = append(sheet.Cards, review.Entry{
			Decision: review.DecisionPending,
			Card:     notes.Card{ID: id, Expression: "expr-" + id, Meaning: "meaning " + id},
		})
	}
	return sheet
}

func TestPromptDecisions(t *testing.T) {
	sheet := sheetWithCards("a", "b", "c")
	var out bytes.Buffer

	decided, err := promptDecisions(strings.NewReader("y\nmaybe\nn\ns\n"), &out, &sheet)
	if err != nil {
		t.Fatalf("promptDecisions: %v", err)
	}
	if decided != 2 {
		t.Fatalf("expected 2 decisions, got %d", decided)
	}
	counts := sheet.Counts()
	if counts[review.DecisionApprove] != 1 || counts[review.DecisionReject] != 1 || counts[review.DecisionPending] != 1 {
		t.Fatalf("unexpected counts %v", counts)
	}
	requireContains(t, out.String(), "[1/3] expr-a")
	requireContains(t, out.String(), `Unrecognized answer "maybe"`)
}

func TestPromptDecisionsQuitKeepsProgress(t *testing.T) {
	sheet := sheetWithCards("a", "b")
	var out bytes.Buffer

	decided, err := promptDecisions(strings.NewReader("yes\nq\n"), &out, &sheet)
	if err != nil {
		t.Fatalf("promptDecisions: %v", err)
	}
	if decided != 1 {
		t.Fatalf("expected 1 decision, got %d", decided)
	}
	if sheet.Counts()[review.DecisionPending] != 1 {
		t.Fatalf("second card should stay pending: %v", sheet.Counts())
	}
}

func TestPromptDecisionsEndOfInput(t *testing.T) {
	sheet := sheetWithCards("a", "b")
	decided, err := promptDecisions(strings.NewReader("n"), &bytes.Buffer{}, &sheet)
	if err != nil {
		t.Fatalf("promptDecisions: %v", err)
	}
	if decided != 1 || sheet.Counts()[review.DecisionReject] != 1 {
		t.Fatalf("unexpected result decided=%d counts=%v", decided, sheet.Counts())
	}
}

func TestPromptDecisionsNothingPending(t *testing.T) {
	sheet := sheetWithCards("a")
	sheet.ApproveAll()
	var out bytes.Buffer
	decided, err := promptDecisions(strings.NewReader(""), &out, &sheet)
	if err != nil || decided != 0 {
		t.Fatalf("unexpected result %d %v", decided, err)
	}
	requireContains(t, out.String(), "No pending cards")
}
