package session

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/uuid"

	"deckify/internal/notes"
	"deckify/internal/textutil"
)

var (
	// ErrNoPages is returned when a run is started without pages.
	ErrNoPages = errors.New("add at least one page first")
	// ErrCardNotFound is returned when a decision names an unknown card.
	ErrCardNotFound = errors.New("card not found")
)

// Page is one photographed page queued for analysis.
type Page struct {
	// ID is sent to the backend as page_id and labels cards from this page.
	ID    string
	Label string
	Path  string
}

// NewPage builds a page from an image path; the file name without extension
// becomes the page id and label.
func NewPage(path string) Page {
	label := textutil.PageLabel(path)
	return Page{ID: label, Label: label, Path: path}
}

// NewPages builds the pages of one run. Pages whose file names collide are
// labelled with their parent directory ("a/p1", "b/p1"); anything still
// ambiguous, such as the same file given twice, gets a numeric suffix.
func NewPages(paths []string) []Page {
	pages := make([]Page, 0, len(paths))
	counts := make(map[string]int, len(paths))
	for _, path := range paths {
		page := NewPage(path)
		counts[page.Label]++
		pages = append(pages, page)
	}

	used := make(map[string]struct{}, len(pages))
	for i, page := range pages {
		label := page.Label
		if counts[label] > 1 {
			if dir := filepath.Base(filepath.Dir(page.Path)); dir != "." && dir != string(filepath.Separator) {
				label = dir + "/" + label
			}
		}
		if _, taken := used[label]; taken {
			base := label
			for n := 2; ; n++ {
				label = fmt.Sprintf("%s-%d", base, n)
				if _, taken := used[label]; !taken {
					break
				}
			}
		}
		used[label] = struct{}{}
		pages[i].ID = label
		pages[i].Label = label
	}
	return pages
}

// DisplayName returns the label shown to users.
func (p Page) DisplayName() string {
	switch {
	case strings.TrimSpace(p.Label) != "":
		return p.Label
	case strings.TrimSpace(p.ID) != "":
		return p.ID
	default:
		return p.Path
	}
}

// State is the run state owned by the caller. Operations return a new State
// instead of mutating the receiver.
type State struct {
	Pages    []Page
	Pending  []notes.Card
	Approved []notes.Card
	Warnings []string
	Status   string
	Err      error
}

// Apply replaces the pending cards, warnings, status and error with those of
// a finished run. Approved cards are kept.
func (s State) Apply(res Result) State {
	next := s.clone()
	next.Pending = UniqueIDs(res.Cards, s.Approved)
	next.Warnings = slices.Clone(res.Warnings)
	next.Status = res.Status
	next.Err = res.Err
	return next
}

// Approve moves the pending card with the given id to the approved list.
func (s State) Approve(id string) (State, error) {
	idx := s.pendingIndex(id)
	if idx < 0 {
		return s, fmt.Errorf("approve %q: %w", id, ErrCardNotFound)
	}
	next := s.clone()
	card := next.Pending[idx]
	next.Pending = slices.Delete(next.Pending, idx, idx+1)
	next.Approved = append(next.Approved, card)
	return next, nil
}

// Reject drops the pending card with the given id.
func (s State) Reject(id string) (State, error) {
	idx := s.pendingIndex(id)
	if idx < 0 {
		return s, fmt.Errorf("reject %q: %w", id, ErrCardNotFound)
	}
	next := s.clone()
	next.Pending = slices.Delete(next.Pending, idx, idx+1)
	return next, nil
}

// ApproveAll moves every pending card to the approved list in order.
func (s State) ApproveAll() State {
	next := s.clone()
	next.Approved = append(next.Approved, next.Pending...)
	next.Pending = nil
	return next
}

// UniqueIDs returns a copy of cards in which every ID is distinct and unused
// by reserved. The first card carrying an ID keeps it; blank IDs and later
// repeats get a fresh UUID. Backends may reuse one id for unrelated notes.
func UniqueIDs(cards, reserved []notes.Card) []notes.Card {
	out := slices.Clone(cards)
	taken := make(map[string]struct{}, len(cards)+len(reserved))
	for _, card := range reserved {
		taken[card.ID] = struct{}{}
	}
	for i := range out {
		id := out[i].ID
		if _, dup := taken[id]; strings.TrimSpace(id) == "" || dup {
			id = uuid.NewString()
		}
		out[i].ID = id
		taken[id] = struct{}{}
	}
	return out
}

func (s State) pendingIndex(id string) int {
	return slices.IndexFunc(s.Pending, func(c notes.Card) bool { return c.ID == id })
}

func (s State) clone() State {
	return State{
		Pages:    slices.Clone(s.Pages),
		Pending:  slices.Clone(s.Pending),
		Approved: slices.Clone(s.Approved),
		Warnings: slices.Clone(s.Warnings),
		Status:   s.Status,
		Err:      s.Err,
	}
}
