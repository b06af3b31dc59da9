package review

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"deckify/internal/fileutil"
	"deckify/internal/notes"
	"deckify/internal/session"
)

// SheetVersion is the document format written by Save.
const SheetVersion = 1

// Decision is the reviewer's verdict for one card.
type Decision string

const (
	DecisionPending Decision = "pending"
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// ErrEmptySheet is returned by Load for a file with no content.
var ErrEmptySheet = errors.New("review sheet is empty")

// ParseDecision accepts the decision spellings reviewers tend to type.
func ParseDecision(raw string) (Decision, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "pending", "skip", "?":
		return DecisionPending, nil
	case "approve", "approved", "yes", "y":
		return DecisionApprove, nil
	case "reject", "rejected", "no", "n":
		return DecisionReject, nil
	default:
		return "", fmt.Errorf("unknown decision %q (want pending, approve or reject)", raw)
	}
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Decision) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := ParseDecision(raw)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*d = parsed
	return nil
}

// Entry is one card on the sheet.
type Entry struct {
	Decision   Decision `json:"decision" yaml:"decision"`
	notes.Card `yaml:",inline"`
}

// Sheet is the hand-off file between "deckify analyze" and the commands that
// review or export its cards.
type Sheet struct {
	Version     int       `yaml:"version"`
	GeneratedAt time.Time `yaml:"generated_at"`
	Pages       []string  `yaml:"pages,omitempty"`
	Status      string    `yaml:"status,omitempty"`
	Error       string    `yaml:"error,omitempty"`
	Warnings    []string  `yaml:"warnings,omitempty"`
	Cards       []Entry   `yaml:"cards"`
}

// FromState captures a run state. Pending cards are written as pending and
// approved cards as approve.
func FromState(state session.State, now time.Time) Sheet {
	sheet := Sheet{
		Version:     SheetVersion,
		GeneratedAt: now.UTC().Truncate(time.Second),
		Status:      state.Status,
		Warnings:    append([]string(nil), state.Warnings...),
		Cards:       make([]Entry, 0, len(state.Pending)+len(state.Approved)),
	}
	if state.Err != nil {
		sheet.Error = state.Err.Error()
	}
	for _, page := range state.Pages {
		sheet.Pages = append(sheet.Pages, page.DisplayName())
	}
	for _, card := range state.Approved {
		sheet.Cards = append(sheet.Cards, Entry{Decision: DecisionApprove, Card: card})
	}
	for _, card := range state.Pending {
		sheet.Cards = append(sheet.Cards, Entry{Decision: DecisionPending, Card: card})
	}
	return sheet
}

// Load reads and validates a sheet.
func Load(path string) (Sheet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Sheet{}, fmt.Errorf("read review sheet: %w", err)
	}
	sheet, err := Parse(data)
	if err != nil {
		return Sheet{}, fmt.Errorf("review sheet %s: %w", path, err)
	}
	return sheet, nil
}

// Parse decodes and validates sheet YAML.
func Parse(data []byte) (Sheet, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Sheet{}, ErrEmptySheet
	}
	var sheet Sheet
	if err := yaml.Unmarshal(data, &sheet); err != nil {
		return Sheet{}, fmt.Errorf("decode: %w", err)
	}
	if sheet.Version != SheetVersion {
		return Sheet{}, fmt.Errorf("unsupported version %d (want %d)", sheet.Version, SheetVersion)
	}
	seen := make(map[string]struct{}, len(sheet.Cards))
	for i, entry := range sheet.Cards {
		id := strings.TrimSpace(entry.ID)
		if id == "" {
			return Sheet{}, fmt.Errorf("card %d has no id", i+1)
		}
		if _, dup := seen[id]; dup {
			return Sheet{}, fmt.Errorf("card id %q appears more than once", id)
		}
		seen[id] = struct{}{}
		if entry.Decision == "" {
			sheet.Cards[i].Decision = DecisionPending
		}
	}
	return sheet, nil
}

// Save writes the sheet atomically.
func (s Sheet) Save(path string) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encode review sheet: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode review sheet: %w", err)
	}
	if err := fileutil.WriteFileAtomic(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("save review sheet: %w", err)
	}
	return nil
}

// State rebuilds the run state the sheet describes: every card pending, then
// the recorded decisions replayed.
func (s Sheet) State() (session.State, error) {
	cards := make([]notes.Card, 0, len(s.Cards))
	for _, entry := range s.Cards {
		cards = append(cards, entry.Card)
	}
	state := session.State{}.Apply(session.Result{
		Cards:    cards,
		Warnings: s.Warnings,
		Status:   s.Status,
	})
	return s.Apply(state)
}

// Apply replays the sheet's approve and reject decisions through state.
// Pending entries are left untouched.
func (s Sheet) Apply(state session.State) (session.State, error) {
	var err error
	for _, entry := range s.Cards {
		switch entry.Decision {
		case DecisionApprove:
			state, err = state.Approve(entry.ID)
		case DecisionReject:
			state, err = state.Reject(entry.ID)
		default:
			continue
		}
		if err != nil {
			return state, err
		}
	}
	return state, nil
}

// SetDecision records a decision for the card with the given id.
func (s *Sheet) SetDecision(id string, decision Decision) error {
	for i := range s.Cards {
		if s.Cards[i].ID == id {
			s.Cards[i].Decision = decision
			return nil
		}
	}
	return fmt.Errorf("set decision for %q: %w", id, session.ErrCardNotFound)
}

// ApproveAll marks every pending card as approved.
func (s *Sheet) ApproveAll() int {
	changed := 0
	for i := range s.Cards {
		if s.Cards[i].Decision == DecisionPending {
			s.Cards[i].Decision = DecisionApprove
			changed++
		}
	}
	return changed
}

// Counts tallies cards per decision.
func (s Sheet) Counts() map[Decision]int {
	counts := map[Decision]int{DecisionPending: 0, DecisionApprove: 0, DecisionReject: 0}
	for _, entry := range s.Cards {
		counts[entry.Decision]++
	}
	return counts
}

// Approved returns the approved cards in sheet order.
func (s Sheet) Approved() ([]notes.Card, error) {
	state, err := s.State()
	if err != nil {
		return nil, err
	}
	return state.Approved, nil
}
