package backend

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"deckify/internal/notes"
)

// PageAnalysis is the analysis backend's response for one page.
type PageAnalysis struct {
	PageID      string           `json:"page_id,omitempty"`
	Confidence  float64          `json:"confidence"`
	NeedsReview bool             `json:"needs_review"`
	Warnings    []string         `json:"warnings"`
	Annotations []AnnotationMark `json:"annotations"`
	Notes       []RawNote        `json:"anki_notes"`
}

// AnnotationMark describes a handwritten mark the backend found on the page.
// Marks are surfaced for display only.
type AnnotationMark struct {
	ID             string    `json:"id,omitempty"`
	Type           string    `json:"type"`
	Color          string    `json:"color,omitempty"`
	BoundingBox    []float64 `json:"bounding_box,omitempty"` // [x1, y1, x2, y2]
	AnnotationText string    `json:"annotation_text,omitempty"`
	TargetText     string    `json:"target_text,omitempty"`
	TargetContext  string    `json:"target_context,omitempty"`
	Confidence     Score     `json:"confidence,omitzero"`
}

// RawNote is a note candidate as sent by the backend. Two payload shapes are
// in use: the expression_or_word/reading/meaning form and the
// front/back/hiragana/kanji form; both decode into this struct.
type RawNote struct {
	ID               string `json:"id,omitempty"`
	ExpressionOrWord string `json:"expression_or_word,omitempty"`
	Reading          string `json:"reading,omitempty"`
	Meaning          string `json:"meaning,omitempty"`
	Example          string `json:"example,omitempty"`
	Confidence       Score  `json:"confidence,omitzero"`

	Front           string `json:"front,omitempty"`
	Back            string `json:"back,omitempty"`
	Hiragana        string `json:"hiragana,omitempty"`
	Kanji           string `json:"kanji,omitempty"`
	Source          string `json:"source,omitempty"`
	BookMatch       string `json:"book_match,omitempty"`
	HandTranslation string `json:"hand_translation,omitempty"`
	AITranslation   string `json:"ai_translation,omitempty"`
	ConfOCR         Score  `json:"conf_ocr,omitzero"`
	ConfMatch       Score  `json:"conf_match,omitzero"`
	Notes           string `json:"notes,omitempty"`

	NeedsReview bool `json:"needs_review"`
}

// Score is an optional 0..1 value. Anything that is not a number (or numeric
// string) inside that range decodes as absent instead of failing the page.
type Score struct {
	Value float64
	Valid bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Score) UnmarshalJSON(data []byte) error {
	*s = Score{}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	var number float64
	if err := json.Unmarshal(trimmed, &number); err != nil {
		var text string
		if json.Unmarshal(trimmed, &text) != nil {
			return nil
		}
		parsed, perr := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if perr != nil {
			return nil
		}
		number = parsed
	}
	if math.IsNaN(number) || number < 0 || number > 1 {
		return nil
	}
	*s = Score{Value: number, Valid: true}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (s Score) MarshalJSON() ([]byte, error) {
	if !s.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(s.Value)
}

// IsZero reports whether the score is absent, so omitzero drops it.
func (s Score) IsZero() bool { return !s.Valid }

// ScoreOf returns a present score.
func ScoreOf(v float64) Score { return Score{Value: v, Valid: true} }

func (s Score) pointer() *float64 {
	if !s.Valid {
		return nil
	}
	return notes.Float(s.Value)
}

// Card maps the raw note to a card candidate. fallbackPage labels the card
// when the note carries no source, and pageConfidence is used when neither
// the note nor its component scores carry a confidence. The second return
// value is false when the note has no usable expression.
func (n RawNote) Card(fallbackPage string, pageConfidence float64) (notes.Card, bool) {
	expression := firstNonEmpty(n.ExpressionOrWord, n.Kanji, n.Front)
	if expression == "" {
		return notes.Card{}, false
	}

	card := notes.Card{
		ID:              strings.TrimSpace(n.ID),
		Expression:      expression,
		Reading:         firstNonEmpty(n.Reading, n.Hiragana),
		Meaning:         firstNonEmpty(n.Meaning, n.Back),
		Example:         firstNonEmpty(n.Example, n.Notes),
		NeedsReview:     n.NeedsReview,
		SourcePage:      firstNonEmpty(n.Source, fallbackPage),
		HandTranslation: strings.TrimSpace(n.HandTranslation),
		AITranslation:   strings.TrimSpace(n.AITranslation),
		BookMatch:       strings.TrimSpace(n.BookMatch),
		MatchConfidence: n.ConfMatch.pointer(),
		OCRConfidence:   n.ConfOCR.pointer(),
	}
	if card.ID == "" {
		card.ID = uuid.NewString()
	}

	switch {
	case n.Confidence.Valid:
		card.Confidence = n.Confidence.Value
	case n.ConfMatch.Valid || n.ConfOCR.Valid:
		card.Confidence = math.Max(n.ConfMatch.Value, n.ConfOCR.Value)
	default:
		card.Confidence = clamp01(pageConfidence)
	}
	return card, true
}

// Cards converts every note of the page and reports how many notes were
// dropped for lacking an expression.
func (p PageAnalysis) Cards(fallbackPage string) ([]notes.Card, int) {
	label := firstNonEmpty(fallbackPage, p.PageID)
	cards := make([]notes.Card, 0, len(p.Notes))
	dropped := 0
	for _, raw := range p.Notes {
		card, ok := raw.Card(label, p.Confidence)
		if !ok {
			dropped++
			continue
		}
		cards = append(cards, card)
	}
	return cards, dropped
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
