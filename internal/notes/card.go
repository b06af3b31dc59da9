package notes

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Card is one flashcard candidate detected on a page.
//
// Optional text fields use the empty string for "absent". The component
// scores are pointers so an absent score stays distinguishable from zero.
type Card struct {
	ID              string   `json:"id" yaml:"id"`
	Expression      string   `json:"expression" yaml:"expression"`
	Reading         string   `json:"reading,omitempty" yaml:"reading,omitempty"`
	Meaning         string   `json:"meaning" yaml:"meaning"`
	Example         string   `json:"example,omitempty" yaml:"example,omitempty"`
	Confidence      float64  `json:"confidence" yaml:"confidence"`
	NeedsReview     bool     `json:"needs_review" yaml:"needs_review"`
	SourcePage      string   `json:"source_page,omitempty" yaml:"source_page,omitempty"`
	HandTranslation string   `json:"hand_translation,omitempty" yaml:"hand_translation,omitempty"`
	AITranslation   string   `json:"ai_translation,omitempty" yaml:"ai_translation,omitempty"`
	BookMatch       string   `json:"book_match,omitempty" yaml:"book_match,omitempty"`
	MatchConfidence *float64 `json:"match_confidence,omitempty" yaml:"match_confidence,omitempty"`
	OCRConfidence   *float64 `json:"ocr_confidence,omitempty" yaml:"ocr_confidence,omitempty"`
}

// Key identifies cards that are treated as the same flashcard. Each part is
// trimmed and lower-cased.
type Key struct {
	Expression string
	Reading    string
	Meaning    string
}

// KeyOf returns the equivalence key of card. Callers keying many cards
// should use a Keyer so the case folder is built once.
func KeyOf(card Card) Key {
	return NewKeyer().Key(card)
}

// Keyer computes keys with a reusable case folder. It is not safe for
// concurrent use.
type Keyer struct {
	lower cases.Caser
}

// NewKeyer returns a Keyer using language-neutral lower-casing.
func NewKeyer() *Keyer {
	return &Keyer{lower: cases.Lower(language.Und)}
}

// Key returns the equivalence key of card.
func (k *Keyer) Key(card Card) Key {
	return Key{
		Expression: normalizeKeyPart(k.lower, card.Expression),
		Reading:    normalizeKeyPart(k.lower, card.Reading),
		Meaning:    normalizeKeyPart(k.lower, card.Meaning),
	}
}

func normalizeKeyPart(lower cases.Caser, value string) string {
	return lower.String(strings.TrimSpace(value))
}

// Float returns a pointer to v, for populating optional scores.
func Float(v float64) *float64 {
	return &v
}
