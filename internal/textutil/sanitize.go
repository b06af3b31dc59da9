package textutil

import (
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// DefaultDeckFileName is used when a deck name has no usable characters.
const DefaultDeckFileName = "Deckify"

// SanitizeDeckName converts a deck name into a file name stem. Letters, marks
// and digits of any script are kept along with '-' and '_'; every other rune
// becomes '-'. Dash runs collapse to one dash and leading or trailing dashes
// and underscores are trimmed.
func SanitizeDeckName(name string) string {
	name = strings.TrimSpace(norm.NFC.String(name))
	if name == "" {
		return DefaultDeckFileName
	}
	var b strings.Builder
	lastDash := false
	for _, r := range name {
		keep := unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r) || r == '_'
		if keep {
			b.WriteRune(r)
			lastDash = false
			continue
		}
		if !lastDash {
			b.WriteByte('-')
			lastDash = true
		}
	}
	out := strings.Trim(b.String(), "-_")
	if out == "" {
		return DefaultDeckFileName
	}
	return out
}

// PageLabel derives the page label used for source tracking from an image
// path: the base name without its extension.
func PageLabel(path string) string {
	base := filepath.Base(strings.TrimSpace(path))
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}
