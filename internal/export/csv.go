package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"deckify/internal/fileutil"
	"deckify/internal/notes"
	"deckify/internal/textutil"
)

// Header is the first CSV row; the column names match the note type fields.
const Header = "ExpressionOrWord,Reading,Meaning,Example"

const timestampLayout = "20060102-150405"

// MakeCSV renders cards as CSV text. Rows are separated by "\n" with no
// trailing newline.
func MakeCSV(cards []notes.Card) string {
	rows := make([]string, 0, len(cards)+1)
	rows = append(rows, Header)
	for _, card := range cards {
		rows = append(rows, strings.Join([]string{
			escape(card.Expression),
			escape(card.Reading),
			escape(card.Meaning),
			escape(card.Example),
		}, ","))
	}
	return strings.Join(rows, "\n")
}

// WriteCSV writes the CSV rendering of cards to w.
func WriteCSV(w io.Writer, cards []notes.Card) error {
	if _, err := io.WriteString(w, MakeCSV(cards)); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// FileName returns the export file name for a deck at the given time.
func FileName(deckName string, now time.Time) string {
	return textutil.SanitizeDeckName(deckName) + "-" + now.Format(timestampLayout) + ".csv"
}

// WriteFile writes the CSV into dir and returns the created path. An empty dir
// selects the system temporary directory.
func WriteFile(dir, deckName string, cards []notes.Card, now time.Time) (string, error) {
	if strings.TrimSpace(dir) == "" {
		dir = os.TempDir()
	}
	path := filepath.Join(dir, FileName(deckName, now))
	if err := fileutil.WriteFileAtomic(path, []byte(MakeCSV(cards)), 0o644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return path, nil
}

// escape quotes a field only when it holds a comma, quote or newline.
func escape(value string) string {
	if !strings.ContainsAny(value, ",\"\n") {
		return value
	}
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}
