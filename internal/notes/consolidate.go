package notes

import "strings"

const sourcePageSeparator = ", "

// Consolidate folds cards with equal keys into one record. The output keeps
// the position of each key's first occurrence; later duplicates are merged
// into that slot. The input slice is left untouched.
func Consolidate(cards []Card) []Card {
	out := make([]Card, 0, len(cards))
	index := make(map[Key]int, len(cards))
	keyer := NewKeyer()
	for _, card := range cards {
		key := keyer.Key(card)
		if pos, ok := index[key]; ok {
			out[pos] = merge(out[pos], card)
			continue
		}
		index[key] = len(out)
		out = append(out, card)
	}
	return out
}

// merge folds incoming into existing. Aggregable fields combine; every other
// field keeps the value of existing.
func merge(existing, incoming Card) Card {
	existing.SourcePage = MergeSourcePages(existing.SourcePage, incoming.SourcePage)
	existing.NeedsReview = existing.NeedsReview || incoming.NeedsReview
	if incoming.Confidence > existing.Confidence {
		existing.Confidence = incoming.Confidence
	}
	existing.MatchConfidence = maxOptional(existing.MatchConfidence, incoming.MatchConfidence)
	existing.OCRConfidence = maxOptional(existing.OCRConfidence, incoming.OCRConfidence)
	return existing
}

func maxOptional(a, b *float64) *float64 {
	switch {
	case a == nil && b == nil:
		return nil
	case a == nil:
		return Float(*b)
	case b == nil:
		return Float(*a)
	case *b > *a:
		return Float(*b)
	default:
		return Float(*a)
	}
}

// MergeSourcePages unions two comma-separated page label lists. Labels are
// trimmed, empty labels dropped, duplicates removed and first-seen order kept.
func MergeSourcePages(a, b string) string {
	seen := make(map[string]struct{})
	labels := make([]string, 0, 4)
	for _, list := range []string{a, b} {
		for _, label := range strings.Split(list, ",") {
			label = strings.TrimSpace(label)
			if label == "" {
				continue
			}
			if _, ok := seen[label]; ok {
				continue
			}
			seen[label] = struct{}{}
			labels = append(labels, label)
		}
	}
	return strings.Join(labels, sourcePageSeparator)
}

// DedupeWarnings drops repeated warnings, keeping the first occurrence of
// each exact string.
func DedupeWarnings(warnings []string) []string {
	out := make([]string, 0, len(warnings))
	seen := make(map[string]struct{}, len(warnings))
	for _, warning := range warnings {
		if _, ok := seen[warning]; ok {
			continue
		}
		seen[warning] = struct{}{}
		out = append(out, warning)
	}
	return out
}
