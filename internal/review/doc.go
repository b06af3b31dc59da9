// Package review reads and writes the review sheet: a YAML file listing the
// cards of the last analysis run, each with a decision of pending, approve or
// reject.
//
// The sheet is the hand-off between commands. "deckify analyze" writes it,
// the reviewer edits decisions by hand or through "deckify review", and the
// export commands read the approved cards back. Decisions are replayed
// through session.State, so the same rules apply whichever way they were
// recorded.
package review
