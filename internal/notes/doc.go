// Package notes defines the flashcard candidate model and the consolidation
// pass that folds near-duplicate candidates from several pages into one
// pending list.
//
// Two cards are the same flashcard when their expression, reading and meaning
// match after trimming and lower-casing. Merging unions source pages, ORs the
// review flag and keeps the highest scores; every other field stays as first
// seen. Consolidate is pure and never fails.
package notes
