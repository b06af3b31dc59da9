// Package preflight provides readiness checks for the services and
// filesystem paths deckify depends on.
//
// The CLI "deckify status" command runs RunAll and renders each Result.
// AnkiConnect is optional: a failed check is reported but CSV export still
// works without it.
package preflight
