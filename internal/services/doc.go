// Package services defines shared utilities consumed by the external service
// clients (analysis backend, AnkiConnect).
//
// Errors returned by those clients are tagged with one of the sentinel markers
// here through Wrap, so callers can classify failures with errors.Is and show a
// consistent next-step hint without knowing which client produced them.
package services
