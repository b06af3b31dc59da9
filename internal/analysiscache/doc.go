// Package analysiscache stores raw page analysis responses in SQLite so that
// re-running the same photo does not upload it again.
//
// Entries are keyed by the SHA-256 of the backend base URL, the preprocessed
// image bytes and the page id. Only backend payloads are stored; cards, decisions and run state
// never touch the cache. Entries that have not been read within the retention
// window are removed by Prune.
package analysiscache
