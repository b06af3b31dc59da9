// Package config loads, normalizes, and validates Deckify configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// DECKIFY_BACKEND_URL and ANKICONNECT_API_KEY. The Config type centralizes the
// analysis backend, AnkiConnect, image preprocessing and cache settings so the
// CLI resolves everything in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
