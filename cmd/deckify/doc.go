// Package main hosts the Deckify CLI entrypoint and command graph.
//
// "deckify analyze" runs photographed pages through the analysis backend and
// writes a review sheet; "review" and "cards" work on that sheet; "export"
// turns the approved cards into a CSV file or pushes them to Anki through
// AnkiConnect. The remaining commands cover service status, the optional
// analysis cache, the log file and configuration scaffolding.
//
// Keep this package lean: behaviour lives in the internal packages and the
// commands here only wire configuration, logging and output around them.
package main
