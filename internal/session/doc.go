// Package session orchestrates an analysis run and the approval state that
// follows it.
//
// Analyzer.Run preprocesses each page, uploads it to the analysis backend
// (sequentially by default, or with a bounded worker pool), converts the
// returned notes into card candidates and consolidates them. The first page
// failure ends the run but keeps the cards gathered from the pages before it.
//
// State is a plain value owned by the caller. Apply, Approve, Reject and
// ApproveAll return an updated copy, which keeps the CLI free to persist or
// discard it as it sees fit.
package session
