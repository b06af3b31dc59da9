package session

// EventKind classifies analyzer progress events.
type EventKind string

const (
	EventPageStarted  EventKind = "page_started"
	EventPageFinished EventKind = "page_finished"
	EventPageSkipped  EventKind = "page_skipped"
	EventPageFailed   EventKind = "page_failed"
	EventCompleted    EventKind = "completed"
)

// Event reports progress of a run. Index is 1-based; it is zero for
// EventCompleted.
type Event struct {
	Kind    EventKind
	Page    Page
	Index   int
	Total   int
	Message string
	Err     error
}
