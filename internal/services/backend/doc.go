// Package backend is the client for the page analysis service.
//
// AnalyzePage uploads one page image as multipart form data to
// POST /analyze-page and decodes the returned notes, warnings and annotation
// marks; Health probes GET /health. RawNote.Card maps either of the two note
// payload shapes the service emits into a notes.Card, generating an ID when
// the service did not assign one. Failures are tagged with the services error
// markers so callers can tell transport problems from undecodable payloads.
package backend
