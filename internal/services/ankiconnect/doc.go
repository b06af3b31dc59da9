// Package ankiconnect talks to the AnkiConnect add-in that exposes a running
// Anki collection over HTTP.
//
// Every call is a POST of {"action", "version": 6, "params"} to the endpoint,
// plus "key" when an API key is configured. The reply envelope carries either
// a result or an error string; error strings surface as *APIError tagged with
// services.ErrRemote, and HTTP failures as services.ErrUnavailable. Nothing is
// retried.
package ankiconnect
