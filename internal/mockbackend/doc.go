// Package mockbackend serves a canned stand-in for the page analysis service
// so the CLI can be exercised without OCR or translation models. Every upload
// yields the same single example note.
package mockbackend
