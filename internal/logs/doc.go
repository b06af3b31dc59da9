// Package logs reads the deckify log file for the "deckify logs" command.
//
// Last returns the final lines of the file with bounded memory, and Follow
// polls for lines appended after an offset until its context is cancelled.
// A file that shrinks between polls is treated as rotated and read again from
// the start.
package logs
