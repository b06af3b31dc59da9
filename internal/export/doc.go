// Package export renders approved cards as a CSV file that Anki can import
// with the SnapToFlash note type.
//
// The format is deliberately small: a fixed header row, four columns per card
// and "\n" row separators. A field is quoted only when it contains a comma, a
// double quote or a newline. encoding/csv is not used because it also quotes
// fields with leading spaces and carriage returns, which changes the bytes
// Anki imports.
package export
