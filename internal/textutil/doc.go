// Package textutil holds the small text helpers shared by the export and CLI
// layers: deck names turned into file names and image paths turned into page
// labels.
package textutil
