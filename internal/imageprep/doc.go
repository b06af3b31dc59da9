// Package imageprep bounds page photos before they are uploaded for analysis.
//
// JPEG, PNG, GIF and WebP inputs are decoded, scaled down with Catmull-Rom
// resampling until the long edge fits the configured limit, and re-encoded as
// JPEG at the configured quality.
package imageprep
