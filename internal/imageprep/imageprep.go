package imageprep

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // register decoder
	"image/jpeg"
	_ "image/png" // register decoder
	"io"
	"os"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register decoder
)

const (
	DefaultMaxLongEdge = 1800
	DefaultJPEGQuality = 80
)

// ErrEmptyImage is returned when the input has no pixels.
var ErrEmptyImage = errors.New("image has no pixels")

// Preprocessor bounds page images before upload.
type Preprocessor struct {
	MaxLongEdge int
	JPEGQuality int
}

// New returns a preprocessor, substituting defaults for non-positive values.
func New(maxLongEdge, quality int) Preprocessor {
	if maxLongEdge <= 0 {
		maxLongEdge = DefaultMaxLongEdge
	}
	if quality <= 0 || quality > 100 {
		quality = DefaultJPEGQuality
	}
	return Preprocessor{MaxLongEdge: maxLongEdge, JPEGQuality: quality}
}

// Result is a preprocessed page.
type Result struct {
	Data           []byte
	Format         string
	Width, Height  int
	OriginalWidth  int
	OriginalHeight int
}

// Scaled reports whether the image was resized.
func (r Result) Scaled() bool {
	return r.Width != r.OriginalWidth || r.Height != r.OriginalHeight
}

// Process decodes an image, scales it down so its long edge fits, and
// re-encodes it as JPEG. Images are never scaled up.
func (p Preprocessor) Process(r io.Reader) (Result, error) {
	src, format, err := image.Decode(r)
	if err != nil {
		return Result{}, fmt.Errorf("decode image: %w", err)
	}
	bounds := src.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return Result{}, ErrEmptyImage
	}

	p = New(p.MaxLongEdge, p.JPEGQuality)
	width, height := fitLongEdge(bounds.Dx(), bounds.Dy(), p.MaxLongEdge)

	var out image.Image = src
	if width != bounds.Dx() || height != bounds.Dy() {
		dst := image.NewRGBA(image.Rect(0, 0, width, height))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Src, nil)
		out = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, out, &jpeg.Options{Quality: p.JPEGQuality}); err != nil {
		return Result{}, fmt.Errorf("encode jpeg: %w", err)
	}
	return Result{
		Data:           buf.Bytes(),
		Format:         format,
		Width:          width,
		Height:         height,
		OriginalWidth:  bounds.Dx(),
		OriginalHeight: bounds.Dy(),
	}, nil
}

// ProcessFile runs Process on the file at path.
func (p Preprocessor) ProcessFile(path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()
	return p.Process(f)
}

func fitLongEdge(width, height, maxEdge int) (int, int) {
	longEdge := max(width, height)
	if longEdge <= maxEdge {
		return width, height
	}
	scale := float64(maxEdge) / float64(longEdge)
	w := max(1, int(float64(width)*scale+0.5))
	h := max(1, int(float64(height)*scale+0.5))
	if width >= height {
		w = maxEdge
	} else {
		h = maxEdge
	}
	return w, h
}
