package imageprep_test

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"deckify/internal/imageprep"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestProcessScalesDownLandscape(t *testing.T) {
	p := imageprep.New(100, 80)
	res, err := p.Process(bytes.NewReader(encodePNG(t, 400, 200)))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.Width != 100 || res.Height != 50 {
		t.Fatalf("unexpected size %dx%d", res.Width, res.Height)
	}
	if !res.Scaled() || res.Format != "png" {
		t.Fatalf("unexpected result metadata: %+v", res)
	}
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(res.Data))
	if err != nil {
		t.Fatalf("output is not jpeg: %v", err)
	}
	if cfg.Width != 100 || cfg.Height != 50 {
		t.Fatalf("unexpected encoded size %dx%d", cfg.Width, cfg.Height)
	}
}

func TestProcessScalesDownPortrait(t *testing.T) {
	p := imageprep.New(90, 0)
	res, err := p.Process(bytes.NewReader(encodePNG(t, 60, 180)))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.Height != 90 || res.Width != 30 {
		t.Fatalf("unexpected size %dx%d", res.Width, res.Height)
	}
}

func TestProcessNeverUpscales(t *testing.T) {
	p := imageprep.New(1800, 80)
	res, err := p.Process(bytes.NewReader(encodePNG(t, 40, 30)))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.Scaled() || res.Width != 40 || res.Height != 30 {
		t.Fatalf("expected original size, got %+v", res)
	}
}

func TestProcessRejectsGarbage(t *testing.T) {
	_, err := imageprep.New(0, 0).Process(strings.NewReader("not an image"))
	if err == nil {
		t.Fatal("expected decode error")
	}
	if errors.Is(err, imageprep.ErrEmptyImage) {
		t.Fatal("garbage should be a decode error")
	}
}

func TestProcessFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.png")
	if err := os.WriteFile(path, encodePNG(t, 20, 20), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	res, err := imageprep.New(0, 0).ProcessFile(path)
	if err != nil {
		t.Fatalf("ProcessFile: %v", err)
	}
	if len(res.Data) == 0 {
		t.Fatal("expected data")
	}
	if _, err := imageprep.New(0, 0).ProcessFile(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestNewAppliesDefaults(t *testing.T) {
	p := imageprep.New(-1, 500)
	if p.MaxLongEdge != imageprep.DefaultMaxLongEdge || p.JPEGQuality != imageprep.DefaultJPEGQuality {
		t.Fatalf("unexpected defaults %+v", p)
	}
}
