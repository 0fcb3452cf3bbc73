package testsupport

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/chai2010/tiff"
)

// SolidImage returns a uniformly filled RGBA image of the given size.
func SolidImage(width, height int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// WritePNG writes a solid PNG invoice page to the target path.
func WritePNG(t testing.TB, path string, width, height int) {
	t.Helper()

	var buf bytes.Buffer
	if err := png.Encode(&buf, SolidImage(width, height, color.White)); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	writeBytes(t, path, buf.Bytes())
}

// WriteMultipageTIFF writes a TIFF with one solid frame per provided size
// pair to the target path.
func WriteMultipageTIFF(t testing.TB, path string, sizes ...[2]int) {
	t.Helper()

	frames := make([][]image.Image, 0, len(sizes))
	for _, size := range sizes {
		frames = append(frames, []image.Image{SolidImage(size[0], size[1], color.White)})
	}
	var buf bytes.Buffer
	if err := tiff.EncodeAll(&buf, frames, nil); err != nil {
		t.Fatalf("encode tiff: %v", err)
	}
	writeBytes(t, path, buf.Bytes())
}

func writeBytes(t testing.TB, path string, data []byte) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
