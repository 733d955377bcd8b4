// Package preview renders display-side views of generated QR codes: a
// fixed-size raster for the form's preview area and an ASCII rendering
// for the terminal. Both are transforms of a copy; the stored original
// image is never touched.
package preview

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	qrterm "github.com/skip2/go-qrcode"

	"github.com/qrstudio/qrstudio/internal/generator"
)

// DisplaySize is the square edge of the preview area in pixels.
const DisplaySize = 250

// Scale resizes src to size x size using nearest-neighbor resampling,
// which keeps module edges sharp instead of blurring them.
func Scale(src image.Image, size int) *image.RGBA {
	bounds := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	if bounds.Dx() == 0 || bounds.Dy() == 0 || size <= 0 {
		return dst
	}

	sx := float64(size) / float64(bounds.Dx())
	sy := float64(size) / float64(bounds.Dy())
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			ox := int(float64(x) / sx)
			oy := int(float64(y) / sy)
			if ox >= bounds.Dx() {
				ox = bounds.Dx() - 1
			}
			if oy >= bounds.Dy() {
				oy = bounds.Dy() - 1
			}
			dst.Set(x, y, src.At(bounds.Min.X+ox, bounds.Min.Y+oy))
		}
	}
	return dst
}

// PNG renders the fixed-size preview of img as PNG bytes.
func PNG(img *generator.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, Scale(img.Bitmap, DisplaySize)); err != nil {
		return nil, fmt.Errorf("encoding preview PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// Terminal renders text as a half-height ASCII QR code for CLI preview.
func Terminal(text string, level generator.Level) (string, error) {
	q, err := qrterm.New(text, terminalLevel(level))
	if err != nil {
		return "", fmt.Errorf("encoding terminal QR: %w", err)
	}
	return q.ToSmallString(false), nil
}

// terminalLevel maps our level onto the terminal encoder's scale, which
// has no distinct Quartile constant (High there recovers 25%).
func terminalLevel(l generator.Level) qrterm.RecoveryLevel {
	switch l {
	case generator.LevelLow:
		return qrterm.Low
	case generator.LevelQuartile:
		return qrterm.High
	case generator.LevelHigh:
		return qrterm.Highest
	default:
		return qrterm.Medium
	}
}
