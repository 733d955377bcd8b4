// Package session holds per-run application state: the last generated QR
// image and the status line. It is the explicit replacement for the
// implicit "last generated" field the UI used to share with the encoder.
package session

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/qrstudio/qrstudio/internal/generator"
)

// ErrNothingGenerated is reported when save runs before any generate.
var ErrNothingGenerated = fmt.Errorf("no QR code generated yet")

// State of the application. A failed generate never changes state; only
// the first successful generate moves Idle to Generated.
type State int

const (
	StateIdle State = iota
	StateGenerated
)

func (s State) String() string {
	if s == StateGenerated {
		return "generated"
	}
	return "idle"
}

// Status text is cut to this many runes of the input.
const statusTextLimit = 30

const jpegQuality = 92

// Session owns exactly one generated image at a time. A new successful
// generate replaces the previous image; save reads it without modifying it.
type Session struct {
	mu     sync.Mutex
	last   *generator.Image
	status string
}

// New returns an idle session.
func New() *Session {
	return &Session{status: "Ready"}
}

// SetGenerated stores img as the current image, discarding any previous
// one, and updates the status line.
func (s *Session) SetGenerated(img *generator.Image) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = img
	s.status = "Generated QR code for: " + truncate(img.Text, statusTextLimit)
}

// Current returns the stored image, or nil when idle.
func (s *Session) Current() *generator.Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// State reports whether a generated image exists.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return StateIdle
	}
	return StateGenerated
}

// Status returns the current status line.
func (s *Session) Status() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// SetStatus replaces the status line.
func (s *Session) SetStatus(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = msg
}

// SaveTo writes the current image to path at its original resolution and
// returns the resolved path. format is "png" or "jpeg"; when empty it is
// inferred from the path extension, defaulting to PNG. PNG writes the
// canonical encoded bytes verbatim; JPEG re-encodes over an opaque white
// background. Saving never changes which image is current.
func (s *Session) SaveTo(path, format string) (string, error) {
	s.mu.Lock()
	img := s.last
	s.mu.Unlock()

	if img == nil {
		return "", ErrNothingGenerated
	}

	if format == "" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".jpg", ".jpeg":
			format = "jpeg"
		default:
			format = "png"
		}
	}

	var data []byte
	switch strings.ToLower(format) {
	case "png":
		data = img.PNG
	case "jpg", "jpeg":
		var err error
		data, err = EncodeJPEG(img.Bitmap)
		if err != nil {
			return "", fmt.Errorf("encoding JPEG: %w", err)
		}
	default:
		return "", fmt.Errorf("unsupported save format %q (want png or jpeg)", format)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		s.SetStatus("Error saving QR code")
		return "", fmt.Errorf("writing %s: %w", path, err)
	}

	resolved := path
	if abs, err := filepath.Abs(path); err == nil {
		resolved = abs
	}
	s.SetStatus("Saved to: " + resolved)
	return resolved, nil
}

// EncodeJPEG composites src onto an opaque white background and encodes it.
// JPEG has no alpha channel, so transparent-background QRs stay scannable.
func EncodeJPEG(src image.Image) ([]byte, error) {
	bounds := src.Bounds()
	out := image.NewRGBA(bounds)
	draw.Draw(out, bounds, &image.Uniform{C: color.RGBA{255, 255, 255, 255}}, image.Point{}, draw.Src)
	draw.Draw(out, bounds, src, bounds.Min, draw.Over)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, out, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// truncate cuts s to at most limit runes, appending an ellipsis when
// anything was cut so truncation is visible in the status line.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "…"
}
