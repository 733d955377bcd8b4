// Package generator turns text into QR code images. Symbol construction
// (version selection, masking, error correction) is delegated entirely to
// the yeqown/go-qrcode encoder; this package only validates parameters and
// drives the raster writer.
package generator

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strconv"
	"strings"

	"github.com/yeqown/go-qrcode/v2"
	"github.com/yeqown/go-qrcode/writer/standard"

	"github.com/qrstudio/qrstudio/internal/logo"
)

// Errors reported by Generate. Callers distinguish bad input (user fixable)
// from encoder failures with errors.Is.
var (
	ErrEmptyInput       = fmt.Errorf("enter text or a URL to generate a QR code")
	ErrInvalidParameter = fmt.Errorf("invalid generation parameter")
)

// Module size is pixels per QR module, matching the size slider range.
const (
	MinModuleSize     = 5
	MaxModuleSize     = 20
	DefaultModuleSize = 10

	// Quiet zone around the symbol, in modules.
	DefaultBorderModules = 4
)

// Request carries the parameters of one generate action. A zero value for
// ModuleSize or BorderModules means the default; colors default to black
// on white.
type Request struct {
	Text          string
	Level         Level
	ModuleSize    int
	BorderModules int
	Foreground    string
	Background    string
	LogoPath      string
}

// Image is one generated QR code at its original resolution. PNG holds the
// canonical encoded bytes; saving as PNG writes exactly these bytes.
type Image struct {
	PNG        []byte
	Bitmap     image.Image
	Text       string
	Level      Level
	ModuleSize int
	Dimension  int
}

// Service encodes QR codes. It is stateless and safe for concurrent use;
// the generated image is owned by the session, not the service.
type Service struct{}

// New returns a new generator Service.
func New() *Service { return &Service{} }

// Generate validates req, encodes the text as a QR symbol in auto-fit mode
// (the encoder picks the smallest version that holds the data at the
// requested error correction level) and renders it to an in-memory PNG.
func (s *Service) Generate(req Request) (*Image, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, ErrEmptyInput
	}

	moduleSize := req.ModuleSize
	if moduleSize == 0 {
		moduleSize = DefaultModuleSize
	}
	if moduleSize < MinModuleSize || moduleSize > MaxModuleSize {
		return nil, fmt.Errorf("%w: module size %d outside [%d,%d]",
			ErrInvalidParameter, moduleSize, MinModuleSize, MaxModuleSize)
	}

	borderModules := req.BorderModules
	if borderModules == 0 {
		borderModules = DefaultBorderModules
	}
	if borderModules < 0 {
		return nil, fmt.Errorf("%w: negative border width %d", ErrInvalidParameter, borderModules)
	}

	fg := ParseColor(req.Foreground, color.RGBA{0, 0, 0, 255})
	bg := ParseColor(req.Background, color.RGBA{255, 255, 255, 255})

	qrc, err := qrcode.NewWith(text,
		qrcode.WithEncodingMode(qrcode.EncModeByte),
		req.Level.ErrorCorrection(),
	)
	if err != nil {
		return nil, fmt.Errorf("encoding QR symbol: %w", err)
	}

	opts := []standard.ImageOption{
		standard.WithQRWidth(uint8(moduleSize)),
		standard.WithBorderWidth(borderModules * moduleSize),
		standard.WithFgColor(fg),
		standard.WithBgColor(bg),
		standard.WithBuiltinImageEncoder(standard.PNG_FORMAT),
	}

	if req.LogoPath != "" {
		logoImg, err := logo.Load(req.LogoPath)
		if err != nil {
			return nil, fmt.Errorf("loading logo: %w", err)
		}
		opts = append(opts, standard.WithLogoImage(logoImg))
	}

	buf := newBuffer()
	w := standard.NewWithWriter(buf, opts...)
	if err := qrc.Save(w); err != nil {
		return nil, fmt.Errorf("rendering QR image: %w", err)
	}

	bitmap, err := png.Decode(bytes.NewReader(buf.Bytes()))
	if err != nil {
		return nil, fmt.Errorf("decoding rendered PNG: %w", err)
	}

	return &Image{
		PNG:        buf.Bytes(),
		Bitmap:     bitmap,
		Text:       text,
		Level:      req.Level,
		ModuleSize: moduleSize,
		Dimension:  qrc.Dimension(),
	}, nil
}

// buffer adapts bytes.Buffer to the io.WriteCloser the standard writer wants.
type buffer struct {
	bytes.Buffer
}

func newBuffer() *buffer { return &buffer{} }

func (b *buffer) Close() error { return nil }

// ParseColor parses a "#RRGGBB" (or "RRGGBB") color string, returning def
// when the string is empty or malformed. "transparent" yields a fully
// transparent color.
func ParseColor(param string, def color.RGBA) color.RGBA {
	if param == "" {
		return def
	}
	if strings.EqualFold(param, "transparent") {
		return color.RGBA{0, 0, 0, 0}
	}
	param = strings.TrimPrefix(param, "#")
	if len(param) != 6 {
		return def
	}
	r, err1 := strconv.ParseUint(param[0:2], 16, 8)
	g, err2 := strconv.ParseUint(param[2:4], 16, 8)
	b, err3 := strconv.ParseUint(param[4:6], 16, 8)
	if err1 != nil || err2 != nil || err3 != nil {
		return def
	}
	return color.RGBA{uint8(r), uint8(g), uint8(b), 255}
}
