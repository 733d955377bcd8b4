// Package logo loads center-logo images for QR overlays. PNG and JPEG
// files are decoded directly; SVG files are rasterized.
package logo

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// Rasterized SVG edge length in pixels. The QR writer scales the logo down
// to fit the symbol center, so this only needs to be comfortably large.
const svgRasterSize = 256

// Load reads a logo image from path. The format is chosen by extension:
// .svg is rasterized, .png and .jpg/.jpeg are decoded as-is.
func Load(path string) (image.Image, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".svg":
		return rasterizeSVG(path, svgRasterSize)
	case ".png":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return png.Decode(f)
	case ".jpg", ".jpeg":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return jpeg.Decode(f)
	default:
		return nil, fmt.Errorf("unsupported logo format %q (want .svg, .png or .jpg)", filepath.Ext(path))
	}
}

// rasterizeSVG renders an SVG file into a size x size RGBA image.
func rasterizeSVG(path string, size int) (image.Image, error) {
	icon, err := oksvg.ReadIcon(path, oksvg.WarnErrorMode)
	if err != nil {
		return nil, fmt.Errorf("parsing SVG: %w", err)
	}
	icon.SetTarget(0, 0, float64(size), float64(size))

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	scanner := rasterx.NewScannerGV(size, size, img, img.Bounds())
	icon.Draw(rasterx.NewDasher(size, size, scanner), 1.0)
	return img, nil
}
