// Package visualization renders flood masks to PNG for quick inspection:
// the bare mask, the mask tinted over a grayscale band composite, and the
// change map between a pre-event and a post-event mask.
package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	"floodseg/pkg/raster"
)

// Viewer renders one full-resolution binary mask.
type Viewer struct {
	mask   []float64
	width  int
	height int
}

// NewViewer creates a viewer for a width x height mask. Values >= 0.5 are
// rendered as water.
func NewViewer(mask []float64, width, height int) (*Viewer, error) {
	if len(mask) != width*height {
		return nil, &raster.ShapeError{
			Context: "viewer mask",
			Want:    raster.Shape{Bands: 1, Width: width, Height: height},
			Got:     raster.Shape{Bands: 1, Width: len(mask), Height: 1},
		}
	}
	return &Viewer{mask: mask, width: width, height: height}, nil
}

// MaskImage renders the mask as white water on black.
func (v *Viewer) MaskImage() image.Image {
	img := image.NewGray(image.Rect(0, 0, v.width, v.height))
	for i, val := range v.mask {
		if val >= 0.5 {
			img.Pix[i] = 255
		}
	}
	return img
}

// OverlayImage renders a grayscale band with water pixels tinted blue. The
// band must cover the same extent as the mask; it is stretched to its own
// min/max range for display.
func (v *Viewer) OverlayImage(band []float64) (image.Image, error) {
	if len(band) != len(v.mask) {
		return nil, &raster.ShapeError{
			Context: "overlay band",
			Want:    raster.Shape{Bands: 1, Width: v.width, Height: v.height},
			Got:     raster.Shape{Bands: 1, Width: len(band), Height: 1},
		}
	}

	lo, hi := band[0], band[0]
	for _, val := range band {
		if val < lo {
			lo = val
		}
		if val > hi {
			hi = val
		}
	}
	scale := 0.0
	if hi > lo {
		scale = 255 / (hi - lo)
	}

	img := image.NewRGBA(image.Rect(0, 0, v.width, v.height))
	for i, val := range band {
		g := uint8((val - lo) * scale)
		c := color.RGBA{R: g, G: g, B: g, A: 255}
		if v.mask[i] >= 0.5 {
			c = color.RGBA{R: g / 3, G: g / 3, B: 255, A: 255}
		}
		img.SetRGBA(i%v.width, i/v.width, c)
	}
	return img, nil
}

// ChangeImage renders the transition from this (pre-event) mask to the given
// post-event mask: newly flooded pixels blue, receded pixels red, unchanged
// water white, unchanged dry black.
func (v *Viewer) ChangeImage(after []float64) (image.Image, error) {
	if len(after) != len(v.mask) {
		return nil, &raster.ShapeError{
			Context: "change mask",
			Want:    raster.Shape{Bands: 1, Width: v.width, Height: v.height},
			Got:     raster.Shape{Bands: 1, Width: len(after), Height: 1},
		}
	}

	img := image.NewRGBA(image.Rect(0, 0, v.width, v.height))
	for i := range v.mask {
		b := v.mask[i] >= 0.5
		a := after[i] >= 0.5

		var c color.RGBA
		switch {
		case !b && a:
			c = color.RGBA{B: 255, A: 255}
		case b && !a:
			c = color.RGBA{R: 255, A: 255}
		case b && a:
			c = color.RGBA{R: 255, G: 255, B: 255, A: 255}
		default:
			c = color.RGBA{A: 255}
		}
		img.SetRGBA(i%v.width, i/v.width, c)
	}
	return img, nil
}

// SavePNG writes an image to path, creating parent directories as needed.
func SavePNG(img image.Image, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %v", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return png.Encode(file, img)
}

// SaveMask renders and writes the bare mask.
func (v *Viewer) SaveMask(path string) error {
	return SavePNG(v.MaskImage(), path)
}
