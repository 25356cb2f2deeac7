// Package tiling computes deterministic window plans for splitting large
// rasters into fixed-size, overlapping tiles. The plan is the shared contract
// between dataset preparation and inference: both walk the same ordered
// window sequence, so tile index i always refers to the same rectangle.
package tiling

import (
	"fmt"
)

// Window is a rectangle in pixel space, anchored at (X, Y) with the given
// dimensions. Windows produced by Plan are always fully contained within the
// source raster: rectangles touching the right or bottom edge are clipped,
// never padded.
type Window struct {
	// X and Y are the offsets of the window's top-left corner in pixels.
	X int
	Y int

	// Width and Height are the clipped dimensions of the window.
	Width  int
	Height int
}

// Contains reports whether the pixel (px, py) falls inside the window.
func (w Window) Contains(px, py int) bool {
	return px >= w.X && px < w.X+w.Width && py >= w.Y && py < w.Y+w.Height
}

// Size returns the number of pixels covered by the window.
func (w Window) Size() int {
	return w.Width * w.Height
}

func (w Window) String() string {
	return fmt.Sprintf("window(%d,%d %dx%d)", w.X, w.Y, w.Width, w.Height)
}

// ConfigurationError reports tiling parameters that cannot produce a valid
// plan, such as a non-positive tile size or an overlap that would stop the
// grid from advancing.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "tiling configuration: " + e.Reason
}

// Plan returns the ordered sequence of windows covering an image of the given
// dimensions with square tiles of tileSize pixels and the given overlap
// between neighbours. Windows are generated row-major (y outer, x inner) at a
// fixed step of tileSize-overlap, each clipped to the image bounds, so the
// union of the returned rectangles is exactly the full image. The sequence is
// stable for identical inputs; callers rely on the index of a window within
// the plan to pair image tiles with mask tiles.
func Plan(imageWidth, imageHeight, tileSize, overlap int) ([]Window, error) {
	if imageWidth <= 0 || imageHeight <= 0 {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("image dimensions must be positive, got %dx%d", imageWidth, imageHeight)}
	}
	if tileSize <= 0 {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("tile size must be positive, got %d", tileSize)}
	}
	if overlap < 0 {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("overlap must be non-negative, got %d", overlap)}
	}
	if overlap >= tileSize {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("overlap %d must be smaller than tile size %d", overlap, tileSize)}
	}

	step := tileSize - overlap

	var windows []Window
	for y := 0; y < imageHeight; y += step {
		height := tileSize
		if y+height > imageHeight {
			height = imageHeight - y
		}

		for x := 0; x < imageWidth; x += step {
			width := tileSize
			if x+width > imageWidth {
				width = imageWidth - x
			}

			windows = append(windows, Window{X: x, Y: y, Width: width, Height: height})
		}
	}

	return windows, nil
}

// Covers reports whether the plan, taken as rectangles, covers every pixel of
// an imageWidth x imageHeight raster. It exists mostly for validation in
// tests and batch drivers; plans produced by Plan always cover the image.
func Covers(plan []Window, imageWidth, imageHeight int) bool {
	if imageWidth <= 0 || imageHeight <= 0 {
		return false
	}

	covered := make([]bool, imageWidth*imageHeight)
	for _, w := range plan {
		for y := w.Y; y < w.Y+w.Height; y++ {
			for x := w.X; x < w.X+w.Width; x++ {
				if x < 0 || y < 0 || x >= imageWidth || y >= imageHeight {
					return false
				}
				covered[y*imageWidth+x] = true
			}
		}
	}

	for _, c := range covered {
		if !c {
			return false
		}
	}
	return true
}
