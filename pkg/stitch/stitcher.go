// Package stitch reassembles per-tile prediction masks into one
// full-resolution mask. It is the inverse of the window plan: every de-padded
// tile mask is placed back at its window's offset, with a deterministic
// policy deciding which prediction wins where tiles overlap.
package stitch

import (
	"fmt"

	"floodseg/pkg/raster"
	"floodseg/pkg/tiling"
)

// Policy decides how overlapping predictions are resolved. All policies are
// deterministic for a fixed plan order.
type Policy int

const (
	// PolicyLast keeps the value of the tile placed last in plan order.
	// This is the default: it exactly reproduces the plan's row-major
	// sweep, so the bottom/right neighbour wins on every seam.
	PolicyLast Policy = iota

	// PolicyMax keeps the highest confidence seen for each pixel.
	PolicyMax

	// PolicyMean averages every contribution to a pixel before
	// thresholding.
	PolicyMean
)

func (p Policy) String() string {
	switch p {
	case PolicyLast:
		return "last"
	case PolicyMax:
		return "max"
	case PolicyMean:
		return "mean"
	}
	return fmt.Sprintf("policy(%d)", int(p))
}

// ParsePolicy maps a policy name from configuration to a Policy.
func ParsePolicy(name string) (Policy, error) {
	switch name {
	case "", "last":
		return PolicyLast, nil
	case "max":
		return PolicyMax, nil
	case "mean":
		return PolicyMean, nil
	}
	return PolicyLast, fmt.Errorf("unknown stitch policy %q (want last, max or mean)", name)
}

// Stitcher accumulates per-tile masks onto a full-image canvas. The canvas is
// the one shared mutable resource of the pipeline; Place is therefore called
// sequentially in plan order, which also makes PolicyLast well defined.
type Stitcher struct {
	width  int
	height int
	policy Policy

	canvas []float64
	counts []uint32 // contributions per pixel, used by PolicyMean
}

// NewStitcher creates an empty canvas for an imageWidth x imageHeight mask.
func NewStitcher(imageWidth, imageHeight int, policy Policy) *Stitcher {
	s := &Stitcher{
		width:  imageWidth,
		height: imageHeight,
		policy: policy,
		canvas: make([]float64, imageWidth*imageHeight),
	}
	if policy == PolicyMean {
		s.counts = make([]uint32, imageWidth*imageHeight)
	}
	return s
}

// Place writes a de-padded tile mask into the canvas at its window's offset.
// The mask must match the window's extent exactly; padded predictions have to
// be cropped back before placement.
func (s *Stitcher) Place(w tiling.Window, mask []float64) error {
	if len(mask) != w.Size() {
		return &raster.ShapeError{
			Context: fmt.Sprintf("stitch %v", w),
			Want:    raster.Shape{Bands: 1, Width: w.Width, Height: w.Height},
			Got:     raster.Shape{Bands: 1, Width: len(mask), Height: 1},
		}
	}
	if w.X < 0 || w.Y < 0 || w.X+w.Width > s.width || w.Y+w.Height > s.height {
		return fmt.Errorf("stitch %v outside canvas %dx%d", w, s.width, s.height)
	}

	for y := 0; y < w.Height; y++ {
		row := (w.Y+y)*s.width + w.X
		src := mask[y*w.Width : (y+1)*w.Width]
		for x, v := range src {
			idx := row + x
			switch s.policy {
			case PolicyMax:
				if v > s.canvas[idx] {
					s.canvas[idx] = v
				}
			case PolicyMean:
				s.canvas[idx] += v
				s.counts[idx]++
			default:
				s.canvas[idx] = v
			}
		}
	}

	return nil
}

// Mask returns the stitched canvas thresholded to binary {0, 1} values. The
// returned buffer has exactly imageWidth*imageHeight samples and is owned by
// the caller; the stitcher can keep accepting placements afterwards.
func (s *Stitcher) Mask(threshold float64) []float64 {
	out := make([]float64, len(s.canvas))
	for i, v := range s.canvas {
		if s.policy == PolicyMean && s.counts[i] > 1 {
			v /= float64(s.counts[i])
		}
		if v >= threshold {
			out[i] = 1
		}
	}
	return out
}

// Confidence returns the raw stitched canvas without thresholding. Under
// PolicyMean the values are the per-pixel averages.
func (s *Stitcher) Confidence() []float64 {
	out := make([]float64, len(s.canvas))
	for i, v := range s.canvas {
		if s.policy == PolicyMean && s.counts[i] > 1 {
			v /= float64(s.counts[i])
		}
		out[i] = v
	}
	return out
}

// Write thresholds the canvas and persists it as a geo-referenced GeoTIFF
// carrying the original full-image transform and projection.
func (s *Stitcher) Write(path string, src raster.Profile, threshold float64) error {
	if src.Width != s.width || src.Height != s.height {
		return &raster.ShapeError{
			Context: "stitch output profile",
			Want:    raster.Shape{Bands: 1, Width: s.width, Height: s.height},
			Got:     raster.Shape{Bands: 1, Width: src.Width, Height: src.Height},
		}
	}
	return raster.WriteMask(path, s.Mask(threshold), src)
}
