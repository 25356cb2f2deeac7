// Package padding grows boundary tiles up to the model's fixed input size by
// reflecting edge content. Reflection avoids the constant-value borders a
// zero fill would introduce, which segmentation models trained on real
// imagery misclassify. Padding is exactly invertible: the original extent is
// known, so Crop recovers the pre-pad buffer bit for bit.
package padding

import (
	"floodseg/pkg/raster"
)

// Pad reflects a band-major buffer of the given shape up to
// targetSize x targetSize per spatial axis. Axes already at targetSize are
// left untouched; Pad never crops, so an input larger than the target is a
// ShapeError. Channels are padded independently, which makes the same
// function serve 10-band imagery and single-band masks.
func Pad(data []float64, shape raster.Shape, targetSize int) ([]float64, error) {
	if len(data) != shape.Pixels() {
		return nil, &raster.ShapeError{
			Context: "pad input",
			Want:    shape,
			Got:     raster.Shape{Bands: 1, Width: len(data), Height: 1},
		}
	}
	if shape.Width > targetSize || shape.Height > targetSize {
		return nil, &raster.ShapeError{
			Context: "pad target",
			Want:    raster.Shape{Bands: shape.Bands, Width: targetSize, Height: targetSize},
			Got:     shape,
		}
	}

	if shape.Width == targetSize && shape.Height == targetSize {
		out := make([]float64, len(data))
		copy(out, data)
		return out, nil
	}

	srcSize := shape.Width * shape.Height
	dstSize := targetSize * targetSize
	out := make([]float64, shape.Bands*dstSize)

	for b := 0; b < shape.Bands; b++ {
		src := data[b*srcSize : (b+1)*srcSize]
		dst := out[b*dstSize : (b+1)*dstSize]

		for y := 0; y < targetSize; y++ {
			sy := reflectIndex(y, shape.Height)
			for x := 0; x < targetSize; x++ {
				sx := reflectIndex(x, shape.Width)
				dst[y*targetSize+x] = src[sy*shape.Width+sx]
			}
		}
	}

	return out, nil
}

// Crop is the inverse of Pad: it cuts the top-left shape.Width x shape.Height
// region out of a padded targetSize x targetSize buffer. Padding only ever
// grows to the right and bottom, so the crop anchor is always (0, 0).
func Crop(padded []float64, shape raster.Shape, targetSize int) ([]float64, error) {
	want := raster.Shape{Bands: shape.Bands, Width: targetSize, Height: targetSize}
	if len(padded) != want.Pixels() {
		return nil, &raster.ShapeError{
			Context: "crop input",
			Want:    want,
			Got:     raster.Shape{Bands: 1, Width: len(padded), Height: 1},
		}
	}
	if shape.Width > targetSize || shape.Height > targetSize {
		return nil, &raster.ShapeError{Context: "crop extent", Want: want, Got: shape}
	}

	srcSize := targetSize * targetSize
	dstSize := shape.Width * shape.Height
	out := make([]float64, shape.Bands*dstSize)

	for b := 0; b < shape.Bands; b++ {
		src := padded[b*srcSize : (b+1)*srcSize]
		dst := out[b*dstSize : (b+1)*dstSize]

		for y := 0; y < shape.Height; y++ {
			copy(dst[y*shape.Width:(y+1)*shape.Width], src[y*targetSize:y*targetSize+shape.Width])
		}
	}

	return out, nil
}

// reflectIndex maps an output coordinate into [0, n) by mirroring around the
// last sample without repeating it (period 2n-2), the same convention as
// numpy's "reflect" mode. A single-sample axis can only repeat that sample.
func reflectIndex(i, n int) int {
	if n == 1 {
		return 0
	}
	period := 2 * (n - 1)
	i %= period
	if i >= n {
		i = period - i
	}
	return i
}
