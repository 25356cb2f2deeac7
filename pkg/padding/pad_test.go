package padding

import (
	"errors"
	"testing"

	"floodseg/pkg/raster"
)

// ramp fills a band-major buffer with distinct values so reflected and
// copied samples can be told apart.
func ramp(shape raster.Shape) []float64 {
	data := make([]float64, shape.Pixels())
	for i := range data {
		data[i] = float64(i + 1)
	}
	return data
}

func TestPadNoopAtTargetSize(t *testing.T) {
	shape := raster.Shape{Bands: 3, Width: 8, Height: 8}
	data := ramp(shape)

	out, err := Pad(data, shape, 8)
	if err != nil {
		t.Fatalf("Pad failed: %v", err)
	}
	if len(out) != len(data) {
		t.Fatalf("got %d samples, want %d", len(out), len(data))
	}
	for i := range data {
		if out[i] != data[i] {
			t.Fatalf("sample %d changed: %v != %v", i, out[i], data[i])
		}
	}

	// The no-op path still returns a copy, never a view.
	out[0] = -1
	if data[0] == -1 {
		t.Fatal("Pad returned a view into its input")
	}
}

func TestPadReflectsEdges(t *testing.T) {
	// 3x2 single band padded to 4x4. Reflection mirrors around the last
	// row/column without repeating it.
	shape := raster.Shape{Bands: 1, Width: 3, Height: 2}
	data := []float64{
		1, 2, 3,
		4, 5, 6,
	}

	out, err := Pad(data, shape, 4)
	if err != nil {
		t.Fatalf("Pad failed: %v", err)
	}

	want := []float64{
		1, 2, 3, 2,
		4, 5, 6, 5,
		1, 2, 3, 2,
		4, 5, 6, 5,
	}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("sample %d = %v, want %v", i, out[i], want[i])
		}
	}
}

func TestPadSingleSampleAxis(t *testing.T) {
	// A 1-pixel-wide axis can only repeat its single sample.
	shape := raster.Shape{Bands: 1, Width: 1, Height: 1}
	out, err := Pad([]float64{7}, shape, 3)
	if err != nil {
		t.Fatalf("Pad failed: %v", err)
	}
	for i, v := range out {
		if v != 7 {
			t.Fatalf("sample %d = %v, want 7", i, v)
		}
	}
}

func TestPadCropRoundTrip(t *testing.T) {
	// crop(pad(x)) == x for any shape up to the target, across bands.
	const target = 16
	shapes := []raster.Shape{
		{Bands: 1, Width: 16, Height: 16},
		{Bands: 10, Width: 12, Height: 16},
		{Bands: 10, Width: 16, Height: 9},
		{Bands: 3, Width: 5, Height: 7},
		{Bands: 1, Width: 1, Height: 16},
	}

	for _, shape := range shapes {
		data := ramp(shape)

		padded, err := Pad(data, shape, target)
		if err != nil {
			t.Fatalf("Pad(%v) failed: %v", shape, err)
		}
		if len(padded) != shape.Bands*target*target {
			t.Fatalf("Pad(%v) returned %d samples", shape, len(padded))
		}

		back, err := Crop(padded, shape, target)
		if err != nil {
			t.Fatalf("Crop(%v) failed: %v", shape, err)
		}
		if len(back) != len(data) {
			t.Fatalf("Crop(%v) returned %d samples, want %d", shape, len(back), len(data))
		}
		for i := range data {
			if back[i] != data[i] {
				t.Fatalf("shape %v sample %d: %v != %v", shape, i, back[i], data[i])
			}
		}
	}
}

func TestPadNeverCrops(t *testing.T) {
	shape := raster.Shape{Bands: 1, Width: 20, Height: 8}
	_, err := Pad(ramp(shape), shape, 16)
	if err == nil {
		t.Fatal("expected error for input wider than target")
	}

	var shapeErr *raster.ShapeError
	if !errors.As(err, &shapeErr) {
		t.Fatalf("want ShapeError, got %T: %v", err, err)
	}
}

func TestPadRejectsShortBuffer(t *testing.T) {
	shape := raster.Shape{Bands: 2, Width: 4, Height: 4}
	_, err := Pad(make([]float64, 5), shape, 8)
	var shapeErr *raster.ShapeError
	if !errors.As(err, &shapeErr) {
		t.Fatalf("want ShapeError, got %T: %v", err, err)
	}
}
