package stitch

import (
	"errors"
	"testing"

	"floodseg/pkg/raster"
	"floodseg/pkg/tiling"
)

func fill(w tiling.Window, value float64) []float64 {
	mask := make([]float64, w.Size())
	for i := range mask {
		mask[i] = value
	}
	return mask
}

func TestStitchSingleWindow(t *testing.T) {
	s := NewStitcher(4, 4, PolicyLast)
	w := tiling.Window{X: 0, Y: 0, Width: 4, Height: 4}
	if err := s.Place(w, fill(w, 0.9)); err != nil {
		t.Fatalf("Place failed: %v", err)
	}

	mask := s.Mask(0.5)
	if len(mask) != 16 {
		t.Fatalf("mask has %d samples, want 16", len(mask))
	}
	for i, v := range mask {
		if v != 1 {
			t.Fatalf("pixel %d = %v, want 1", i, v)
		}
	}
}

func TestStitchLastWriteWins(t *testing.T) {
	// Two windows overlapping on columns 2-3; the later placement in plan
	// order owns the seam.
	s := NewStitcher(6, 2, PolicyLast)
	left := tiling.Window{X: 0, Y: 0, Width: 4, Height: 2}
	right := tiling.Window{X: 2, Y: 0, Width: 4, Height: 2}

	if err := s.Place(left, fill(left, 1)); err != nil {
		t.Fatalf("Place left failed: %v", err)
	}
	if err := s.Place(right, fill(right, 0)); err != nil {
		t.Fatalf("Place right failed: %v", err)
	}

	mask := s.Mask(0.5)
	for y := 0; y < 2; y++ {
		for x := 0; x < 6; x++ {
			want := 0.0
			if x < 2 {
				want = 1
			}
			if got := mask[y*6+x]; got != want {
				t.Errorf("pixel (%d,%d) = %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestStitchMaxPolicy(t *testing.T) {
	s := NewStitcher(4, 1, PolicyMax)
	w := tiling.Window{X: 0, Y: 0, Width: 4, Height: 1}

	if err := s.Place(w, []float64{0.9, 0.2, 0.6, 0.1}); err != nil {
		t.Fatalf("Place failed: %v", err)
	}
	if err := s.Place(w, []float64{0.1, 0.8, 0.2, 0.3}); err != nil {
		t.Fatalf("Place failed: %v", err)
	}

	conf := s.Confidence()
	want := []float64{0.9, 0.8, 0.6, 0.3}
	for i := range want {
		if conf[i] != want[i] {
			t.Errorf("pixel %d = %v, want %v", i, conf[i], want[i])
		}
	}
}

func TestStitchMeanPolicy(t *testing.T) {
	s := NewStitcher(2, 1, PolicyMean)
	w := tiling.Window{X: 0, Y: 0, Width: 2, Height: 1}

	s.Place(w, []float64{1, 0})
	s.Place(w, []float64{0, 0})

	conf := s.Confidence()
	if conf[0] != 0.5 || conf[1] != 0 {
		t.Fatalf("confidence = %v, want [0.5 0]", conf)
	}

	mask := s.Mask(0.5)
	if mask[0] != 1 || mask[1] != 0 {
		t.Fatalf("mask = %v, want [1 0]", mask)
	}
}

func TestStitchIdempotent(t *testing.T) {
	// Stitching the same tile masks through the same plan twice yields an
	// identical output.
	plan, err := tiling.Plan(10, 10, 6, 2)
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}

	masks := make([][]float64, len(plan))
	for i, w := range plan {
		masks[i] = make([]float64, w.Size())
		for j := range masks[i] {
			masks[i][j] = float64((i+j)%3) / 2
		}
	}

	run := func() []float64 {
		s := NewStitcher(10, 10, PolicyLast)
		for i, w := range plan {
			if err := s.Place(w, masks[i]); err != nil {
				t.Fatalf("Place %d failed: %v", i, err)
			}
		}
		return s.Mask(0.5)
	}

	first := run()
	second := run()
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("pixel %d differs between runs: %v != %v", i, first[i], second[i])
		}
	}
}

func TestStitchBinaryOutput(t *testing.T) {
	s := NewStitcher(3, 1, PolicyLast)
	w := tiling.Window{X: 0, Y: 0, Width: 3, Height: 1}
	s.Place(w, []float64{0.49, 0.5, 0.99})

	mask := s.Mask(0.5)
	want := []float64{0, 1, 1}
	for i := range want {
		if mask[i] != want[i] {
			t.Errorf("pixel %d = %v, want %v", i, mask[i], want[i])
		}
	}
}

func TestStitchRejectsWrongSize(t *testing.T) {
	s := NewStitcher(4, 4, PolicyLast)
	w := tiling.Window{X: 0, Y: 0, Width: 2, Height: 2}

	err := s.Place(w, make([]float64, 3))
	var shapeErr *raster.ShapeError
	if !errors.As(err, &shapeErr) {
		t.Fatalf("want ShapeError, got %T: %v", err, err)
	}
}

func TestStitchRejectsOutOfCanvas(t *testing.T) {
	s := NewStitcher(4, 4, PolicyLast)
	w := tiling.Window{X: 3, Y: 0, Width: 2, Height: 2}
	if err := s.Place(w, fill(w, 1)); err == nil {
		t.Fatal("expected error for window outside canvas")
	}
}

func TestParsePolicy(t *testing.T) {
	cases := map[string]Policy{
		"":     PolicyLast,
		"last": PolicyLast,
		"max":  PolicyMax,
		"mean": PolicyMean,
	}
	for name, want := range cases {
		got, err := ParsePolicy(name)
		if err != nil {
			t.Fatalf("ParsePolicy(%q) failed: %v", name, err)
		}
		if got != want {
			t.Errorf("ParsePolicy(%q) = %v, want %v", name, got, want)
		}
	}

	if _, err := ParsePolicy("vote"); err == nil {
		t.Fatal("expected error for unknown policy")
	}
}
