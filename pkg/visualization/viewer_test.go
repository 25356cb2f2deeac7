package visualization

import (
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func TestMaskImage(t *testing.T) {
	mask := []float64{1, 0, 0, 1}
	v, err := NewViewer(mask, 2, 2)
	if err != nil {
		t.Fatalf("NewViewer failed: %v", err)
	}

	img := v.MaskImage()
	if got := img.Bounds().Dx(); got != 2 {
		t.Fatalf("width = %d, want 2", got)
	}

	wantWhite := map[[2]int]bool{{0, 0}: true, {1, 1}: true}
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			r, _, _, _ := img.At(x, y).RGBA()
			white := r == 0xffff
			if white != wantWhite[[2]int{x, y}] {
				t.Errorf("pixel (%d,%d) white=%v, want %v", x, y, white, wantWhite[[2]int{x, y}])
			}
		}
	}
}

func TestNewViewerRejectsWrongExtent(t *testing.T) {
	if _, err := NewViewer(make([]float64, 3), 2, 2); err == nil {
		t.Fatal("expected error for mask/extent mismatch")
	}
}

func TestOverlayImageTintsWater(t *testing.T) {
	mask := []float64{1, 0}
	v, err := NewViewer(mask, 2, 1)
	if err != nil {
		t.Fatalf("NewViewer failed: %v", err)
	}

	img, err := v.OverlayImage([]float64{100, 200})
	if err != nil {
		t.Fatalf("OverlayImage failed: %v", err)
	}

	water := img.At(0, 0).(color.RGBA)
	if water.B != 255 {
		t.Errorf("water pixel blue = %d, want 255", water.B)
	}

	land := img.At(1, 0).(color.RGBA)
	if land.R != land.G || land.G != land.B {
		t.Errorf("land pixel not grayscale: %+v", land)
	}
}

func TestChangeImageColors(t *testing.T) {
	before := []float64{0, 1, 1, 0}
	after := []float64{1, 0, 1, 0}

	v, err := NewViewer(before, 4, 1)
	if err != nil {
		t.Fatalf("NewViewer failed: %v", err)
	}
	img, err := v.ChangeImage(after)
	if err != nil {
		t.Fatalf("ChangeImage failed: %v", err)
	}

	cases := []struct {
		x    int
		want color.RGBA
	}{
		{0, color.RGBA{B: 255, A: 255}},                  // flooded
		{1, color.RGBA{R: 255, A: 255}},                  // receded
		{2, color.RGBA{R: 255, G: 255, B: 255, A: 255}},  // stayed water
		{3, color.RGBA{A: 255}},                          // stayed dry
	}
	for _, tc := range cases {
		if got := img.At(tc.x, 0).(color.RGBA); got != tc.want {
			t.Errorf("pixel %d = %+v, want %+v", tc.x, got, tc.want)
		}
	}
}

func TestSaveMaskWritesPNG(t *testing.T) {
	mask := []float64{1, 0, 0, 1}
	v, err := NewViewer(mask, 2, 2)
	if err != nil {
		t.Fatalf("NewViewer failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "out", "mask.png")
	if err := v.SaveMask(path); err != nil {
		t.Fatalf("SaveMask failed: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening written file: %v", err)
	}
	defer file.Close()

	img, err := png.Decode(file)
	if err != nil {
		t.Fatalf("decoding written PNG: %v", err)
	}
	if img.Bounds().Dx() != 2 || img.Bounds().Dy() != 2 {
		t.Fatalf("decoded bounds %v, want 2x2", img.Bounds())
	}
}
