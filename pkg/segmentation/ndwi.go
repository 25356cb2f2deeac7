package segmentation

import (
	"floodseg/pkg/raster"
)

// NDWIPredictor is the built-in reference model collaborator. It classifies
// water by the normalized difference water index
//
//	NDWI = (green - nir) / (green + nir)
//
// rescaled from [-1, 1] to a [0, 1] confidence, so the pipeline's default 0.5
// threshold corresponds to NDWI > 0, the usual open-water cutoff. It is no
// substitute for a trained segmentation network but exercises the exact same
// interface and lets the pipeline run without one.
type NDWIPredictor struct {
	// GreenBand and NIRBand are zero-based indices into the band stack.
	// For the 10-band Sentinel-2A ordering used here (B2..B8, B8A, B11,
	// B12) green is index 1 (B3) and NIR is index 6 (B8).
	GreenBand int
	NIRBand   int
}

// NewNDWIPredictor returns a predictor wired for the default Sentinel-2A
// band ordering.
func NewNDWIPredictor() *NDWIPredictor {
	return &NDWIPredictor{GreenBand: 1, NIRBand: 6}
}

// Predict computes the per-pixel NDWI confidence for a band-major tile.
func (p *NDWIPredictor) Predict(tile []float64, shape raster.Shape) ([]float64, error) {
	if len(tile) != shape.Pixels() {
		return nil, &raster.ShapeError{
			Context: "ndwi input",
			Want:    shape,
			Got:     raster.Shape{Bands: 1, Width: len(tile), Height: 1},
		}
	}
	if p.GreenBand >= shape.Bands || p.NIRBand >= shape.Bands {
		return nil, &raster.ShapeError{
			Context: "ndwi bands",
			Want:    raster.Shape{Bands: max(p.GreenBand, p.NIRBand) + 1, Width: shape.Width, Height: shape.Height},
			Got:     shape,
		}
	}

	size := shape.Width * shape.Height
	green := tile[p.GreenBand*size : (p.GreenBand+1)*size]
	nir := tile[p.NIRBand*size : (p.NIRBand+1)*size]

	out := make([]float64, size)
	for i := range out {
		sum := green[i] + nir[i]
		if sum == 0 {
			out[i] = 0.5
			continue
		}
		ndwi := (green[i] - nir[i]) / sum
		out[i] = (ndwi + 1) / 2
	}

	return out, nil
}
