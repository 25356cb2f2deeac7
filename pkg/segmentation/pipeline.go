package segmentation

import (
	"fmt"

	"floodseg/pkg/padding"
	"floodseg/pkg/raster"
	"floodseg/pkg/stitch"
	"floodseg/pkg/tiling"
)

// Params configures one inference run.
type Params struct {
	// TileSize and Overlap define the window plan.
	TileSize int
	Overlap  int

	// InputSize is the model's fixed spatial input size. Boundary tiles
	// smaller than this are reflection-padded up to it.
	InputSize int

	// Bands is the channel count the model expects (10 for the
	// Sentinel-2A stack used here). A source with a different band count
	// is rejected before any prediction runs.
	Bands int

	// Workers is the number of parallel tile workers. Values below 2 run
	// the pipeline sequentially. Each worker owns its own source handle.
	Workers int

	// Policy resolves overlapping predictions during stitching.
	Policy stitch.Policy

	// Threshold binarizes the stitched confidence canvas.
	Threshold float64
}

// Result is the outcome of one inference run: the stitched binary mask and
// the raw confidence canvas, both imageWidth x imageHeight, plus the source
// profile for geo-referenced writes.
type Result struct {
	Mask       []float64
	Confidence []float64
	Profile    raster.Profile
	Plan       []tiling.Window
}

// WriteMask persists the binary mask as a GeoTIFF carrying the source
// image's transform and projection.
func (r *Result) WriteMask(path string) error {
	return raster.WriteMask(path, r.Mask, r.Profile)
}

// Pipeline composes the window planner, tile extractor, padding adapter,
// model collaborator and mask stitcher into one run.
type Pipeline struct {
	params *Params
}

// NewPipeline creates a pipeline with the given parameters.
func NewPipeline(params *Params) *Pipeline {
	return &Pipeline{params: params}
}

// Run segments the raster supplied by open using pred and returns the
// stitched full-image mask. Tiles are processed independently; the stitcher
// applies predictions in plan order regardless of worker count, so the output
// is identical for any Workers value.
func (p *Pipeline) Run(open SourceOpener, pred Predictor) (*Result, error) {
	src, closeSrc, err := open()
	if err != nil {
		return nil, err
	}
	defer closeSrc()

	profile := src.Profile()
	if p.params.Bands > 0 && profile.Bands != p.params.Bands {
		return nil, &raster.ShapeError{
			Context: "source bands",
			Want:    raster.Shape{Bands: p.params.Bands, Width: profile.Width, Height: profile.Height},
			Got:     raster.Shape{Bands: profile.Bands, Width: profile.Width, Height: profile.Height},
		}
	}

	plan, err := tiling.Plan(profile.Width, profile.Height, p.params.TileSize, p.params.Overlap)
	if err != nil {
		return nil, err
	}

	// Per-window de-padded predictions, indexed by plan position so the
	// stitch below runs in plan order whatever the completion order was.
	masks := make([][]float64, len(plan))

	if p.params.Workers > 1 {
		if err := p.predictParallel(open, pred, plan, masks); err != nil {
			return nil, err
		}
	} else {
		consumer := ConsumerFunc(func(t *raster.Tile) error {
			mask, err := p.predictTile(t, pred)
			if err != nil {
				return err
			}
			masks[t.Index] = mask
			return nil
		})
		if err := Walk(src, plan, "", consumer); err != nil {
			return nil, err
		}
	}

	stitcher := stitch.NewStitcher(profile.Width, profile.Height, p.params.Policy)
	for i, w := range plan {
		if err := stitcher.Place(w, masks[i]); err != nil {
			return nil, fmt.Errorf("tile %d: %w", i, err)
		}
	}

	return &Result{
		Mask:       stitcher.Mask(p.params.Threshold),
		Confidence: stitcher.Confidence(),
		Profile:    profile,
		Plan:       plan,
	}, nil
}

// predictTile pads a tile to the model input size, runs the model and crops
// the prediction back to the tile's true extent.
func (p *Pipeline) predictTile(t *raster.Tile, pred Predictor) ([]float64, error) {
	padded, err := padding.Pad(t.Data, t.Shape(), p.params.InputSize)
	if err != nil {
		return nil, err
	}

	inShape := raster.Shape{Bands: t.Bands, Width: p.params.InputSize, Height: p.params.InputSize}
	out, err := pred.Predict(padded, inShape)
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}
	if len(out) != p.params.InputSize*p.params.InputSize {
		return nil, &raster.ShapeError{
			Context: "prediction",
			Want:    raster.Shape{Bands: 1, Width: p.params.InputSize, Height: p.params.InputSize},
			Got:     raster.Shape{Bands: 1, Width: len(out), Height: 1},
		}
	}

	// The padded region is synthetic; crop back to the window extent
	// before stitching so reflected content never reaches the canvas.
	return padding.Crop(out, raster.Shape{Bands: 1, Width: t.Width, Height: t.Height}, p.params.InputSize)
}

// predictParallel fans the plan out over Workers goroutines, each with its
// own source handle, and collects the de-padded predictions into masks by
// plan index.
func (p *Pipeline) predictParallel(open SourceOpener, pred Predictor, plan []tiling.Window, masks [][]float64) error {
	type tileResult struct {
		index int
		mask  []float64
		err   error
	}

	indexes := make(chan int)
	results := make(chan tileResult)

	for w := 0; w < p.params.Workers; w++ {
		go func() {
			src, closeSrc, err := open()
			if err != nil {
				// Report the open failure once per remaining index so
				// the collector's accounting stays exact.
				for i := range indexes {
					results <- tileResult{index: i, err: err}
				}
				return
			}
			defer closeSrc()

			for i := range indexes {
				t, err := src.ReadWindow(plan[i])
				if err != nil {
					results <- tileResult{index: i, err: err}
					continue
				}
				t.Index = i

				mask, err := p.predictTile(t, pred)
				results <- tileResult{index: i, mask: mask, err: err}
			}
		}()
	}

	go func() {
		for i := range plan {
			indexes <- i
		}
		close(indexes)
	}()

	var firstErr error
	for range plan {
		res := <-results
		if res.err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("tile %d: %w", res.index, res.err)
			}
			continue
		}
		masks[res.index] = res.mask
	}

	return firstErr
}
