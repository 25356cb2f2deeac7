// Package segmentation runs the water-segmentation inference pipeline:
// plan windows, extract tiles, pad boundary tiles to the model's input size,
// hand them to the model collaborator, crop the predictions back and stitch
// them into one geo-referenced flood mask.
//
// The model itself is external. Anything that maps a fixed-size multispectral
// tile to a per-pixel water confidence plugs in through the Predictor
// interface; NDWIPredictor is the built-in reference collaborator so the
// pipeline runs end to end without a trained network.
package segmentation

import (
	"fmt"

	"floodseg/pkg/raster"
	"floodseg/pkg/tiling"
)

// TileSource supplies windowed reads from one raster. raster.Dataset is the
// file-backed implementation; tests use in-memory sources. A TileSource is
// not assumed safe for concurrent reads, which is why parallel runs open one
// source per worker.
type TileSource interface {
	Profile() raster.Profile
	ReadWindow(w tiling.Window) (*raster.Tile, error)
}

// SourceOpener opens an independent TileSource handle. The returned close
// function releases it; it is never nil.
type SourceOpener func() (TileSource, func(), error)

// OpenDataset adapts raster.Open to a SourceOpener.
func OpenDataset(path string) SourceOpener {
	return func() (TileSource, func(), error) {
		ds, err := raster.Open(path)
		if err != nil {
			return nil, nil, err
		}
		return ds, ds.Close, nil
	}
}

// TileConsumer receives extracted tiles one by one. Dataset preparation and
// inference are the same walk over the same plan; they differ only in the
// consumer: a tile writer for dataset prep, a model call for inference.
type TileConsumer interface {
	Consume(t *raster.Tile) error
}

// ConsumerFunc adapts a function to the TileConsumer interface.
type ConsumerFunc func(t *raster.Tile) error

func (f ConsumerFunc) Consume(t *raster.Tile) error {
	return f(t)
}

// Predictor is the model collaborator: it maps a padded band-major tile to a
// per-pixel confidence in [0, 1] of the same spatial extent with one output
// channel. Implementations must tolerate being called from multiple
// goroutines, or the pipeline must run with a single worker.
type Predictor interface {
	Predict(tile []float64, shape raster.Shape) ([]float64, error)
}

// Walk reads every window of the plan from src in order and hands the tiles
// to consumer. Tiles are tagged with their plan index and imageID before
// delivery. The first failure aborts the walk with the offending index in
// the error.
func Walk(src TileSource, plan []tiling.Window, imageID string, consumer TileConsumer) error {
	for i, w := range plan {
		t, err := src.ReadWindow(w)
		if err != nil {
			return fmt.Errorf("tile %d: %w", i, err)
		}
		t.Index = i
		t.ImageID = imageID

		if err := consumer.Consume(t); err != nil {
			return fmt.Errorf("tile %d: %w", i, err)
		}
	}
	return nil
}
