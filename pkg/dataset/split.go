// Package dataset prepares training data: it splits a geo-referenced image
// and its optional co-registered ground-truth mask into overlapping tile
// GeoTIFFs under out/images and out/masks. Image and mask tiles for the same
// plan index cover the same window; the pairing is recorded explicitly in the
// catalog rather than recovered from filenames.
package dataset

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"floodseg/internal/catalog"
	"floodseg/internal/models"
	"floodseg/pkg/raster"
	"floodseg/pkg/segmentation"
	"floodseg/pkg/tiling"
)

// Params configures one split.
type Params struct {
	// ImagePath is the source multispectral GeoTIFF.
	ImagePath string

	// MaskPath is the co-registered ground-truth mask; empty to split the
	// image alone.
	MaskPath string

	// OutputDir receives images/ and masks/ subdirectories.
	OutputDir string

	// ImageID is baked into tile filenames (tile_{ImageID}_{index}.tif).
	ImageID string

	TileSize int
	Overlap  int

	// Workers is the number of parallel tile workers; values below 2 run
	// sequentially. Each worker opens its own source handles.
	Workers int

	// Catalog, when non-nil, records the run and its tile pairs.
	Catalog *catalog.Catalog
}

// Result reports a completed split.
type Result struct {
	// RunID is the UUID assigned to this split.
	RunID string

	// Plan is the window plan the tiles were cut with.
	Plan []tiling.Window

	// Pairs lists the written tile files by plan index.
	Pairs []models.TilePair
}

// Split cuts params.ImagePath (and the mask, if given) into tile GeoTIFFs.
// A mask whose dimensions differ from the image's is rejected before any
// tile is written.
func Split(params *Params) (*Result, error) {
	openImage := segmentation.OpenDataset(params.ImagePath)

	var openMask segmentation.SourceOpener
	if params.MaskPath != "" {
		openMask = segmentation.OpenDataset(params.MaskPath)
	}

	w := &tileWriter{outputDir: params.OutputDir, imageID: params.ImageID}
	return split(params, openImage, openMask, w.write)
}

// BatchItem is one entry of a batch split: per-image parameters plus the
// error slot filled in by SplitBatch.
type BatchItem struct {
	Params *Params
	Result *Result
	Err    error
}

// SplitBatch runs Split over every item, isolating failures so one bad input
// does not abort the rest of the batch. It returns the number of failures.
func SplitBatch(items []*BatchItem) int {
	failures := 0
	for _, item := range items {
		item.Result, item.Err = Split(item.Params)
		if item.Err != nil {
			failures++
			fmt.Printf("Warning: split of %s failed: %v\n", item.Params.ImagePath, item.Err)
		}
	}
	return failures
}

// writeFunc persists one paired tile set and returns the written paths. The
// mask tile is nil for image-only runs.
type writeFunc func(img, mask *raster.Tile, imgProfile, maskProfile raster.Profile) (string, string, error)

// tileWriter writes tiles under outputDir/images and outputDir/masks with
// the conventional tile_{imageID}_{index}.tif names.
type tileWriter struct {
	outputDir string
	imageID   string
}

func (w *tileWriter) write(img, mask *raster.Tile, imgProfile, maskProfile raster.Profile) (string, string, error) {
	name := raster.TileFilename(w.imageID, img.Index)

	imgPath := filepath.Join(w.outputDir, "images", name)
	if err := raster.WriteTile(imgPath, img, imgProfile); err != nil {
		return "", "", err
	}

	if mask == nil {
		return imgPath, "", nil
	}

	maskPath := filepath.Join(w.outputDir, "masks", name)
	if err := raster.WriteTile(maskPath, mask, maskProfile); err != nil {
		return "", "", err
	}
	return imgPath, maskPath, nil
}

func split(params *Params, openImage, openMask segmentation.SourceOpener, write writeFunc) (*Result, error) {
	imgSrc, closeImg, err := openImage()
	if err != nil {
		return nil, err
	}
	defer closeImg()
	imgProfile := imgSrc.Profile()

	var maskProfile raster.Profile
	if openMask != nil {
		maskSrc, closeMask, err := openMask()
		if err != nil {
			return nil, err
		}
		maskProfile = maskSrc.Profile()
		closeMask()

		if maskProfile.Width != imgProfile.Width || maskProfile.Height != imgProfile.Height {
			return nil, &raster.IOError{
				Op:   "pair",
				Path: params.MaskPath,
				Err: fmt.Errorf("mask %dx%d does not match image %dx%d",
					maskProfile.Width, maskProfile.Height, imgProfile.Width, imgProfile.Height),
			}
		}
	}

	plan, err := tiling.Plan(imgProfile.Width, imgProfile.Height, params.TileSize, params.Overlap)
	if err != nil {
		return nil, err
	}

	result := &Result{
		RunID: uuid.NewString(),
		Plan:  plan,
		Pairs: make([]models.TilePair, len(plan)),
	}

	cut := func(imgSrc, maskSrc segmentation.TileSource, index int) (models.TilePair, error) {
		w := plan[index]

		img, err := imgSrc.ReadWindow(w)
		if err != nil {
			return models.TilePair{}, err
		}
		img.Index = index
		img.ImageID = params.ImageID

		var mask *raster.Tile
		if maskSrc != nil {
			mask, err = maskSrc.ReadWindow(w)
			if err != nil {
				return models.TilePair{}, err
			}
			mask.Index = index
			mask.ImageID = params.ImageID
		}

		imgPath, maskPath, err := write(img, mask, imgProfile, maskProfile)
		if err != nil {
			return models.TilePair{}, err
		}

		return models.TilePair{
			RunID:         result.RunID,
			Index:         index,
			Window:        w,
			ImageTilePath: imgPath,
			MaskTilePath:  maskPath,
		}, nil
	}

	if params.Workers > 1 {
		if err := cutParallel(params, openImage, openMask, plan, result, cut); err != nil {
			return nil, err
		}
	} else {
		var maskSrc segmentation.TileSource
		if openMask != nil {
			src, closeMask, err := openMask()
			if err != nil {
				return nil, err
			}
			defer closeMask()
			maskSrc = src
		}

		for i := range plan {
			pair, err := cut(imgSrc, maskSrc, i)
			if err != nil {
				return nil, fmt.Errorf("tile %d: %w", i, err)
			}
			result.Pairs[i] = pair
		}
	}

	if params.Catalog != nil {
		if err := recordRun(params, result); err != nil {
			return nil, fmt.Errorf("recording run %s: %w", result.RunID, err)
		}
	}

	return result, nil
}

type cutFunc func(imgSrc, maskSrc segmentation.TileSource, index int) (models.TilePair, error)

// cutParallel processes plan indexes across params.Workers goroutines. Each
// worker opens its own image and mask handles; tiles are disjoint by output
// path, so no cross-tile synchronization is needed.
func cutParallel(params *Params, openImage, openMask segmentation.SourceOpener, plan []tiling.Window, result *Result, cut cutFunc) error {
	type pairResult struct {
		index int
		pair  models.TilePair
		err   error
	}

	indexes := make(chan int)
	results := make(chan pairResult)

	for w := 0; w < params.Workers; w++ {
		go func() {
			imgSrc, closeImg, err := openImage()
			if err != nil {
				for i := range indexes {
					results <- pairResult{index: i, err: err}
				}
				return
			}
			defer closeImg()

			var maskSrc segmentation.TileSource
			if openMask != nil {
				src, closeMask, err := openMask()
				if err != nil {
					for i := range indexes {
						results <- pairResult{index: i, err: err}
					}
					return
				}
				defer closeMask()
				maskSrc = src
			}

			for i := range indexes {
				pair, err := cut(imgSrc, maskSrc, i)
				results <- pairResult{index: i, pair: pair, err: err}
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
		result.Pairs[res.index] = res.pair
	}

	return firstErr
}

func recordRun(params *Params, result *Result) error {
	run := models.Run{
		ID:        result.RunID,
		ImageID:   params.ImageID,
		ImagePath: params.ImagePath,
		MaskPath:  params.MaskPath,
		TileSize:  params.TileSize,
		Overlap:   params.Overlap,
		CreatedAt: time.Now(),
	}
	if err := params.Catalog.RecordRun(run); err != nil {
		return err
	}
	for _, pair := range result.Pairs {
		if err := params.Catalog.RecordTilePair(pair); err != nil {
			return err
		}
	}
	return nil
}
