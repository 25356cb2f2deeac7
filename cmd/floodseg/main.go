package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"floodseg/internal/catalog"
	"floodseg/pkg/config"
	"floodseg/pkg/dataset"
	"floodseg/pkg/metrics"
	"floodseg/pkg/raster"
	"floodseg/pkg/segmentation"
	"floodseg/pkg/stitch"
	"floodseg/pkg/tiling"
	"floodseg/pkg/visualization"
)

func usage() {
	fmt.Fprintf(os.Stderr, `floodseg - water segmentation tiling pipeline for multispectral imagery

Usage:
  floodseg split   -image <tif> [-mask <tif>] -out <dir> -id <image_id>
  floodseg predict -image <tif> -out <mask.tif>
  floodseg eval    -pred <mask.tif> -truth <mask.tif>
  floodseg render  -mask <mask.tif> [-after <mask.tif>] -out <png>
  floodseg cog     -in <mask.tif> -out <cog.tif>

Common flags (per subcommand): -config <yaml>, plus -tile/-overlap/-workers
overrides where tiling applies. Run "floodseg <command> -h" for details.
`)
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "split":
		err = runSplit(os.Args[2:])
	case "predict":
		err = runPredict(os.Args[2:])
	case "eval":
		err = runEval(os.Args[2:])
	case "render":
		err = runRender(os.Args[2:])
	case "cog":
		err = runCOG(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}

	if err != nil {
		log.Fatalf("%s failed: %v", os.Args[1], err)
	}
}

// tilingFlags registers the overrides shared by split and predict and
// returns the loader that applies them on top of the config file.
func tilingFlags(fs *flag.FlagSet) func() (*config.Config, error) {
	configPath := fs.String("config", "floodseg.yaml", "YAML configuration file")
	tileSize := fs.Int("tile", 0, "Tile size in pixels (overrides config)")
	overlap := fs.Int("overlap", -1, "Overlap between adjacent tiles in pixels (overrides config)")
	workers := fs.Int("workers", 0, "Parallel tile workers (overrides config)")

	return func() (*config.Config, error) {
		cfg, err := config.LoadConfig(*configPath)
		if err != nil {
			return nil, err
		}
		if *tileSize > 0 {
			cfg.Tiling.TileSize = *tileSize
		}
		if *overlap >= 0 {
			cfg.Tiling.Overlap = *overlap
		}
		if *workers > 0 {
			cfg.Processing.Workers = *workers
		}
		return cfg, nil
	}
}

func runSplit(args []string) error {
	fs := flag.NewFlagSet("split", flag.ExitOnError)
	imagePath := fs.String("image", "", "Source multispectral GeoTIFF")
	maskPath := fs.String("mask", "", "Co-registered ground-truth mask GeoTIFF (optional)")
	outDir := fs.String("out", "tiles", "Output directory for images/ and masks/")
	imageID := fs.String("id", "", "Image identifier baked into tile filenames")
	loadCfg := tilingFlags(fs)
	fs.Parse(args)

	if *imagePath == "" || *imageID == "" {
		fs.Usage()
		os.Exit(1)
	}

	cfg, err := loadCfg()
	if err != nil {
		return err
	}

	params := &dataset.Params{
		ImagePath: *imagePath,
		MaskPath:  *maskPath,
		OutputDir: *outDir,
		ImageID:   *imageID,
		TileSize:  cfg.Tiling.TileSize,
		Overlap:   cfg.Tiling.Overlap,
		Workers:   cfg.Processing.Workers,
	}

	if cfg.Catalog.Path != "" {
		cat, err := catalog.Open(cfg.Catalog.Path)
		if err != nil {
			return fmt.Errorf("opening catalog: %w", err)
		}
		defer cat.Close()
		params.Catalog = cat
	}

	fmt.Printf("Splitting %s into %dx%d tiles (overlap %d)...\n",
		*imagePath, cfg.Tiling.TileSize, cfg.Tiling.TileSize, cfg.Tiling.Overlap)
	start := time.Now()

	result, err := dataset.Split(params)
	if err != nil {
		return err
	}

	fmt.Printf("Wrote %d tile pair(s) under %s in %.2f seconds (run %s)\n",
		len(result.Pairs), *outDir, time.Since(start).Seconds(), result.RunID)
	return nil
}

func runPredict(args []string) error {
	fs := flag.NewFlagSet("predict", flag.ExitOnError)
	imagePath := fs.String("image", "", "Source multispectral GeoTIFF")
	outPath := fs.String("out", "mask.tif", "Output flood mask GeoTIFF")
	loadCfg := tilingFlags(fs)
	fs.Parse(args)

	if *imagePath == "" {
		fs.Usage()
		os.Exit(1)
	}

	cfg, err := loadCfg()
	if err != nil {
		return err
	}

	policy, err := stitch.ParsePolicy(cfg.Stitch.Policy)
	if err != nil {
		return err
	}

	pipeline := segmentation.NewPipeline(&segmentation.Params{
		TileSize:  cfg.Tiling.TileSize,
		Overlap:   cfg.Tiling.Overlap,
		InputSize: cfg.Model.InputSize,
		Bands:     cfg.Model.Bands,
		Workers:   cfg.Processing.Workers,
		Policy:    policy,
		Threshold: cfg.Stitch.Threshold,
	})

	predictor := &segmentation.NDWIPredictor{
		GreenBand: cfg.Model.GreenBand,
		NIRBand:   cfg.Model.NIRBand,
	}

	fmt.Printf("Segmenting %s (policy %s, %d workers)...\n",
		*imagePath, policy, cfg.Processing.Workers)
	start := time.Now()

	result, err := pipeline.Run(segmentation.OpenDataset(*imagePath), predictor)
	if err != nil {
		return err
	}

	if err := result.WriteMask(*outPath); err != nil {
		return err
	}

	water := 0
	for _, v := range result.Mask {
		if v >= 0.5 {
			water++
		}
	}
	fmt.Printf("Stitched %d tile(s) into %s in %.2f seconds (%.1f%% water)\n",
		len(result.Plan), *outPath, time.Since(start).Seconds(),
		100*float64(water)/float64(len(result.Mask)))
	return nil
}

func runEval(args []string) error {
	fs := flag.NewFlagSet("eval", flag.ExitOnError)
	predPath := fs.String("pred", "", "Predicted mask GeoTIFF")
	truthPath := fs.String("truth", "", "Ground-truth mask GeoTIFF")
	fs.Parse(args)

	if *predPath == "" || *truthPath == "" {
		fs.Usage()
		os.Exit(1)
	}

	pred, _, err := readMask(*predPath)
	if err != nil {
		return err
	}
	truth, _, err := readMask(*truthPath)
	if err != nil {
		return err
	}

	scores, err := metrics.Compare(pred, truth)
	if err != nil {
		return err
	}

	fmt.Printf("Mask quality (%s vs %s):\n", *predPath, *truthPath)
	fmt.Printf("  IoU:            %.4f\n", scores.IoU)
	fmt.Printf("  Precision:      %.4f\n", scores.Precision)
	fmt.Printf("  Recall:         %.4f\n", scores.Recall)
	fmt.Printf("  F1:             %.4f\n", scores.F1)
	fmt.Printf("  Pixel accuracy: %.4f\n", scores.PixelAccuracy)
	fmt.Printf("  Correlation:    %.4f\n", scores.Correlation)
	return nil
}

func runRender(args []string) error {
	fs := flag.NewFlagSet("render", flag.ExitOnError)
	maskPath := fs.String("mask", "", "Mask GeoTIFF to render")
	afterPath := fs.String("after", "", "Post-event mask for a change map (optional)")
	outPath := fs.String("out", "mask.png", "Output PNG")
	fs.Parse(args)

	if *maskPath == "" {
		fs.Usage()
		os.Exit(1)
	}

	mask, profile, err := readMask(*maskPath)
	if err != nil {
		return err
	}

	viewer, err := visualization.NewViewer(mask, profile.Width, profile.Height)
	if err != nil {
		return err
	}

	if *afterPath == "" {
		if err := viewer.SaveMask(*outPath); err != nil {
			return err
		}
		fmt.Printf("Rendered %s to %s\n", *maskPath, *outPath)
		return nil
	}

	after, _, err := readMask(*afterPath)
	if err != nil {
		return err
	}
	img, err := viewer.ChangeImage(after)
	if err != nil {
		return err
	}
	if err := visualization.SavePNG(img, *outPath); err != nil {
		return err
	}

	gained, lost, err := metrics.ChangedPixels(mask, after)
	if err != nil {
		return err
	}
	fmt.Printf("Rendered change map to %s (%d pixels flooded, %d receded)\n", *outPath, gained, lost)
	return nil
}

func runCOG(args []string) error {
	fs := flag.NewFlagSet("cog", flag.ExitOnError)
	inPath := fs.String("in", "", "Source GeoTIFF")
	outPath := fs.String("out", "", "Cloud-optimized output GeoTIFF")
	fs.Parse(args)

	if *inPath == "" || *outPath == "" {
		fs.Usage()
		os.Exit(1)
	}

	if err := raster.RewriteCOG(*inPath, *outPath); err != nil {
		return err
	}
	fmt.Printf("Rewrote %s as cloud-optimized %s\n", *inPath, *outPath)
	return nil
}

// readMask reads the first band of a raster as a full-extent float buffer.
func readMask(path string) ([]float64, raster.Profile, error) {
	ds, err := raster.Open(path)
	if err != nil {
		return nil, raster.Profile{}, err
	}
	defer ds.Close()

	profile := ds.Profile()
	tile, err := ds.ReadWindow(fullWindow(profile))
	if err != nil {
		return nil, raster.Profile{}, err
	}
	return tile.Band(0), profile, nil
}

func fullWindow(p raster.Profile) tiling.Window {
	return tiling.Window{Width: p.Width, Height: p.Height}
}
