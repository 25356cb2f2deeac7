package models

import (
	"time"

	"floodseg/pkg/tiling"
)

// Run records one dataset-preparation pass over a source image, together
// with the tiling parameters that produced its plan. The ID is a UUID so
// runs from different machines can be merged into one catalog.
type Run struct {
	// ID is the unique run identifier.
	ID string

	// ImageID is the caller-chosen identifier baked into tile filenames.
	ImageID string

	// ImagePath is the source image the tiles were cut from.
	ImagePath string

	// MaskPath is the co-registered ground-truth mask, empty when tiles
	// were cut without one.
	MaskPath string

	// TileSize and Overlap reproduce the window plan.
	TileSize int
	Overlap  int

	// StitchPolicy is the overlap-resolution policy the run was
	// configured with.
	StitchPolicy string

	// CreatedAt is when the run started.
	CreatedAt time.Time
}

// TilePair binds an image tile to its mask tile by plan index. It is the
// explicit pairing structure between the two tile sets; nothing should
// recover the pairing by parsing filenames.
type TilePair struct {
	// RunID is the run the pair belongs to.
	RunID string

	// Index is the tile's position in the run's window plan.
	Index int

	// Window is the source rectangle both tiles cover.
	Window tiling.Window

	// ImageTilePath is the multispectral tile file.
	ImageTilePath string

	// MaskTilePath is the mask tile file, empty for image-only runs.
	MaskTilePath string
}
