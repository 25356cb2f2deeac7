// Package raster reads and writes geo-referenced rasters through GDAL. It
// exposes windowed reads that produce independently geo-referenced tiles and
// GeoTIFF writers that preserve the source profile, so a tile written to disk
// round-trips with the same bands, data type, projection and (translated)
// transform as the region it was cut from.
package raster

import (
	"fmt"

	"github.com/lukeroth/gdal"

	"floodseg/pkg/tiling"
)

// Profile carries everything needed to create a raster compatible with an
// existing one: dimensions, band count, sample data type, affine transform
// and the projection in WKT form.
type Profile struct {
	Width      int
	Height     int
	Bands      int
	DataType   gdal.DataType
	Transform  GeoTransform
	Projection string
}

// TileProfile derives the profile of a tile cut at the given window: same
// bands, data type and projection, with dimensions and transform overridden
// to the tile's own.
func (p Profile) TileProfile(w tiling.Window) Profile {
	out := p
	out.Width = w.Width
	out.Height = w.Height
	out.Transform = p.Transform.Translate(w.X, w.Y)
	return out
}

// Tile is a window's worth of pixels cut from a source raster. Data is a
// band-major buffer (band, then row, then column) owned by the tile; it is a
// copy, not a view into the source. The transform geo-references the tile on
// its own.
type Tile struct {
	// ImageID identifies the source image the tile was cut from.
	ImageID string

	// Index is the tile's position in the window plan.
	Index int

	// Window is the source rectangle the tile covers.
	Window tiling.Window

	Bands  int
	Width  int
	Height int

	// Data holds Bands*Width*Height samples, band-major.
	Data []float64

	// Transform geo-references the tile independently of its source.
	Transform GeoTransform
}

// Band returns the i-th band of the tile as a row-major view into Data.
func (t *Tile) Band(i int) []float64 {
	size := t.Width * t.Height
	return t.Data[i*size : (i+1)*size]
}

// Shape returns the tile's buffer shape.
func (t *Tile) Shape() Shape {
	return Shape{Bands: t.Bands, Width: t.Width, Height: t.Height}
}

// Dataset is an open, read-only raster. It is not safe for concurrent reads;
// parallel tile workers must each Open their own Dataset.
type Dataset struct {
	ds      gdal.Dataset
	profile Profile
	path    string
}

// Open opens a geo-referenced raster for reading.
func Open(path string) (*Dataset, error) {
	ds, err := gdal.Open(path, gdal.ReadOnly)
	if err != nil {
		return nil, &IOError{Op: "open", Path: path, Err: err}
	}

	profile := Profile{
		Width:      ds.RasterXSize(),
		Height:     ds.RasterYSize(),
		Bands:      ds.RasterCount(),
		Transform:  GeoTransform(ds.GeoTransform()),
		Projection: ds.Projection(),
	}
	if profile.Bands > 0 {
		profile.DataType = ds.RasterBand(1).RasterDataType()
	}

	return &Dataset{ds: ds, profile: profile, path: path}, nil
}

// Profile returns the raster's profile.
func (d *Dataset) Profile() Profile {
	return d.profile
}

// Path returns the path the dataset was opened from.
func (d *Dataset) Path() string {
	return d.path
}

// ReadWindow reads the pixels inside w across all bands and returns them as
// an independently geo-referenced tile. The source is never mutated. Windows
// that fall outside the raster produce an IOError; this cannot happen when
// the window came from a plan built on this raster's dimensions.
func (d *Dataset) ReadWindow(w tiling.Window) (*Tile, error) {
	if w.Width <= 0 || w.Height <= 0 ||
		w.X < 0 || w.Y < 0 ||
		w.X+w.Width > d.profile.Width || w.Y+w.Height > d.profile.Height {
		return nil, &IOError{
			Op:   "read",
			Path: d.path,
			Err:  fmt.Errorf("%v outside raster bounds %dx%d", w, d.profile.Width, d.profile.Height),
		}
	}

	size := w.Width * w.Height
	data := make([]float64, d.profile.Bands*size)

	for b := 0; b < d.profile.Bands; b++ {
		band := d.ds.RasterBand(b + 1)
		buf := data[b*size : (b+1)*size]
		if err := band.IO(gdal.RWFlag(gdal.Read), w.X, w.Y, w.Width, w.Height, buf, w.Width, w.Height, 0, 0); err != nil {
			return nil, &IOError{Op: "read", Path: d.path, Err: fmt.Errorf("band %d %v: %w", b+1, w, err)}
		}
	}

	return &Tile{
		Window:    w,
		Bands:     d.profile.Bands,
		Width:     w.Width,
		Height:    w.Height,
		Data:      data,
		Transform: d.profile.Transform.Translate(w.X, w.Y),
	}, nil
}

// Close releases the GDAL handle. The dataset must not be used afterwards.
func (d *Dataset) Close() {
	d.ds.Close()
}
