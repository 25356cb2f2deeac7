package raster

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/lukeroth/gdal"
)

// TileFilename returns the conventional name for the tile at the given plan
// index, tile_{imageID}_{index}.tif. The name is emitted for interoperability
// with external tooling; pairing between image and mask tiles is carried by
// catalog records, not recovered from filenames.
func TileFilename(imageID string, index int) string {
	return fmt.Sprintf("tile_%s_%d.tif", imageID, index)
}

// WriteTile persists a tile as an independently openable GeoTIFF. The output
// profile is derived from src with dimensions and transform overridden to the
// tile's own; band count and sample data type are preserved, so a uint16
// source produces uint16 tiles even though the working buffer is float64.
// Re-running with the same inputs overwrites the same file.
func WriteTile(path string, t *Tile, src Profile) error {
	if t.Bands != src.Bands {
		return &ShapeError{
			Context: "write tile " + path,
			Want:    Shape{Bands: src.Bands, Width: t.Width, Height: t.Height},
			Got:     t.Shape(),
		}
	}

	profile := src.TileProfile(t.Window)
	return writeGeoTIFF(path, t.Data, profile)
}

// WriteMask persists a single-band mask covering the full extent described by
// profile. The mask is written as bytes; callers threshold before writing.
func WriteMask(path string, mask []float64, profile Profile) error {
	if len(mask) != profile.Width*profile.Height {
		return &ShapeError{
			Context: "write mask " + path,
			Want:    Shape{Bands: 1, Width: profile.Width, Height: profile.Height},
			Got:     Shape{Bands: 1, Width: len(mask), Height: 1},
		}
	}

	out := profile
	out.Bands = 1
	out.DataType = gdal.Byte
	return writeGeoTIFF(path, mask, out)
}

// writeGeoTIFF creates a GeoTIFF at path from a band-major float64 buffer.
// GDAL converts samples to the profile's data type on write.
func writeGeoTIFF(path string, data []float64, profile Profile) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return &IOError{Op: "write", Path: path, Err: err}
	}

	driver, err := gdal.GetDriverByName("GTiff")
	if err != nil {
		return &IOError{Op: "write", Path: path, Err: err}
	}

	ds := driver.Create(path, profile.Width, profile.Height, profile.Bands, profile.DataType, nil)
	defer ds.Close()

	if err := ds.SetGeoTransform([6]float64(profile.Transform)); err != nil {
		return &IOError{Op: "write", Path: path, Err: err}
	}
	if profile.Projection != "" {
		if err := ds.SetProjection(profile.Projection); err != nil {
			return &IOError{Op: "write", Path: path, Err: err}
		}
	}

	size := profile.Width * profile.Height
	for b := 0; b < profile.Bands; b++ {
		band := ds.RasterBand(b + 1)
		buf := data[b*size : (b+1)*size]
		if err := band.IO(gdal.RWFlag(gdal.Write), 0, 0, profile.Width, profile.Height, buf, profile.Width, profile.Height, 0, 0); err != nil {
			return &IOError{Op: "write", Path: path, Err: fmt.Errorf("band %d: %w", b+1, err)}
		}
	}

	return nil
}
