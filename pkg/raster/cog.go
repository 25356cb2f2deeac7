package raster

import (
	"os"

	"github.com/airbusgeo/cogger"
)

// RewriteCOG restructures a finished GeoTIFF into a cloud-optimized GeoTIFF
// at dstPath. Pixel data and geo-referencing are unchanged; only the internal
// layout is rewritten so range readers can fetch tiles without scanning the
// whole file.
func RewriteCOG(srcPath, dstPath string) error {
	in, err := os.Open(srcPath)
	if err != nil {
		return &IOError{Op: "cog", Path: srcPath, Err: err}
	}
	defer in.Close()

	out, err := os.Create(dstPath)
	if err != nil {
		return &IOError{Op: "cog", Path: dstPath, Err: err}
	}
	defer out.Close()

	if err := cogger.Rewrite(out, in); err != nil {
		return &IOError{Op: "cog", Path: srcPath, Err: err}
	}
	return nil
}
