package raster

// GeoTransform is the GDAL-style affine mapping from pixel coordinates to
// world coordinates:
//
//	worldX = gt[0] + px*gt[1] + py*gt[2]
//	worldY = gt[3] + px*gt[4] + py*gt[5]
//
// gt[0] and gt[3] are the world coordinates of the top-left corner of the
// top-left pixel; gt[1] and gt[5] are the pixel width and height (the latter
// usually negative for north-up imagery); gt[2] and gt[4] are row/column
// rotation terms, zero for axis-aligned rasters.
type GeoTransform [6]float64

// Apply maps the pixel coordinate (px, py) to world coordinates.
func (gt GeoTransform) Apply(px, py float64) (float64, float64) {
	x := gt[0] + px*gt[1] + py*gt[2]
	y := gt[3] + px*gt[4] + py*gt[5]
	return x, y
}

// Translate returns the transform of a tile whose top-left pixel sits at
// (dx, dy) in the parent raster. Only the origin moves; scale and rotation
// terms are copied unchanged, so tiles are never resampled.
func (gt GeoTransform) Translate(dx, dy int) GeoTransform {
	out := gt
	out[0], out[3] = gt.Apply(float64(dx), float64(dy))
	return out
}
