package raster

import "fmt"

// IOError reports a raster that could not be opened, read or written. The
// path and operation are kept so batch drivers can report which input broke
// without unwrapping.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("raster %s %s failed", e.Op, e.Path)
	}
	return fmt.Sprintf("raster %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// Shape describes the dimensions of a pixel buffer: band count plus spatial
// extent.
type Shape struct {
	Bands  int
	Width  int
	Height int
}

func (s Shape) String() string {
	return fmt.Sprintf("%d band(s) %dx%d", s.Bands, s.Width, s.Height)
}

// Pixels returns the total number of samples the shape holds.
func (s Shape) Pixels() int {
	return s.Bands * s.Width * s.Height
}

// ShapeError reports a buffer whose band count or spatial size does not match
// what a consumer expects, e.g. a tile handed to a model that wants a fixed
// input size.
type ShapeError struct {
	Context string
	Want    Shape
	Got     Shape
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("%s: expected %s, got %s", e.Context, e.Want, e.Got)
}
