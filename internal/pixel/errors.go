package pixel

import (
	"errors"
	"fmt"
)

var ErrDecode = errors.New("cannot decode raster image")

type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: %s", ErrDecode, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}

// IndexError is the panic value of an out-of-bounds Get.
type IndexError struct {
	X      int
	Y      int
	Width  int
	Height int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("pixel (%d,%d) out of bounds for %dx%d buffer", e.X, e.Y, e.Width, e.Height)
}
