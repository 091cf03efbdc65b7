package crop

import (
	"fmt"

	"screenshot-assertion/internal/pixel"
)

// BackgroundPredicate reports whether a pixel carries no content.
type BackgroundPredicate func(pixel.RGB) bool

// IsWhite treats pure opaque white as background. Decoding drops alpha and
// fully transparent pixels come out black, so a transparent border counts as
// content and is kept.
func IsWhite(c pixel.RGB) bool {
	return c == pixel.White
}

// BoundingBox is the tight rectangle around non-background pixels. Min is
// inclusive, Max is exclusive. The zero value is the empty box.
type BoundingBox struct {
	MinX int
	MinY int
	MaxX int
	MaxY int
}

func (b BoundingBox) Dx() int { return b.MaxX - b.MinX }
func (b BoundingBox) Dy() int { return b.MaxY - b.MinY }

func (b BoundingBox) Empty() bool {
	return b.MinX >= b.MaxX || b.MinY >= b.MaxY
}

func (b BoundingBox) String() string {
	return fmt.Sprintf("(%d,%d)-(%d,%d)", b.MinX, b.MinY, b.MaxX, b.MaxY)
}

type Cropper struct {
	background BackgroundPredicate
}

// New returns a cropper for the given background; nil means IsWhite.
func New(background BackgroundPredicate) *Cropper {
	if background == nil {
		background = IsWhite
	}
	return &Cropper{
		background: background,
	}
}

// Bounds scans every pixel once and returns the box enclosing all
// non-background pixels, or the empty box.
func (c *Cropper) Bounds(b *pixel.Buffer) BoundingBox {
	width := b.Width()
	height := b.Height()

	minX, minY := width, height
	maxX, maxY := -1, -1

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if c.background(b.Get(x, y)) {
				continue
			}
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}
		}
	}

	if maxX < 0 {
		return BoundingBox{}
	}
	return BoundingBox{
		MinX: minX,
		MinY: minY,
		MaxX: maxX + 1,
		MaxY: maxY + 1,
	}
}

// Crop returns a new buffer holding only the bounding box of b. An image
// made entirely of background crops to a 0x0 buffer.
func (c *Cropper) Crop(b *pixel.Buffer) *pixel.Buffer {
	box := c.Bounds(b)
	if box.Empty() {
		return pixel.Generate(0, 0, nil)
	}
	return pixel.Generate(box.Dx(), box.Dy(), func(x int, y int) pixel.RGB {
		return b.Get(box.MinX+x, box.MinY+y)
	})
}
