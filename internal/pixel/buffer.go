package pixel

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"io"

	"golang.org/x/xerrors"
)

// RGB is a 24-bit colour packed as 0x00RRGGBB.
type RGB uint32

const (
	White RGB = 0xFFFFFF
	Black RGB = 0x000000

	mask RGB = 0xFFFFFF
)

func NewRGB(r uint8, g uint8, b uint8) RGB {
	return RGB(r)<<16 | RGB(g)<<8 | RGB(b)
}

func (c RGB) R() uint8 { return uint8(c >> 16) }
func (c RGB) G() uint8 { return uint8(c >> 8) }
func (c RGB) B() uint8 { return uint8(c) }

// RGBA implements color.Color. The colour is always opaque.
func (c RGB) RGBA() (uint32, uint32, uint32, uint32) {
	r := uint32(c.R())
	g := uint32(c.G())
	b := uint32(c.B())
	return r | r<<8, g | g<<8, b | b<<8, 0xffff
}

func (c RGB) String() string {
	return fmt.Sprintf("#%06x", uint32(c&mask))
}

// Buffer is an immutable row-major grid of RGB pixels.
type Buffer struct {
	width  int
	height int
	pix    []RGB
}

var ErrSize = errors.New("pixel count does not match dimensions")

// New copies pix into a new width x height buffer.
func New(width int, height int, pix []RGB) (*Buffer, error) {
	if width < 0 || height < 0 {
		return nil, xerrors.Errorf("negative dimensions %dx%d: %w", width, height, ErrSize)
	}
	if len(pix) != width*height {
		return nil, xerrors.Errorf("got %d pixels for %dx%d: %w", len(pix), width, height, ErrSize)
	}

	owned := make([]RGB, len(pix))
	for i, c := range pix {
		owned[i] = c & mask
	}
	return &Buffer{
		width:  width,
		height: height,
		pix:    owned,
	}, nil
}

func Fill(width int, height int, c RGB) *Buffer {
	return Generate(width, height, func(int, int) RGB {
		return c
	})
}

// Generate builds a buffer by calling fn for every coordinate in row-major order.
func Generate(width int, height int, fn func(x int, y int) RGB) *Buffer {
	if width <= 0 || height <= 0 {
		return &Buffer{}
	}

	pix := make([]RGB, width*height)
	i := 0
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			pix[i] = fn(x, y) & mask
			i++
		}
	}
	return &Buffer{
		width:  width,
		height: height,
		pix:    pix,
	}
}

func (b *Buffer) Width() int  { return b.width }
func (b *Buffer) Height() int { return b.height }

// Empty reports whether the buffer holds no pixels.
func (b *Buffer) Empty() bool {
	return b.width == 0 || b.height == 0
}

// Get returns the pixel at (x, y). It panics with *IndexError when the
// coordinate lies outside the buffer.
func (b *Buffer) Get(x int, y int) RGB {
	if x < 0 || x >= b.width || y < 0 || y >= b.height {
		panic(&IndexError{X: x, Y: y, Width: b.width, Height: b.height})
	}
	return b.pix[y*b.width+x]
}

// Lookup is Get without the panic; ok is false outside the buffer.
func (b *Buffer) Lookup(x int, y int) (RGB, bool) {
	if x < 0 || x >= b.width || y < 0 || y >= b.height {
		return 0, false
	}
	return b.pix[y*b.width+x], true
}

// Pixels returns a copy of the row-major pixel data.
func (b *Buffer) Pixels() []RGB {
	out := make([]RGB, len(b.pix))
	copy(out, b.pix)
	return out
}

func (b *Buffer) SameSize(o *Buffer) bool {
	return b.width == o.width && b.height == o.height
}

func (b *Buffer) Equal(o *Buffer) bool {
	if b == o {
		return true
	}
	if b == nil || o == nil || !b.SameSize(o) {
		return false
	}
	for i := range b.pix {
		if b.pix[i] != o.pix[i] {
			return false
		}
	}
	return true
}

// Image converts the buffer into an opaque *image.NRGBA.
func (b *Buffer) Image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, b.width, b.height))
	for i, c := range b.pix {
		offset := i * 4
		img.Pix[offset] = c.R()
		img.Pix[offset+1] = c.G()
		img.Pix[offset+2] = c.B()
		img.Pix[offset+3] = 0xff
	}
	return img
}

func (b *Buffer) EncodePNG(w io.Writer) error {
	return png.Encode(w, b.Image())
}

// FromImage converts a decoded raster into a buffer. Alpha is discarded and
// colours are taken un-premultiplied.
func FromImage(img image.Image) *Buffer {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width <= 0 || height <= 0 {
		return &Buffer{}
	}
	pix := make([]RGB, width*height)

	switch src := img.(type) {
	case *image.NRGBA:
		fromNRGBA(src, bounds, pix)
	case *image.RGBA:
		fromRGBA(src, bounds, pix)
	case *image.YCbCr:
		fromYCbCr(src, bounds, pix)
	default:
		i := 0
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
				pix[i] = NewRGB(c.R, c.G, c.B)
				i++
			}
		}
	}

	return &Buffer{
		width:  width,
		height: height,
		pix:    pix,
	}
}

func fromNRGBA(src *image.NRGBA, bounds image.Rectangle, pix []RGB) {
	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		offset := src.PixOffset(bounds.Min.X, y)
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			pix[i] = NewRGB(src.Pix[offset], src.Pix[offset+1], src.Pix[offset+2])
			offset += 4
			i++
		}
	}
}

func fromRGBA(src *image.RGBA, bounds image.Rectangle, pix []RGB) {
	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		offset := src.PixOffset(bounds.Min.X, y)
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.RGBA{R: src.Pix[offset], G: src.Pix[offset+1], B: src.Pix[offset+2], A: src.Pix[offset+3]}
			if c.A == 0xff {
				pix[i] = NewRGB(c.R, c.G, c.B)
			} else {
				n := color.NRGBAModel.Convert(c).(color.NRGBA)
				pix[i] = NewRGB(n.R, n.G, n.B)
			}
			offset += 4
			i++
		}
	}
}

func fromYCbCr(src *image.YCbCr, bounds image.Rectangle, pix []RGB) {
	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			yi := src.YOffset(x, y)
			ci := src.COffset(x, y)
			r, g, b := color.YCbCrToRGB(src.Y[yi], src.Cb[ci], src.Cr[ci])
			pix[i] = NewRGB(r, g, b)
			i++
		}
	}
}

// Decode reads a PNG or JPEG raster.
func Decode(r io.Reader) (*Buffer, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	return FromImage(img), nil
}
