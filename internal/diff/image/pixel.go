package image

import (
	"screenshot-assertion/internal/pixel"
)

// missing stands in for the absent side when the images differ in size.
const missing = pixel.Black

// PixelDiff renders a side-by-side composite: the left half is the actual
// image with differing pixels recoloured, the right half is the expected
// image verbatim.
type PixelDiff struct {
	highlighter Highlighter
}

func NewPixelDiff(highlighter Highlighter) *PixelDiff {
	if highlighter == nil {
		highlighter = XOR{}
	}
	return &PixelDiff{
		highlighter,
	}
}

// Calculate expects equally sized inputs. Mismatched sizes are padded to the
// larger canvas; positions covered by only one image always count as
// differing, and the right half is white where expected has no pixel.
func (p *PixelDiff) Calculate(actual *pixel.Buffer, expected *pixel.Buffer) *DiffResult {
	width := max(actual.Width(), expected.Width())
	height := max(actual.Height(), expected.Height())
	dimDiffer := !actual.SameSize(expected)

	diffPixels := 0
	composite := pixel.Generate(2*width, height, func(x int, y int) pixel.RGB {
		if x >= width {
			if e, ok := expected.Lookup(x-width, y); ok {
				return e
			}
			return pixel.White
		}

		a, aok := actual.Lookup(x, y)
		e, eok := expected.Lookup(x, y)
		if aok && eok && a == e {
			return a
		}
		if !aok {
			a = missing
		}
		if !eok {
			e = missing
		}
		diffPixels++
		return p.highlighter.Highlight(a, e)
	})

	return &DiffResult{
		Image:      composite,
		DiffPixels: diffPixels,
		DimDiffer:  dimDiffer,
	}
}
