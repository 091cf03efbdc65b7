package image

import "screenshot-assertion/internal/pixel"

type DiffResult struct {
	Image      *pixel.Buffer
	DiffPixels int
	DimDiffer  bool
}

type Differ interface {
	Calculate(actual *pixel.Buffer, expected *pixel.Buffer) *DiffResult
}

// Highlighter picks the colour drawn for a pixel that differs between the
// two images.
type Highlighter interface {
	Highlight(actual pixel.RGB, expected pixel.RGB) pixel.RGB
}

type HighlighterFunc func(actual pixel.RGB, expected pixel.RGB) pixel.RGB

func (f HighlighterFunc) Highlight(actual pixel.RGB, expected pixel.RGB) pixel.RGB {
	return f(actual, expected)
}
