package image

import (
	"strings"

	"golang.org/x/xerrors"

	"screenshot-assertion/internal/pixel"
)

// XOR inverts the signed colour delta: ((expected - actual) mod 2^24) ^ 0xFFFFFF.
type XOR struct{}

func (XOR) Highlight(actual pixel.RGB, expected pixel.RGB) pixel.RGB {
	return ((expected - actual) ^ pixel.White) & pixel.White
}

// Heatmap ramps from white to red by the largest per-channel delta.
type Heatmap struct{}

func (Heatmap) Highlight(actual pixel.RGB, expected pixel.RGB) pixel.RGB {
	d := max(absDelta(actual.R(), expected.R()), absDelta(actual.G(), expected.G()), absDelta(actual.B(), expected.B()))
	if d == 0 {
		return actual
	}
	return pixel.NewRGB(255, 255-d, 255-d)
}

// Brightness marks pixels red when expected is brighter than actual and blue
// when it is darker. Changes within Threshold (0.0 to 1.0) are drawn magenta.
type Brightness struct {
	Threshold float64
}

func (b Brightness) Highlight(actual pixel.RGB, expected pixel.RGB) pixel.RGB {
	actualBrightness := int(actual.R()) + int(actual.G()) + int(actual.B())
	expectedBrightness := int(expected.R()) + int(expected.G()) + int(expected.B())
	normalizedDiff := float64(expectedBrightness-actualBrightness) / (255.0 * 3.0)

	if normalizedDiff > b.Threshold {
		return pixel.NewRGB(255, 0, 0)
	} else if normalizedDiff < -b.Threshold {
		return pixel.NewRGB(0, 0, 255)
	}
	return pixel.NewRGB(255, 0, 255)
}

func absDelta(a uint8, b uint8) uint8 {
	if a > b {
		return a - b
	}
	return b - a
}

// ParseHighlighter maps a flag value to a strategy.
func ParseHighlighter(s string) (Highlighter, error) {
	switch strings.ToLower(s) {
	case "", "xor":
		return XOR{}, nil
	case "heatmap":
		return Heatmap{}, nil
	case "brightness":
		return Brightness{Threshold: 0.1}, nil
	default:
		return nil, xerrors.Errorf("unknown highlight strategy: %s", s)
	}
}
