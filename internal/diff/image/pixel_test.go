package image

import (
	"bytes"
	"testing"

	"screenshot-assertion/internal/pixel"
)

var (
	red  = pixel.NewRGB(255, 0, 0)
	blue = pixel.NewRGB(0, 0, 255)
)

func createTestImage(width, height int, c pixel.RGB) *pixel.Buffer {
	return pixel.Fill(width, height, c)
}

func withPixel(b *pixel.Buffer, px, py int, c pixel.RGB) *pixel.Buffer {
	return pixel.Generate(b.Width(), b.Height(), func(x, y int) pixel.RGB {
		if x == px && y == py {
			return c
		}
		return b.Get(x, y)
	})
}

func TestPixelDiff_Calculate(t *testing.T) {
	pd := NewPixelDiff(XOR{})

	t.Run("NoDifference", func(t *testing.T) {
		img1 := createTestImage(10, 10, red)
		img2 := createTestImage(10, 10, red)

		result := pd.Calculate(img1, img2)

		if result.DiffPixels != 0 {
			t.Errorf("Expected DiffPixels to be 0, got %d", result.DiffPixels)
		}
		if result.Image.Width() != 20 || result.Image.Height() != 10 {
			t.Errorf("Expected 20x10 composite, got %dx%d", result.Image.Width(), result.Image.Height())
		}
	})

	t.Run("SinglePixel", func(t *testing.T) {
		actual := createTestImage(10, 10, red)
		expected := withPixel(actual, 5, 5, blue)

		result := pd.Calculate(actual, expected)

		if result.DiffPixels != 1 {
			t.Errorf("Expected DiffPixels to be 1, got %d", result.DiffPixels)
		}
		if result.DimDiffer {
			t.Errorf("Expected DimDiffer to be false")
		}
		if result.Image.Width() != 20 || result.Image.Height() != 10 {
			t.Fatalf("Expected 20x10 composite, got %dx%d", result.Image.Width(), result.Image.Height())
		}
		if got := result.Image.Get(5, 5); got != 0xFEFF00 {
			t.Errorf("Expected highlight #feff00 at (5,5), got %s", got)
		}
		if got := result.Image.Get(15, 5); got != blue {
			t.Errorf("Expected blue at (15,5), got %s", got)
		}
		for y := 0; y < 10; y++ {
			for x := 0; x < 10; x++ {
				if x == 5 && y == 5 {
					continue
				}
				if got := result.Image.Get(x, y); got != actual.Get(x, y) {
					t.Fatalf("Expected left half to equal actual at (%d,%d), got %s", x, y, got)
				}
			}
		}
		for y := 0; y < 10; y++ {
			for x := 0; x < 10; x++ {
				if got := result.Image.Get(10+x, y); got != expected.Get(x, y) {
					t.Fatalf("Expected right half to equal expected at (%d,%d), got %s", x, y, got)
				}
			}
		}
	})

	t.Run("Deterministic", func(t *testing.T) {
		actual := pixel.Generate(32, 16, func(x, y int) pixel.RGB {
			return pixel.NewRGB(uint8(x*8), uint8(y*16), 0x40)
		})
		expected := pixel.Generate(32, 16, func(x, y int) pixel.RGB {
			return pixel.NewRGB(uint8(y*16), uint8(x*8), 0x40)
		})

		var first, second bytes.Buffer
		if err := pd.Calculate(actual, expected).Image.EncodePNG(&first); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := pd.Calculate(actual, expected).Image.EncodePNG(&second); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !bytes.Equal(first.Bytes(), second.Bytes()) {
			t.Errorf("Expected byte-identical diff output")
		}
	})

	t.Run("DimensionMismatch", func(t *testing.T) {
		actual := createTestImage(4, 2, red)
		expected := createTestImage(2, 3, red)

		result := pd.Calculate(actual, expected)

		if !result.DimDiffer {
			t.Errorf("Expected DimDiffer to be true")
		}
		if result.Image.Width() != 8 || result.Image.Height() != 3 {
			t.Fatalf("Expected 8x3 composite, got %dx%d", result.Image.Width(), result.Image.Height())
		}
		// 4x3 canvas, 2x2 overlap of equal pixels.
		if result.DiffPixels != 8 {
			t.Errorf("Expected DiffPixels to be 8, got %d", result.DiffPixels)
		}
		if got := result.Image.Get(3, 0); got != (XOR{}).Highlight(red, pixel.Black) {
			t.Errorf("Expected missing expected pixel highlighted, got %s", got)
		}
		if got := result.Image.Get(0, 2); got != (XOR{}).Highlight(pixel.Black, red) {
			t.Errorf("Expected missing actual pixel highlighted, got %s", got)
		}
		if got := result.Image.Get(7, 0); got != pixel.White {
			t.Errorf("Expected right-half padding to be white, got %s", got)
		}
		if got := result.Image.Get(5, 2); got != red {
			t.Errorf("Expected expected pixel at (5,2), got %s", got)
		}
	})

	t.Run("Empty", func(t *testing.T) {
		empty := pixel.Fill(0, 0, pixel.White)

		result := pd.Calculate(empty, empty)

		if result.DiffPixels != 0 || !result.Image.Empty() {
			t.Errorf("Expected empty composite with no differences")
		}
	})

	t.Run("DefaultsToXOR", func(t *testing.T) {
		actual := createTestImage(1, 1, red)
		expected := createTestImage(1, 1, blue)

		got := NewPixelDiff(nil).Calculate(actual, expected).Image.Get(0, 0)
		if got != 0xFEFF00 {
			t.Errorf("Expected XOR highlight, got %s", got)
		}
	})
}

func BenchmarkPixelDiff_Calculate_Small(b *testing.B) {
	pd := NewPixelDiff(XOR{})
	img1 := createTestImage(1920, 1080, pixel.White)
	img2 := createTestImage(1920, 1080, pixel.White)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		pd.Calculate(img1, img2)
	}
}

func BenchmarkPixelDiff_Calculate_Large(b *testing.B) {
	pd := NewPixelDiff(XOR{})
	img1 := createTestImage(3840, 2160, pixel.White)
	img2 := createTestImage(3840, 2160, pixel.Black)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		pd.Calculate(img1, img2)
	}
}
