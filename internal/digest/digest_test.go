package digest_test

import (
	"bytes"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"testing"

	"screenshot-assertion/internal/digest"
	"screenshot-assertion/internal/pixel"

	"github.com/google/go-cmp/cmp"
)

func TestOf(t *testing.T) {
	type in struct {
		first []byte
	}

	type want struct {
		first string
	}

	tests := []struct {
		name string
		in   in
		want want
	}{
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			in{
				[]byte(""),
			},
			want{
				"d41d8cd98f00b204e9800998ecf8427e",
			},
		},
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			in{
				[]byte("The quick brown fox jumps over the lazy dog"),
			},
			want{
				"9e107d9d372bb6826bd81d3542a419d6",
			},
		},
	}
	for _, tt := range tests {
		name := tt.name
		in := tt.in
		want := tt.want
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got := digest.Of(in.first).String()
			if diff := cmp.Diff(want.first, got); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
		})
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("fake")
}

func TestOfReader(t *testing.T) {
	t.Parallel()

	data := strings.Repeat("screenshot", 10000)
	got, err := digest.OfReader(strings.NewReader(data))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(digest.Of([]byte(data)), got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}

	if _, err := digest.OfReader(failingReader{}); err == nil {
		t.Errorf("expected error from failing reader")
	}
}

func TestOfBuffer(t *testing.T) {
	t.Parallel()

	a := pixel.Fill(10, 10, pixel.NewRGB(255, 0, 0))
	b := pixel.Fill(10, 10, pixel.NewRGB(255, 0, 0))
	c := pixel.Generate(10, 10, func(x, y int) pixel.RGB {
		if x == 5 && y == 5 {
			return pixel.NewRGB(0, 0, 255)
		}
		return pixel.NewRGB(255, 0, 0)
	})

	da, err := digest.OfBuffer(a)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	db, err := digest.OfBuffer(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	dc, err := digest.OfBuffer(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if da != db {
		t.Errorf("expected equal buffers to share a digest: %s != %s", da, db)
	}
	if da == dc {
		t.Errorf("expected different buffers to differ: %s", da)
	}

	var encoded bytes.Buffer
	if err := a.EncodePNG(&encoded); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(digest.Of(encoded.Bytes()), da); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestOfBuffer_Empty(t *testing.T) {
	t.Parallel()

	got, err := digest.OfBuffer(pixel.Generate(0, 0, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(digest.Of(nil), got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}
