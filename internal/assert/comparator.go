// Package assert decides whether two screenshots are equivalent and, when
// they are not, stores and reports a side-by-side diff image.
package assert

import (
	"bytes"
	"context"
	"time"

	"github.com/go-logr/logr"
	"golang.org/x/xerrors"

	"screenshot-assertion/internal/crop"
	diffimage "screenshot-assertion/internal/diff/image"
	"screenshot-assertion/internal/digest"
	"screenshot-assertion/internal/pixel"
	"screenshot-assertion/internal/report"
	"screenshot-assertion/internal/storage"
)

// DiffDescription heads every report entry for a mismatch.
const DiffDescription = "Actual(left) picture has the following differences with expected(right): "

type Outcome int

const (
	Equal Outcome = iota
	Different
)

func (o Outcome) String() string {
	switch o {
	case Equal:
		return "equal"
	case Different:
		return "different"
	default:
		return "unknown"
	}
}

func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

func (o *Outcome) UnmarshalText(text []byte) error {
	switch string(text) {
	case "equal":
		*o = Equal
	case "different":
		*o = Different
	default:
		return xerrors.Errorf("unknown outcome: %s", text)
	}
	return nil
}

type Result struct {
	Outcome Outcome
	// HashMatched is set when the content hashes matched and no pixels were
	// inspected.
	HashMatched  bool
	Diff         *pixel.Buffer
	DiffPixels   int
	DimDiffer    bool
	Regions      []diffimage.Rectangle
	ArtifactPath string
	Message      string
}

type Cropper interface {
	Crop(buf *pixel.Buffer) *pixel.Buffer
}

// Comparator holds configuration only and is safe for concurrent use.
// Zero-valued fields fall back to defaults: white-border cropping, the XOR
// side-by-side renderer, file storage in the working directory, no report
// sink and a discarding logger.
type Comparator struct {
	Storage storage.Storage
	Sink    report.Sink
	Cropper Cropper
	Differ  diffimage.Differ
	Log     logr.Logger
	Now     func() time.Time
}

// Evaluate crops both buffers and compares them pixel by pixel. It performs
// no I/O.
func (c *Comparator) Evaluate(actual *pixel.Buffer, expected *pixel.Buffer) *Result {
	actual = c.cropper().Crop(actual)
	expected = c.cropper().Crop(expected)

	if actual.Equal(expected) {
		return &Result{Outcome: Equal}
	}

	d := c.differ().Calculate(actual, expected)
	return &Result{
		Outcome:    Different,
		Diff:       d.Image,
		DiffPixels: d.DiffPixels,
		DimDiffer:  d.DimDiffer,
		Regions:    diffimage.FindRegions(actual, expected),
	}
}

// CompareFiles loads both images through Storage. Byte-identical inputs are
// Equal without decoding. A mismatch returns the Result together with a
// *MismatchError.
func (c *Comparator) CompareFiles(ctx context.Context, actualPath string, expectedPath string, message string) (*Result, error) {
	s, err := c.storage(ctx)
	if err != nil {
		return nil, err
	}

	actualData, err := s.Get(ctx, actualPath)
	if err != nil {
		return nil, xerrors.Errorf("failed to read actual screenshot: %w", err)
	}
	expectedData, err := s.Get(ctx, expectedPath)
	if err != nil {
		return nil, xerrors.Errorf("failed to read expected screenshot: %w", err)
	}

	return c.compareBytes(ctx, s, actualData, expectedData, message)
}

// CompareBytes compares two encoded images. Storage is used only for the diff
// artifact.
func (c *Comparator) CompareBytes(ctx context.Context, actualData []byte, expectedData []byte, message string) (*Result, error) {
	s, err := c.storage(ctx)
	if err != nil {
		return nil, err
	}
	return c.compareBytes(ctx, s, actualData, expectedData, message)
}

func (c *Comparator) compareBytes(ctx context.Context, s storage.Storage, actualData []byte, expectedData []byte, message string) (*Result, error) {
	if digest.Of(actualData) == digest.Of(expectedData) {
		c.log().V(1).Info("content hashes match")
		return &Result{Outcome: Equal, HashMatched: true, Message: message}, nil
	}

	actual, err := pixel.Decode(bytes.NewReader(actualData))
	if err != nil {
		return nil, xerrors.Errorf("failed to decode actual screenshot: %w", err)
	}
	expected, err := pixel.Decode(bytes.NewReader(expectedData))
	if err != nil {
		return nil, xerrors.Errorf("failed to decode expected screenshot: %w", err)
	}

	return c.compare(ctx, s, actual, expected, message)
}

// CompareBuffers hashes the PNG encoding of each buffer before falling back
// to the pixel comparison.
func (c *Comparator) CompareBuffers(ctx context.Context, actual *pixel.Buffer, expected *pixel.Buffer, message string) (*Result, error) {
	actualDigest, err := digest.OfBuffer(actual)
	if err != nil {
		return nil, xerrors.Errorf("failed to hash actual screenshot: %w", err)
	}
	expectedDigest, err := digest.OfBuffer(expected)
	if err != nil {
		return nil, xerrors.Errorf("failed to hash expected screenshot: %w", err)
	}
	if actualDigest == expectedDigest {
		return &Result{Outcome: Equal, HashMatched: true, Message: message}, nil
	}

	s, err := c.storage(ctx)
	if err != nil {
		return nil, err
	}
	return c.compare(ctx, s, actual, expected, message)
}

func (c *Comparator) compare(ctx context.Context, s storage.Storage, actual *pixel.Buffer, expected *pixel.Buffer, message string) (*Result, error) {
	result := c.Evaluate(actual, expected)
	result.Message = message
	if result.Outcome == Equal {
		return result, nil
	}

	var buf bytes.Buffer
	if err := result.Diff.EncodePNG(&buf); err != nil {
		return nil, xerrors.Errorf("failed to encode diff image: %w", err)
	}

	test := report.TestFrom(ctx)
	path, err := s.Put(ctx, report.ArtifactName(c.now(), test), buf.Bytes())
	if err != nil {
		return nil, xerrors.Errorf("failed to store diff image: %w", err)
	}
	result.ArtifactPath = path

	if err := c.sink().AttachImage(ctx, DiffDescription, path); err != nil {
		return nil, xerrors.Errorf("failed to attach diff image: %w", err)
	}

	c.log().Info("screenshots differ",
		"context", test.Context,
		"method", test.Method,
		"diffPixels", result.DiffPixels,
		"dimDiffer", result.DimDiffer,
		"regions", len(result.Regions),
		"artifact", path,
	)

	return result, &MismatchError{
		Message:      message,
		ArtifactPath: path,
		DiffPixels:   result.DiffPixels,
		DimDiffer:    result.DimDiffer,
	}
}

func (c *Comparator) storage(ctx context.Context) (storage.Storage, error) {
	if c.Storage != nil {
		return c.Storage, nil
	}
	s, err := storage.NewFileStorage(ctx, storage.FileConfig{})
	if err != nil {
		return nil, xerrors.Errorf("failed to create default storage: %w", err)
	}
	return s, nil
}

func (c *Comparator) sink() report.Sink {
	if c.Sink != nil {
		return c.Sink
	}
	return report.Discard
}

func (c *Comparator) cropper() Cropper {
	if c.Cropper != nil {
		return c.Cropper
	}
	return crop.New(nil)
}

func (c *Comparator) differ() diffimage.Differ {
	if c.Differ != nil {
		return c.Differ
	}
	return diffimage.NewPixelDiff(nil)
}

func (c *Comparator) log() logr.Logger {
	if c.Log.GetSink() == nil {
		return logr.Discard()
	}
	return c.Log
}

func (c *Comparator) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}
