package report

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-logr/logr"
	"golang.org/x/xerrors"
)

// Sink receives a described image for the current test report.
type Sink interface {
	AttachImage(ctx context.Context, description string, path string) error
}

type SinkFunc func(ctx context.Context, description string, path string) error

func (f SinkFunc) AttachImage(ctx context.Context, description string, path string) error {
	return f(ctx, description, path)
}

// Discard drops every attachment.
var Discard Sink = SinkFunc(func(context.Context, string, string) error { return nil })

// HTMLSink appends one "description<br><img src=...>" fragment per
// attachment to w.
type HTMLSink struct {
	mu sync.Mutex
	w  io.Writer
}

func NewHTMLSink(w io.Writer) *HTMLSink {
	return &HTMLSink{w: w}
}

func (s *HTMLSink) AttachImage(ctx context.Context, description string, path string) error {
	src := path
	if abs, err := filepath.Abs(path); err == nil && !isURL(path) {
		src = abs
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := fmt.Fprintf(s.w, "%s<br><img src=\"%s\">\n", html.EscapeString(description), html.EscapeString(src)); err != nil {
		return xerrors.Errorf("failed to write report entry: %w", err)
	}
	return nil
}

func isURL(path string) bool {
	u, err := url.Parse(path)
	return err == nil && u.Scheme != "" && u.Host != ""
}

// OpenHTMLFile opens (appending) the report at path. The caller closes the
// returned file.
func OpenHTMLFile(path string) (*HTMLSink, *os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, nil, xerrors.Errorf("failed to create report directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, xerrors.Errorf("failed to open report: %w", err)
	}
	return NewHTMLSink(f), f, nil
}

type Attachment struct {
	Test        Test
	Description string
	Path        string
}

// Recorder keeps attachments in memory.
type Recorder struct {
	mu          sync.Mutex
	attachments []Attachment
}

func (r *Recorder) AttachImage(ctx context.Context, description string, path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.attachments = append(r.attachments, Attachment{
		Test:        TestFrom(ctx),
		Description: description,
		Path:        path,
	})
	return nil
}

func (r *Recorder) Attachments() []Attachment {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Attachment, len(r.attachments))
	copy(out, r.attachments)
	return out
}

// LogSink writes attachments to a structured logger.
type LogSink struct {
	Log logr.Logger
}

func (s LogSink) AttachImage(ctx context.Context, description string, path string) error {
	test := TestFrom(ctx)
	s.Log.Info("attached image", "context", test.Context, "method", test.Method, "description", description, "path", path)
	return nil
}

// Multi delivers to every sink, stopping at the first failure.
func Multi(sinks ...Sink) Sink {
	return SinkFunc(func(ctx context.Context, description string, path string) error {
		for _, s := range sinks {
			if err := s.AttachImage(ctx, description, path); err != nil {
				return err
			}
		}
		return nil
	})
}
