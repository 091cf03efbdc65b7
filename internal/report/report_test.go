package report

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArtifactName(t *testing.T) {
	now := time.Date(2024, 5, 1, 9, 4, 7, 0, time.UTC)

	t.Run("ReplacesSpaces", func(t *testing.T) {
		got := ArtifactName(now, Test{Context: "Login Page", Method: "shows error"})
		assert.Equal(t, "09:04:07_DiffImage_Login_Page_shows_error.png", got)
	})

	t.Run("EmptyIdentity", func(t *testing.T) {
		got := ArtifactName(now, Test{})
		assert.Equal(t, "09:04:07_DiffImage__.png", got)
	})

	t.Run("StaysOnePathElement", func(t *testing.T) {
		tests := []struct {
			test Test
			want string
		}{
			{Test{Context: "/../../escaped", Method: "x"}, "09:04:07_DiffImage_____escaped_x.png"},
			{Test{Context: "Suite", Method: `..\..\win`}, "09:04:07_DiffImage_Suite_____win.png"},
			{Test{Context: "a/b", Method: "v1.2"}, "09:04:07_DiffImage_a_b_v1.2.png"},
		}
		for _, tt := range tests {
			got := ArtifactName(now, tt.test)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, filepath.Base(got))
			assert.NotContains(t, got, "..")
		}
	})
}

func TestTestFrom(t *testing.T) {
	assert.Equal(t, Test{}, TestFrom(context.Background()))

	ctx := WithTest(context.Background(), Test{Context: "Suite", Method: "case"})
	assert.Equal(t, Test{Context: "Suite", Method: "case"}, TestFrom(ctx))
}

func TestHTMLSink(t *testing.T) {
	var buf bytes.Buffer
	s := NewHTMLSink(&buf)

	dir := t.TempDir()
	path := filepath.Join(dir, "a.png")
	require.NoError(t, s.AttachImage(context.Background(), "differs <here>", path))
	require.NoError(t, s.AttachImage(context.Background(), "remote", "s3://bucket/a.png"))

	want := "differs &lt;here&gt;<br><img src=\"" + path + "\">\n" +
		"remote<br><img src=\"s3://bucket/a.png\">\n"
	assert.Equal(t, want, buf.String())
}

func TestOpenHTMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "report.html")

	s, f, err := OpenHTMLFile(path)
	require.NoError(t, err)
	require.NoError(t, s.AttachImage(context.Background(), "first", "/tmp/a.png"))
	require.NoError(t, f.Close())

	s, f, err = OpenHTMLFile(path)
	require.NoError(t, err)
	require.NoError(t, s.AttachImage(context.Background(), "second", "/tmp/b.png"))
	require.NoError(t, f.Close())

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first<br><img src=\"/tmp/a.png\">\nsecond<br><img src=\"/tmp/b.png\">\n", string(got))
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestHTMLSink_WriteError(t *testing.T) {
	s := NewHTMLSink(failingWriter{})
	assert.Error(t, s.AttachImage(context.Background(), "d", "/tmp/a.png"))
}

func TestRecorder(t *testing.T) {
	var r Recorder
	ctx := WithTest(context.Background(), Test{Context: "Suite", Method: "case"})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = r.AttachImage(ctx, "d", "/tmp/a.png")
		}()
	}
	wg.Wait()

	got := r.Attachments()
	require.Len(t, got, 10)
	assert.Equal(t, Attachment{Test: Test{Context: "Suite", Method: "case"}, Description: "d", Path: "/tmp/a.png"}, got[0])
}

func TestMulti(t *testing.T) {
	var first, last Recorder
	boom := errors.New("boom")

	err := Multi(&first, SinkFunc(func(context.Context, string, string) error { return boom }), &last).
		AttachImage(context.Background(), "d", "p")

	assert.ErrorIs(t, err, boom)
	assert.Len(t, first.Attachments(), 1)
	assert.Empty(t, last.Attachments())
}

func TestLogSink(t *testing.T) {
	assert.NoError(t, LogSink{Log: logr.Discard()}.AttachImage(context.Background(), "d", "p"))
	assert.NoError(t, Discard.AttachImage(context.Background(), "d", "p"))
}
