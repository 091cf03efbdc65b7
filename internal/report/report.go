// Package report carries test identity through a context and delivers
// comparison artifacts to whatever renders the test report.
package report

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Test identifies the test that triggered a comparison.
type Test struct {
	// Context is the suite, class or scenario name.
	Context string
	Method  string
}

type contextKey string

const testContextKey contextKey = "testKey"

func WithTest(ctx context.Context, test Test) context.Context {
	return context.WithValue(ctx, testContextKey, test)
}

func TestFrom(ctx context.Context) Test {
	v := ctx.Value(testContextKey)

	t, ok := v.(Test)
	if !ok {
		return Test{}
	}

	return t
}

const artifactTimeLayout = "15:04:05"

var nameReplacer = strings.NewReplacer(" ", "_", "/", "_", "\\", "_")

// ArtifactName builds "<time> DiffImage <context> <method>.png" with every
// space replaced by an underscore. Path separators and ".." in the test
// identity are replaced too, so the name is always a single path element.
func ArtifactName(now time.Time, test Test) string {
	name := fmt.Sprintf("%s DiffImage %s %s.png", now.Format(artifactTimeLayout), cleanPart(test.Context), cleanPart(test.Method))
	return nameReplacer.Replace(name)
}

func cleanPart(s string) string {
	return strings.ReplaceAll(nameReplacer.Replace(s), "..", "_")
}
