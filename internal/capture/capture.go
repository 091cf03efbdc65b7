// Package capture takes browser screenshots to feed the comparator.
package capture

import (
	"context"
	"strings"
)

type CaptureResult struct {
	Screenshot []byte
	HTML       []byte
}

type CaptureOptions struct {
	// Selector limits the screenshot to the first matching element.
	Selector      string
	MaskSelectors []string
	Headers       map[string]string
}

type Capturer interface {
	Capture(ctx context.Context, url string, options CaptureOptions) (*CaptureResult, error)
}

// SplitSelectors splits a comma separated selector list, dropping blanks.
func SplitSelectors(s string) []string {
	var selectors []string
	for _, selector := range strings.Split(s, ",") {
		if selector = strings.TrimSpace(selector); selector != "" {
			selectors = append(selectors, selector)
		}
	}
	return selectors
}

// ParseHeaders turns "Key: Value" lines into a header map. Lines without a
// colon are ignored.
func ParseHeaders(lines []string) map[string]string {
	if len(lines) == 0 {
		return nil
	}
	headers := make(map[string]string, len(lines))
	for _, line := range lines {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		headers[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return headers
}
