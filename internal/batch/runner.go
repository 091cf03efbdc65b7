// Package batch compares many screenshot pairs concurrently.
package batch

import (
	"context"
	"errors"
	"runtime"

	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"

	"screenshot-assertion/internal/assert"
	"screenshot-assertion/internal/report"
)

type Comparator interface {
	CompareFiles(ctx context.Context, actualPath string, expectedPath string, message string) (*assert.Result, error)
}

type Outcome struct {
	Pair   Pair           `json:"pair"`
	Result *assert.Result `json:"-"`
	// Err is nil for Equal, wraps assert.ErrMismatch for Different and holds
	// any other failure otherwise.
	Err error `json:"-"`
}

func (o Outcome) Failed() bool {
	return o.Err != nil && !errors.Is(o.Err, assert.ErrMismatch)
}

type Summary struct {
	Outcomes  []Outcome
	Equal     int
	Different int
	Failed    int
}

// OK reports whether every pair compared Equal.
func (s *Summary) OK() bool {
	return s.Different == 0 && s.Failed == 0
}

type Runner struct {
	Comparator Comparator
	// Concurrency defaults to GOMAXPROCS.
	Concurrency int
	Log         logr.Logger
}

// Run compares every pair in the manifest. Individual failures are recorded
// in the summary; Run itself only fails on an invalid manifest or when ctx is
// done.
func (r *Runner) Run(ctx context.Context, m *Manifest) (*Summary, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	outcomes := make([]Outcome, len(m.Pairs))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(r.concurrency())
	for i, p := range m.Pairs {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			pctx := report.WithTest(ctx, report.Test{Context: p.Context, Method: p.Method})
			result, err := r.Comparator.CompareFiles(pctx, m.Resolve(p.Actual), m.Resolve(p.Expected), p.Message)
			outcomes[i] = Outcome{Pair: p, Result: result, Err: err}
			r.log().V(1).Info("compared", "name", p.Name, "error", err)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	summary := &Summary{Outcomes: outcomes}
	for _, o := range outcomes {
		switch {
		case o.Err == nil:
			summary.Equal++
		case o.Failed():
			summary.Failed++
		default:
			summary.Different++
		}
	}
	r.log().Info("batch finished", "equal", summary.Equal, "different", summary.Different, "failed", summary.Failed)
	return summary, nil
}

func (r *Runner) concurrency() int {
	if r.Concurrency > 0 {
		return r.Concurrency
	}
	return runtime.GOMAXPROCS(0)
}

func (r *Runner) log() logr.Logger {
	if r.Log.GetSink() == nil {
		return logr.Discard()
	}
	return r.Log
}
