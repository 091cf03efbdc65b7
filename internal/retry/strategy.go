package retry

import (
	"errors"
	"math/rand"
	"time"

	"golang.org/x/exp/constraints"
)

// Strategy returns the delay before retry number n (zero based) and whether
// the retry budget is exhausted.
type Strategy interface {
	Sleep(n uint) (time.Duration, bool)
}

type never struct{}

// Never disables retries.
var Never Strategy = never{}

func (never) Sleep(uint) (time.Duration, bool) {
	return 0, true
}

// Entropy maps an upper bound to a value in [0, bound).
type Entropy func(int64) int64

// ExponentialBackOff doubles Base on every retry up to Max and applies full
// jitter through Entropy.
type ExponentialBackOff struct {
	Base       time.Duration
	Max        time.Duration
	MaxRetries uint
	// Entropy defaults to rand.Int63n.
	Entropy Entropy
}

func (eb *ExponentialBackOff) Sleep(n uint) (time.Duration, bool) {
	if n >= eb.MaxRetries {
		return 0, true
	}

	ceiling := int64(eb.Max)
	if n < 63 {
		if delay, err := checkedMul(int64(1)<<n, int64(eb.Base)); err == nil && delay < ceiling {
			ceiling = delay
		}
	}
	if ceiling <= 0 {
		return 0, false
	}
	return time.Duration(eb.entropy()(ceiling)), false
}

func (eb *ExponentialBackOff) entropy() Entropy {
	if eb.Entropy == nil {
		return rand.Int63n
	}
	return eb.Entropy
}

var ErrOverflow = errors.New("overflow")

func checkedMul[T constraints.Signed](l T, r T) (T, error) {
	if l == 0 || r == 0 {
		return 0, nil
	}
	product := l * r
	if product/r != l {
		return 0, ErrOverflow
	}
	return product, nil
}
