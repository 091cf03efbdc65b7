package env

import (
	"fmt"
	"runtime"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestOrDefault(t *testing.T) {
	type in struct {
		value    string
		set      bool
		fallback any
	}
	tests := []struct {
		name string
		in   in
		want any
	}{
		{
			name: func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			in:   in{set: false, fallback: "fallback"},
			want: "fallback",
		},
		{
			name: func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			in:   in{value: "value", set: true, fallback: "fallback"},
			want: "value",
		},
		{
			name: func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			in:   in{value: "42", set: true, fallback: 1},
			want: 42,
		},
		{
			name: func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			in:   in{value: "forty-two", set: true, fallback: 1},
			want: 1,
		},
		{
			name: func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			in:   in{value: "false", set: true, fallback: true},
			want: false,
		},
		{
			name: func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			in:   in{value: "1m30s", set: true, fallback: time.Second},
			want: 90 * time.Second,
		},
		{
			name: func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			in:   in{value: "0.25", set: true, fallback: 0.1},
			want: 0.25,
		},
		{
			name: func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			in:   in{value: "7", set: true, fallback: uint(3)},
			want: uint(7),
		},
	}
	for _, tt := range tests {
		name := tt.name
		in := tt.in
		want := tt.want
		t.Run(name, func(t *testing.T) {
			const key = "SCREENSHOT_ASSERTION_ENV_TEST"
			if in.set {
				t.Setenv(key, in.value)
			}

			var got any
			switch fallback := in.fallback.(type) {
			case string:
				got = OrDefault(key, fallback)
			case int:
				got = OrDefault(key, fallback)
			case uint:
				got = OrDefault(key, fallback)
			case bool:
				got = OrDefault(key, fallback)
			case float64:
				got = OrDefault(key, fallback)
			case time.Duration:
				got = OrDefault(key, fallback)
			default:
				t.Fatalf("unsupported fallback %T", fallback)
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
		})
	}
}
