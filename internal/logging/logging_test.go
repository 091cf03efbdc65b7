package logging

import (
	"testing"
)

func TestNew(t *testing.T) {
	t.Run("Default", func(t *testing.T) {
		logger, err := New()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		Logr(logger).Info("bridged")
	})

	t.Run("Level", func(t *testing.T) {
		t.Setenv("GO_LOG", "debug")
		logger, err := New()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !logger.Handler().Enabled(t.Context(), -4) {
			t.Errorf("Expected debug to be enabled")
		}
	})

	t.Run("InvalidLevel", func(t *testing.T) {
		t.Setenv("GO_LOG", "loud")
		if _, err := New(); err == nil {
			t.Errorf("Expected error")
		}
	})
}
