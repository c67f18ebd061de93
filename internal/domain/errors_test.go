package domain

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestSentinelErrors(t *testing.T) {
	sentinels := []error{
		ErrAlreadyRunning,
		ErrNotRunning,
		ErrShutdownTimeout,
		ErrInvalidConfig,
		ErrTransportClosed,
		ErrSinkUnavailable,
	}

	for i, err := range sentinels {
		if !strings.HasPrefix(err.Error(), "cuffstream: ") {
			t.Errorf("%v: missing module prefix", err)
		}
		// Each sentinel must survive wrapping and stay distinct.
		wrapped := fmt.Errorf("context: %w", err)
		if !errors.Is(wrapped, err) {
			t.Errorf("%v: not matched through wrap", err)
		}
		for j, other := range sentinels {
			if i != j && errors.Is(err, other) {
				t.Errorf("%v matches %v", err, other)
			}
		}
	}
}
