package assert

import (
	"errors"
	"fmt"
)

var ErrMismatch = errors.New("screenshots differ")

// MismatchError is returned once the diff artifact has been stored and
// attached to the report.
type MismatchError struct {
	Message      string
	ArtifactPath string
	DiffPixels   int
	DimDiffer    bool
}

func (e *MismatchError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = ErrMismatch.Error()
	}
	if e.DimDiffer {
		return fmt.Sprintf("%s: %d pixels differ, dimensions differ (diff: %s)", msg, e.DiffPixels, e.ArtifactPath)
	}
	return fmt.Sprintf("%s: %d pixels differ (diff: %s)", msg, e.DiffPixels, e.ArtifactPath)
}

func (e *MismatchError) Is(target error) bool {
	return target == ErrMismatch
}
