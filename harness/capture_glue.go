package harness

import (
	"github.com/testforge/subreport/capture"
)

// outputEnder abstracts the output collector so the runner works identically
// whether capture is active or not.
type outputEnder interface {
	End() (capture.Captured, error)
}

type noCapture struct{}

func (noCapture) End() (capture.Captured, error) { return capture.Captured{}, nil }
