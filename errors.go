package uvfilter

import "errors"

var (
	// ErrNilFilterContext is returned by Create without a filter context.
	ErrNilFilterContext = errors.New("uvfilter: nil filter context")

	// ErrDrawPanic wraps a panic recovered from a draw.
	ErrDrawPanic = errors.New("uvfilter: draw panicked")
)
