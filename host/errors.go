package host

import "errors"

var (
	// ErrUnknownSource is returned when looking up an unregistered source id.
	ErrUnknownSource = errors.New("host: unknown source")

	// ErrDuplicateSource is returned when registering an id twice.
	ErrDuplicateSource = errors.New("host: source already registered")

	// ErrNoTarget is returned when a filter draws without a render target.
	ErrNoTarget = errors.New("host: no render target")

	// ErrNotAttached is returned by chain operations that need an attached filter.
	ErrNotAttached = errors.New("host: no filter attached")

	// ErrFrameSize is returned when a frame does not match the chain size.
	ErrFrameSize = errors.New("host: frame size mismatch")

	// ErrClosed is returned after Chain.Close.
	ErrClosed = errors.New("host: chain closed")

	// ErrNotInFrame is returned by filter callbacks invoked outside RenderFrame.
	ErrNotInFrame = errors.New("host: not rendering a frame")
)

// ErrSettingsValue is returned when a settings file holds a value that is
// not a string, number or boolean.
var ErrSettingsValue = errors.New("host: unsupported settings value")
