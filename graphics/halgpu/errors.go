package halgpu

import "errors"

var (
	// ErrNilDevice is returned when New is given a nil device or queue.
	ErrNilDevice = errors.New("halgpu: nil device or queue")

	// ErrBackendNotAvailable is returned when the requested backend is not registered.
	ErrBackendNotAvailable = errors.New("halgpu: backend not available")

	// ErrNoAdapter is returned when a backend exposes no adapters.
	ErrNoAdapter = errors.New("halgpu: no adapter found")

	// ErrClosed is returned for calls on a closed device.
	ErrClosed = errors.New("halgpu: device closed")

	// ErrForeignResource is returned for textures or effects created by another device.
	ErrForeignResource = errors.New("halgpu: resource belongs to another device")

	// ErrReleased is returned when using a destroyed texture or effect.
	ErrReleased = errors.New("halgpu: resource already released")

	// ErrInvalidShader is returned when WGSL fails to parse, lower or validate.
	ErrInvalidShader = errors.New("halgpu: invalid shader")

	// ErrMissingEntryPoint is returned when an effect lacks vs_main or fs_main.
	ErrMissingEntryPoint = errors.New("halgpu: missing entry point")

	// ErrParamType is returned for a resource binding of an unsupported type.
	ErrParamType = errors.New("halgpu: unsupported parameter type")

	// ErrBindGroup is returned for resources outside bind group 0.
	ErrBindGroup = errors.New("halgpu: resources must use @group(0)")
)
