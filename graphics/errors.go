package graphics

import "errors"

// Scope errors.
var (
	// ErrScopeClosed is returned when a scope is used after Leave.
	ErrScopeClosed = errors.New("graphics: scope already left")

	// ErrScopeDepth is returned when entering would nest more than MaxScopeDepth scopes.
	ErrScopeDepth = errors.New("graphics: scope nesting too deep")

	// ErrScopeOrder is returned when a scope is left while an inner scope is still open.
	ErrScopeOrder = errors.New("graphics: scope left out of order")
)

// Resource errors.
var (
	// ErrUnknownTexture is returned when destroying a texture this context does not own.
	ErrUnknownTexture = errors.New("graphics: unknown texture")

	// ErrUnknownEffect is returned when destroying an effect this context does not own.
	ErrUnknownEffect = errors.New("graphics: unknown effect")

	// ErrNilResource is returned when a draw or copy is given a nil effect or texture.
	ErrNilResource = errors.New("graphics: nil resource")

	// ErrBlendUnderflow is returned by PopBlendState when the stack is empty.
	ErrBlendUnderflow = errors.New("graphics: blend state stack underflow")

	// ErrInvalidSize is returned for textures with a non-positive dimension
	// or pixel data of the wrong length.
	ErrInvalidSize = errors.New("graphics: invalid texture size")
)
