package graphics

import "github.com/gogpu/gpucontext"

// Texture is a GPU-resident image. It satisfies [gpucontext.Texture].
type Texture interface {
	gpucontext.Texture
}

// TextureDescriptor describes a texture to create.
type TextureDescriptor struct {
	Label  string
	Width  int
	Height int
	Format ColorFormat

	// RenderTarget allows the texture to be drawn into and copied to.
	RenderTarget bool
}

// Size returns the byte length of the full pixel data.
func (d TextureDescriptor) Size() int {
	return d.Width * d.Height * d.Format.BytesPerPixel()
}

// Device is the backend a [Context] drives. Callers never use a Device
// directly; every method is reached through a [Scope].
type Device interface {
	// CreateTexture allocates a texture. A nil pixels slice leaves the
	// contents undefined; otherwise it must hold desc.Size() bytes.
	CreateTexture(desc TextureDescriptor, pixels []byte) (Texture, error)

	// UpdateTexture replaces the full contents of a texture.
	UpdateTexture(t Texture, pixels []byte) error

	// DestroyTexture releases a texture created by this device.
	DestroyTexture(t Texture)

	// CreateEffect compiles an effect from source. name identifies the
	// effect in logs and labels.
	CreateEffect(name, source string) (Effect, error)

	// DestroyEffect releases an effect created by this device.
	DestroyEffect(e Effect)

	// Draw runs the effect over the full target with the given blend state.
	Draw(e Effect, target Texture, blend BlendState) error

	// ClearTexture sets every pixel of a render target to transparent black.
	ClearTexture(t Texture) error

	// CopyTexture copies src into dst. Both must have the same size.
	CopyTexture(dst, src Texture) error

	// Flush completes all submitted work and frees per-draw resources.
	Flush() error
}
