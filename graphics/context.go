package graphics

import (
	"errors"
	"fmt"
	"image"
	"sync"
)

// MaxScopeDepth is the deepest allowed scope nesting.
const MaxScopeDepth = 2

// Stats counts live resources and scope activity of a [Context].
type Stats struct {
	Textures int
	Effects  int
	Scopes   int
	Flushes  int
}

// Context is a handle to a graphics device with scoped acquisition.
//
// Context does not serialize callers. The host is expected to drive a
// context from one thread at a time; the internal mutex only keeps the
// bookkeeping consistent.
type Context struct {
	dev Device

	mu       sync.Mutex
	depth    int
	textures map[Texture]struct{}
	effects  map[Effect]struct{}
	blend    BlendState
	stack    []BlendState
	scopes   int
	flushes  int
}

// NewContext creates a context driving dev.
func NewContext(dev Device) *Context {
	return &Context{
		dev:      dev,
		textures: make(map[Texture]struct{}),
		effects:  make(map[Effect]struct{}),
		blend:    DefaultBlendState(),
	}
}

// Device returns the underlying device.
func (c *Context) Device() Device { return c.dev }

// Enter acquires a scope. If a scope is already open the new one nests
// inside it; nesting deeper than [MaxScopeDepth] fails with [ErrScopeDepth].
func (c *Context) Enter() (*Scope, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.depth >= MaxScopeDepth {
		return nil, ErrScopeDepth
	}
	c.depth++
	c.scopes++
	return &Scope{ctx: c, depth: c.depth}, nil
}

// Do runs fn inside a scope. The scope is left on every path, including
// when fn fails; a flush error is joined with fn's error.
func (c *Context) Do(fn func(s *Scope) error) (err error) {
	s, err := c.Enter()
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, s.Leave())
	}()
	return fn(s)
}

// Depth returns the number of open scopes.
func (c *Context) Depth() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.depth
}

// Stats returns a snapshot of the context counters.
func (c *Context) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Textures: len(c.textures),
		Effects:  len(c.effects),
		Scopes:   c.scopes,
		Flushes:  c.flushes,
	}
}

// BlendState returns the current blend state.
func (c *Context) BlendState() BlendState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.blend
}

// BlendDepth returns the number of pushed blend states.
func (c *Context) BlendDepth() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.stack)
}

// Scope is one acquisition of a [Context]. It is valid until Leave.
type Scope struct {
	ctx   *Context
	depth int
	left  bool
}

// Context returns the context this scope belongs to.
func (s *Scope) Context() *Context { return s.ctx }

// Enter opens a scope nested inside s.
func (s *Scope) Enter() (*Scope, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	return s.ctx.Enter()
}

// Leave releases the scope. Leaving the outermost scope flushes the device
// and returns the flush error. Calling Leave twice is a no-op.
func (s *Scope) Leave() error {
	c := s.ctx
	c.mu.Lock()
	if s.left {
		c.mu.Unlock()
		return nil
	}
	if c.depth != s.depth {
		c.mu.Unlock()
		return ErrScopeOrder
	}
	s.left = true
	c.depth--
	outermost := c.depth == 0
	if outermost {
		c.flushes++
	}
	c.mu.Unlock()

	if !outermost {
		return nil
	}
	if err := c.dev.Flush(); err != nil {
		slogger().Warn("graphics: flush failed", "err", err)
		return fmt.Errorf("flush: %w", err)
	}
	return nil
}

func (s *Scope) check() error {
	s.ctx.mu.Lock()
	defer s.ctx.mu.Unlock()
	if s.left {
		return ErrScopeClosed
	}
	return nil
}

// CreateTexture allocates a texture on the device.
func (s *Scope) CreateTexture(desc TextureDescriptor, pixels []byte) (Texture, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	if desc.Width <= 0 || desc.Height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, desc.Width, desc.Height)
	}
	if pixels != nil && len(pixels) != desc.Size() {
		return nil, fmt.Errorf("%w: %d bytes for %dx%d", ErrInvalidSize, len(pixels), desc.Width, desc.Height)
	}
	t, err := s.ctx.dev.CreateTexture(desc, pixels)
	if err != nil {
		return nil, fmt.Errorf("create texture %q: %w", desc.Label, err)
	}
	s.ctx.mu.Lock()
	s.ctx.textures[t] = struct{}{}
	s.ctx.mu.Unlock()
	slogger().Debug("graphics: texture created", "label", desc.Label, "width", desc.Width, "height", desc.Height)
	return t, nil
}

// CreateTextureFromImage uploads img as an RGBA texture.
func (s *Scope) CreateTextureFromImage(img *image.NRGBA, label string) (Texture, error) {
	if img == nil {
		return nil, ErrNilResource
	}
	b := img.Bounds()
	desc := TextureDescriptor{
		Label:  label,
		Width:  b.Dx(),
		Height: b.Dy(),
		Format: FormatRGBA,
	}
	return s.CreateTexture(desc, packedPixels(img))
}

// UpdateTexture replaces the contents of t.
func (s *Scope) UpdateTexture(t Texture, pixels []byte) error {
	if err := s.check(); err != nil {
		return err
	}
	if t == nil {
		return ErrNilResource
	}
	if !s.ownsTexture(t) {
		return ErrUnknownTexture
	}
	if len(pixels) != t.Width()*t.Height()*4 {
		return fmt.Errorf("%w: %d bytes for %dx%d", ErrInvalidSize, len(pixels), t.Width(), t.Height())
	}
	return s.ctx.dev.UpdateTexture(t, pixels)
}

// UpdateTextureFromImage replaces the contents of t with img, which must
// match the texture size.
func (s *Scope) UpdateTextureFromImage(t Texture, img *image.NRGBA) error {
	if img == nil {
		return ErrNilResource
	}
	return s.UpdateTexture(t, packedPixels(img))
}

// DestroyTexture releases t. A nil texture is a no-op.
func (s *Scope) DestroyTexture(t Texture) error {
	if t == nil {
		return nil
	}
	if err := s.check(); err != nil {
		return err
	}
	s.ctx.mu.Lock()
	if _, ok := s.ctx.textures[t]; !ok {
		s.ctx.mu.Unlock()
		return ErrUnknownTexture
	}
	delete(s.ctx.textures, t)
	s.ctx.mu.Unlock()
	s.ctx.dev.DestroyTexture(t)
	return nil
}

// CreateEffect compiles an effect on the device.
func (s *Scope) CreateEffect(name, source string) (Effect, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	e, err := s.ctx.dev.CreateEffect(name, source)
	if err != nil {
		return nil, fmt.Errorf("create effect %q: %w", name, err)
	}
	s.ctx.mu.Lock()
	s.ctx.effects[e] = struct{}{}
	s.ctx.mu.Unlock()
	slogger().Debug("graphics: effect created", "name", name, "params", len(e.Params()))
	return e, nil
}

// DestroyEffect releases e. A nil effect is a no-op.
func (s *Scope) DestroyEffect(e Effect) error {
	if e == nil {
		return nil
	}
	if err := s.check(); err != nil {
		return err
	}
	s.ctx.mu.Lock()
	if _, ok := s.ctx.effects[e]; !ok {
		s.ctx.mu.Unlock()
		return ErrUnknownEffect
	}
	delete(s.ctx.effects, e)
	s.ctx.mu.Unlock()
	s.ctx.dev.DestroyEffect(e)
	return nil
}

// Draw runs e over target using the current blend state.
func (s *Scope) Draw(e Effect, target Texture) error {
	if err := s.check(); err != nil {
		return err
	}
	if e == nil || target == nil {
		return ErrNilResource
	}
	return s.ctx.dev.Draw(e, target, s.ctx.BlendState())
}

// ClearTexture clears t to transparent black.
func (s *Scope) ClearTexture(t Texture) error {
	if err := s.check(); err != nil {
		return err
	}
	if t == nil {
		return ErrNilResource
	}
	if !s.ownsTexture(t) {
		return ErrUnknownTexture
	}
	return s.ctx.dev.ClearTexture(t)
}

// CopyTexture copies src into dst.
func (s *Scope) CopyTexture(dst, src Texture) error {
	if err := s.check(); err != nil {
		return err
	}
	if dst == nil || src == nil {
		return ErrNilResource
	}
	if dst.Width() != src.Width() || dst.Height() != src.Height() {
		return fmt.Errorf("%w: copy %dx%d into %dx%d", ErrInvalidSize,
			src.Width(), src.Height(), dst.Width(), dst.Height())
	}
	return s.ctx.dev.CopyTexture(dst, src)
}

// PushBlendState saves the current blend state.
func (s *Scope) PushBlendState() error {
	c := s.ctx
	c.mu.Lock()
	defer c.mu.Unlock()
	if s.left {
		return ErrScopeClosed
	}
	c.stack = append(c.stack, c.blend)
	return nil
}

// PopBlendState restores the most recently pushed blend state.
func (s *Scope) PopBlendState() error {
	c := s.ctx
	c.mu.Lock()
	defer c.mu.Unlock()
	if s.left {
		return ErrScopeClosed
	}
	n := len(c.stack)
	if n == 0 {
		return ErrBlendUnderflow
	}
	c.blend = c.stack[n-1]
	c.stack = c.stack[:n-1]
	return nil
}

// BlendFunction enables blending with the same factors for color and alpha.
func (s *Scope) BlendFunction(src, dst BlendFactor) error {
	return s.BlendFunctionSeparate(src, dst, src, dst)
}

// BlendFunctionSeparate enables blending with separate color and alpha factors.
func (s *Scope) BlendFunctionSeparate(srcColor, dstColor, srcAlpha, dstAlpha BlendFactor) error {
	c := s.ctx
	c.mu.Lock()
	defer c.mu.Unlock()
	if s.left {
		return ErrScopeClosed
	}
	c.blend = BlendState{
		Enabled:  true,
		SrcColor: srcColor,
		DstColor: dstColor,
		SrcAlpha: srcAlpha,
		DstAlpha: dstAlpha,
	}
	return nil
}

// EnableBlending turns blending on or off without changing the factors.
func (s *Scope) EnableBlending(enabled bool) error {
	c := s.ctx
	c.mu.Lock()
	defer c.mu.Unlock()
	if s.left {
		return ErrScopeClosed
	}
	c.blend.Enabled = enabled
	return nil
}

func (s *Scope) ownsTexture(t Texture) bool {
	s.ctx.mu.Lock()
	defer s.ctx.mu.Unlock()
	_, ok := s.ctx.textures[t]
	return ok
}

// packedPixels returns img's pixels without row padding.
func packedPixels(img *image.NRGBA) []byte {
	b := img.Bounds()
	rowLen := b.Dx() * 4
	if img.Stride == rowLen && len(img.Pix) == rowLen*b.Dy() {
		return img.Pix
	}
	out := make([]byte, 0, rowLen*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		off := img.PixOffset(b.Min.X, y)
		out = append(out, img.Pix[off:off+rowLen]...)
	}
	return out
}
