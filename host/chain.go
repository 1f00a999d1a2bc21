package host

import (
	"errors"
	"fmt"
	"image"

	"github.com/gogpu/uvfilter/graphics"
)

// ChainStats counts frames by how they left the chain.
type ChainStats struct {
	Frames     int
	Drawn      int
	Skipped    int
	DrawErrors int
}

// Chain is a one-filter host. Each frame is uploaded into a source
// texture; the attached instance either draws into the output target or
// skips, in which case the source is copied through unchanged.
//
// Chain implements [FilterContext]. It is not safe for concurrent use.
type Chain struct {
	gfx    *graphics.Context
	width  int
	height int

	source graphics.Texture
	target graphics.Texture

	info SourceInfo
	inst Instance

	inFrame bool
	began   bool
	handled bool
	stats   ChainStats
	closed  bool
}

var _ FilterContext = (*Chain)(nil)

// NewChain allocates the source and output textures of a width x height chain.
func NewChain(gfx *graphics.Context, width, height int) (*Chain, error) {
	c := &Chain{gfx: gfx, width: width, height: height}
	err := gfx.Do(func(s *graphics.Scope) error {
		src, err := s.CreateTexture(graphics.TextureDescriptor{
			Label:  "chain_source",
			Width:  width,
			Height: height,
			Format: graphics.FormatRGBA,
		}, nil)
		if err != nil {
			return err
		}
		dst, err := s.CreateTexture(graphics.TextureDescriptor{
			Label:        "chain_target",
			Width:        width,
			Height:       height,
			Format:       graphics.FormatRGBA,
			RenderTarget: true,
		}, nil)
		if err != nil {
			return errors.Join(err, s.DestroyTexture(src))
		}
		c.source, c.target = src, dst
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create chain: %w", err)
	}
	return c, nil
}

// Size returns the frame size.
func (c *Chain) Size() (width, height int) { return c.width, c.height }

// Source returns the texture holding the current input frame.
func (c *Chain) Source() graphics.Texture { return c.source }

// Stats returns the frame counters.
func (c *Chain) Stats() ChainStats { return c.stats }

// Instance returns the attached instance, or nil.
func (c *Chain) Instance() Instance { return c.inst }

// Attach creates a filter from info and settings, replacing any attached one.
func (c *Chain) Attach(info SourceInfo, s *Settings) error {
	if c.closed {
		return ErrClosed
	}
	c.Detach()
	inst, err := createInstance(info, s, c)
	if err != nil {
		return fmt.Errorf("attach %s: %w", info.ID(), err)
	}
	c.info, c.inst = info, inst
	slogger().Info("host: filter attached", "id", info.ID(), "width", c.width, "height", c.height)
	return nil
}

// Update passes new settings to the attached filter.
func (c *Chain) Update(s *Settings) error {
	if c.inst == nil {
		return ErrNotAttached
	}
	c.inst.Update(s)
	return nil
}

// Detach destroys the attached filter, if any.
func (c *Chain) Detach() {
	if c.inst == nil {
		return
	}
	c.inst.Destroy()
	slogger().Debug("host: filter detached", "id", c.info.ID())
	c.inst, c.info = nil, nil
}

// RenderFrame runs one frame through the chain. Frames the filter neither
// draws nor skips are passed through.
func (c *Chain) RenderFrame(img *image.NRGBA) error {
	if c.closed {
		return ErrClosed
	}
	if img == nil {
		return graphics.ErrNilResource
	}
	if b := img.Bounds(); b.Dx() != c.width || b.Dy() != c.height {
		return fmt.Errorf("%w: %dx%d, want %dx%d", ErrFrameSize, b.Dx(), b.Dy(), c.width, c.height)
	}
	c.stats.Frames++

	return c.gfx.Do(func(s *graphics.Scope) error {
		if err := s.UpdateTextureFromImage(c.source, img); err != nil {
			return fmt.Errorf("upload frame: %w", err)
		}
		c.inFrame, c.began, c.handled = true, false, false
		defer func() { c.inFrame, c.began = false, false }()

		if c.inst != nil {
			c.inst.VideoRender(s)
		}
		if !c.handled {
			return c.passthrough(s)
		}
		return nil
	})
}

// Close destroys the attached filter and the chain textures.
func (c *Chain) Close() error {
	if c.closed {
		return nil
	}
	c.Detach()
	c.closed = true
	return c.gfx.Do(func(s *graphics.Scope) error {
		err := errors.Join(s.DestroyTexture(c.target), s.DestroyTexture(c.source))
		c.target, c.source = nil, nil
		return err
	})
}

// Graphics implements [FilterContext].
func (c *Chain) Graphics() *graphics.Context { return c.gfx }

// Target implements [FilterContext]. It returns nil once the chain is closed.
func (c *Chain) Target() graphics.Texture {
	if c.closed {
		return nil
	}
	return c.target
}

// ProcessFilterBegin implements [FilterContext]. The target is cleared to
// transparent so the filter never blends over the previous frame. If the
// clear fails the filter is refused and the frame passes through.
func (c *Chain) ProcessFilterBegin(scope *graphics.Scope, format graphics.ColorFormat, mode RenderMode) bool {
	if !c.inFrame || c.target == nil {
		return false
	}
	if err := scope.ClearTexture(c.target); err != nil {
		slogger().Warn("host: clear target failed", "err", err)
		return false
	}
	c.began = true
	slogger().Debug("host: filter begin", "format", format, "direct", mode == AllowDirectRendering)
	return true
}

// ProcessFilterEnd implements [FilterContext].
func (c *Chain) ProcessFilterEnd(scope *graphics.Scope, effect graphics.Effect, width, height int) error {
	if !c.inFrame || !c.began {
		return ErrNotInFrame
	}
	c.began = false
	if c.target == nil {
		return ErrNoTarget
	}
	if (width != 0 || height != 0) && (width != c.width || height != c.height) {
		return fmt.Errorf("%w: draw %dx%d into %dx%d", ErrFrameSize, width, height, c.width, c.height)
	}
	if effect != nil {
		effect.Param("image").SetTexture(c.source)
	}
	if err := scope.Draw(effect, c.target); err != nil {
		c.stats.DrawErrors++
		return fmt.Errorf("draw filter: %w", err)
	}
	c.handled = true
	c.stats.Drawn++
	return nil
}

// SkipVideoFilter implements [FilterContext].
func (c *Chain) SkipVideoFilter(scope *graphics.Scope) {
	if !c.inFrame {
		return
	}
	if err := c.passthrough(scope); err != nil {
		slogger().Warn("host: passthrough failed", "err", err)
	}
}

func (c *Chain) passthrough(scope *graphics.Scope) error {
	c.handled = true
	c.stats.Skipped++
	if err := scope.CopyTexture(c.target, c.source); err != nil {
		return fmt.Errorf("passthrough: %w", err)
	}
	return nil
}
