package uvfilter

import (
	"errors"
	"fmt"

	"github.com/gogpu/uvfilter/graphics"
	"github.com/gogpu/uvfilter/host"
)

// Effect parameter names.
const (
	paramTextureA   = "texture_a"
	paramTextureB   = "texture_b"
	paramLighting   = "lighting"
	paramResolution = "resolution"
)

// RenderState is the outcome of one render call.
type RenderState int

const (
	// RenderSkip means the frame was passed through or left to the host.
	RenderSkip RenderState = iota
	// RenderReady means the effect was bound and drawn.
	RenderReady
)

// String returns the state name.
func (s RenderState) String() string {
	switch s {
	case RenderSkip:
		return "skip"
	case RenderReady:
		return "ready"
	default:
		return fmt.Sprintf("RenderState(%d)", int(s))
	}
}

// renderer draws a filter state through its filter context.
type renderer struct {
	state *FilterState
	fc    host.FilterContext
}

func (r *renderer) render(scope *graphics.Scope) RenderState {
	st := r.state
	if r.fc.Target() == nil || !st.images.loaded() || !st.program.loaded() {
		r.fc.SkipVideoFilter(scope)
		return RenderSkip
	}
	if !r.fc.ProcessFilterBegin(scope, graphics.FormatRGBA, host.AllowDirectRendering) {
		return RenderSkip
	}

	fx := st.program.effect
	fx.Param(paramTextureA).SetTexture(st.images.a.texture)
	fx.Param(paramTextureB).SetTexture(st.images.b.texture)
	fx.Param(paramLighting).SetFloat(st.lighting)
	fx.Param(paramResolution).SetFloat(st.resolution)

	if err := r.draw(scope, fx); err != nil {
		slogger().Warn("uvfilter: draw failed", "effect", fx.Name(), "err", err)
	}
	return RenderReady
}

// draw runs the effect with straight-alpha blending. The blend state is
// restored on every path.
func (r *renderer) draw(scope *graphics.Scope, fx graphics.Effect) (err error) {
	if err := scope.PushBlendState(); err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", ErrDrawPanic, p)
		}
		err = errors.Join(err, scope.PopBlendState())
	}()
	if err := scope.BlendFunction(graphics.BlendSrcAlpha, graphics.BlendInvSrcAlpha); err != nil {
		return err
	}
	return r.fc.ProcessFilterEnd(scope, fx, 0, 0)
}
