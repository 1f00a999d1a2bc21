package uvfilter

import (
	"golang.org/x/text/language"

	"github.com/gogpu/uvfilter/graphics"
	"github.com/gogpu/uvfilter/host"
	"github.com/gogpu/uvfilter/internal/locale"
)

// Identity of the filter and its module.
const (
	SourceID   = "uv_filter"
	ModuleName = "rgb-to-uv"
)

// Filter describes the uv filter source. It implements [host.SourceInfo].
type Filter struct {
	opts []Option
	lang language.Tag
}

var _ host.SourceInfo = (*Filter)(nil)

// NewFilter returns the filter description. opts apply to every instance.
func NewFilter(opts ...Option) *Filter {
	return &Filter{opts: opts, lang: newOptions(opts).lang}
}

// Register adds the filter to m.
func Register(m *host.Module, opts ...Option) error {
	return m.RegisterSource(NewFilter(opts...))
}

// ID returns [SourceID].
func (f *Filter) ID() string { return SourceID }

// Type returns [host.TypeFilter].
func (f *Filter) Type() host.SourceType { return host.TypeFilter }

// OutputFlags returns video output rendered in sRGB-aware mode.
func (f *Filter) OutputFlags() host.OutputFlags { return host.OutputVideo | host.OutputSRGB }

// Name returns the localized display name.
func (f *Filter) Name(tag language.Tag) string {
	return locale.Text(f.language(tag), locale.FilterName)
}

// Defaults registers the setting defaults on s.
func (f *Filter) Defaults(s *host.Settings) { Defaults(s) }

// Properties returns the localized settings schema. Path pickers open in
// the directory of the current value.
func (f *Filter) Properties(s *host.Settings, tag language.Tag) *host.Properties {
	return properties(s, f.language(tag))
}

// Create builds an instance and applies the initial configuration.
// Load and compile failures are logged, not returned.
func (f *Filter) Create(s *host.Settings, fc host.FilterContext) (host.Instance, error) {
	if fc == nil {
		return nil, ErrNilFilterContext
	}
	state := NewFilterState(fc.Graphics(), f.opts...)
	inst := &Instance{
		state:    state,
		renderer: renderer{state: state, fc: fc},
	}
	inst.Update(s)
	return inst, nil
}

func (f *Filter) language(tag language.Tag) language.Tag {
	if tag == language.Und {
		return f.lang
	}
	return tag
}

// Instance is one live uv filter. It implements [host.Instance].
type Instance struct {
	state     *FilterState
	renderer  renderer
	destroyed bool
}

var _ host.Instance = (*Instance)(nil)

// State returns the filter state.
func (i *Instance) State() *FilterState { return i.state }

// Update applies the configuration in s.
func (i *Instance) Update(s *host.Settings) {
	if i.destroyed {
		return
	}
	if err := i.state.ApplyConfiguration(ConfigFromSettings(s)); err != nil {
		slogger().Warn("uvfilter: configuration partially applied", "err", err)
	}
}

// VideoRender implements [host.Instance].
func (i *Instance) VideoRender(scope *graphics.Scope) {
	i.Render(scope)
}

// Render draws one frame and reports whether the effect ran.
func (i *Instance) Render(scope *graphics.Scope) RenderState {
	if i.destroyed {
		i.renderer.fc.SkipVideoFilter(scope)
		return RenderSkip
	}
	return i.renderer.render(scope)
}

// Destroy releases every GPU resource. Later calls are no-ops.
func (i *Instance) Destroy() {
	if i.destroyed {
		return
	}
	i.destroyed = true
	if err := i.state.Destroy(); err != nil {
		slogger().Warn("uvfilter: destroy", "err", err)
	}
}
