package host

import (
	"golang.org/x/text/language"

	"github.com/gogpu/uvfilter/graphics"
)

// SourceType classifies a source.
type SourceType int

const (
	// TypeInput produces frames.
	TypeInput SourceType = iota
	// TypeFilter transforms the frames of another source.
	TypeFilter
)

// String returns the type name.
func (t SourceType) String() string {
	switch t {
	case TypeInput:
		return "input"
	case TypeFilter:
		return "filter"
	default:
		return "unknown"
	}
}

// OutputFlags describe what a source outputs.
type OutputFlags uint32

const (
	// OutputVideo marks a source producing video.
	OutputVideo OutputFlags = 1 << iota
	// OutputSRGB marks a source that renders in sRGB-aware mode.
	OutputSRGB
)

// Has reports whether all bits of flag are set.
func (f OutputFlags) Has(flag OutputFlags) bool { return f&flag == flag }

// RenderMode tells ProcessFilterBegin how the filter may read its input.
type RenderMode int

const (
	// AllowDirectRendering lets the host bind the parent's frame directly
	// instead of rendering it into an intermediate texture first.
	AllowDirectRendering RenderMode = iota
	// NoDirectRendering forces an intermediate texture.
	NoDirectRendering
)

// SourceInfo is the description and constructor of a source kind.
type SourceInfo interface {
	ID() string
	Type() SourceType
	OutputFlags() OutputFlags

	// Name returns the display name in the given language.
	Name(tag language.Tag) string

	// Defaults registers default values on s.
	Defaults(s *Settings)

	// Properties returns the editable settings schema. s holds the current
	// values and may be nil.
	Properties(s *Settings, tag language.Tag) *Properties

	// Create builds an instance from settings. Defaults have already been
	// registered on s.
	Create(s *Settings, fc FilterContext) (Instance, error)
}

// Instance is a live source created by [SourceInfo.Create].
//
// The host never calls Update and VideoRender concurrently for one instance.
type Instance interface {
	Update(s *Settings)
	VideoRender(scope *graphics.Scope)
	Destroy()
}

// FilterContext is the host side a filter instance renders through.
type FilterContext interface {
	// Graphics returns the graphics context the filter runs on.
	Graphics() *graphics.Context

	// Target returns the filter's render target, or nil when the filter
	// currently has nothing to render into.
	Target() graphics.Texture

	// ProcessFilterBegin prepares the input frame. It returns false when
	// the host has handled the frame itself and the filter must not draw.
	ProcessFilterBegin(scope *graphics.Scope, format graphics.ColorFormat, mode RenderMode) bool

	// ProcessFilterEnd binds the input frame to the effect's "image"
	// parameter and draws into the target. Zero width and height mean the
	// target size.
	ProcessFilterEnd(scope *graphics.Scope, effect graphics.Effect, width, height int) error

	// SkipVideoFilter passes the input frame through unchanged.
	SkipVideoFilter(scope *graphics.Scope)
}

// createInstance registers the source defaults on s, then creates it.
func createInstance(info SourceInfo, s *Settings, fc FilterContext) (Instance, error) {
	info.Defaults(s)
	inst, err := info.Create(s, fc)
	if err != nil {
		return nil, err
	}
	slogger().Debug("host: source created", "id", info.ID())
	return inst, nil
}
