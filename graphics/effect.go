package graphics

// ParamKind is the type of value an effect parameter accepts.
type ParamKind uint8

const (
	// ParamUnknown marks a parameter the host cannot set.
	ParamUnknown ParamKind = iota

	// ParamTexture is a sampled 2D texture.
	ParamTexture

	// ParamSampler is a sampler bound by the backend.
	ParamSampler

	// ParamFloat is a 32-bit float.
	ParamFloat
)

// String returns the kind name.
func (k ParamKind) String() string {
	switch k {
	case ParamTexture:
		return "texture"
	case ParamSampler:
		return "sampler"
	case ParamFloat:
		return "float"
	default:
		return "unknown"
	}
}

// Effect is a compiled shader program with named parameters.
type Effect interface {
	// Name returns the identifier the effect was created from.
	Name() string

	// Param returns the named parameter or nil if the effect has none.
	Param(name string) *Param

	// Params returns all parameters in binding order.
	Params() []*Param
}

// Param is one named input of an effect. Values persist until changed.
//
// All setters are no-ops on a nil Param or when the value kind does not
// match the parameter kind.
type Param struct {
	name    string
	kind    ParamKind
	group   uint32
	binding uint32

	texture Texture
	value   float32
	set     bool
}

// NewParam creates a parameter description. Backends call this while
// reflecting an effect.
func NewParam(name string, kind ParamKind, group, binding uint32) *Param {
	return &Param{name: name, kind: kind, group: group, binding: binding}
}

// Name returns the parameter name.
func (p *Param) Name() string { return p.name }

// Kind returns the parameter kind.
func (p *Param) Kind() ParamKind { return p.kind }

// Binding returns the bind group and binding index.
func (p *Param) Binding() (group, binding uint32) { return p.group, p.binding }

// SetTexture sets the texture value.
func (p *Param) SetTexture(t Texture) {
	if p == nil || p.kind != ParamTexture {
		return
	}
	p.texture = t
	p.set = t != nil
}

// SetFloat sets the float value.
func (p *Param) SetFloat(v float32) {
	if p == nil || p.kind != ParamFloat {
		return
	}
	p.value = v
	p.set = true
}

// Texture returns the current texture value.
func (p *Param) Texture() Texture {
	if p == nil {
		return nil
	}
	return p.texture
}

// Float returns the current float value.
func (p *Param) Float() float32 {
	if p == nil {
		return 0
	}
	return p.value
}

// IsSet reports whether a value has been assigned.
func (p *Param) IsSet() bool { return p != nil && p.set }

// Reset clears the value.
func (p *Param) Reset() {
	if p == nil {
		return
	}
	p.texture = nil
	p.value = 0
	p.set = false
}
