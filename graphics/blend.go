package graphics

// BlendFactor is a source or destination multiplier of a blend equation.
type BlendFactor uint8

// Blend factors.
const (
	BlendZero BlendFactor = iota
	BlendOne
	BlendSrcColor
	BlendInvSrcColor
	BlendSrcAlpha
	BlendInvSrcAlpha
	BlendDstColor
	BlendInvDstColor
	BlendDstAlpha
	BlendInvDstAlpha
)

var blendFactorNames = [...]string{
	BlendZero:        "Zero",
	BlendOne:         "One",
	BlendSrcColor:    "SrcColor",
	BlendInvSrcColor: "InvSrcColor",
	BlendSrcAlpha:    "SrcAlpha",
	BlendInvSrcAlpha: "InvSrcAlpha",
	BlendDstColor:    "DstColor",
	BlendInvDstColor: "InvDstColor",
	BlendDstAlpha:    "DstAlpha",
	BlendInvDstAlpha: "InvDstAlpha",
}

// String returns the factor name.
func (f BlendFactor) String() string {
	if int(f) < len(blendFactorNames) {
		return blendFactorNames[f]
	}
	return "Unknown"
}

// BlendState describes how a draw combines with the render target.
// Color and alpha channels carry separate factors; the operation is always add.
type BlendState struct {
	Enabled  bool
	SrcColor BlendFactor
	DstColor BlendFactor
	SrcAlpha BlendFactor
	DstAlpha BlendFactor
}

// DefaultBlendState returns the state a fresh context starts with:
// premultiplied source-over.
func DefaultBlendState() BlendState {
	return BlendState{
		Enabled:  true,
		SrcColor: BlendOne,
		DstColor: BlendInvSrcAlpha,
		SrcAlpha: BlendOne,
		DstAlpha: BlendInvSrcAlpha,
	}
}

// AlphaBlendState returns straight-alpha source-over
// (SrcAlpha / InvSrcAlpha on both channels).
func AlphaBlendState() BlendState {
	return BlendState{
		Enabled:  true,
		SrcColor: BlendSrcAlpha,
		DstColor: BlendInvSrcAlpha,
		SrcAlpha: BlendSrcAlpha,
		DstAlpha: BlendInvSrcAlpha,
	}
}
