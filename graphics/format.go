package graphics

// ColorFormat is the pixel layout of a texture.
type ColorFormat uint8

const (
	// FormatRGBA is 8-bit RGBA with straight alpha.
	FormatRGBA ColorFormat = iota

	// FormatBGRA is 8-bit BGRA with straight alpha.
	FormatBGRA
)

// String returns the format name.
func (f ColorFormat) String() string {
	switch f {
	case FormatRGBA:
		return "RGBA"
	case FormatBGRA:
		return "BGRA"
	default:
		return "Unknown"
	}
}

// BytesPerPixel returns the size of one pixel in bytes.
func (f ColorFormat) BytesPerPixel() int {
	return 4
}
