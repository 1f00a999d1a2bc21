package halgpu

import (
	"fmt"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/uvfilter/graphics"
)

// sampledUsage is the usage of every texture: uploadable, sampleable, copyable.
const sampledUsage = gputypes.TextureUsageCopySrc | gputypes.TextureUsageCopyDst | gputypes.TextureUsageTextureBinding

// Texture is a HAL texture with its default view.
// It implements graphics.Texture and gpucontext.TextureUpdater.
type Texture struct {
	dev *Device

	tex  hal.Texture
	view hal.TextureView

	width        int
	height       int
	format       graphics.ColorFormat
	renderTarget bool
	label        string

	released atomic.Bool
}

// Width returns the texture width in pixels.
func (t *Texture) Width() int { return t.width }

// Height returns the texture height in pixels.
func (t *Texture) Height() int { return t.height }

// Format returns the pixel format.
func (t *Texture) Format() graphics.ColorFormat { return t.format }

// Label returns the debug label.
func (t *Texture) Label() string { return t.label }

// IsReleased reports whether the texture has been destroyed.
func (t *Texture) IsReleased() bool { return t.released.Load() }

// SizeBytes returns the size of the pixel data in bytes.
func (t *Texture) SizeBytes() int { return t.width * t.height * t.format.BytesPerPixel() }

// UpdateData uploads a full frame of pixel data.
func (t *Texture) UpdateData(data []byte) error {
	if t.released.Load() {
		return ErrReleased
	}
	if len(data) != t.SizeBytes() {
		return fmt.Errorf("%w: %d bytes for %dx%d", graphics.ErrInvalidSize, len(data), t.width, t.height)
	}
	return t.dev.writeTexture(t, data)
}

// String returns a string representation of the texture.
func (t *Texture) String() string {
	status := "active"
	if t.released.Load() {
		status = "released"
	}
	return fmt.Sprintf("Texture[%s %dx%d %s %s]", t.label, t.width, t.height, t.format, status)
}

// toHALFormat converts a color format to its 8-bit unorm texture format.
func toHALFormat(f graphics.ColorFormat) gputypes.TextureFormat {
	switch f {
	case graphics.FormatBGRA:
		return gputypes.TextureFormatBGRA8Unorm
	default:
		return gputypes.TextureFormatRGBA8Unorm
	}
}

func (d *Device) createTexture(desc graphics.TextureDescriptor) (*Texture, error) {
	usage := sampledUsage
	if desc.RenderTarget {
		usage |= gputypes.TextureUsageRenderAttachment
	}
	format := toHALFormat(desc.Format)

	tex, err := d.device.CreateTexture(&hal.TextureDescriptor{
		Label: desc.Label,
		Size: hal.Extent3D{
			Width:              uint32(desc.Width),  //nolint:gosec // validated positive by graphics.Scope
			Height:             uint32(desc.Height), //nolint:gosec // validated positive by graphics.Scope
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        format,
		Usage:         usage,
	})
	if err != nil {
		return nil, fmt.Errorf("create texture: %w", err)
	}

	view, err := d.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         desc.Label + "_view",
		Format:        format,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		d.device.DestroyTexture(tex)
		return nil, fmt.Errorf("create texture view: %w", err)
	}

	return &Texture{
		dev:          d,
		tex:          tex,
		view:         view,
		width:        desc.Width,
		height:       desc.Height,
		format:       desc.Format,
		renderTarget: desc.RenderTarget,
		label:        desc.Label,
	}, nil
}

func (d *Device) writeTexture(t *Texture, data []byte) error {
	if err := d.queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: t.tex, MipLevel: 0, Aspect: gputypes.TextureAspectAll},
		data,
		&hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(t.width * t.format.BytesPerPixel()), //nolint:gosec // bounded by texture limits
			RowsPerImage: uint32(t.height),                           //nolint:gosec // bounded by texture limits
		},
		&hal.Extent3D{Width: uint32(t.width), Height: uint32(t.height), DepthOrArrayLayers: 1}, //nolint:gosec // bounded by texture limits
	); err != nil {
		return fmt.Errorf("write texture %q: %w", t.label, err)
	}
	return nil
}

// release destroys the view and texture in reverse creation order.
func (t *Texture) release() {
	if t.released.Swap(true) {
		return
	}
	if t.view != nil {
		t.dev.device.DestroyTextureView(t.view)
		t.view = nil
	}
	if t.tex != nil {
		t.dev.device.DestroyTexture(t.tex)
		t.tex = nil
	}
}
