package halgpu

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	_ "github.com/gogpu/wgpu/hal/noop" // registers gputypes.BackendEmpty

	"github.com/gogpu/uvfilter/graphics"
)

// ErrNotRenderTarget is returned when drawing into a texture created
// without graphics.TextureDescriptor.RenderTarget.
var ErrNotRenderTarget = errors.New("halgpu: texture is not a render target")

// Option configures a Device.
type Option func(*options)

type options struct {
	label  string
	filter gputypes.FilterMode
	spirv  bool
}

func defaultOptions() options {
	return options{
		label:  "halgpu",
		filter: gputypes.FilterModeLinear,
	}
}

// WithLabel sets the prefix of debug labels.
func WithLabel(label string) Option {
	return func(o *options) {
		o.label = label
	}
}

// WithFilterMode sets the filter of the sampler bound to effect samplers.
func WithFilterMode(mode gputypes.FilterMode) Option {
	return func(o *options) {
		o.filter = mode
	}
}

// WithSPIRV makes effects hand SPIR-V generated by naga to the backend
// instead of WGSL source.
func WithSPIRV(enabled bool) Option {
	return func(o *options) {
		o.spirv = enabled
	}
}

// Stats counts device activity.
type Stats struct {
	Draws       int
	Clears      int
	Copies      int
	Submissions uint64
	Pending     int
	Flushes     int
}

// pendingWork holds per-submission resources released on Flush.
type pendingWork struct {
	cmdBuf    hal.CommandBuffer
	bindGroup hal.BindGroup
}

// Device implements graphics.Device on a HAL device and queue.
type Device struct {
	device hal.Device
	queue  hal.Queue
	opts   options

	sampler hal.Sampler
	blank   *Texture

	mu          sync.Mutex
	pending     []pendingWork
	draws       int
	clears      int
	copies      int
	submissions uint64
	flushes     int
	closed      bool

	// closer tears down what Open created. Nil for devices from New.
	closer func()
}

var _ graphics.Device = (*Device)(nil)

// New wraps an open HAL device. The caller keeps ownership of device and
// queue; Close releases only what New created.
func New(device hal.Device, queue hal.Queue, opts ...Option) (*Device, error) {
	if device == nil || queue == nil {
		return nil, ErrNilDevice
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	d := &Device{device: device, queue: queue, opts: o}

	sampler, err := device.CreateSampler(&hal.SamplerDescriptor{
		Label:        o.label + "_sampler",
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    o.filter,
		MinFilter:    o.filter,
		MipmapFilter: gputypes.FilterModeNearest,
	})
	if err != nil {
		return nil, fmt.Errorf("create sampler: %w", err)
	}
	d.sampler = sampler

	// Unset texture parameters sample a transparent pixel.
	blank, err := d.createTexture(graphics.TextureDescriptor{Label: o.label + "_blank", Width: 1, Height: 1})
	if err != nil {
		device.DestroySampler(sampler)
		return nil, err
	}
	if err := d.writeTexture(blank, make([]byte, 4)); err != nil {
		blank.release()
		device.DestroySampler(sampler)
		return nil, err
	}
	d.blank = blank
	return d, nil
}

// Open creates an instance of the given backend, opens its preferred
// adapter and wraps the device. Close destroys everything Open created.
func Open(variant gputypes.Backend, opts ...Option) (*Device, error) {
	backend, ok := hal.GetBackend(variant)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBackendNotAvailable, variant)
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, ErrNoAdapter
	}
	selected := &adapters[0]
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("open device: %w", err)
	}

	d, err := New(openDev.Device, openDev.Queue, opts...)
	if err != nil {
		openDev.Device.Destroy()
		instance.Destroy()
		return nil, err
	}
	d.closer = func() {
		openDev.Device.Destroy()
		instance.Destroy()
	}
	slogger().Info("halgpu: device opened", "backend", variant.String(), "adapter", selected.Info.Name)
	return d, nil
}

// OpenNoop opens the no-op backend.
func OpenNoop(opts ...Option) (*Device, error) {
	return Open(gputypes.BackendEmpty, opts...)
}

// Close flushes outstanding work and releases the device's own resources.
// Close is idempotent.
func (d *Device) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.mu.Unlock()

	err := d.Flush()

	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	if d.blank != nil {
		d.blank.release()
		d.blank = nil
	}
	if d.sampler != nil {
		d.device.DestroySampler(d.sampler)
		d.sampler = nil
	}
	if d.closer != nil {
		d.closer()
		d.closer = nil
	}
	return err
}

// Stats returns a snapshot of the device counters.
func (d *Device) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Stats{
		Draws:       d.draws,
		Clears:      d.clears,
		Copies:      d.copies,
		Submissions: d.submissions,
		Pending:     len(d.pending),
		Flushes:     d.flushes,
	}
}

func (d *Device) checkOpen() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	return nil
}

// CreateTexture implements graphics.Device.
func (d *Device) CreateTexture(desc graphics.TextureDescriptor, pixels []byte) (graphics.Texture, error) {
	if err := d.checkOpen(); err != nil {
		return nil, err
	}
	t, err := d.createTexture(desc)
	if err != nil {
		return nil, err
	}
	if pixels != nil {
		if err := d.writeTexture(t, pixels); err != nil {
			t.release()
			return nil, err
		}
	}
	return t, nil
}

// UpdateTexture implements graphics.Device.
func (d *Device) UpdateTexture(gt graphics.Texture, pixels []byte) error {
	t, err := d.ownTexture(gt)
	if err != nil {
		return err
	}
	return t.UpdateData(pixels)
}

// DestroyTexture implements graphics.Device.
func (d *Device) DestroyTexture(gt graphics.Texture) {
	if t, ok := gt.(*Texture); ok && t.dev == d {
		t.release()
	}
}

// CreateEffect implements graphics.Device.
func (d *Device) CreateEffect(name, source string) (graphics.Effect, error) {
	if err := d.checkOpen(); err != nil {
		return nil, err
	}
	e, err := d.createEffect(name, source)
	if err != nil {
		slogger().Warn("halgpu: effect rejected", "name", name, "err", err)
		return nil, err
	}
	return e, nil
}

// DestroyEffect implements graphics.Device.
func (d *Device) DestroyEffect(ge graphics.Effect) {
	if e, ok := ge.(*Effect); ok && e.dev == d {
		e.release()
	}
}

// Draw implements graphics.Device. It renders a fullscreen triangle with
// the effect into target, loading the target's existing contents.
func (d *Device) Draw(ge graphics.Effect, target graphics.Texture, blend graphics.BlendState) error {
	if err := d.checkOpen(); err != nil {
		return err
	}
	e, err := d.ownEffect(ge)
	if err != nil {
		return err
	}
	t, err := d.ownTexture(target)
	if err != nil {
		return err
	}
	if !t.renderTarget {
		return fmt.Errorf("%w: %s", ErrNotRenderTarget, t.label)
	}

	pipeline, err := e.pipeline(blend, toHALFormat(t.format))
	if err != nil {
		return err
	}
	if err := d.writeUniforms(e); err != nil {
		return err
	}
	entries, err := d.bindEntries(e)
	if err != nil {
		return err
	}
	bindGroup, err := d.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   e.name + "_bind_group",
		Layout:  e.bindLayout,
		Entries: entries,
	})
	if err != nil {
		return fmt.Errorf("create bind group: %w", err)
	}

	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: e.name + "_encoder"})
	if err != nil {
		d.device.DestroyBindGroup(bindGroup)
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding(e.name + "_draw"); err != nil {
		d.device.DestroyBindGroup(bindGroup)
		return fmt.Errorf("begin encoding: %w", err)
	}
	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: e.name + "_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:    t.view,
			LoadOp:  gputypes.LoadOpLoad,
			StoreOp: gputypes.StoreOpStore,
		}},
	})
	rp.SetPipeline(pipeline)
	rp.SetBindGroup(0, bindGroup, nil)
	rp.Draw(3, 1, 0, 0)
	rp.End()

	if err := d.submit(encoder, bindGroup); err != nil {
		return err
	}
	d.mu.Lock()
	d.draws++
	d.mu.Unlock()
	return nil
}

// ClearTexture implements graphics.Device with an empty render pass that
// clears the target.
func (d *Device) ClearTexture(target graphics.Texture) error {
	if err := d.checkOpen(); err != nil {
		return err
	}
	t, err := d.ownTexture(target)
	if err != nil {
		return err
	}
	if !t.renderTarget {
		return fmt.Errorf("%w: %s", ErrNotRenderTarget, t.label)
	}

	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: d.opts.label + "_clear"})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding(d.opts.label + "_clear"); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}
	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: t.label + "_clear",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       t.view,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: gputypes.Color{R: 0, G: 0, B: 0, A: 0},
		}},
	})
	rp.End()

	if err := d.submit(encoder, nil); err != nil {
		return err
	}
	d.mu.Lock()
	d.clears++
	d.mu.Unlock()
	return nil
}

// CopyTexture implements graphics.Device.
func (d *Device) CopyTexture(dst, src graphics.Texture) error {
	if err := d.checkOpen(); err != nil {
		return err
	}
	to, err := d.ownTexture(dst)
	if err != nil {
		return err
	}
	from, err := d.ownTexture(src)
	if err != nil {
		return err
	}

	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: d.opts.label + "_copy"})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding(d.opts.label + "_copy"); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}
	encoder.CopyTextureToTexture(from.tex, to.tex, []hal.TextureCopy{{
		SrcBase: hal.ImageCopyTexture{Texture: from.tex, Aspect: gputypes.TextureAspectAll},
		DstBase: hal.ImageCopyTexture{Texture: to.tex, Aspect: gputypes.TextureAspectAll},
		Size: hal.Extent3D{
			Width:              uint32(from.width),  //nolint:gosec // bounded by texture limits
			Height:             uint32(from.height), //nolint:gosec // bounded by texture limits
			DepthOrArrayLayers: 1,
		},
	}})

	if err := d.submit(encoder, nil); err != nil {
		return err
	}
	d.mu.Lock()
	d.copies++
	d.mu.Unlock()
	return nil
}

// Flush waits for the device to go idle and releases per-draw resources.
func (d *Device) Flush() error {
	if err := d.checkOpen(); err != nil {
		return err
	}
	d.mu.Lock()
	pending := d.pending
	d.pending = nil
	d.flushes++
	d.mu.Unlock()

	if len(pending) == 0 {
		return nil
	}
	err := d.device.WaitIdle()
	if err != nil {
		err = fmt.Errorf("wait idle: %w", err)
	}
	for _, w := range pending {
		if w.bindGroup != nil {
			d.device.DestroyBindGroup(w.bindGroup)
		}
		if w.cmdBuf != nil {
			d.device.FreeCommandBuffer(w.cmdBuf)
		}
	}
	slogger().Debug("halgpu: flushed", "released", len(pending))
	return err
}

// submit ends encoding and submits; bindGroup, if any, is released with
// the command buffer on the next Flush.
func (d *Device) submit(encoder hal.CommandEncoder, bindGroup hal.BindGroup) error {
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		if bindGroup != nil {
			d.device.DestroyBindGroup(bindGroup)
		}
		return fmt.Errorf("end encoding: %w", err)
	}
	index, err := d.queue.Submit([]hal.CommandBuffer{cmdBuf})
	d.mu.Lock()
	d.pending = append(d.pending, pendingWork{cmdBuf: cmdBuf, bindGroup: bindGroup})
	if err == nil {
		d.submissions = index
	}
	d.mu.Unlock()
	if err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	return nil
}

// writeUniforms uploads every float parameter to its buffer.
func (d *Device) writeUniforms(e *Effect) error {
	var data [uniformSize]byte
	for p, buf := range e.uniforms {
		binary.LittleEndian.PutUint32(data[:4], math.Float32bits(p.Float()))
		if err := d.queue.WriteBuffer(buf, 0, data[:]); err != nil {
			return fmt.Errorf("write uniform %s: %w", p.Name(), err)
		}
	}
	return nil
}

// bindEntries builds bind group entries from the current parameter values.
func (d *Device) bindEntries(e *Effect) ([]gputypes.BindGroupEntry, error) {
	entries := make([]gputypes.BindGroupEntry, 0, len(e.params))
	for _, p := range e.params {
		_, binding := p.Binding()
		var res gputypes.BindingResource
		switch p.Kind() {
		case graphics.ParamTexture:
			t := d.blank
			if p.IsSet() {
				own, err := d.ownTexture(p.Texture())
				if err != nil {
					return nil, fmt.Errorf("param %s: %w", p.Name(), err)
				}
				t = own
			}
			res = gputypes.TextureViewBinding{TextureView: t.view.NativeHandle()}
		case graphics.ParamSampler:
			res = gputypes.SamplerBinding{Sampler: d.sampler.NativeHandle()}
		case graphics.ParamFloat:
			res = gputypes.BufferBinding{Buffer: e.uniforms[p].NativeHandle(), Offset: 0, Size: uniformSize}
		default:
			return nil, fmt.Errorf("%w: %s", ErrParamType, p.Name())
		}
		entries = append(entries, gputypes.BindGroupEntry{Binding: binding, Resource: res})
	}
	return entries, nil
}

func (d *Device) ownTexture(gt graphics.Texture) (*Texture, error) {
	t, ok := gt.(*Texture)
	if !ok || t == nil || t.dev != d {
		return nil, ErrForeignResource
	}
	if t.released.Load() {
		return nil, ErrReleased
	}
	return t, nil
}

func (d *Device) ownEffect(ge graphics.Effect) (*Effect, error) {
	e, ok := ge.(*Effect)
	if !ok || e == nil || e.dev != d {
		return nil, ErrForeignResource
	}
	if e.released.Load() {
		return nil, ErrReleased
	}
	return e, nil
}
