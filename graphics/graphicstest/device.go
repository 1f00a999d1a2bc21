// Package graphicstest provides an in-memory [graphics.Device] for tests.
//
// The device keeps texture pixels on the CPU, records every draw together
// with the parameter values bound at the time, and lets tests inject
// failures into texture creation, effect compilation and drawing.
package graphicstest

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/gogpu/uvfilter/graphics"
)

// ErrCompile is returned for effect sources that contain "#error" or are blank.
var ErrCompile = errors.New("graphicstest: compile failed")

// ErrDraw is the error returned by Draw when FailDraw is set.
var ErrDraw = errors.New("graphicstest: draw failed")

// ErrClear is the error returned by ClearTexture when FailClear is set.
var ErrClear = errors.New("graphicstest: clear failed")

// Texture is a CPU-backed texture.
type Texture struct {
	ID           int
	Label        string
	W, H         int
	Format       graphics.ColorFormat
	RenderTarget bool
	Pixels       []byte
	Destroyed    bool
}

// Width returns the texture width.
func (t *Texture) Width() int { return t.W }

// Height returns the texture height.
func (t *Texture) Height() int { return t.H }

// Effect is a fake compiled effect.
type Effect struct {
	ID        int
	name      string
	Source    string
	params    []*graphics.Param
	Destroyed bool
}

// Name returns the effect name.
func (e *Effect) Name() string { return e.name }

// Param returns the named parameter.
func (e *Effect) Param(name string) *graphics.Param {
	for _, p := range e.params {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// Params returns all parameters.
func (e *Effect) Params() []*graphics.Param { return e.params }

// DrawCall is one recorded draw.
type DrawCall struct {
	Effect   string
	Target   int
	Blend    graphics.BlendState
	Textures map[string]int
	Floats   map[string]float32
}

// CopyCall is one recorded texture copy.
type CopyCall struct {
	Dst, Src int
}

// Device is a scriptable in-memory device. The zero value is not usable;
// call [NewDevice].
type Device struct {
	mu sync.Mutex

	nextID   int
	textures map[int]*Texture
	effects  map[int]*Effect

	// Draws and Copies record successful and failed calls in order.
	Draws  []DrawCall
	Copies []CopyCall

	// Clears records the IDs of cleared textures in order.
	Clears []int

	// FailClear makes every clear return ErrClear.
	FailClear bool

	// Flushes counts Flush calls.
	Flushes int

	// FailTexture, when non-nil, is consulted before creating a texture.
	FailTexture func(desc graphics.TextureDescriptor) error

	// FailEffect, when non-nil, is consulted before compiling an effect.
	FailEffect func(name, source string) error

	// FailDraw makes every draw return ErrDraw after recording it.
	FailDraw bool

	// PanicDraw makes every draw panic after recording it.
	PanicDraw bool

	// OnDraw, when non-nil, sees the target of every draw before it is
	// recorded. It runs with the device locked and must not call back into it.
	OnDraw func(target *Texture)

	// EffectParams lists the parameters every compiled effect exposes.
	// Defaults to [DefaultParams].
	EffectParams func() []*graphics.Param
}

// NewDevice creates an empty device.
func NewDevice() *Device {
	return &Device{
		textures: make(map[int]*Texture),
		effects:  make(map[int]*Effect),
	}
}

// DefaultParams returns the parameter set of the uv filter effect plus the
// host-bound image input.
func DefaultParams() []*graphics.Param {
	return []*graphics.Param{
		graphics.NewParam("image", graphics.ParamTexture, 0, 0),
		graphics.NewParam("texture_a", graphics.ParamTexture, 0, 1),
		graphics.NewParam("texture_b", graphics.ParamTexture, 0, 2),
		graphics.NewParam("def_sampler", graphics.ParamSampler, 0, 3),
		graphics.NewParam("lighting", graphics.ParamFloat, 0, 4),
		graphics.NewParam("resolution", graphics.ParamFloat, 0, 5),
	}
}

// CreateTexture implements graphics.Device.
func (d *Device) CreateTexture(desc graphics.TextureDescriptor, pixels []byte) (graphics.Texture, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.FailTexture != nil {
		if err := d.FailTexture(desc); err != nil {
			return nil, err
		}
	}
	d.nextID++
	t := &Texture{
		ID:           d.nextID,
		Label:        desc.Label,
		W:            desc.Width,
		H:            desc.Height,
		Format:       desc.Format,
		RenderTarget: desc.RenderTarget,
		Pixels:       make([]byte, desc.Size()),
	}
	copy(t.Pixels, pixels)
	d.textures[t.ID] = t
	return t, nil
}

// UpdateTexture implements graphics.Device.
func (d *Device) UpdateTexture(t graphics.Texture, pixels []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	tex, err := d.texture(t)
	if err != nil {
		return err
	}
	copy(tex.Pixels, pixels)
	return nil
}

// DestroyTexture implements graphics.Device.
func (d *Device) DestroyTexture(t graphics.Texture) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if tex, ok := t.(*Texture); ok {
		tex.Destroyed = true
		delete(d.textures, tex.ID)
	}
}

// CreateEffect implements graphics.Device.
func (d *Device) CreateEffect(name, source string) (graphics.Effect, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.FailEffect != nil {
		if err := d.FailEffect(name, source); err != nil {
			return nil, err
		}
	}
	if strings.TrimSpace(source) == "" || strings.Contains(source, "#error") {
		return nil, fmt.Errorf("%w: %s", ErrCompile, name)
	}
	params := DefaultParams()
	if d.EffectParams != nil {
		params = d.EffectParams()
	}
	d.nextID++
	e := &Effect{ID: d.nextID, name: name, Source: source, params: params}
	d.effects[e.ID] = e
	return e, nil
}

// DestroyEffect implements graphics.Device.
func (d *Device) DestroyEffect(e graphics.Effect) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if eff, ok := e.(*Effect); ok {
		eff.Destroyed = true
		delete(d.effects, eff.ID)
	}
}

// Draw implements graphics.Device. It records the call with a snapshot of
// the effect parameters.
func (d *Device) Draw(e graphics.Effect, target graphics.Texture, blend graphics.BlendState) error {
	d.mu.Lock()
	dst, err := d.texture(target)
	if err != nil {
		d.mu.Unlock()
		return err
	}
	if d.OnDraw != nil {
		d.OnDraw(dst)
	}
	call := DrawCall{
		Effect:   e.Name(),
		Target:   dst.ID,
		Blend:    blend,
		Textures: make(map[string]int),
		Floats:   make(map[string]float32),
	}
	for _, p := range e.Params() {
		if !p.IsSet() {
			continue
		}
		switch p.Kind() {
		case graphics.ParamTexture:
			if tex, ok := p.Texture().(*Texture); ok {
				call.Textures[p.Name()] = tex.ID
			}
		case graphics.ParamFloat:
			call.Floats[p.Name()] = p.Float()
		}
	}
	d.Draws = append(d.Draws, call)
	failDraw, panicDraw := d.FailDraw, d.PanicDraw
	d.mu.Unlock()

	if panicDraw {
		panic("graphicstest: draw panic")
	}
	if failDraw {
		return ErrDraw
	}
	return nil
}

// ClearTexture implements graphics.Device by zeroing the pixels.
func (d *Device) ClearTexture(t graphics.Texture) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	tex, err := d.texture(t)
	if err != nil {
		return err
	}
	if d.FailClear {
		return ErrClear
	}
	clear(tex.Pixels)
	d.Clears = append(d.Clears, tex.ID)
	return nil
}

// CopyTexture implements graphics.Device by copying pixels.
func (d *Device) CopyTexture(dst, src graphics.Texture) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	to, err := d.texture(dst)
	if err != nil {
		return err
	}
	from, err := d.texture(src)
	if err != nil {
		return err
	}
	copy(to.Pixels, from.Pixels)
	d.Copies = append(d.Copies, CopyCall{Dst: to.ID, Src: from.ID})
	return nil
}

// Flush implements graphics.Device.
func (d *Device) Flush() error {
	d.mu.Lock()
	d.Flushes++
	d.mu.Unlock()
	return nil
}

// LiveTextures returns the number of textures not yet destroyed.
func (d *Device) LiveTextures() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.textures)
}

// LiveEffects returns the number of effects not yet destroyed.
func (d *Device) LiveEffects() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.effects)
}

// Texture returns the live texture with the given ID.
func (d *Device) Texture(id int) *Texture {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.textures[id]
}

// LastDraw returns the most recent draw and whether there was one.
func (d *Device) LastDraw() (DrawCall, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.Draws) == 0 {
		return DrawCall{}, false
	}
	return d.Draws[len(d.Draws)-1], true
}

func (d *Device) texture(t graphics.Texture) (*Texture, error) {
	tex, ok := t.(*Texture)
	if !ok || tex == nil {
		return nil, graphics.ErrUnknownTexture
	}
	if _, live := d.textures[tex.ID]; !live {
		return nil, graphics.ErrUnknownTexture
	}
	return tex, nil
}
