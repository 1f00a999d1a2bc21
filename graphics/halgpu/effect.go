package halgpu

import (
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"
	"github.com/gogpu/naga/spirv"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/uvfilter/graphics"
)

// Entry points every effect must export.
const (
	vertexEntryPoint   = "vs_main"
	fragmentEntryPoint = "fs_main"
)

// uniformSize is the allocation of one float parameter buffer. A lone f32
// needs 4 bytes; buffers are padded to the 16-byte uniform alignment.
const uniformSize = 16

// pipelineKey identifies a cached render pipeline.
type pipelineKey struct {
	blend  graphics.BlendState
	format gputypes.TextureFormat
}

// Effect is a compiled WGSL program. It implements graphics.Effect.
type Effect struct {
	dev    *Device
	name   string
	params []*graphics.Param
	byName map[string]*graphics.Param

	shader     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	uniforms   map[*graphics.Param]hal.Buffer
	pipelines  map[pipelineKey]hal.RenderPipeline

	released atomic.Bool
}

// Name returns the identifier the effect was created from.
func (e *Effect) Name() string { return e.name }

// Param returns the named parameter or nil.
func (e *Effect) Param(name string) *graphics.Param { return e.byName[name] }

// Params returns all parameters in binding order.
func (e *Effect) Params() []*graphics.Param { return e.params }

// IsReleased reports whether the effect has been destroyed.
func (e *Effect) IsReleased() bool { return e.released.Load() }

// PipelineCount returns the number of cached render pipelines.
func (e *Effect) PipelineCount() int { return len(e.pipelines) }

// compiledShader is the result of checking and reflecting WGSL source.
type compiledShader struct {
	module *ir.Module
	params []*graphics.Param
}

// compileShader parses, lowers and validates WGSL and reflects its resources.
func compileShader(source string) (*compiledShader, error) {
	ast, err := naga.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidShader, err)
	}
	module, err := naga.LowerWithSource(ast, source)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidShader, err)
	}
	verrs, err := naga.Validate(module)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidShader, err)
	}
	if len(verrs) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidShader, &verrs[0])
	}
	if err := checkEntryPoints(module); err != nil {
		return nil, err
	}
	params, err := reflectParams(module)
	if err != nil {
		return nil, err
	}
	return &compiledShader{module: module, params: params}, nil
}

func checkEntryPoints(module *ir.Module) error {
	var hasVertex, hasFragment bool
	for i := range module.EntryPoints {
		ep := &module.EntryPoints[i]
		switch {
		case ep.Name == vertexEntryPoint && ep.Stage == ir.StageVertex:
			hasVertex = true
		case ep.Name == fragmentEntryPoint && ep.Stage == ir.StageFragment:
			hasFragment = true
		}
	}
	if !hasVertex {
		return fmt.Errorf("%w: @vertex %s", ErrMissingEntryPoint, vertexEntryPoint)
	}
	if !hasFragment {
		return fmt.Errorf("%w: @fragment %s", ErrMissingEntryPoint, fragmentEntryPoint)
	}
	return nil
}

// reflectParams turns bound globals into effect parameters sorted by binding.
func reflectParams(module *ir.Module) ([]*graphics.Param, error) {
	var params []*graphics.Param
	for i := range module.GlobalVariables {
		gv := &module.GlobalVariables[i]
		if gv.Binding == nil {
			continue
		}
		if gv.Binding.Group != 0 {
			return nil, fmt.Errorf("%w: %s uses group %d", ErrBindGroup, gv.Name, gv.Binding.Group)
		}
		kind := paramKind(module, gv)
		if kind == graphics.ParamUnknown {
			return nil, fmt.Errorf("%w: %s", ErrParamType, gv.Name)
		}
		params = append(params, graphics.NewParam(gv.Name, kind, gv.Binding.Group, gv.Binding.Binding))
	}
	sort.Slice(params, func(i, j int) bool {
		_, bi := params[i].Binding()
		_, bj := params[j].Binding()
		return bi < bj
	})
	return params, nil
}

func paramKind(module *ir.Module, gv *ir.GlobalVariable) graphics.ParamKind {
	if int(gv.Type) >= len(module.Types) {
		return graphics.ParamUnknown
	}
	switch t := module.Types[gv.Type].Inner.(type) {
	case ir.ImageType:
		if t.Dim == ir.Dim2D && !t.Arrayed && t.Class == ir.ImageClassSampled {
			return graphics.ParamTexture
		}
	case ir.SamplerType:
		if !t.Comparison {
			return graphics.ParamSampler
		}
	case ir.ScalarType:
		if gv.Space == ir.SpaceUniform && t.Kind == ir.ScalarFloat && t.Width == 4 {
			return graphics.ParamFloat
		}
	}
	return graphics.ParamUnknown
}

// spirvWords generates SPIR-V for an already validated module.
func spirvWords(module *ir.Module) ([]uint32, error) {
	code, err := naga.GenerateSPIRV(module, spirv.Options{Version: spirv.Version1_3})
	if err != nil {
		return nil, fmt.Errorf("generate SPIR-V: %w", err)
	}
	// SPIR-V is little-endian 32-bit words.
	words := make([]uint32, len(code)/4)
	for i := range words {
		words[i] = uint32(code[i*4]) |
			uint32(code[i*4+1])<<8 |
			uint32(code[i*4+2])<<16 |
			uint32(code[i*4+3])<<24
	}
	return words, nil
}

func (d *Device) createEffect(name, source string) (*Effect, error) {
	compiled, err := compileShader(source)
	if err != nil {
		return nil, err
	}

	e := &Effect{
		dev:       d,
		name:      name,
		params:    compiled.params,
		byName:    make(map[string]*graphics.Param, len(compiled.params)),
		uniforms:  make(map[*graphics.Param]hal.Buffer),
		pipelines: make(map[pipelineKey]hal.RenderPipeline),
	}
	for _, p := range e.params {
		e.byName[p.Name()] = p
	}

	shaderSource := hal.ShaderSource{WGSL: source}
	if d.opts.spirv {
		words, err := spirvWords(compiled.module)
		if err != nil {
			return nil, err
		}
		shaderSource = hal.ShaderSource{SPIRV: words}
	}
	shader, err := d.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  name,
		Source: shaderSource,
	})
	if err != nil {
		return nil, fmt.Errorf("create shader module: %w", err)
	}
	e.shader = shader

	if err := e.createLayouts(); err != nil {
		e.release()
		return nil, err
	}
	if err := e.createUniforms(); err != nil {
		e.release()
		return nil, err
	}
	return e, nil
}

func (e *Effect) createLayouts() error {
	d := e.dev
	entries := make([]gputypes.BindGroupLayoutEntry, 0, len(e.params))
	for _, p := range e.params {
		_, binding := p.Binding()
		entry := gputypes.BindGroupLayoutEntry{
			Binding:    binding,
			Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
		}
		switch p.Kind() {
		case graphics.ParamTexture:
			entry.Texture = &gputypes.TextureBindingLayout{
				SampleType:    gputypes.TextureSampleTypeFloat,
				ViewDimension: gputypes.TextureViewDimension2D,
			}
		case graphics.ParamSampler:
			entry.Sampler = &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering}
		case graphics.ParamFloat:
			entry.Buffer = &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}
		}
		entries = append(entries, entry)
	}

	layout, err := d.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   e.name + "_bind_layout",
		Entries: entries,
	})
	if err != nil {
		return fmt.Errorf("create bind group layout: %w", err)
	}
	e.bindLayout = layout

	pipeLayout, err := d.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            e.name + "_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{e.bindLayout},
	})
	if err != nil {
		return fmt.Errorf("create pipeline layout: %w", err)
	}
	e.pipeLayout = pipeLayout
	return nil
}

func (e *Effect) createUniforms() error {
	for _, p := range e.params {
		if p.Kind() != graphics.ParamFloat {
			continue
		}
		buf, err := e.dev.device.CreateBuffer(&hal.BufferDescriptor{
			Label: e.name + "_" + p.Name(),
			Size:  uniformSize,
			Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
		})
		if err != nil {
			return fmt.Errorf("create uniform buffer %s: %w", p.Name(), err)
		}
		e.uniforms[p] = buf
	}
	return nil
}

// pipeline returns the render pipeline for a blend state and target format,
// creating it on first use.
func (e *Effect) pipeline(blend graphics.BlendState, format gputypes.TextureFormat) (hal.RenderPipeline, error) {
	key := pipelineKey{blend: blend, format: format}
	if p, ok := e.pipelines[key]; ok {
		return p, nil
	}

	var halBlend *gputypes.BlendState
	if blend.Enabled {
		b := toHALBlend(blend)
		halBlend = &b
	}
	p, err := e.dev.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  e.name + "_pipeline",
		Layout: e.pipeLayout,
		Vertex: hal.VertexState{
			Module:     e.shader,
			EntryPoint: vertexEntryPoint,
		},
		Fragment: &hal.FragmentState{
			Module:     e.shader,
			EntryPoint: fragmentEntryPoint,
			Targets: []gputypes.ColorTargetState{
				{
					Format:    format,
					Blend:     halBlend,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create render pipeline: %w", err)
	}
	e.pipelines[key] = p
	slogger().Debug("halgpu: pipeline created", "effect", e.name, "blend", blend, "cached", len(e.pipelines))
	return p, nil
}

// release destroys all effect resources in reverse creation order.
func (e *Effect) release() {
	if e.released.Swap(true) {
		return
	}
	d := e.dev.device
	for key, p := range e.pipelines {
		d.DestroyRenderPipeline(p)
		delete(e.pipelines, key)
	}
	for key, buf := range e.uniforms {
		d.DestroyBuffer(buf)
		delete(e.uniforms, key)
	}
	if e.pipeLayout != nil {
		d.DestroyPipelineLayout(e.pipeLayout)
		e.pipeLayout = nil
	}
	if e.bindLayout != nil {
		d.DestroyBindGroupLayout(e.bindLayout)
		e.bindLayout = nil
	}
	if e.shader != nil {
		d.DestroyShaderModule(e.shader)
		e.shader = nil
	}
}

// toHALBlend maps a graphics blend state onto an additive gputypes state.
func toHALBlend(b graphics.BlendState) gputypes.BlendState {
	return gputypes.BlendState{
		Color: gputypes.BlendComponent{
			SrcFactor: toHALFactor(b.SrcColor),
			DstFactor: toHALFactor(b.DstColor),
			Operation: gputypes.BlendOperationAdd,
		},
		Alpha: gputypes.BlendComponent{
			SrcFactor: toHALFactor(b.SrcAlpha),
			DstFactor: toHALFactor(b.DstAlpha),
			Operation: gputypes.BlendOperationAdd,
		},
	}
}

func toHALFactor(f graphics.BlendFactor) gputypes.BlendFactor {
	switch f {
	case graphics.BlendZero:
		return gputypes.BlendFactorZero
	case graphics.BlendOne:
		return gputypes.BlendFactorOne
	case graphics.BlendSrcColor:
		return gputypes.BlendFactorSrc
	case graphics.BlendInvSrcColor:
		return gputypes.BlendFactorOneMinusSrc
	case graphics.BlendSrcAlpha:
		return gputypes.BlendFactorSrcAlpha
	case graphics.BlendInvSrcAlpha:
		return gputypes.BlendFactorOneMinusSrcAlpha
	case graphics.BlendDstColor:
		return gputypes.BlendFactorDst
	case graphics.BlendInvDstColor:
		return gputypes.BlendFactorOneMinusDst
	case graphics.BlendDstAlpha:
		return gputypes.BlendFactorDstAlpha
	case graphics.BlendInvDstAlpha:
		return gputypes.BlendFactorOneMinusDstAlpha
	default:
		return gputypes.BlendFactorOne
	}
}
