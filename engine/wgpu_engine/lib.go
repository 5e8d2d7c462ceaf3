package wgpu_engine

import (
	"fmt"
	"reflect"

	"honnef.co/go/cellgrid/engine/wgpu_engine/shaders"
	"honnef.co/go/cellgrid/grid"
	"honnef.co/go/cellgrid/mem"
	"honnef.co/go/cellgrid/renderer"
	"honnef.co/go/wgpu"
)

type RendererOptions struct {
	// SurfaceFormat is the texture format of the surface that
	// RenderToSurface will present to. Leave it zero for engines that
	// only render off-screen.
	SurfaceFormat wgpu.TextureFormat
}

var bindTypeMapping = [...]renderer.BindType{
	shaders.BufReadOnly: {Type: renderer.BindTypeBufReadOnly},
	shaders.Uniform:     {Type: renderer.BindTypeUniform},
}

var vertexFormatMapping = [...]wgpu.VertexFormat{
	shaders.Float32x2: wgpu.VertexFormatFloat32x2,
}

func (eng *Engine) newFullShaders() *renderer.FullShaders {
	var out renderer.FullShaders
	outV := reflect.ValueOf(&out).Elem()
	v := reflect.ValueOf(&shaders.Collection)
	for i := range v.Elem().NumField() {
		fieldName := v.Elem().Type().Field(i).Name
		outField := outV.FieldByName(fieldName)
		if !outField.IsValid() {
			continue
		}
		shader := v.Elem().Field(i).Addr().Interface().(*shaders.RenderShader)
		bindings := make([]renderer.BindType, len(shader.Bindings))
		for i, b := range shader.Bindings {
			bindings[i] = bindTypeMapping[b]
		}
		attrs := make([]wgpu.VertexAttribute, len(shader.VertexAttrs))
		for i, a := range shader.VertexAttrs {
			attrs[i] = wgpu.VertexAttribute{
				Format:         vertexFormatMapping[a.Format],
				Offset:         a.Offset,
				ShaderLocation: a.ShaderLocation,
			}
		}
		if len(shader.WGSL) == 0 {
			panic(fmt.Sprintf("shader %q has no code", shader.Name))
		}
		id := eng.addShader(
			shader.Name,
			shader.WGSL,
			bindings,
			vertexLayout{stride: shader.VertexStride, attrs: attrs},
			entryPoints{vertex: shader.VertexEntry, fragment: shader.FragmentEntry},
		)
		outField.Set(reflect.ValueOf(id))
	}
	return &out
}

type blitPipeline struct {
	BindLayout *wgpu.BindGroupLayout
	Pipeline   *wgpu.RenderPipeline
}

func newBlitPipeline(dev *wgpu.Device, format wgpu.TextureFormat) *blitPipeline {
	const src = `
			@vertex
			fn vs_main(@builtin(vertex_index) ix: u32) -> @builtin(position) vec4<f32> {
				// Generate a full screen quad in normalized device coordinates
				var vertex = vec2(-1.0, 1.0);
				switch ix {
					case 1u: {
						vertex = vec2(-1.0, -1.0);
					}
					case 2u, 4u: {
						vertex = vec2(1.0, -1.0);
					}
					case 5u: {
						vertex = vec2(1.0, 1.0);
					}
					default: {}
				}
				return vec4(vertex, 0.0, 1.0);
			}

			@group(0) @binding(0)
			var grid_output: texture_2d<f32>;

			@fragment
			fn fs_main(@builtin(position) pos: vec4<f32>) -> @location(0) vec4<f32> {
				return textureLoad(grid_output, vec2<i32>(pos.xy), 0);
			}`

	shader := dev.CreateShaderModule(wgpu.ShaderModuleDescriptor{
		Label:  "blit shaders",
		Source: wgpu.ShaderSourceWGSL(src),
	})
	bindLayout := dev.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Visibility: wgpu.ShaderStageFragment,
				Binding:    0,
				Texture: &wgpu.TextureBindingLayout{
					SampleType:    wgpu.TextureSampleTypeFloat,
					ViewDimension: wgpu.TextureViewDimension2D,
					Multisampled:  false,
				},
			},
		},
	})
	pipelineLayout := dev.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "blit pipeline layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{bindLayout},
	})
	pipeline := dev.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  "blit pipeline",
		Layout: pipelineLayout,
		Vertex: &wgpu.VertexState{
			Module:     shader,
			EntryPoint: "vs_main",
		},
		Fragment: &wgpu.FragmentState{
			Module:     shader,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{
				{
					Format:    format,
					WriteMask: wgpu.ColorWriteMaskAll,
				},
			},
		},
		Primitive: &wgpu.PrimitiveState{
			Topology:         wgpu.PrimitiveTopologyTriangleList,
			StripIndexFormat: ^wgpu.IndexFormat(0),
			FrontFace:        wgpu.FrontFaceCCW,
			CullMode:         wgpu.CullModeBack,
		},
		Multisample: &wgpu.MultisampleState{
			Count:                  1,
			Mask:                   ^uint32(0),
			AlphaToCoverageEnabled: false,
		},
	})
	return &blitPipeline{
		BindLayout: bindLayout,
		Pipeline:   pipeline,
	}
}

type targetTexture struct {
	Texture *wgpu.Texture
	View    *wgpu.TextureView
	Width   uint32
	Height  uint32
}

func newTargetTexture(dev *wgpu.Device, width, height uint32) *targetTexture {
	tex := dev.CreateTexture(&wgpu.TextureDescriptor{
		Label: "target texture",
		Size: wgpu.Extent3D{
			Width:              width,
			Height:             height,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Usage:         wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopySrc,
		Format:        wgpu.TextureFormatRGBA8Unorm,
	})
	view := tex.CreateView(nil)
	return &targetTexture{
		Texture: tex,
		View:    view,
		Width:   width,
		Height:  height,
	}
}

func (t *targetTexture) release() {
	t.View.Release()
	t.Texture.Release()
}

func imageFormatToWGPU(f renderer.ImageFormat) wgpu.TextureFormat {
	switch f {
	case renderer.Rgba8:
		return wgpu.TextureFormatRGBA8Unorm
	case renderer.Bgra8:
		return wgpu.TextureFormatBGRA8Unorm
	default:
		panic(fmt.Sprintf("unhandled value %d", f))
	}
}

// ensureTarget (re)creates the engine-owned target texture when the
// requested size changes.
func (eng *Engine) ensureTarget(width, height uint32) *targetTexture {
	if eng.target == nil {
		eng.target = newTargetTexture(eng.Device, width, height)
	} else if eng.target.Width != width || eng.target.Height != height {
		eng.target.release()
		eng.target = newTargetTexture(eng.Device, width, height)
	}
	return eng.target
}

// RenderToTexture draws the grid into the provided texture view. The
// view must be over an RGBA8 unorm texture; the render pipelines are
// built for that target format.
func (eng *Engine) RenderToTexture(
	arena *mem.Arena,
	queue *wgpu.Queue,
	g grid.Grid,
	state grid.State,
	texture *wgpu.TextureView,
	params *renderer.RenderParams,
	pgroup *ProfilerGroup,
) renderer.Frame {
	pgroup = pgroup.Nest("RenderToTexture")
	defer pgroup.End()

	frame := renderer.RenderFrame(arena, g, state, eng.fullShaders, params)

	externalResources := []ExternalResource{
		ExternalImage{
			Proxy: frame.Target,
			View:  texture,
		},
	}
	eng.RunRecording(arena, queue, frame.Recording, externalResources, "render_to_texture", pgroup)
	return frame
}

// RenderToSurface draws the grid into an engine-owned texture and blits
// it to the surface. The engine must have been created with a surface
// format for this to work.
func (eng *Engine) RenderToSurface(
	arena *mem.Arena,
	queue *wgpu.Queue,
	g grid.Grid,
	state grid.State,
	surface *wgpu.SurfaceTexture,
	params *renderer.RenderParams,
	pgroup *ProfilerGroup,
) {
	pgroup = pgroup.Nest("RenderToSurface")
	defer pgroup.End()

	if eng.blit == nil {
		panic("engine was created without a surface format")
	}

	target := eng.ensureTarget(params.Width, params.Height)

	spanEnc := eng.Device.CreateCommandEncoder(nil)
	span := pgroup.Begin(spanEnc, "total")
	spanCmd := spanEnc.Finish(nil)
	spanEnc.Release()
	queue.Submit(spanCmd)
	spanCmd.Release()

	eng.RenderToTexture(arena, queue, g, state, target.View, params, pgroup)

	surfaceView := surface.Texture.CreateView(nil)
	defer surfaceView.Release()

	bindGroup := eng.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Layout: eng.blit.BindLayout,
		Entries: []wgpu.BindGroupEntry{
			{
				Binding:     0,
				TextureView: target.View,
			},
		},
	})
	defer bindGroup.Release()

	encoder := eng.Device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: "blitter"})
	defer encoder.Release()
	renderPass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       surfaceView,
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: wgpu.Color{R: 0, G: 0, B: 0, A: 1},
			},
		},
		TimestampWrites: pgroup.Render(arena, "blit"),
	})
	defer renderPass.Release()

	renderPass.SetPipeline(eng.blit.Pipeline)
	renderPass.SetBindGroup(0, bindGroup, nil)
	renderPass.Draw(6, 1, 0, 0)
	renderPass.End()

	span.End(encoder)
	cmd := encoder.Finish(nil)
	defer cmd.Release()
	queue.Submit(cmd)
}
