package wgpu_engine

// OPT reuse bind groups

import (
	"fmt"
	"math"
	"math/bits"

	"honnef.co/go/cellgrid/mem"
	"honnef.co/go/cellgrid/renderer"
	"honnef.co/go/wgpu"
)

type Engine struct {
	Device    *wgpu.Device
	shaders   []shader
	pool      resourcePool
	downloads map[renderer.ResourceID]*wgpu.Buffer

	blit        *blitPipeline
	fullShaders *renderer.FullShaders
	target      *targetTexture
}

type shader struct {
	label           string
	pipeline        *wgpu.RenderPipeline
	bindGroupLayout *wgpu.BindGroupLayout
}

type ExternalResource interface {
	// Currently only ExternalImage
}

type ExternalImage struct {
	Proxy renderer.ImageProxy
	View  *wgpu.TextureView
}

type bindMapBuffer struct {
	Buffer *wgpu.Buffer
	Label  string
}

type bindMapImage struct {
	texture *wgpu.Texture
	view    *wgpu.TextureView
}

type bindMap struct {
	bufMap   mem.BinaryTreeMap[renderer.ResourceID, *bindMapBuffer]
	imageMap mem.BinaryTreeMap[renderer.ResourceID, *bindMapImage]
}

type bufferProperties struct {
	size   uint64
	usages wgpu.BufferUsage
}

type resourcePool struct {
	bufs map[bufferProperties][]*wgpu.Buffer
}

type transientBindMap struct {
	images mem.BinaryTreeMap[renderer.ResourceID, *wgpu.TextureView]
}

func New(dev *wgpu.Device, options *RendererOptions) *Engine {
	eng := &Engine{
		Device: dev,
		pool: resourcePool{
			bufs: make(map[bufferProperties][]*wgpu.Buffer),
		},
		downloads: make(map[renderer.ResourceID]*wgpu.Buffer),
	}
	eng.fullShaders = eng.newFullShaders()
	if options.SurfaceFormat != 0 {
		eng.blit = newBlitPipeline(eng.Device, options.SurfaceFormat)
	}
	return eng
}

// Shaders returns the IDs of the prepared render shaders, for use with
// renderer.RenderFrame.
func (eng *Engine) Shaders() *renderer.FullShaders {
	return eng.fullShaders
}

func (eng *Engine) addShader(
	label string,
	wgsl []byte,
	layout []renderer.BindType,
	vertex vertexLayout,
	entries entryPoints,
) renderer.ShaderID {
	bglEntries := make([]wgpu.BindGroupLayoutEntry, len(layout))
	for i, bindType := range layout {
		switch bindType.Type {
		case renderer.BindTypeBufReadOnly:
			bglEntries[i] = wgpu.BindGroupLayoutEntry{
				Binding:    uint32(i),
				Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
				Buffer: &wgpu.BufferBindingLayout{
					Type:             wgpu.BufferBindingTypeReadOnlyStorage,
					HasDynamicOffset: false,
					MinBindingSize:   0, // XXX 0 or Undefined?
				},
			}
		case renderer.BindTypeUniform:
			bglEntries[i] = wgpu.BindGroupLayoutEntry{
				Binding:    uint32(i),
				Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
				Buffer: &wgpu.BufferBindingLayout{
					Type:             wgpu.BufferBindingTypeUniform,
					HasDynamicOffset: false,
					MinBindingSize:   0, // XXX 0 or Undefined?
				},
			}
		default:
			panic(fmt.Sprintf("invalid bind type %d", bindType.Type))
		}
	}

	sh := eng.createRenderPipeline(label, wgsl, bglEntries, vertex, entries)
	id := len(eng.shaders)
	eng.shaders = append(eng.shaders, sh)
	return renderer.ShaderID(id)
}

func (eng *Engine) RunRecording(
	arena *mem.Arena,
	queue *wgpu.Queue,
	recording *renderer.Recording,
	externalResources []ExternalResource,
	label string,
	pgroup *ProfilerGroup,
) {
	pgroup = pgroup.Nest("RunRecording")
	defer pgroup.End()

	var freeBufs, freeImages mem.BinaryTreeMap[renderer.ResourceID, struct{}]
	transientMap := newTransientBindMap(arena, externalResources)
	bindMap := bindMap{}

	encoder := eng.Device.CreateCommandEncoder(mem.Make(arena, wgpu.CommandEncoderDescriptor{Label: label}))

	for _, cmd := range recording.Commands {
		switch cmd := cmd.(type) {
		case *renderer.Upload:
			usage := wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst | wgpu.BufferUsageStorage
			eng.upload(arena, queue, &bindMap, cmd.Buffer, cmd.Data, usage)

		case *renderer.UploadUniform:
			usage := wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst
			eng.upload(arena, queue, &bindMap, cmd.Buffer, cmd.Data, usage)

		case *renderer.UploadVertex:
			usage := wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst
			eng.upload(arena, queue, &bindMap, cmd.Buffer, cmd.Data, usage)

		case *renderer.UploadIndex:
			usage := wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst
			eng.upload(arena, queue, &bindMap, cmd.Buffer, cmd.Data, usage)

		case *renderer.Draw:
			sh := eng.shaders[cmd.Shader]
			bindGroup := transientMap.createBindGroup(
				arena,
				&bindMap,
				eng.Device,
				sh.bindGroupLayout,
				cmd.Bindings,
			)

			vertexBuf, ok := bindMap.getGPUBuf(cmd.Vertex.ID)
			if !ok {
				panic("tried using unavailable vertex buffer for draw")
			}
			indexBuf, ok := bindMap.getGPUBuf(cmd.Index.ID)
			if !ok {
				panic("tried using unavailable index buffer for draw")
			}
			view := transientMap.getOrCreateView(arena, &bindMap, cmd.Target, eng.Device)

			c := cmd.ClearColor
			rpass := encoder.BeginRenderPass(mem.Make(arena, wgpu.RenderPassDescriptor{
				Label: sh.label,
				ColorAttachments: mem.MakeSlice(arena, []wgpu.RenderPassColorAttachment{
					{
						View:       view,
						LoadOp:     wgpu.LoadOpClear,
						StoreOp:    wgpu.StoreOpStore,
						ClearValue: wgpu.Color{R: float64(c[0]), G: float64(c[1]), B: float64(c[2]), A: float64(c[3])},
					},
				}),
				TimestampWrites: pgroup.Render(arena, sh.label),
			}))

			rpass.SetPipeline(sh.pipeline)
			rpass.SetBindGroup(0, bindGroup, nil)
			rpass.SetVertexBuffer(0, vertexBuf, 0, ^uint64(0))
			rpass.SetIndexBuffer(indexBuf, wgpu.IndexFormatUint16, 0, ^uint64(0))
			rpass.DrawIndexed(cmd.IndexCount, cmd.Instances, 0, 0, 0)
			rpass.End()
			bindGroup.Release()
			rpass.Release()

		case *renderer.Download:
			proxy := cmd.Buffer
			srcBuf, ok := bindMap.getGPUBuf(proxy.ID)
			if !ok {
				panic("tried using unavailable buffer for download")
			}
			usage := wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst
			buf := eng.pool.getBuf(proxy.Size, "download", usage, eng.Device)
			encoder.CopyBufferToBuffer(srcBuf, 0, buf, 0, proxy.Size)
			eng.downloads[proxy.ID] = buf

		case *renderer.FreeBuffer:
			freeBufs.Insert(arena, cmd.Buffer.ID, struct{}{})

		case *renderer.FreeImage:
			freeImages.Insert(arena, cmd.Image.ID, struct{}{})

		default:
			panic(fmt.Sprintf("unhandled command %T", cmd))
		}
	}

	cmd := encoder.Finish(nil)
	encoder.Release()
	queue.Submit(cmd)
	cmd.Release()

	for id := range freeBufs.Keys() {
		buf, ok := bindMap.bufMap.Get(id)
		if ok {
			bindMap.bufMap.Delete(id)
			eng.pool.returnBuf(buf.Buffer)
		}
	}
	for id := range freeImages.Keys() {
		tex, ok := bindMap.imageMap.Get(id)
		if ok {
			bindMap.imageMap.Delete(id)
			// TODO: have a pool to avoid needless re-allocation
			tex.texture.Release()
			tex.view.Release()
		}
	}
}

func (eng *Engine) upload(
	arena *mem.Arena,
	queue *wgpu.Queue,
	bindMap *bindMap,
	proxy renderer.BufferProxy,
	data []byte,
	usage wgpu.BufferUsage,
) {
	buf := eng.pool.getBuf(proxy.Size, proxy.Name, usage, eng.Device)
	queue.WriteBuffer(buf, 0, data)
	bindMap.insertBuf(arena, proxy, buf)
}

func (eng *Engine) getDownload(buf renderer.BufferProxy) (*wgpu.Buffer, bool) {
	got, ok := eng.downloads[buf.ID]
	return got, ok
}

func (eng *Engine) freeDownload(buf renderer.BufferProxy) {
	delete(eng.downloads, buf.ID)
}

type vertexLayout struct {
	stride uint64
	attrs  []wgpu.VertexAttribute
}

type entryPoints struct {
	vertex   string
	fragment string
}

func (eng *Engine) createRenderPipeline(
	label string,
	wgsl []byte,
	entries []wgpu.BindGroupLayoutEntry,
	vertex vertexLayout,
	entry entryPoints,
) shader {
	// OPT(dh): use SPIR-V instead of WGSL for faster engine creation.
	shaderModule := eng.Device.CreateShaderModule(wgpu.ShaderModuleDescriptor{
		Label:  label,
		Source: wgpu.ShaderSourceWGSL(wgsl),
	})
	bindGroupLayout := eng.Device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Entries: entries,
	})
	pipelineLayout := eng.Device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		BindGroupLayouts: []*wgpu.BindGroupLayout{bindGroupLayout},
	})
	pipeline := eng.Device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  label,
		Layout: pipelineLayout,
		Vertex: &wgpu.VertexState{
			Module:     shaderModule,
			EntryPoint: entry.vertex,
			Buffers: []wgpu.VertexBufferLayout{
				{
					ArrayStride: vertex.stride,
					StepMode:    wgpu.VertexStepModeVertex,
					Attributes:  vertex.attrs,
				},
			},
		},
		Fragment: &wgpu.FragmentState{
			Module:     shaderModule,
			EntryPoint: entry.fragment,
			Targets: []wgpu.ColorTargetState{
				{
					Format:    imageFormatToWGPU(renderer.Rgba8),
					WriteMask: wgpu.ColorWriteMaskAll,
				},
			},
		},
		Primitive: &wgpu.PrimitiveState{
			Topology:         wgpu.PrimitiveTopologyTriangleList,
			StripIndexFormat: ^wgpu.IndexFormat(0),
			FrontFace:        wgpu.FrontFaceCCW,
			CullMode:         wgpu.CullModeNone,
		},
		Multisample: &wgpu.MultisampleState{
			Count:                  1,
			Mask:                   ^uint32(0),
			AlphaToCoverageEnabled: false,
		},
	})
	pipelineLayout.Release()

	return shader{
		label:           label,
		pipeline:        pipeline,
		bindGroupLayout: bindGroupLayout,
	}
}

func (m *bindMap) insertBuf(arena *mem.Arena, proxy renderer.BufferProxy, buffer *wgpu.Buffer) {
	m.bufMap.Insert(arena, proxy.ID, &bindMapBuffer{
		Buffer: buffer,
		Label:  proxy.Name,
	})
}

func (m *bindMap) getGPUBuf(id renderer.ResourceID) (*wgpu.Buffer, bool) {
	buf, ok := m.bufMap.Get(id)
	if !ok {
		return nil, false
	}
	return buf.Buffer, true
}

func (m *bindMap) getOrCreateImage(
	arena *mem.Arena,
	proxy renderer.ImageProxy,
	dev *wgpu.Device,
) (*wgpu.Texture, *wgpu.TextureView) {
	if entry, ok := m.imageMap.Get(proxy.ID); ok {
		return entry.texture, entry.view
	}

	format := imageFormatToWGPU(proxy.Format)
	texture := dev.CreateTexture(&wgpu.TextureDescriptor{
		Size: wgpu.Extent3D{
			Width:              proxy.Width,
			Height:             proxy.Height,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Usage:         wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopySrc,
		Format:        format,
	})
	textureView := texture.CreateView(&wgpu.TextureViewDescriptor{
		Dimension:       wgpu.TextureViewDimension2D,
		Aspect:          wgpu.TextureAspectAll,
		MipLevelCount:   ^uint32(0),
		BaseMipLevel:    0,
		BaseArrayLayer:  0,
		ArrayLayerCount: ^uint32(0),
		Format:          format,
	})
	m.imageMap.Insert(arena, proxy.ID, &bindMapImage{
		texture, textureView,
	})

	return texture, textureView
}

func (pool *resourcePool) getBuf(
	size uint64,
	name string,
	usage wgpu.BufferUsage,
	dev *wgpu.Device,
) *wgpu.Buffer {
	const sizeClassBits = 1

	roundedSize := poolSizeClass(size, sizeClassBits)
	props := bufferProperties{
		size:   roundedSize,
		usages: usage,
	}
	if bufVec, ok := pool.bufs[props]; ok {
		if len(bufVec) > 0 {
			buf := bufVec[len(bufVec)-1]
			bufVec = bufVec[:len(bufVec)-1]
			pool.bufs[props] = bufVec
			return buf
		}
	}
	return dev.CreateBuffer(&wgpu.BufferDescriptor{
		Label: name,
		Size:  roundedSize,
		Usage: usage,
	})
}

func (pool *resourcePool) returnBuf(buf *wgpu.Buffer) {
	props := bufferProperties{
		size:   buf.Size(),
		usages: buf.Usage(),
	}
	pool.bufs[props] = append(pool.bufs[props], buf)
}

func poolSizeClass(x uint64, numBits uint32) uint64 {
	if x > 1<<numBits {
		a := bits.LeadingZeros64(x - 1)
		b := (x - 1) | (((math.MaxUint64 / 2) >> numBits) >> a)
		return b + 1
	} else {
		return 1 << numBits
	}
}

func newTransientBindMap(arena *mem.Arena, externalResources []ExternalResource) transientBindMap {
	images := mem.BinaryTreeMap[renderer.ResourceID, *wgpu.TextureView]{}
	for _, res := range externalResources {
		switch res := res.(type) {
		case ExternalImage:
			images.Insert(arena, res.Proxy.ID, res.View)
		}
	}
	return transientBindMap{
		images: images,
	}
}

func (m *transientBindMap) getOrCreateView(
	arena *mem.Arena,
	bindMap *bindMap,
	proxy renderer.ImageProxy,
	dev *wgpu.Device,
) *wgpu.TextureView {
	if view, ok := m.images.Get(proxy.ID); ok {
		return view
	}
	_, view := bindMap.getOrCreateImage(arena, proxy, dev)
	return view
}

func (m *transientBindMap) createBindGroup(
	arena *mem.Arena,
	bindMap *bindMap,
	dev *wgpu.Device,
	layout *wgpu.BindGroupLayout,
	bindings []renderer.ResourceProxy,
) *wgpu.BindGroup {
	entries := mem.NewSlice[[]wgpu.BindGroupEntry](arena, len(bindings), len(bindings))
	for i, proxy := range bindings {
		switch proxy.Kind {
		case renderer.ResourceProxyKindBuffer:
			buf, ok := bindMap.getGPUBuf(proxy.BufferProxy.ID)
			if !ok {
				panic(fmt.Sprintf("binding %q was never uploaded", proxy.BufferProxy.Name))
			}
			entries[i] = wgpu.BindGroupEntry{
				Binding: uint32(i),
				Buffer:  buf,
				Size:    ^uint64(0),
			}
		case renderer.ResourceProxyKindImage:
			view, ok := m.images.Get(proxy.ImageProxy.ID)
			if !ok {
				img, ok := bindMap.imageMap.Get(proxy.ImageProxy.ID)
				if !ok {
					panic("unexpected ok == false")
				}
				view = img.view
			}
			entries[i] = wgpu.BindGroupEntry{
				Binding:     uint32(i),
				TextureView: view,
				Size:        ^uint64(0),
			}
		default:
			panic(fmt.Sprintf("unhandled type %T", proxy))
		}
	}

	return dev.CreateBindGroup(mem.Make(arena, wgpu.BindGroupDescriptor{
		Layout:  layout,
		Entries: entries,
	}))
}
