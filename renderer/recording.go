package renderer

import (
	"sync/atomic"

	"honnef.co/go/cellgrid/mem"
)

var resourceID atomic.Uint64

func nextResourceID() ResourceID {
	return ResourceID(resourceID.Add(1))
}

type ResourceID uint64

type ResourceProxyKind int

const (
	ResourceProxyKindBuffer ResourceProxyKind = iota + 1
	ResourceProxyKindImage
)

type ResourceProxy struct {
	Kind ResourceProxyKind
	BufferProxy
	ImageProxy
}

// Recording is a list of device-independent commands describing one
// frame. Commands reference resources through proxies; the engine
// materializes them when the recording runs.
type Recording struct {
	Commands []Command
}

func (rec *Recording) push(arena *mem.Arena, cmd Command) {
	rec.Commands = mem.Append(arena, rec.Commands, cmd)
}

func (rec *Recording) Upload(arena *mem.Arena, name string, data []byte) BufferProxy {
	buf := NewBufferProxy(uint64(len(data)), name)
	rec.push(arena, mem.Make(arena, Upload{buf, data}))
	return buf
}

func (rec *Recording) UploadUniform(arena *mem.Arena, name string, data []byte) BufferProxy {
	buf := NewBufferProxy(uint64(len(data)), name)
	rec.push(arena, mem.Make(arena, UploadUniform{buf, data}))
	return buf
}

func (rec *Recording) UploadVertex(arena *mem.Arena, name string, data []byte) BufferProxy {
	buf := NewBufferProxy(uint64(len(data)), name)
	rec.push(arena, mem.Make(arena, UploadVertex{buf, data}))
	return buf
}

func (rec *Recording) UploadIndex(arena *mem.Arena, name string, data []byte) BufferProxy {
	buf := NewBufferProxy(uint64(len(data)), name)
	rec.push(arena, mem.Make(arena, UploadIndex{buf, data}))
	return buf
}

func (rec *Recording) Draw(arena *mem.Arena, draw Draw) {
	rec.push(arena, mem.Make(arena, draw))
}

func (rec *Recording) Download(arena *mem.Arena, buf BufferProxy) {
	rec.push(arena, mem.Make(arena, Download{buf}))
}

func (rec *Recording) FreeBuffer(arena *mem.Arena, buf BufferProxy) {
	rec.push(arena, mem.Make(arena, FreeBuffer{buf}))
}

func (rec *Recording) FreeImage(arena *mem.Arena, image ImageProxy) {
	rec.push(arena, mem.Make(arena, FreeImage{image}))
}

func NewBufferProxy(size uint64, name string) BufferProxy {
	id := nextResourceID()
	return BufferProxy{size, id, name}
}

func NewImageProxy(width, height uint32, format ImageFormat) ImageProxy {
	id := nextResourceID()
	return ImageProxy{
		Width:  width,
		Height: height,
		Format: format,
		ID:     id,
	}
}

type BufferProxy struct {
	Size uint64
	ID   ResourceID
	Name string
}

func (p BufferProxy) Resource() ResourceProxy {
	return ResourceProxy{
		Kind:        ResourceProxyKindBuffer,
		BufferProxy: p,
	}
}

type ImageFormat int

const (
	Rgba8 ImageFormat = iota
	Bgra8
)

type ImageProxy struct {
	Width  uint32
	Height uint32
	Format ImageFormat
	ID     ResourceID
}

func (p ImageProxy) Resource() ResourceProxy {
	return ResourceProxy{
		Kind:       ResourceProxyKindImage,
		ImageProxy: p,
	}
}

type ShaderID int

type Command interface {
	isCommand()
}

func (*Upload) isCommand()        {}
func (*UploadUniform) isCommand() {}
func (*UploadVertex) isCommand()  {}
func (*UploadIndex) isCommand()   {}
func (*Draw) isCommand()          {}
func (*Download) isCommand()      {}
func (*FreeBuffer) isCommand()    {}
func (*FreeImage) isCommand()     {}

type BindTypeType int

const (
	BindTypeBufReadOnly BindTypeType = iota + 1
	BindTypeUniform
)

type BindType struct {
	Type BindTypeType
}

type Upload struct {
	Buffer BufferProxy
	Data   []byte
}

type UploadUniform struct {
	Buffer BufferProxy
	Data   []byte
}

type UploadVertex struct {
	Buffer BufferProxy
	Data   []byte
}

type UploadIndex struct {
	Buffer BufferProxy
	Data   []byte
}

// Draw renders one instanced, indexed draw call into Target. The
// target is cleared to ClearColor (premultiplied linear RGBA) before
// the draw.
type Draw struct {
	Shader     ShaderID
	Vertex     BufferProxy
	Index      BufferProxy
	IndexCount uint32
	Instances  uint32
	Bindings   []ResourceProxy
	Target     ImageProxy
	ClearColor [4]float32
}

type Download struct {
	Buffer BufferProxy
}

type FreeBuffer struct {
	Buffer BufferProxy
}

type FreeImage struct {
	Image ImageProxy
}
