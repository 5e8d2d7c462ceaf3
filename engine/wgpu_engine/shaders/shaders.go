package shaders

import (
	_ "embed"
)

type BindType int

const (
	Uniform BindType = iota + 1
	BufReadOnly
)

type VertexFormat int

const (
	Float32x2 VertexFormat = iota + 1
)

// Size returns the byte size of one attribute of this format.
func (f VertexFormat) Size() uint64 {
	switch f {
	case Float32x2:
		return 8
	default:
		panic("unknown vertex format")
	}
}

type VertexAttr struct {
	Format         VertexFormat
	Offset         uint64
	ShaderLocation uint32
}

// RenderShader describes one generated WGSL module together with the
// interface the engine needs to build a pipeline for it: the bind
// group layout, the vertex buffer layout, and the entry points.
type RenderShader struct {
	Name          string
	VertexEntry   string
	FragmentEntry string
	Bindings      []BindType
	VertexAttrs   []VertexAttr
	VertexStride  uint64
	WGSL          []byte
}

// The .wgsl files are generated from src/ by
// honnef.co/go/cellgrid/internal/cmd/compile-shaders. Do not edit.

//go:embed grid.wgsl
var gridWGSL []byte

//go:embed grid_flat.wgsl
var gridFlatWGSL []byte

var gridInterface = RenderShader{
	VertexEntry:   "vs_main",
	FragmentEntry: "fs_main",
	Bindings:      []BindType{Uniform, BufReadOnly},
	VertexAttrs: []VertexAttr{
		{Format: Float32x2, Offset: 0, ShaderLocation: 0},
	},
	VertexStride: 8,
}

var Collection = struct {
	Grid     RenderShader
	GridFlat RenderShader
}{
	Grid:     named(gridInterface, "grid", gridWGSL),
	GridFlat: named(gridInterface, "grid_flat", gridFlatWGSL),
}

func named(sh RenderShader, name string, wgsl []byte) RenderShader {
	sh.Name = name
	sh.WGSL = wgsl
	return sh
}
