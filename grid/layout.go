package grid

import (
	"structs"

	"honnef.co/go/safeish"
)

// Uniform is the per-grid uniform block. Layout must match the
// vec2<f32> in the WGSL source.
type Uniform struct {
	_ structs.HostLayout

	Columns float32
	Rows    float32
}

func (g Grid) Uniform() Uniform {
	return Uniform{
		Columns: float32(g.Columns),
		Rows:    float32(g.Rows),
	}
}

func (u Uniform) Bytes() []byte {
	return safeish.SliceCast[[]byte]([]Uniform{u})
}

// Vertex is one corner of the instanced quad, in cell-local
// coordinates where the full cell spans [-1, 1] on both axes.
type Vertex struct {
	_ structs.HostLayout

	Pos [2]float32
}

// Quad returns the four corners of the cell quad, inset on every side
// by the given fraction of the cell half-extent. An inset of 0.2
// leaves the quad covering 80% of the cell in each dimension.
// Counterclockwise winding, starting at the bottom left.
func Quad(inset float32) []Vertex {
	if inset < 0 || inset >= 1 {
		panic("quad inset out of range")
	}
	e := 1 - inset
	return []Vertex{
		{Pos: [2]float32{-e, -e}},
		{Pos: [2]float32{e, -e}},
		{Pos: [2]float32{e, e}},
		{Pos: [2]float32{-e, e}},
	}
}

// QuadIndices splits the quad into two counterclockwise triangles.
func QuadIndices() []uint16 {
	return []uint16{0, 1, 2, 0, 2, 3}
}

func VertexBytes(verts []Vertex) []byte {
	return safeish.SliceCast[[]byte](verts)
}

func IndexBytes(indices []uint16) []byte {
	return safeish.SliceCast[[]byte](indices)
}
