// Copyright 2025 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package renderer

import (
	"fmt"

	"honnef.co/go/cellgrid/grid"
	"honnef.co/go/cellgrid/mem"
)

// FullShaders collects the IDs of all render shaders, in the order in which
// the engine prepared them.
type FullShaders struct {
	Grid     ShaderID
	GridFlat ShaderID
}

// RenderParams describes a single frame.
type RenderParams struct {
	Width  uint32
	Height uint32
	// BaseColor is the premultiplied linear RGBA color the target is
	// cleared to before the grid is drawn.
	BaseColor [4]float32
	// Inset shrinks each cell towards its center, in cell-local units.
	// Zero draws cells edge to edge; values approaching one collapse
	// them to points.
	Inset float32
	// Flat selects the single-color fragment shading instead of the
	// position gradient.
	Flat bool
	// DownloadState records a readback of the cell state buffer, so
	// that callers can verify what the draw consumed.
	DownloadState bool
}

// Frame is a fully recorded frame, ready to be run by an engine.
type Frame struct {
	Recording *Recording
	// Target is the image the frame renders to.
	Target ImageProxy
	// State is the cell state buffer, valid only if the frame was
	// recorded with DownloadState set.
	State BufferProxy
}

// RenderFrame records all the work for drawing a grid of cells into a
// freshly allocated target image. The returned frame has to be run by an
// engine for any actual rendering to take place.
//
// All slices that end up in the recording are allocated from the arena and
// stay live until the arena gets reset.
func RenderFrame(
	arena *mem.Arena,
	g grid.Grid,
	state grid.State,
	shaders *FullShaders,
	params *RenderParams,
) Frame {
	if n := g.Cells(); uint32(len(state)) != n {
		panic(fmt.Sprintf("state has %d entries for a grid of %d cells", len(state), n))
	}
	if params.Width == 0 || params.Height == 0 {
		panic("degenerate render target")
	}

	rec := mem.New[Recording](arena)

	indices := grid.QuadIndices()
	vertexBuf := rec.UploadVertex(arena, "quad vertices", grid.VertexBytes(grid.Quad(params.Inset)))
	indexBuf := rec.UploadIndex(arena, "quad indices", grid.IndexBytes(indices))
	uniformBuf := rec.UploadUniform(arena, "grid uniform", g.Uniform().Bytes())
	stateBuf := rec.Upload(arena, "cell state", state.Bytes())

	target := NewImageProxy(params.Width, params.Height, Rgba8)

	shader := shaders.Grid
	if params.Flat {
		shader = shaders.GridFlat
	}
	rec.Draw(arena, Draw{
		Shader:     shader,
		Vertex:     vertexBuf,
		Index:      indexBuf,
		IndexCount: uint32(len(indices)),
		Instances:  g.Cells(),
		Bindings: mem.MakeSlice(arena, []ResourceProxy{
			uniformBuf.Resource(),
			stateBuf.Resource(),
		}),
		Target:     target,
		ClearColor: params.BaseColor,
	})

	if params.DownloadState {
		rec.Download(arena, stateBuf)
	}

	rec.FreeBuffer(arena, vertexBuf)
	rec.FreeBuffer(arena, indexBuf)
	rec.FreeBuffer(arena, uniformBuf)
	if !params.DownloadState {
		rec.FreeBuffer(arena, stateBuf)
	}

	frame := Frame{
		Recording: rec,
		Target:    target,
	}
	if params.DownloadState {
		frame.State = stateBuf
	}
	return frame
}
