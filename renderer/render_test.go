package renderer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"honnef.co/go/cellgrid/grid"
	"honnef.co/go/cellgrid/mem"
)

func TestRenderFrame(t *testing.T) {
	arena := mem.NewArena()
	g := grid.New(32, 32)
	state := grid.SeedEveryThird(g)
	shaders := &FullShaders{Grid: 0, GridFlat: 1}

	frame := RenderFrame(arena, g, state, shaders, &RenderParams{
		Width:  512,
		Height: 512,
	})
	rec := frame.Recording

	var draws []*Draw
	var uploads, frees int
	for _, cmd := range rec.Commands {
		switch cmd := cmd.(type) {
		case *Upload, *UploadUniform, *UploadVertex, *UploadIndex:
			uploads++
		case *Draw:
			draws = append(draws, cmd)
		case *FreeBuffer:
			frees++
		}
	}
	require.Len(t, draws, 1)
	assert.Equal(t, 4, uploads)
	assert.Equal(t, 4, frees)

	draw := draws[0]
	assert.Equal(t, shaders.Grid, draw.Shader)
	assert.Equal(t, uint32(6), draw.IndexCount)
	assert.Equal(t, uint32(32*32), draw.Instances)
	assert.Equal(t, frame.Target, draw.Target)
	require.Len(t, draw.Bindings, 2)
	assert.Equal(t, ResourceProxyKindBuffer, draw.Bindings[0].Kind)
	assert.Equal(t, uint64(8), draw.Bindings[0].BufferProxy.Size)
	assert.Equal(t, uint64(32*32*4), draw.Bindings[1].BufferProxy.Size)

	assert.Equal(t, uint32(512), frame.Target.Width)
	assert.Equal(t, Rgba8, frame.Target.Format)
}

func TestRenderFrameCommandOrder(t *testing.T) {
	arena := mem.NewArena()
	g := grid.New(4, 4)
	frame := RenderFrame(arena, g, grid.SeedFull(g), &FullShaders{}, &RenderParams{
		Width:  64,
		Height: 64,
	})

	drawSeen := false
	for _, cmd := range frame.Recording.Commands {
		switch cmd.(type) {
		case *Draw:
			drawSeen = true
		case *Upload, *UploadUniform, *UploadVertex, *UploadIndex:
			assert.False(t, drawSeen, "upload recorded after the draw")
		case *FreeBuffer:
			assert.True(t, drawSeen, "buffer freed before the draw")
		}
	}
	assert.True(t, drawSeen)
}

func TestRenderFrameFlat(t *testing.T) {
	arena := mem.NewArena()
	g := grid.New(8, 8)
	shaders := &FullShaders{Grid: 3, GridFlat: 7}
	frame := RenderFrame(arena, g, grid.SeedCheckerboard(g), shaders, &RenderParams{
		Width:  128,
		Height: 128,
		Flat:   true,
	})

	for _, cmd := range frame.Recording.Commands {
		if draw, ok := cmd.(*Draw); ok {
			assert.Equal(t, shaders.GridFlat, draw.Shader)
		}
	}
}

func TestRenderFrameDownloadState(t *testing.T) {
	arena := mem.NewArena()
	g := grid.New(8, 8)
	frame := RenderFrame(arena, g, grid.SeedEveryThird(g), &FullShaders{}, &RenderParams{
		Width:         128,
		Height:        128,
		DownloadState: true,
	})

	var downloads []*Download
	freed := map[ResourceID]bool{}
	for _, cmd := range frame.Recording.Commands {
		switch cmd := cmd.(type) {
		case *Download:
			downloads = append(downloads, cmd)
		case *FreeBuffer:
			freed[cmd.Buffer.ID] = true
		}
	}
	require.Len(t, downloads, 1)
	assert.Equal(t, frame.State, downloads[0].Buffer)
	assert.False(t, freed[frame.State.ID], "downloaded buffer must stay live")
}

func TestRenderFramePanics(t *testing.T) {
	arena := mem.NewArena()
	g := grid.New(4, 4)

	assert.Panics(t, func() {
		RenderFrame(arena, g, make(grid.State, 3), &FullShaders{}, &RenderParams{Width: 64, Height: 64})
	})
	assert.Panics(t, func() {
		RenderFrame(arena, g, grid.SeedFull(g), &FullShaders{}, &RenderParams{Width: 0, Height: 64})
	})
}
