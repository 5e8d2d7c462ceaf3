// Copyright 2025 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

// Package cellgrid renders fixed-size grids of cells on the GPU. Each
// cell is an instance of a single quad, placed by its instance index
// and scaled by its state word, so the whole grid is one instanced
// draw call.
//
// The package is a facade over the engine in
// honnef.co/go/cellgrid/engine/wgpu_engine; use that package directly
// if you need to share a device or record frames yourself.
package cellgrid

import (
	"image"

	"honnef.co/go/cellgrid/engine/wgpu_engine"
	"honnef.co/go/cellgrid/gfx"
	"honnef.co/go/cellgrid/grid"
	"honnef.co/go/cellgrid/mem"
	"honnef.co/go/cellgrid/renderer"
	"honnef.co/go/color"
	"honnef.co/go/wgpu"
)

type Options struct {
	// SurfaceFormat is the texture format of the surface passed to
	// RenderToSurface. Leave it zero for headless rendering.
	SurfaceFormat wgpu.TextureFormat
	// Profile enables GPU timestamp profiling. Results are available
	// from Profile after rendering.
	Profile bool
}

type RenderParams struct {
	Width  uint32
	Height uint32
	// BaseColor is the color the target is cleared to. Nil means
	// opaque black.
	BaseColor *color.Color
	// Inset shrinks each cell towards its center, as a fraction of the
	// cell half-extent.
	Inset float32
	// Flat draws active cells in a single color instead of the
	// position gradient.
	Flat bool
}

type Renderer struct {
	Device *wgpu.Device

	queue    *wgpu.Queue
	eng      *wgpu_engine.Engine
	profiler *wgpu_engine.Profiler
	arena    *mem.Arena
	frame    uint64
}

// NewRenderer acquires a GPU device and prepares all pipelines.
func NewRenderer(options Options) (*Renderer, error) {
	dev, queue, err := wgpu_engine.AcquireDevice(&wgpu_engine.DeviceOptions{
		Profile: options.Profile,
	})
	if err != nil {
		return nil, err
	}
	prof := wgpu_engine.NewNopProfiler()
	if options.Profile {
		prof = wgpu_engine.NewProfiler(dev)
	}
	return &Renderer{
		Device:   dev,
		queue:    queue,
		eng:      wgpu_engine.New(dev, &wgpu_engine.RendererOptions{SurfaceFormat: options.SurfaceFormat}),
		profiler: prof,
		arena:    mem.NewArena(),
	}, nil
}

func (r *Renderer) lower(params *RenderParams) *renderer.RenderParams {
	base := [4]float32{0, 0, 0, 1}
	if params.BaseColor != nil {
		base = gfx.Premul32(params.BaseColor)
	}
	return &renderer.RenderParams{
		Width:     params.Width,
		Height:    params.Height,
		BaseColor: base,
		Inset:     params.Inset,
		Flat:      params.Flat,
	}
}

func (r *Renderer) beginFrame() *wgpu_engine.ProfilerGroup {
	r.arena.Reset()
	r.frame++
	return r.profiler.Start(r.frame)
}

func (r *Renderer) endFrame(pgroup *wgpu_engine.ProfilerGroup) {
	pgroup.End()
	if r.profiler != nil {
		enc := r.Device.CreateCommandEncoder(nil)
		r.profiler.Resolve(enc)
		cmd := enc.Finish(nil)
		enc.Release()
		r.queue.Submit(cmd)
		cmd.Release()
		r.profiler.Map()
	}
}

// RenderToTexture draws one frame into the provided texture view.
func (r *Renderer) RenderToTexture(g grid.Grid, state grid.State, texture *wgpu.TextureView, params *RenderParams) {
	pgroup := r.beginFrame()
	r.eng.RenderToTexture(r.arena, r.queue, g, state, texture, r.lower(params), pgroup)
	r.endFrame(pgroup)
}

// RenderToSurface draws one frame to a surface texture.
func (r *Renderer) RenderToSurface(g grid.Grid, state grid.State, surface *wgpu.SurfaceTexture, params *RenderParams) {
	pgroup := r.beginFrame()
	r.eng.RenderToSurface(r.arena, r.queue, g, state, surface, r.lower(params), pgroup)
	r.endFrame(pgroup)
}

// RenderToImage draws one frame off-screen and reads it back.
func (r *Renderer) RenderToImage(g grid.Grid, state grid.State, params *RenderParams) (*image.RGBA, error) {
	pgroup := r.beginFrame()
	img, err := r.eng.RenderToImage(r.arena, r.queue, g, state, r.lower(params), pgroup)
	r.endFrame(pgroup)
	return img, err
}

// Profile returns all available profiler results. It returns nil when
// the renderer was created without profiling.
func (r *Renderer) Profile() []wgpu_engine.ProfilerResult {
	return r.profiler.Collect()
}
