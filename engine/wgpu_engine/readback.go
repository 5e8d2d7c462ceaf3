package wgpu_engine

import (
	"fmt"
	"image"

	"honnef.co/go/cellgrid/grid"
	"honnef.co/go/cellgrid/mem"
	"honnef.co/go/cellgrid/renderer"
	"honnef.co/go/safeish"
	"honnef.co/go/wgpu"
)

// Texture to buffer copies require the row pitch to be a multiple of
// 256 bytes.
const rowPitchAlignment = 256

func alignUp(x, align uint64) uint64 {
	return (x + align - 1) &^ (align - 1)
}

// RenderToImage draws the grid into an engine-owned texture and reads
// the result back into an image. This stalls until the GPU has
// finished the frame, so it is meant for headless rendering and tests,
// not for per-frame use.
func (eng *Engine) RenderToImage(
	arena *mem.Arena,
	queue *wgpu.Queue,
	g grid.Grid,
	state grid.State,
	params *renderer.RenderParams,
	pgroup *ProfilerGroup,
) (*image.RGBA, error) {
	pgroup = pgroup.Nest("RenderToImage")
	defer pgroup.End()

	target := eng.ensureTarget(params.Width, params.Height)
	eng.RenderToTexture(arena, queue, g, state, target.View, params, pgroup)

	pitch := alignUp(uint64(params.Width)*4, rowPitchAlignment)
	size := pitch * uint64(params.Height)
	usage := wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst
	buf := eng.pool.getBuf(size, "readback", usage, eng.Device)

	encoder := eng.Device.CreateCommandEncoder(mem.Make(arena, wgpu.CommandEncoderDescriptor{Label: "readback"}))
	span := pgroup.Begin(encoder, "readback copy")
	encoder.CopyTextureToBuffer(
		mem.Make(arena, wgpu.ImageCopyTexture{
			Texture:  target.Texture,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{X: 0, Y: 0, Z: 0},
			Aspect:   wgpu.TextureAspectAll,
		}),
		mem.Make(arena, wgpu.ImageCopyBuffer{
			Buffer: buf,
			Layout: wgpu.TextureDataLayout{
				Offset:       0,
				BytesPerRow:  uint32(pitch),
				RowsPerImage: params.Height,
			},
		}),
		mem.Make(arena, wgpu.Extent3D{
			Width:              params.Width,
			Height:             params.Height,
			DepthOrArrayLayers: 1,
		}),
	)
	span.End(encoder)
	cmd := encoder.Finish(nil)
	encoder.Release()
	queue.Submit(cmd)
	cmd.Release()

	if err := <-buf.Map(eng.Device, wgpu.MapModeRead, 0, int(size)); err != nil {
		return nil, fmt.Errorf("mapping readback buffer: %w", err)
	}
	data := buf.ReadOnlyMappedRange(0, int(size))
	img := image.NewRGBA(image.Rect(0, 0, int(params.Width), int(params.Height)))
	for y := range int(params.Height) {
		row := data[uint64(y)*pitch:][:params.Width*4]
		copy(img.Pix[y*img.Stride:], row)
	}
	buf.Unmap()
	eng.pool.returnBuf(buf)

	return img, nil
}

// CollectState reads back the cell state buffer of a frame that was
// recorded with DownloadState and already run by the engine.
func (eng *Engine) CollectState(frame renderer.Frame) (grid.State, error) {
	buf, ok := eng.getDownload(frame.State)
	if !ok {
		return nil, fmt.Errorf("frame has no recorded state download")
	}
	size := int(frame.State.Size)
	if err := <-buf.Map(eng.Device, wgpu.MapModeRead, 0, size); err != nil {
		return nil, fmt.Errorf("mapping state download: %w", err)
	}
	words := safeish.SliceCast[[]uint32](buf.ReadOnlyMappedRange(0, size))
	out := make(grid.State, len(words))
	copy(out, words)
	buf.Unmap()
	eng.freeDownload(frame.State)
	eng.pool.returnBuf(buf)
	return out, nil
}
