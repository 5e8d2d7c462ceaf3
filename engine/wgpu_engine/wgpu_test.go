package wgpu_engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"honnef.co/go/cellgrid/engine/wgpu_engine/shaders"
	"honnef.co/go/cellgrid/renderer"
)

func TestPoolSizeClass(t *testing.T) {
	assert.Equal(t, uint64(2), poolSizeClass(1, 1))
	assert.Equal(t, uint64(2), poolSizeClass(2, 1))
	assert.Equal(t, uint64(4), poolSizeClass(3, 1))
	assert.Equal(t, uint64(4), poolSizeClass(4, 1))
	assert.Equal(t, uint64(8), poolSizeClass(5, 1))
	assert.Equal(t, uint64(1024), poolSizeClass(1000, 1))
}

func TestAlignUp(t *testing.T) {
	assert.Equal(t, uint64(0), alignUp(0, rowPitchAlignment))
	assert.Equal(t, uint64(256), alignUp(1, rowPitchAlignment))
	assert.Equal(t, uint64(256), alignUp(256, rowPitchAlignment))
	assert.Equal(t, uint64(512), alignUp(257, rowPitchAlignment))
	// a 100px wide RGBA8 row is 400 bytes
	assert.Equal(t, uint64(512), alignUp(100*4, rowPitchAlignment))
}

func TestBindTypeMapping(t *testing.T) {
	for _, sh := range []shaders.RenderShader{shaders.Collection.Grid, shaders.Collection.GridFlat} {
		for _, b := range sh.Bindings {
			mapped := bindTypeMapping[b]
			assert.NotZero(t, mapped.Type, "shader %q has an unmapped bind type", sh.Name)
		}
		for _, a := range sh.VertexAttrs {
			assert.NotZero(t, vertexFormatMapping[a.Format], "shader %q has an unmapped vertex format", sh.Name)
		}
	}
}

func TestImageFormatToWGPU(t *testing.T) {
	assert.NotEqual(t, imageFormatToWGPU(renderer.Rgba8), imageFormatToWGPU(renderer.Bgra8))
	assert.Panics(t, func() { imageFormatToWGPU(renderer.ImageFormat(99)) })
}
