package renderer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"honnef.co/go/cellgrid/mem"
)

func TestRecording(t *testing.T) {
	arena := mem.NewArena()
	rec := &Recording{}

	data := []byte{1, 2, 3, 4}
	buf := rec.Upload(arena, "scratch", data)
	assert.Equal(t, uint64(4), buf.Size)
	assert.Equal(t, "scratch", buf.Name)

	rec.FreeBuffer(arena, buf)

	img := NewImageProxy(16, 16, Rgba8)
	rec.FreeImage(arena, img)

	require.Len(t, rec.Commands, 3)
	up := rec.Commands[0].(*Upload)
	assert.Equal(t, buf, up.Buffer)
	assert.Equal(t, data, up.Data)
	assert.Equal(t, buf, rec.Commands[1].(*FreeBuffer).Buffer)
	assert.Equal(t, img, rec.Commands[2].(*FreeImage).Image)
}

func TestResourceIDsUnique(t *testing.T) {
	a := NewBufferProxy(16, "a")
	b := NewBufferProxy(16, "b")
	img := NewImageProxy(1, 1, Bgra8)
	assert.NotEqual(t, a.ID, b.ID)
	assert.NotEqual(t, b.ID, img.ID)
}

func TestResourceProxyKinds(t *testing.T) {
	buf := NewBufferProxy(8, "buf")
	assert.Equal(t, ResourceProxyKindBuffer, buf.Resource().Kind)
	img := NewImageProxy(4, 4, Rgba8)
	assert.Equal(t, ResourceProxyKindImage, img.Resource().Kind)
}
