package grid

import (
	"encoding/binary"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedEveryThird(t *testing.T) {
	tests := []struct {
		name          string
		columns, rows uint32
	}{
		{"square", 32, 32},
		{"wide", 7, 3},
		{"tall", 3, 7},
		{"single", 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(tt.columns, tt.rows)
			s := SeedEveryThird(g)
			require.Len(t, s, int(g.Cells()))

			// every full run of three consecutive indices holds
			// exactly one active cell
			for i := 0; i+3 <= len(s); i += 3 {
				active := 0
				for _, w := range s[i : i+3] {
					if w != 0 {
						active++
					}
				}
				assert.Equal(t, 1, active, "run starting at %d", i)
			}
			assert.EqualValues(t, 1, s[0])
		})
	}
}

func TestSeedCheckerboard(t *testing.T) {
	g := New(4, 4)
	s := SeedCheckerboard(g)
	assert.Equal(t, 8, s.Active())
	// (0,0) and (1,1) active, (1,0) and (0,1) not
	assert.EqualValues(t, 1, s[0])
	assert.EqualValues(t, 0, s[1])
	assert.EqualValues(t, 0, s[4])
	assert.EqualValues(t, 1, s[5])
}

func TestStateBytes(t *testing.T) {
	s := State{1, 0, 0x01020304}
	b := s.Bytes()
	require.Len(t, b, 12)
	assert.EqualValues(t, 1, binary.LittleEndian.Uint32(b[0:4]))
	assert.EqualValues(t, 0, binary.LittleEndian.Uint32(b[4:8]))
	assert.EqualValues(t, 0x01020304, binary.LittleEndian.Uint32(b[8:12]))
}

func TestUniformLayout(t *testing.T) {
	// vec2<f32>: 8 bytes, no padding
	assert.EqualValues(t, 8, unsafe.Sizeof(Uniform{}))

	u := New(16, 24).Uniform()
	b := u.Bytes()
	require.Len(t, b, 8)
	assert.Equal(t, float32(16), u.Columns)
	assert.Equal(t, float32(24), u.Rows)
}

func TestQuad(t *testing.T) {
	verts := Quad(0.2)
	require.Len(t, verts, 4)
	for _, v := range verts {
		assert.InDelta(t, 0.8, abs32(v.Pos[0]), 1e-6)
		assert.InDelta(t, 0.8, abs32(v.Pos[1]), 1e-6)
	}
	assert.Len(t, VertexBytes(verts), 4*8)

	idx := QuadIndices()
	assert.Equal(t, []uint16{0, 1, 2, 0, 2, 3}, idx)
	assert.Len(t, IndexBytes(idx), 12)
}

func TestQuadBadInset(t *testing.T) {
	assert.Panics(t, func() { Quad(1) })
	assert.Panics(t, func() { Quad(-0.1) })
}

func abs32(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}
