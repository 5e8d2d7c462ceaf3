// Package grid describes fixed-size cell grids and their GPU-facing
// representation: per-cell state words, the per-grid uniform, and the
// quad geometry that gets instanced once per cell.
package grid

import (
	"fmt"

	"honnef.co/go/safeish"
)

type Grid struct {
	Columns uint32
	Rows    uint32
}

func New(columns, rows uint32) Grid {
	if columns == 0 || rows == 0 {
		panic(fmt.Sprintf("degenerate grid %dx%d", columns, rows))
	}
	return Grid{Columns: columns, Rows: rows}
}

// Cells returns the number of cells, which is also the instance count
// of the draw call.
func (g Grid) Cells() uint32 {
	return g.Columns * g.Rows
}

// State holds one word per cell. Nonzero means active. The word size
// matches the u32 element type of the storage buffer, so State memory
// can be uploaded as-is.
type State []uint32

func NewState(g Grid) State {
	return make(State, g.Cells())
}

// SeedEveryThird activates every third cell, starting with cell 0.
// Each run of three consecutive indices contains exactly one active
// cell.
func SeedEveryThird(g Grid) State {
	s := NewState(g)
	for i := 0; i < len(s); i += 3 {
		s[i] = 1
	}
	return s
}

// SeedCheckerboard activates cells whose column and row parities
// match.
func SeedCheckerboard(g Grid) State {
	s := NewState(g)
	for i := range s {
		x := uint32(i) % g.Columns
		y := uint32(i) / g.Columns
		if x%2 == y%2 {
			s[i] = 1
		}
	}
	return s
}

// SeedFull activates every cell.
func SeedFull(g Grid) State {
	s := NewState(g)
	for i := range s {
		s[i] = 1
	}
	return s
}

func (s State) Bytes() []byte {
	return safeish.SliceCast[[]byte](s)
}

func (s State) Active() int {
	n := 0
	for _, w := range s {
		if w != 0 {
			n++
		}
	}
	return n
}
