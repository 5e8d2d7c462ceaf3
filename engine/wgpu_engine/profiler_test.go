package wgpu_engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"honnef.co/go/cellgrid/mem"
)

// The nop profiler is a nil pointer; every entry point the render and
// readback paths go through has to tolerate that.
func TestNopProfiler(t *testing.T) {
	p := NewNopProfiler()
	assert.Nil(t, p.Collect())

	g := p.Start(1)
	assert.Nil(t, g)
	assert.Nil(t, g.Nest("child"))
	assert.Nil(t, g.Start("child"))

	arena := mem.NewArena()
	assert.Nil(t, g.Render(arena, "pass"))

	span := g.Begin(nil, "copy")
	assert.Zero(t, span)
	span.End(nil)

	g.End()
	p.Resolve(nil)
	p.Map()
}
