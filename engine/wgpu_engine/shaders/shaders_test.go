package shaders

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollection(t *testing.T) {
	for _, sh := range []RenderShader{Collection.Grid, Collection.GridFlat} {
		t.Run(sh.Name, func(t *testing.T) {
			require.NotEmpty(t, sh.WGSL, "shader %q has no code", sh.Name)
			src := string(sh.WGSL)
			assert.Contains(t, src, "fn "+sh.VertexEntry)
			assert.Contains(t, src, "fn "+sh.FragmentEntry)

			// the generated source declares exactly the bindings the
			// metadata promises
			assert.Equal(t, len(sh.Bindings), strings.Count(src, "@binding("))

			var stride uint64
			for _, attr := range sh.VertexAttrs {
				stride += attr.Format.Size()
			}
			assert.Equal(t, sh.VertexStride, stride)
		})
	}
}

func TestPermutationsDiffer(t *testing.T) {
	assert.NotEqual(t, Collection.Grid.WGSL, Collection.GridFlat.WGSL)
}
