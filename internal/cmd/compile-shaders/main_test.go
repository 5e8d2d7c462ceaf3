package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessDefines(t *testing.T) {
	src := []byte(`#ifdef flat
flat line
#else
gradient line
#endif
let x = 1;
`)

	p := preprocessor{defines: map[string]bool{"flat": true}}
	out, err := p.process(src, "test")
	require.NoError(t, err)
	assert.Equal(t, "flat line\nconst x = 1;\n", string(out))

	p.defines = nil
	out, err = p.process(src, "test")
	require.NoError(t, err)
	assert.Equal(t, "gradient line\nconst x = 1;\n", string(out))
}

func TestProcessErrors(t *testing.T) {
	p := preprocessor{}
	_, err := p.process([]byte("#endif\n"), "test")
	assert.Error(t, err)
	_, err = p.process([]byte("#ifdef x\n"), "test")
	assert.Error(t, err)
	_, err = p.process([]byte("#frobnicate\n"), "test")
	assert.Error(t, err)
}

func TestParsePermutations(t *testing.T) {
	perms := parsePermutations([]byte(`# comment
grid
+ grid:
+ grid_flat: flat
`))
	require.Len(t, perms["grid"], 2)
	assert.Equal(t, "grid", perms["grid"][0].name)
	assert.Empty(t, perms["grid"][0].defines)
	assert.Equal(t, "grid_flat", perms["grid"][1].name)
	assert.Equal(t, []string{"flat"}, perms["grid"][1].defines)
}
