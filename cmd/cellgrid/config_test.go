package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"honnef.co/go/cellgrid/grid"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	err := os.WriteFile(path, []byte(`
grid:
  columns: 16
  rows: 8
seed: checkerboard
width: 256
height: 128
base_color: [0, 0, 0, 1]
inset: 0.1
output: out.png
`), 0o666)
	require.NoError(t, err)

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, uint32(16), cfg.Grid.Columns)
	assert.Equal(t, uint32(8), cfg.Grid.Rows)
	assert.Equal(t, "checkerboard", cfg.Seed)
	assert.Equal(t, uint32(256), cfg.Width)
	assert.Equal(t, float32(0.1), cfg.Inset)
	assert.Equal(t, "out.png", cfg.Output)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, uint32(32), cfg.Grid.Columns)
	assert.Equal(t, "every-third", cfg.Seed)
	assert.Equal(t, "grid.png", cfg.Output)
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"zero columns", "grid: {columns: 0, rows: 8}"},
		{"zero rows", "grid: {columns: 8, rows: 0}"},
		{"zero width", "width: 0"},
		{"zero height", "height: 0"},
		{"negative inset", "inset: -0.1"},
		{"inset too large", "inset: 1.5"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yml")
			require.NoError(t, os.WriteFile(path, []byte(c.yaml), 0o666))
			_, err := loadConfig(path)
			assert.Error(t, err)
		})
	}
}

func TestSeedState(t *testing.T) {
	g := grid.New(6, 6)

	cfg := defaultConfig()
	state, err := seedState(cfg, g)
	require.NoError(t, err)
	assert.Equal(t, 12, state.Active())

	cfg.Seed = "full"
	state, err = seedState(cfg, g)
	require.NoError(t, err)
	assert.Equal(t, 36, state.Active())

	cfg.Seed = "sometimes"
	_, err = seedState(cfg, g)
	assert.Error(t, err)
}
