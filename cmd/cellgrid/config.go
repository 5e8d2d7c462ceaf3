package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
	"honnef.co/go/cellgrid/grid"
)

type Config struct {
	Grid struct {
		Columns uint32 `yaml:"columns"`
		Rows    uint32 `yaml:"rows"`
	} `yaml:"grid"`
	// Seed selects the initial cell pattern: every-third, checkerboard,
	// or full.
	Seed   string `yaml:"seed"`
	Width  uint32 `yaml:"width"`
	Height uint32 `yaml:"height"`
	// BaseColor is the premultiplied linear RGBA clear color.
	BaseColor [4]float32 `yaml:"base_color"`
	Inset     float32    `yaml:"inset"`
	Flat      bool       `yaml:"flat"`
	Output    string     `yaml:"output"`
}

func defaultConfig() Config {
	cfg := Config{
		Seed:      "every-third",
		Width:     512,
		Height:    512,
		BaseColor: [4]float32{0, 0, 0.4, 1},
		Inset:     0.1,
		Output:    "grid.png",
	}
	cfg.Grid.Columns = 32
	cfg.Grid.Rows = 32
	return cfg
}

func (cfg *Config) validate() error {
	if cfg.Grid.Columns == 0 || cfg.Grid.Rows == 0 {
		return fmt.Errorf("grid needs at least one column and row, got %dx%d", cfg.Grid.Columns, cfg.Grid.Rows)
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return fmt.Errorf("output needs a nonzero size, got %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.Inset < 0 || cfg.Inset >= 1 {
		return fmt.Errorf("inset must be in [0, 1), got %g", cfg.Inset)
	}
	return nil
}

func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func seedState(cfg Config, g grid.Grid) (grid.State, error) {
	switch cfg.Seed {
	case "every-third":
		return grid.SeedEveryThird(g), nil
	case "checkerboard":
		return grid.SeedCheckerboard(g), nil
	case "full":
		return grid.SeedFull(g), nil
	default:
		return nil, fmt.Errorf("unknown seed pattern %q", cfg.Seed)
	}
}
