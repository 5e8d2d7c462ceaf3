// Command cellgrid renders a grid of cells headlessly and writes the
// result to a PNG file.
package main

import (
	"flag"
	"fmt"
	"image/png"
	"log/slog"
	"os"

	"honnef.co/go/cellgrid/engine/wgpu_engine"
	"honnef.co/go/cellgrid/grid"
	"honnef.co/go/cellgrid/mem"
	"honnef.co/go/cellgrid/renderer"
)

func main() {
	var (
		configPath string
		output     string
		verbose    bool
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [-v] [-config <file>] [-o <file>]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.StringVar(&configPath, "config", "", "Path to YAML config `file`")
	flag.StringVar(&output, "o", "", "Path to output `file`, overriding the config")
	flag.BoolVar(&verbose, "v", false, "Be verbose")
	flag.Parse()

	if len(flag.Args()) != 0 {
		flag.Usage()
		os.Exit(2)
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if err := run(configPath, output); err != nil {
		slog.Error("rendering failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath, output string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if output != "" {
		cfg.Output = output
	}

	g := grid.New(cfg.Grid.Columns, cfg.Grid.Rows)
	state, err := seedState(cfg, g)
	if err != nil {
		return err
	}
	slog.Debug("seeded grid",
		"columns", g.Columns, "rows", g.Rows,
		"pattern", cfg.Seed, "active", state.Active())

	dev, queue, err := wgpu_engine.AcquireDevice(nil)
	if err != nil {
		return err
	}
	eng := wgpu_engine.New(dev, &wgpu_engine.RendererOptions{})

	arena := mem.NewArena()
	img, err := eng.RenderToImage(arena, queue, g, state, &renderer.RenderParams{
		Width:     cfg.Width,
		Height:    cfg.Height,
		BaseColor: cfg.BaseColor,
		Inset:     cfg.Inset,
		Flat:      cfg.Flat,
	}, nil)
	if err != nil {
		return err
	}

	f, err := os.Create(cfg.Output)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	slog.Info("wrote image", "path", cfg.Output, "cells", g.Cells())
	return nil
}
