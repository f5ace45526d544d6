// Shader debug tool - runs a state update shader for a number of steps and
// writes every texture of the latest step to a PNG file for inspection.
//
// Usage: go run ./cmd/shaderdebug -shader update.fs -steps 60 -out debug
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/gpgpu/config"
	"github.com/pthm-cable/gpgpu/layout"
	"github.com/pthm-cable/gpgpu/renderer"
	"github.com/pthm-cable/gpgpu/state"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	shaderPath := flag.String("shader", "", "Path to the update fragment shader")
	outPath := flag.String("out", "debug", "Output PNG path prefix")
	steps := flag.Int("steps", 1, "Steps to run before capturing")
	flag.Parse()

	if *shaderPath == "" {
		fmt.Fprintln(os.Stderr, "Missing -shader")
		os.Exit(2)
	}
	src, err := os.ReadFile(*shaderPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read shader: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	spec, err := cfg.Spec()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid layout: %v\n", err)
		os.Exit(1)
	}
	m, err := layout.NewPipeline(spec).Maps()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid layout: %v\n", err)
		os.Exit(1)
	}

	// Initialize raylib with hidden window
	rl.SetConfigFlags(rl.FlagWindowHidden)
	rl.InitWindow(int32(cfg.State.Width), int32(cfg.State.Height), "Shader Debug")
	defer rl.CloseWindow()

	p := renderer.NewProvider()
	defer p.Unload()

	w, h := cfg.State.Width, cfg.State.Height
	st, err := state.New(p, m, state.Options{
		Width:       w,
		Height:      h,
		Merge:       cfg.State.Merge,
		Type:        cfg.Derived.Type,
		Filter:      cfg.Derived.Filter,
		Wrap:        cfg.Derived.Wrap,
		TexturesMax: cfg.Device.TexturesMax,
		Prefix:      cfg.State.Prefix,
		Fragment:    string(src),
		// Every value starts as a gradient over its channels.
		Data: state.SeedValues(m, w, h, func(v, x, y int, out []float32) {
			for c := range out {
				if c%2 == 0 {
					out[c] = float32(x) / float32(w)
				} else {
					out[c] = float32(y) / float32(h)
				}
			}
		}),
		Logger: slog.Default(),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create state: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	for i := 0; i < *steps; i++ {
		if err := st.Step(); err != nil {
			fmt.Fprintf(os.Stderr, "Step %d failed: %v\n", i, err)
			os.Exit(1)
		}
	}

	failed := false
	for t, tex := range st.Current() {
		img, err := p.ReadImage(tex)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to read texture %d: %v\n", t, err)
			failed = true
			continue
		}
		path := fmt.Sprintf("%s_tex%d.png", *outPath, t)
		if rl.ExportImage(*img, path) {
			fmt.Printf("Texture %d rendered to: %s (%dx%d, step %d)\n", t, path, w, h, st.StepNow())
		} else {
			fmt.Fprintf(os.Stderr, "Failed to export %s\n", path)
			failed = true
		}
		rl.UnloadImage(img)
	}
	if failed {
		os.Exit(1)
	}
}
