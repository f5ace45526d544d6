// Layout inspection tool - prints how a config's values are packed into
// textures and passes, and the macros each pass's shader receives.
//
// Usage: go run ./cmd/gpgpu-layout -config config.yaml -macros -out layout/
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/gpgpu/config"
	"github.com/pthm-cable/gpgpu/layout"
	"github.com/pthm-cable/gpgpu/macro"
	"github.com/pthm-cable/gpgpu/telemetry"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	pass := flag.Int("pass", -1, "Only show this pass (-1 = all)")
	merge := flag.Bool("merge", false, "Generate macros for a merged past-state texture")
	showMacros := flag.Bool("macros", false, "Print generated macros per pass")
	asCSV := flag.Bool("csv", false, "Print value and sample tables as CSV")
	outDir := flag.String("out", "", "Write config, layout CSVs and macros to this directory")
	flag.Parse()

	if err := run(*configPath, *pass, *merge, *showMacros, *asCSV, *outDir); err != nil {
		slog.Error("layout failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath string, pass int, merge, showMacros, asCSV bool, outDir string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	spec, err := cfg.Spec()
	if err != nil {
		return err
	}
	m, err := layout.NewPipeline(spec).Maps()
	if err != nil {
		return err
	}
	if pass >= len(m.Passes) {
		return fmt.Errorf("pass %d of %d", pass, len(m.Passes))
	}

	if asCSV {
		if err := printCSV(m); err != nil {
			return err
		}
	} else {
		printLayout(m)
	}

	gen := macro.NewGenerator(cfg.State.Prefix, nil)
	flags := macro.Flags{Merge: merge}
	if showMacros {
		for p := range m.Passes {
			if pass >= 0 && p != pass {
				continue
			}
			fmt.Printf("\n// ---- pass %d ----\n%s", p, gen.Pass(m, p, flags))
		}
	}

	if outDir == "" {
		return nil
	}
	om, err := telemetry.NewOutputManager(outDir)
	if err != nil {
		return err
	}
	defer om.Close()
	if err := om.WriteConfig(cfg); err != nil {
		return err
	}
	if err := om.WriteLayout(m); err != nil {
		return err
	}
	for p := range m.Passes {
		if err := om.WriteShader(p, gen.Pass(m, p, flags)); err != nil {
			return err
		}
	}
	fmt.Printf("\nReports written to: %s\n", om.Dir())
	return nil
}

func printLayout(m *layout.Maps) {
	sum := telemetry.Summarize(m)
	fmt.Printf("values %d | textures %d | passes %d | samples %d | readable steps %d | key %016x\n",
		sum.Values, sum.Textures, sum.Passes, sum.Samples, sum.StepsPast, sum.Key)
	for p, textures := range m.Passes {
		fmt.Printf("\npass %d\n", p)
		for _, t := range textures {
			names := make([]string, len(m.Textures[t]))
			for i, v := range m.Textures[t] {
				names[i] = fmt.Sprintf("%s.%s", m.Name(v), m.Swizzle(v))
			}
			fmt.Printf("  texture %d: %s\n", t, strings.Join(names, " "))
		}
		for _, v := range m.PassValues(p) {
			reads := m.Reads[p][v]
			if len(reads) == 0 {
				continue
			}
			fmt.Printf("  %s reads samples %v\n", m.Name(v), reads)
		}
	}
}

func printCSV(m *layout.Maps) error {
	values, err := gocsv.MarshalString(telemetry.ValueRecords(m))
	if err != nil {
		return err
	}
	samples, err := gocsv.MarshalString(telemetry.SampleRecords(m))
	if err != nil {
		return err
	}
	fmt.Print(values)
	fmt.Println()
	fmt.Print(samples)
	return nil
}
