package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/gpgpu/config"
	"github.com/pthm-cable/gpgpu/layout"
)

// OutputManager handles run output: the layout as CSV, generated shader
// sources and rolling perf stats.
type OutputManager struct {
	dir        string
	perfFile   *os.File
	phasesFile *os.File

	// Track if headers have been written
	perfHeaderWritten   bool
	phasesHeaderWritten bool
}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}

	f, err := os.Create(filepath.Join(dir, "perf.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating perf.csv: %w", err)
	}
	om.perfFile = f

	f, err = os.Create(filepath.Join(dir, "phases.csv"))
	if err != nil {
		om.perfFile.Close()
		return nil, fmt.Errorf("creating phases.csv: %w", err)
	}
	om.phasesFile = f

	return om, nil
}

// WriteConfig saves the current configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteLayout writes values.csv and samples.csv for a layout.
func (om *OutputManager) WriteLayout(m *layout.Maps) error {
	if om == nil {
		return nil
	}
	if err := writeCSVFile(filepath.Join(om.dir, "values.csv"), ValueRecords(m)); err != nil {
		return fmt.Errorf("writing values: %w", err)
	}
	samples := SampleRecords(m)
	if samples == nil {
		samples = []SampleCSV{}
	}
	if err := writeCSVFile(filepath.Join(om.dir, "samples.csv"), samples); err != nil {
		return fmt.Errorf("writing samples: %w", err)
	}
	return nil
}

func writeCSVFile(path string, records any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := gocsv.MarshalFile(records, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteShader saves a pass's complete fragment source as pass_<n>.glsl.
func (om *OutputManager) WriteShader(pass int, source string) error {
	if om == nil {
		return nil
	}
	path := filepath.Join(om.dir, fmt.Sprintf("pass_%d.glsl", pass))
	if err := os.WriteFile(path, []byte(source), 0644); err != nil {
		return fmt.Errorf("writing pass %d shader: %w", pass, err)
	}
	return nil
}

// WritePerf writes a performance stats record to perf.csv and its phase
// breakdown to phases.csv.
func (om *OutputManager) WritePerf(stats PerfStats, windowEnd int32) error {
	if om == nil {
		return nil
	}

	records := []PerfStatsCSV{stats.ToCSV(windowEnd)}
	if !om.perfHeaderWritten {
		if err := gocsv.Marshal(records, om.perfFile); err != nil {
			return fmt.Errorf("writing perf: %w", err)
		}
		om.perfHeaderWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(records, om.perfFile); err != nil {
			return fmt.Errorf("writing perf: %w", err)
		}
	}

	phases := stats.PhasesCSV(windowEnd)
	if len(phases) == 0 {
		return nil
	}
	if !om.phasesHeaderWritten {
		if err := gocsv.Marshal(phases, om.phasesFile); err != nil {
			return fmt.Errorf("writing phases: %w", err)
		}
		om.phasesHeaderWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(phases, om.phasesFile); err != nil {
			return fmt.Errorf("writing phases: %w", err)
		}
	}
	return nil
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error
	for _, f := range []*os.File{om.perfFile, om.phasesFile} {
		if f == nil {
			continue
		}
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
