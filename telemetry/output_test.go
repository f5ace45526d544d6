package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/gpgpu/config"
	"github.com/pthm-cable/gpgpu/layout"
)

func testMaps(t *testing.T) *layout.Maps {
	t.Helper()
	motion := layout.Group(layout.FromMostRecent(0), layout.FromStep(1, 2))
	m, err := layout.Map(layout.Spec{
		Values:      []int{2, 4, 1},
		Names:       []string{"position", "", "life"},
		Derives:     []*layout.Derive{nil, &motion},
		ChannelsMax: 4,
		BuffersMax:  4,
		Steps:       3,
		Bound:       1,
		Pack:        true,
	})
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	return m
}

func TestValueRecords(t *testing.T) {
	m := testMaps(t)
	rows := ValueRecords(m)
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}

	tests := []struct {
		row     ValueCSV
		name    string
		texture int
		swizzle string
		reads   int
	}{
		{rows[0], "position", 1, "rg", 0},
		{rows[1], "1", 0, "rgba", 2},
		{rows[2], "life", 1, "b", 0},
	}
	for i, tt := range tests {
		if tt.row.Name != tt.name || tt.row.Texture != tt.texture || tt.row.Swizzle != tt.swizzle || tt.row.Reads != tt.reads {
			t.Errorf("row %d = %+v", i, tt.row)
		}
	}
	if rows[1].Derive != "[0, [1, 2]]" {
		t.Errorf("derive = %q", rows[1].Derive)
	}
}

func TestOutputManager(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatalf("NewOutputManager: %v", err)
	}

	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	m := testMaps(t)
	if err := om.WriteConfig(cfg); err != nil {
		t.Errorf("WriteConfig: %v", err)
	}
	if err := om.WriteLayout(m); err != nil {
		t.Errorf("WriteLayout: %v", err)
	}
	if err := om.WriteShader(0, "#version 330\n"); err != nil {
		t.Errorf("WriteShader: %v", err)
	}

	pc := NewPerfCollector(4)
	for window := int32(1); window <= 2; window++ {
		pc.StartTick()
		pc.StartPhase("pass_0")
		pc.EndTick()
		if err := om.WritePerf(pc.Stats(), window*60); err != nil {
			t.Errorf("WritePerf: %v", err)
		}
	}
	if err := om.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	for _, name := range []string{"config.yaml", "values.csv", "samples.csv", "pass_0.glsl"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}

	data, err := os.ReadFile(filepath.Join(dir, "samples.csv"))
	if err != nil {
		t.Fatal(err)
	}
	var samples []SampleCSV
	if err := gocsv.UnmarshalBytes(data, &samples); err != nil {
		t.Fatalf("parsing samples.csv: %v", err)
	}
	if len(samples) != len(SampleRecords(m)) || samples[0].Texture != m.Samples[0][0].Texture {
		t.Errorf("samples.csv = %+v", samples)
	}

	perf, err := os.ReadFile(filepath.Join(dir, "perf.csv"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(perf)), "\n")
	if len(lines) != 3 || !strings.HasPrefix(lines[0], "window_end,") {
		t.Errorf("perf.csv should hold one header and two rows:\n%s", perf)
	}
}

func TestOutputManagerDisabled(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil || om != nil {
		t.Fatalf("expected nil manager, got %v, %v", om, err)
	}
	if err := om.WriteLayout(testMaps(t)); err != nil {
		t.Errorf("disabled manager should ignore writes: %v", err)
	}
	if err := om.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}
