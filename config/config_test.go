package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/pthm-cable/gpgpu/gpu"
	"github.com/pthm-cable/gpgpu/layout"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Device.ChannelsMax != 4 || cfg.State.Steps != 2 || cfg.State.Bound != 1 {
		t.Errorf("unexpected defaults: %+v %+v", cfg.Device, cfg.State)
	}
	if cfg.Derived.Type != gpu.Float {
		t.Errorf("expected float state, got %v", cfg.Derived.Type)
	}
	if cfg.Derived.ValueIndex["life"] != 2 {
		t.Errorf("life index = %d, want 2", cfg.Derived.ValueIndex["life"])
	}

	spec, err := cfg.Spec()
	if err != nil {
		t.Fatalf("Spec: %v", err)
	}
	if len(spec.Values) != 3 || spec.Values[0] != 2 || spec.Values[2] != 1 {
		t.Errorf("values = %v", spec.Values)
	}
	if got := spec.Derives[1].String(); got != "[0, 1, 2]" {
		t.Errorf("motion derive = %s, want [0, 1, 2]", got)
	}
	if _, err := layout.Map(spec); err != nil {
		t.Errorf("default spec does not map: %v", err)
	}
}

func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	user := []byte(`
state:
  steps: 3
  merge: true
  type: half
values:
  - name: heat
    channels: 1
    derive: [true, heat]
`)
	if err := os.WriteFile(path, user, 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.State.Steps != 3 || !cfg.State.Merge || cfg.State.Width != 128 {
		t.Errorf("merge kept wrong fields: %+v", cfg.State)
	}
	if cfg.Derived.Type != gpu.HalfFloat {
		t.Errorf("expected half float, got %v", cfg.Derived.Type)
	}
	if len(cfg.Values) != 1 {
		t.Fatalf("values should be replaced, got %d", len(cfg.Values))
	}
	spec, err := cfg.Spec()
	if err != nil {
		t.Fatalf("Spec: %v", err)
	}
	if got := spec.Derives[0].Edges(1, spec.StepsPast()); len(got) != 2 {
		t.Errorf("every-step derive over 2 past steps gave %v", got)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad type", "state: {type: double}"},
		{"bad filter", "state: {filter: cubic}"},
		{"duplicate value", "values: [{name: a, channels: 1}, {name: a, channels: 1}]"},
		{"bad derive", "values: [{name: a, channels: 1, derive: {x: 1}}]"},
		{"colliding macro names", "values: [{name: a-b, channels: 1}, {name: a_b, channels: 1}]"},
		{"name shadows index", "values: [{name: \"1\", channels: 1}, {channels: 1}]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.yaml), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestSpecRejectsWideTexels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("device: {channels_max: 8}"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := cfg.Spec(); !errors.Is(err, layout.ErrLimit) {
		t.Errorf("expected ErrLimit, got %v", err)
	}
}

func TestParseDerive(t *testing.T) {
	index := map[string]int{"position": 0, "motion": 1, "life": 2}
	tests := []struct {
		text string
		want string
	}{
		{"2", "2"},
		{"motion", "1"},
		{"true", "true"},
		{"[1, life]", "[1, 2]"},
		{"[1, true]", "[1, true]"},
		{"[true, position]", "[true, 0]"},
		{"[position, motion]", "[[0], 1]"},
		{"[[0], 1]", "[[0], 1]"},
		{"[2, [1, 0], true, [true, 1], [1, true]]", "[2, [1, 0], true, [true, 1], [1, true]]"},
	}
	for _, tt := range tests {
		d, err := ParseDerive(tt.text)
		if err != nil {
			t.Errorf("ParseDerive(%q): %v", tt.text, err)
			continue
		}
		got, err := d.Resolve(index)
		if err != nil {
			t.Errorf("Resolve(%q): %v", tt.text, err)
			continue
		}
		if got.String() != tt.want {
			t.Errorf("%q resolved to %s, want %s", tt.text, got, tt.want)
		}
	}
}

func TestDeriveStringRoundTrip(t *testing.T) {
	tests := []layout.Derive{
		layout.FromMostRecent(2),
		layout.FromStep(1, 0),
		layout.All(),
		layout.AllFromStep(1),
		layout.EveryStep(2),
		layout.Group(layout.FromMostRecent(0), layout.FromMostRecent(1)),
		layout.Group(layout.FromMostRecent(1), layout.All()),
		layout.Group(layout.All(), layout.FromMostRecent(2)),
		layout.Group(layout.All(), layout.All()),
		layout.Group(layout.FromMostRecent(0)),
		layout.Group(layout.Group(layout.FromMostRecent(0), layout.FromMostRecent(1))),
		layout.Group(layout.FromMostRecent(2), layout.FromStep(1, 0), layout.All(), layout.EveryStep(1)),
	}
	for _, want := range tests {
		text := want.String()
		d, err := ParseDerive(text)
		if err != nil {
			t.Errorf("ParseDerive(%q): %v", text, err)
			continue
		}
		got, err := d.Resolve(nil)
		if err != nil {
			t.Errorf("Resolve(%q): %v", text, err)
			continue
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("%q read back as %#v, want %#v", text, got, want)
		}
		if d.String() != text {
			t.Errorf("DeriveConfig.String() = %q, want %q", d.String(), text)
		}
	}
}

func TestParseDeriveErrors(t *testing.T) {
	for _, text := range []string{"false", "{a: 1}", "[1, 2.5]", "null"} {
		d, err := ParseDerive(text)
		if err == nil {
			_, err = d.Resolve(nil)
		}
		if err == nil {
			t.Errorf("%q: expected error", text)
		}
	}

	d, err := ParseDerive("[1, speed]")
	if err != nil {
		t.Fatalf("unknown names are resolved late: %v", err)
	}
	if _, err := d.Resolve(map[string]int{}); !errors.Is(err, layout.ErrDeriveValue) {
		t.Errorf("expected ErrDeriveValue, got %v", err)
	}
}

func TestWriteYAML(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}
	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("reloading written config: %v", err)
	}
	a, _ := cfg.Spec()
	b, err := reloaded.Spec()
	if err != nil {
		t.Fatalf("Spec: %v", err)
	}
	if a.Hash() != b.Hash() {
		t.Error("written config describes a different layout")
	}
}
