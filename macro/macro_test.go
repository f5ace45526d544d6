package macro

import (
	"strings"
	"testing"

	"github.com/pthm-cable/gpgpu/layout"
)

func testMaps(t *testing.T) *layout.Maps {
	t.Helper()
	d0 := layout.FromMostRecent(2)
	d2 := layout.Group(layout.FromStep(1, 0), layout.All())
	m, err := layout.Map(layout.Spec{
		Values:      []int{2, 4, 1},
		Names:       []string{"position", "motion", "life"},
		Derives:     []*layout.Derive{&d0, nil, &d2},
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

func TestSamples(t *testing.T) {
	got := Samples(testMaps(t), 0, DefaultPrefix)
	want := `#define gpgpu_samples_l 3
#define gpgpu_samples_0 ivec2(0, 1)
#define gpgpu_samples_1 ivec2(1, 1)
#define gpgpu_samples_2 ivec2(0, 0)
#define gpgpu_useSamples const ivec2 gpgpu_samples[3] = ivec2[3](gpgpu_samples_0, gpgpu_samples_1, gpgpu_samples_2)
#define gpgpu_getSamples(i) (((i) == 0)? gpgpu_samples_0 : (((i) == 1)? gpgpu_samples_1 : gpgpu_samples_2))
`
	if got != want {
		t.Errorf("Samples mismatch\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestReads(t *testing.T) {
	got := Reads(testMaps(t), 0, "p_")
	for _, line := range []string{
		"#define p_reads_position_l 1\n",
		"#define p_reads_position_0 0\n",
		"#define p_useReads_position const int p_reads_position[1] = int[1](p_reads_position_0)\n",
		"#define p_getReads_position(i) p_reads_position_0\n",
		"#define p_reads_life_l 4\n",
		"#define p_reads_life_0 1\n",
		"#define p_reads_life_3 0\n",
	} {
		if !strings.Contains(got, line) {
			t.Errorf("expected %q in:\n%s", line, got)
		}
	}
	if strings.Contains(got, "reads_motion") {
		t.Error("value without derives should have no reads macros")
	}
}

func TestValuesAndOutput(t *testing.T) {
	m := testMaps(t)

	values := Values(m, DefaultPrefix)
	for _, line := range []string{
		"#define gpgpu_texture_motion 0\n",
		"#define gpgpu_channels_motion rgba\n",
		"#define gpgpu_texture_position 1\n",
		"#define gpgpu_channels_position rg\n",
		"#define gpgpu_channels_life b\n",
		"#define gpgpu_index_life 2\n",
	} {
		if !strings.Contains(values, line) {
			t.Errorf("expected %q in values:\n%s", line, values)
		}
	}

	output := Output(m, 0, DefaultPrefix)
	for _, line := range []string{
		"#define gpgpu_outputs 2\n",
		"#define gpgpu_useOutputs layout(location = 0) out vec4 gpgpu_out_0; layout(location = 1) out vec4 gpgpu_out_1;\n",
		"#define gpgpu_bound_motion 0\n",
		"#define gpgpu_output_motion gpgpu_out_0.rgba\n",
		"#define gpgpu_output_life gpgpu_out_1.b\n",
	} {
		if !strings.Contains(output, line) {
			t.Errorf("expected %q in output:\n%s", line, output)
		}
	}
}

func TestOutputOnlyBoundValues(t *testing.T) {
	m, err := layout.Map(layout.Spec{Values: []int{2, 4, 1}, ChannelsMax: 4, BuffersMax: 1, Steps: 2, Bound: 1})
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	got := Output(m, 1, DefaultPrefix)
	if !strings.Contains(got, "#define gpgpu_output_1 gpgpu_out_0.rgba\n") {
		t.Errorf("expected value 1 output in pass 1:\n%s", got)
	}
	if strings.Contains(got, "output_0") || strings.Contains(got, "output_2") {
		t.Errorf("values of other passes must not get outputs:\n%s", got)
	}
}

func TestTaps(t *testing.T) {
	m := testMaps(t)

	got := Taps(m, 0, DefaultPrefix, false)
	tap := "#define gpgpu_tapState(uv) vec4 gpgpu_data[3] = vec4[3](" +
		"texture(gpgpu_states[1], uv), texture(gpgpu_states[3], uv), texture(gpgpu_states[0], uv))\n"
	if !strings.Contains(got, tap) {
		t.Errorf("expected %q in:\n%s", tap, got)
	}
	for _, line := range []string{
		"#define gpgpu_read_position_0 gpgpu_data[0].b\n",
		"#define gpgpu_read_life_0 gpgpu_data[1].rg\n",
		"#define gpgpu_read_life_2 gpgpu_data[2].rgba\n",
	} {
		if !strings.Contains(got, line) {
			t.Errorf("expected %q in:\n%s", line, got)
		}
	}

	merged := Taps(m, 0, DefaultPrefix, true)
	if !strings.Contains(merged, "#define gpgpu_mergedUV(uv, s, t) ") {
		t.Errorf("merged taps should define mergedUV:\n%s", merged)
	}
	if !strings.Contains(merged, "texture(gpgpu_states, gpgpu_mergedUV(uv, 1, 1))") {
		t.Errorf("merged taps should sample the merged texture:\n%s", merged)
	}
}

func TestNoDerivesEmitsNothing(t *testing.T) {
	m, err := layout.Map(layout.Spec{Values: []int{1, 1}, ChannelsMax: 4, BuffersMax: 1, Steps: 2, Bound: 1})
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	for _, merge := range []bool{false, true} {
		if s := Samples(m, 0, DefaultPrefix); s != "" {
			t.Errorf("expected empty samples, got %q", s)
		}
		if s := Reads(m, 0, DefaultPrefix); s != "" {
			t.Errorf("expected empty reads, got %q", s)
		}
		if s := Taps(m, 0, DefaultPrefix, merge); s != "" {
			t.Errorf("expected empty taps, got %q", s)
		}
	}
}

func TestPreamble(t *testing.T) {
	m := testMaps(t)
	got := Preamble(m, 0, DefaultPrefix, Flags{})
	if !strings.Contains(got, "uniform sampler2D gpgpu_states[4];") {
		t.Errorf("expected sampler array sized stepsPast*textures:\n%s", got)
	}
	if strings.Contains(got, "gpgpu_merged") {
		t.Error("unmerged preamble must not define merged")
	}
	merged := Preamble(m, 0, DefaultPrefix, Flags{Merge: true})
	if !strings.Contains(merged, "#define gpgpu_merged 1\n") || !strings.Contains(merged, "uniform sampler2D gpgpu_states;") {
		t.Errorf("unexpected merged preamble:\n%s", merged)
	}
}

func TestGeneratorSeparatesSimilarDerives(t *testing.T) {
	build := func(d layout.Derive) *layout.Maps {
		m, err := layout.Map(layout.Spec{
			Values:      []int{2, 4, 1},
			Derives:     []*layout.Derive{&d},
			ChannelsMax: 4,
			BuffersMax:  1,
			Steps:       3,
			Bound:       1,
		})
		if err != nil {
			t.Fatalf("Map: %v", err)
		}
		return m
	}
	pair := build(layout.FromStep(1, 0))
	group := build(layout.Group(layout.FromMostRecent(1), layout.FromMostRecent(0)))

	g := NewGenerator("", nil)
	a := g.Pass(pair, 0, Flags{})
	b := g.Pass(group, 0, Flags{})
	if a == b {
		t.Fatal("different derives share macro text")
	}
	if want := NewGenerator("", nil).Pass(group, 0, Flags{}); b != want {
		t.Errorf("cached text differs from a fresh generator:\n%s\nwant\n%s", b, want)
	}
}

func TestGeneratorMemoizes(t *testing.T) {
	m := testMaps(t)
	calls := 0
	g := NewGenerator("", Nested(map[string]Hook{
		SectionValues: Func(func(ctx Context) string {
			calls++
			return "// values\n" + ctx.Default()
		}),
	}))

	a := g.Pass(m, 0, Flags{})
	b := g.Pass(m, 0, Flags{})
	if a != b {
		t.Error("expected identical text for identical inputs")
	}
	if calls != 1 {
		t.Errorf("expected hook to run once, ran %d times", calls)
	}
	g.Pass(m, 0, Flags{Merge: true})
	if g.Cached() != 2 {
		t.Errorf("expected 2 cached entries, got %d", g.Cached())
	}
	g.Reset()
	if g.Cached() != 0 {
		t.Error("expected empty cache after reset")
	}
	if !strings.Contains(a, "// values\n#define gpgpu_texture_position") {
		t.Errorf("hook output missing:\n%s", a)
	}
}

func TestHooks(t *testing.T) {
	m := testMaps(t)

	g := NewGenerator("x_", Text("// replaced\n"))
	if got := g.Pass(m, 0, Flags{}); got != strings.Repeat("// replaced\n", len(Sections)) {
		t.Errorf("literal hook should replace every section, got %q", got)
	}

	g = NewGenerator("x_", Nested(map[string]Hook{
		SectionTaps:    Text(""),
		SectionSamples: Nested(map[string]Hook{"1": Text("// pass one\n"), "*": Default()}),
	}))
	got := g.Pass(m, 0, Flags{})
	if strings.Contains(got, "tapState") {
		t.Error("taps should be disabled")
	}
	if !strings.Contains(got, "#define x_samples_l 3") {
		t.Error("samples for pass 0 should keep the default")
	}
	if !strings.Contains(got, "#define x_pass 0") {
		t.Error("sections without hooks should keep the default")
	}
}

func TestSource(t *testing.T) {
	m := testMaps(t)
	g := NewGenerator("", nil)

	src := "#version 330\nvoid main() {}\n"
	got := g.Source(m, 0, Flags{}, src)
	if !strings.HasPrefix(got, "#version 330\n#define gpgpu_pass 0\n") {
		t.Errorf("version line must stay first:\n%s", got)
	}
	if !strings.HasSuffix(got, "void main() {}\n") {
		t.Errorf("source body missing:\n%s", got)
	}

	got = g.Source(m, 0, Flags{}, "void main() {}\n")
	if !strings.HasPrefix(got, "#define gpgpu_pass 0\n") {
		t.Errorf("macros should lead unversioned source:\n%s", got)
	}
}
