package macro

import (
	"fmt"
	"strings"

	"github.com/pthm-cable/gpgpu/glsl"
	"github.com/pthm-cable/gpgpu/layout"
)

// Flags select variants of the generated text.
type Flags struct {
	// Merge reads past states from one merged texture instead of an array
	// of per-step textures.
	Merge bool
}

// Section names, also the keys Nested hooks dispatch on.
const (
	SectionPreamble = "preamble"
	SectionValues   = "values"
	SectionOutput   = "output"
	SectionSamples  = "samples"
	SectionReads    = "reads"
	SectionTaps     = "taps"
)

// Sections lists every section in emission order.
var Sections = []string{
	SectionPreamble,
	SectionValues,
	SectionOutput,
	SectionSamples,
	SectionReads,
	SectionTaps,
}

// render returns the built-in text for one section.
func render(m *layout.Maps, pass int, flags Flags, section, prefix string) string {
	switch section {
	case SectionPreamble:
		return Preamble(m, pass, prefix, flags)
	case SectionValues:
		return Values(m, prefix)
	case SectionOutput:
		return Output(m, pass, prefix)
	case SectionSamples:
		return Samples(m, pass, prefix)
	case SectionReads:
		return Reads(m, pass, prefix)
	case SectionTaps:
		return Taps(m, pass, prefix, flags.Merge)
	}
	return ""
}

// Preamble defines the layout counts, the current pass and the uniforms the
// resource binder provides.
func Preamble(m *layout.Maps, pass int, prefix string, flags Flags) string {
	var b strings.Builder
	def := func(name string, v any) {
		fmt.Fprintf(&b, "#define %s%s %v\n", prefix, name, v)
	}
	def("pass", pass)
	def("passes", len(m.Passes))
	def("textures", len(m.Textures))
	def("values", len(m.Values))
	def("steps", m.Steps)
	def("bound", m.Bound)
	def("stepsPast", m.StepsPast)
	def("channelsMax", m.ChannelsMax)
	def("buffersMax", m.BuffersMax)

	states := ""
	if flags.Merge {
		def("merged", 1)
		states = fmt.Sprintf(" uniform sampler2D %sstates;", prefix)
	} else if n := m.StepsPast * len(m.Textures); n > 0 {
		states = fmt.Sprintf(" uniform sampler2D %sstates[%d];", prefix, n)
	}
	fmt.Fprintf(&b, "#define %[1]suseUniforms uniform vec2 %[1]sshape; uniform int %[1]sstepNow;%[2]s\n", prefix, states)
	b.WriteString(glsl.FragCoordUV(prefix))
	return b.String()
}

// Values defines, for every value, the texture holding it and the channels
// it occupies there.
func Values(m *layout.Maps, prefix string) string {
	var b strings.Builder
	for v := range m.Values {
		name := Ident(m.Name(v))
		fmt.Fprintf(&b, "#define %stexture_%s %d\n", prefix, name, m.ValueToTexture[v])
		fmt.Fprintf(&b, "#define %schannels_%s %s\n", prefix, name, m.Swizzle(v))
		if name != fmt.Sprint(v) {
			fmt.Fprintf(&b, "#define %sindex_%s %d\n", prefix, name, v)
		}
	}
	return b.String()
}

// Output declares the pass's draw-buffer outputs and, for each value the
// pass writes, its attachment and a swizzled output alias. Values written by
// other passes get no output macro, so shaders can test with #ifdef.
func Output(m *layout.Maps, pass int, prefix string) string {
	textures := m.Passes[pass]

	var b strings.Builder
	fmt.Fprintf(&b, "#define %soutputs %d\n", prefix, len(textures))
	fmt.Fprintf(&b, "#define %suseOutputs", prefix)
	for i := range textures {
		fmt.Fprintf(&b, " layout(location = %[2]d) out vec4 %[1]sout_%[2]d;", prefix, i)
	}
	b.WriteString("\n")

	for _, v := range m.PassValues(pass) {
		name := Ident(m.Name(v))
		a := m.Attachment(v)
		fmt.Fprintf(&b, "#define %sbound_%s %d\n", prefix, name, a)
		fmt.Fprintf(&b, "#define %soutput_%s %sout_%d.%s\n", prefix, name, prefix, a, m.Swizzle(v))
	}
	return b.String()
}

// Samples defines the pass's sample list as named constants, a constant
// array declaration and a dispatcher for indices only known at run time.
func Samples(m *layout.Maps, pass int, prefix string) string {
	samples := m.Samples[pass]
	if len(samples) == 0 {
		return ""
	}

	names := make([]string, len(samples))
	var b strings.Builder
	fmt.Fprintf(&b, "#define %ssamples_l %d\n", prefix, len(samples))
	for i, s := range samples {
		names[i] = fmt.Sprintf("%ssamples_%d", prefix, i)
		fmt.Fprintf(&b, "#define %s ivec2(%d, %d)\n", names[i], s.Step, s.Texture)
	}
	fmt.Fprintf(&b, "#define %[1]suseSamples const ivec2 %[1]ssamples[%[2]d] = ivec2[%[2]d](%[3]s)\n",
		prefix, len(samples), strings.Join(names, ", "))
	fmt.Fprintf(&b, "#define %sgetSamples(i) %s\n", prefix, cases(names))
	return b.String()
}

// Reads defines, for each value the pass writes, the sample index each of
// its derive edges reads, in edge order.
func Reads(m *layout.Maps, pass int, prefix string) string {
	var b strings.Builder
	for _, v := range m.PassValues(pass) {
		reads := m.Reads[pass][v]
		if len(reads) == 0 {
			continue
		}
		name := Ident(m.Name(v))
		names := make([]string, len(reads))
		fmt.Fprintf(&b, "#define %sreads_%s_l %d\n", prefix, name, len(reads))
		for j, r := range reads {
			names[j] = fmt.Sprintf("%sreads_%s_%d", prefix, name, j)
			fmt.Fprintf(&b, "#define %s %d\n", names[j], r)
		}
		fmt.Fprintf(&b, "#define %[1]suseReads_%[2]s const int %[1]sreads_%[2]s[%[3]d] = int[%[3]d](%[4]s)\n",
			prefix, name, len(reads), strings.Join(names, ", "))
		fmt.Fprintf(&b, "#define %sgetReads_%s(i) %s\n", prefix, name, cases(names))
	}
	return b.String()
}

// Taps defines tapState(uv), which fetches every sample of the pass into a
// local data array, and read aliases picking each derive edge's channels out
// of that array. States come from a sampler array indexed statically by
// steps-ago and texture, or from the merged texture when merge is set.
func Taps(m *layout.Maps, pass int, prefix string, merge bool) string {
	samples := m.Samples[pass]
	if len(samples) == 0 {
		return ""
	}

	var b strings.Builder
	if merge {
		b.WriteString(glsl.MergedUV(prefix, m.Steps, m.Bound, len(m.Textures)))
	}

	taps := make([]string, len(samples))
	for i, s := range samples {
		if merge {
			taps[i] = fmt.Sprintf("texture(%[1]sstates, %[1]smergedUV(uv, %[2]d, %[3]d))", prefix, s.Step, s.Texture)
		} else {
			taps[i] = fmt.Sprintf("texture(%sstates[%d], uv)", prefix, s.Step*len(m.Textures)+s.Texture)
		}
	}
	fmt.Fprintf(&b, "#define %[1]stapState(uv) vec4 %[1]sdata[%[2]d] = vec4[%[2]d](%[3]s)\n",
		prefix, len(samples), strings.Join(taps, ", "))

	for _, v := range m.PassValues(pass) {
		reads := m.Reads[pass][v]
		edges := m.Edges(v)
		name := Ident(m.Name(v))
		for j, r := range reads {
			fmt.Fprintf(&b, "#define %sread_%s_%d %sdata[%d].%s\n", prefix, name, j, prefix, r, m.Swizzle(edges[j].Value))
		}
	}
	return b.String()
}

// cases chains conditionals so a dynamic index resolves to named constants,
// falling through to the last one.
func cases(names []string) string {
	var b strings.Builder
	for i, name := range names[:len(names)-1] {
		fmt.Fprintf(&b, "(((i) == %d)? %s : ", i, name)
	}
	b.WriteString(names[len(names)-1])
	b.WriteString(strings.Repeat(")", len(names)-1))
	return b.String()
}

// Ident makes s usable inside a macro name.
func Ident(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		}
		return '_'
	}, s)
}
