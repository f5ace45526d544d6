package layout

import (
	"errors"
	"reflect"
	"testing"
)

func derivePtr(d Derive) *Derive { return &d }

func TestMapSamplesMixedDerive(t *testing.T) {
	// [2, , [[1, 0], true]]
	spec := Spec{
		Values: []int{2, 4, 1},
		Derives: []*Derive{
			derivePtr(FromMostRecent(2)),
			nil,
			derivePtr(Group(FromStep(1, 0), All())),
		},
		ChannelsMax: 4,
		BuffersMax:  4,
		Steps:       3,
		Bound:       1,
		Pack:        true,
	}

	m, err := Map(spec)
	if err != nil {
		t.Fatalf("Map: %v", err)
	}

	if want := [][]int{{1}, {0, 2}}; !reflect.DeepEqual(m.Textures, want) {
		t.Fatalf("textures = %v, want %v", m.Textures, want)
	}

	wantSamples := []Sample{{0, 1}, {1, 1}, {0, 0}}
	if !reflect.DeepEqual(m.Samples[0], wantSamples) {
		t.Errorf("samples = %v, want %v", m.Samples[0], wantSamples)
	}
	if want := []int{0}; !reflect.DeepEqual(m.Reads[0][0], want) {
		t.Errorf("reads[0][0] = %v, want %v", m.Reads[0][0], want)
	}
	if m.Reads[0][1] != nil {
		t.Errorf("value without derives should have no reads, got %v", m.Reads[0][1])
	}
	if want := []int{1, 0, 2, 0}; !reflect.DeepEqual(m.Reads[0][2], want) {
		t.Errorf("reads[0][2] = %v, want %v", m.Reads[0][2], want)
	}
}

func TestMapSamplesPerPass(t *testing.T) {
	spec := Spec{
		Values: []int{4, 4, 4},
		Derives: []*Derive{
			derivePtr(Group(FromMostRecent(0), FromMostRecent(1))),
			derivePtr(FromMostRecent(1)),
			derivePtr(Group(EveryStep(2), FromMostRecent(0))),
		},
		ChannelsMax: 4,
		BuffersMax:  2,
		Steps:       3,
		Bound:       1,
	}
	m, err := Map(spec)
	if err != nil {
		t.Fatalf("Map: %v", err)
	}

	if want := [][]int{{0, 1}, {2}}; !reflect.DeepEqual(m.Passes, want) {
		t.Fatalf("passes = %v, want %v", m.Passes, want)
	}
	if want := []Sample{{0, 0}, {0, 1}}; !reflect.DeepEqual(m.Samples[0], want) {
		t.Errorf("pass 0 samples = %v, want %v", m.Samples[0], want)
	}
	if want := []Sample{{0, 2}, {1, 2}, {0, 0}}; !reflect.DeepEqual(m.Samples[1], want) {
		t.Errorf("pass 1 samples = %v, want %v", m.Samples[1], want)
	}
	if m.Reads[1][0] != nil {
		t.Errorf("value 0 is not bound in pass 1, got reads %v", m.Reads[1][0])
	}
	if want := []int{0, 1, 2}; !reflect.DeepEqual(m.Reads[1][2], want) {
		t.Errorf("reads[1][2] = %v, want %v", m.Reads[1][2], want)
	}
}

func TestSampleMinimalityAndReads(t *testing.T) {
	spec := Spec{
		Values: []int{1, 2, 3, 1, 4, 2},
		Derives: []*Derive{
			derivePtr(Group(FromMostRecent(0), FromStep(1, 3), FromMostRecent(5))),
			derivePtr(All()),
			nil,
			derivePtr(Group(FromStep(2, 3), FromStep(2, 0), FromMostRecent(3))),
			derivePtr(AllFromStep(1)),
			derivePtr(EveryStep(4)),
		},
		ChannelsMax: 4,
		BuffersMax:  2,
		Steps:       4,
		Bound:       1,
		Pack:        true,
	}
	m, err := Map(spec)
	if err != nil {
		t.Fatalf("Map: %v", err)
	}

	for p := range m.Passes {
		distinct := make(map[Sample]bool)
		for _, v := range m.PassValues(p) {
			edges := m.Edges(v)
			reads := m.Reads[p][v]
			if len(reads) != len(edges) {
				t.Fatalf("pass %d value %d: %d reads for %d edges", p, v, len(reads), len(edges))
			}
			for e, edge := range edges {
				want := Sample{Step: edge.Step, Texture: m.ValueToTexture[edge.Value]}
				distinct[want] = true
				if got := m.Samples[p][reads[e]]; got != want {
					t.Errorf("pass %d value %d edge %d resolves to %v, want %v", p, v, e, got, want)
				}
			}
		}
		if len(m.Samples[p]) != len(distinct) {
			t.Errorf("pass %d has %d samples, want %d distinct", p, len(m.Samples[p]), len(distinct))
		}
	}
}

func TestMapWithoutDerives(t *testing.T) {
	m, err := Map(Spec{Values: []int{1, 2, 3}, ChannelsMax: 4, BuffersMax: 1, Steps: 2, Bound: 1})
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	for p := range m.Passes {
		if len(m.Samples[p]) != 0 {
			t.Errorf("pass %d samples = %v, want none", p, m.Samples[p])
		}
		for v, r := range m.Reads[p] {
			if r != nil {
				t.Errorf("pass %d value %d reads = %v, want none", p, v, r)
			}
		}
	}
}

func TestMapDeterministic(t *testing.T) {
	spec := Spec{
		Values:      []int{3, 1, 2, 2, 1},
		Derives:     []*Derive{derivePtr(All()), nil, derivePtr(FromStep(1, 4))},
		ChannelsMax: 4,
		BuffersMax:  2,
		Steps:       3,
		Bound:       1,
		Pack:        true,
	}
	a, err := Map(spec)
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	b, err := Map(spec)
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("expected identical maps for identical specs")
	}
}

func TestValidate(t *testing.T) {
	base := func() Spec {
		return Spec{Values: []int{2, 2}, ChannelsMax: 4, BuffersMax: 2, Steps: 2, Bound: 1}
	}

	tests := []struct {
		name   string
		modify func(*Spec)
		want   error
	}{
		{"valid", func(*Spec) {}, nil},
		{"zero channels", func(s *Spec) { s.Values[0] = 0 }, ErrChannels},
		{"five channels", func(s *Spec) { s.Values[1] = 5 }, ErrChannels},
		{"zero channelsMax", func(s *Spec) { s.ChannelsMax = 0 }, ErrLimit},
		{"channelsMax over rgba", func(s *Spec) { s.ChannelsMax = 8 }, ErrLimit},
		{"negative buffersMax", func(s *Spec) { s.BuffersMax = -1 }, ErrLimit},
		{"no steps", func(s *Spec) { s.Steps = 0 }, ErrSteps},
		{"bound over steps", func(s *Spec) { s.Bound = 3 }, ErrSteps},
		{"too many derives", func(s *Spec) { s.Derives = make([]*Derive, 3) }, ErrDerives},
		{"unknown value", func(s *Spec) { s.Derives = []*Derive{derivePtr(FromMostRecent(2))} }, ErrDeriveValue},
		{"step beyond history", func(s *Spec) { s.Derives = []*Derive{derivePtr(FromStep(3, 0))} }, ErrDeriveStep},
		{"step at bound boundary", func(s *Spec) { s.Derives = []*Derive{nil, derivePtr(FromStep(1, 0))} }, ErrDeriveStep},
		{"nested bad step", func(s *Spec) {
			s.Derives = []*Derive{derivePtr(Group(FromMostRecent(0), AllFromStep(1)))}
		}, ErrDeriveStep},
		{"every step without history", func(s *Spec) {
			s.Bound = 2
			s.Derives = []*Derive{derivePtr(EveryStep(0))}
		}, ErrDeriveStep},
		{"zero kind", func(s *Spec) { s.Derives = []*Derive{{}} }, ErrDeriveKind},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := base()
			tt.modify(&s)
			err := s.Validate()
			if tt.want == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
			if _, mapErr := Map(s); !errors.Is(mapErr, tt.want) {
				t.Errorf("Map() = %v, want %v", mapErr, tt.want)
			}
		})
	}
}

func TestDeriveEdgesAndString(t *testing.T) {
	d := Group(FromMostRecent(2), FromStep(1, 0), All(), EveryStep(1), AllFromStep(1))
	edges := d.Edges(3, 2)
	want := []Edge{
		{0, 2}, {1, 0},
		{0, 0}, {0, 1}, {0, 2},
		{0, 1}, {1, 1},
		{1, 0}, {1, 1}, {1, 2},
	}
	if !reflect.DeepEqual(edges, want) {
		t.Errorf("edges = %v, want %v", edges, want)
	}

	if got, want := d.String(), "[2, [1, 0], true, [true, 1], [1, true]]"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestDeriveStringGroupsOfTwo(t *testing.T) {
	tests := []struct {
		d    Derive
		want string
	}{
		{FromStep(1, 0), "[1, 0]"},
		{Group(FromMostRecent(1), FromMostRecent(0)), "[[1], 0]"},
		{AllFromStep(1), "[1, true]"},
		{Group(FromMostRecent(1), All()), "[[1], true]"},
		{EveryStep(2), "[true, 2]"},
		{Group(All(), FromMostRecent(2)), "[[true], 2]"},
		{Group(FromMostRecent(0), FromStep(1, 2)), "[0, [1, 2]]"},
		{Group(Group(FromMostRecent(0)), FromMostRecent(1)), "[[0], 1]"},
	}
	for _, tt := range tests {
		if got := tt.d.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
