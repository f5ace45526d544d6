package layout

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// DeriveKind tags the shape of a Derive.
type DeriveKind uint8

const (
	DeriveValue       DeriveKind = iota + 1 // one value at one step
	DeriveAll                               // every value at one step
	DeriveEveryStep                         // one value at every readable step
	DeriveGroup                             // ordered list of nested derives
)

// Derive declares which past states a value's next state reads.
// Build one with FromMostRecent, FromStep, All, AllFromStep, EveryStep or Group.
type Derive struct {
	Kind  DeriveKind
	Step  int
	Value int
	Items []Derive
}

// Edge is one concrete dependency: a value's state some steps ago.
// Step 0 is the most recent readable step.
type Edge struct {
	Step  int
	Value int
}

// FromMostRecent reads value v at the most recent readable step.
func FromMostRecent(v int) Derive {
	return Derive{Kind: DeriveValue, Value: v}
}

// FromStep reads value v as it was stepsAgo steps before the most recent one.
func FromStep(stepsAgo, v int) Derive {
	return Derive{Kind: DeriveValue, Step: stepsAgo, Value: v}
}

// All reads every value at the most recent readable step.
func All() Derive {
	return Derive{Kind: DeriveAll}
}

// AllFromStep reads every value at the given step.
func AllFromStep(stepsAgo int) Derive {
	return Derive{Kind: DeriveAll, Step: stepsAgo}
}

// EveryStep reads value v at every readable past step, most recent first.
func EveryStep(v int) Derive {
	return Derive{Kind: DeriveEveryStep, Value: v}
}

// Group combines derives; their edges keep the given order. An item that is
// itself a group of one is replaced by its only item.
func Group(items ...Derive) Derive {
	out := make([]Derive, len(items))
	for i, item := range items {
		for item.Kind == DeriveGroup && len(item.Items) == 1 {
			item = item.Items[0]
		}
		out[i] = item
	}
	return Derive{Kind: DeriveGroup, Items: out}
}

// clone returns a copy of d sharing no slices with it.
func (d Derive) clone() Derive {
	if d.Items != nil {
		items := make([]Derive, len(d.Items))
		for i, item := range d.Items {
			items[i] = item.clone()
		}
		d.Items = items
	}
	return d
}

// appendKey appends an unambiguous binary encoding of d.
func (d Derive) appendKey(b []byte) []byte {
	b = append(b, byte(d.Kind))
	b = binary.AppendVarint(b, int64(d.Step))
	b = binary.AppendVarint(b, int64(d.Value))
	b = binary.AppendUvarint(b, uint64(len(d.Items)))
	for _, item := range d.Items {
		b = item.appendKey(b)
	}
	return b
}

// scalar reports whether d renders as a bare int or true.
func (d Derive) scalar() bool {
	return d.Step == 0 && (d.Kind == DeriveValue || d.Kind == DeriveAll)
}

// Edges flattens d into concrete edges, expanding All over valueCount values
// and EveryStep over stepsPast steps. Duplicates are kept: each edge gets its
// own read slot so shader code can address dependencies positionally.
func (d Derive) Edges(valueCount, stepsPast int) []Edge {
	return d.appendEdges(nil, valueCount, stepsPast)
}

func (d Derive) appendEdges(out []Edge, valueCount, stepsPast int) []Edge {
	switch d.Kind {
	case DeriveValue:
		out = append(out, Edge{Step: d.Step, Value: d.Value})
	case DeriveAll:
		for v := 0; v < valueCount; v++ {
			out = append(out, Edge{Step: d.Step, Value: v})
		}
	case DeriveEveryStep:
		for s := 0; s < stepsPast; s++ {
			out = append(out, Edge{Step: s, Value: d.Value})
		}
	case DeriveGroup:
		for _, item := range d.Items {
			out = item.appendEdges(out, valueCount, stepsPast)
		}
	}
	return out
}

// String renders d in the bracketed notation used by config files.
func (d Derive) String() string {
	switch d.Kind {
	case DeriveValue:
		if d.Step == 0 {
			return fmt.Sprint(d.Value)
		}
		return fmt.Sprintf("[%d, %d]", d.Step, d.Value)
	case DeriveAll:
		if d.Step == 0 {
			return "true"
		}
		return fmt.Sprintf("[%d, true]", d.Step)
	case DeriveEveryStep:
		return fmt.Sprintf("[true, %d]", d.Value)
	case DeriveGroup:
		parts := make([]string, len(d.Items))
		for i, item := range d.Items {
			parts[i] = item.String()
		}
		// Two scalars would read back as a step pair or [true, v].
		if len(d.Items) == 2 && d.Items[0].scalar() && d.Items[1].scalar() {
			parts[0] = "[" + parts[0] + "]"
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	return "<invalid>"
}
