package layout

import (
	"fmt"
	"hash/fnv"
	"io"
)

// MaxChannels is the widest value a texel can hold (RGBA).
const MaxChannels = 4

// Spec describes the logical state values and the device limits they must
// be laid out under.
type Spec struct {
	// Values holds the channel count (1-4) of each value.
	Values []int
	// Names optionally labels values; empty names fall back to the index.
	Names []string
	// Derives holds one entry per value; nil means the value reads nothing.
	Derives []*Derive

	ChannelsMax int
	BuffersMax  int

	// Steps is the number of step buffers kept, Bound how many of them are
	// being written at once and so cannot be read.
	Steps int
	Bound int

	// Pack reorders values to reduce the texture count.
	Pack bool
}

// StepsPast is the number of readable past steps.
func (s Spec) StepsPast() int {
	return s.Steps - s.Bound
}

// Validate reports the first specification error found.
func (s Spec) Validate() error {
	if s.ChannelsMax <= 0 || s.ChannelsMax > MaxChannels {
		return fmt.Errorf("channelsMax %d: %w", s.ChannelsMax, ErrLimit)
	}
	if s.BuffersMax <= 0 {
		return fmt.Errorf("buffersMax %d: %w", s.BuffersMax, ErrLimit)
	}
	if s.Steps < 1 || s.Bound < 1 || s.Bound > s.Steps {
		return fmt.Errorf("steps %d, bound %d: %w", s.Steps, s.Bound, ErrSteps)
	}
	for v, c := range s.Values {
		if c < 1 || c > MaxChannels {
			return fmt.Errorf("value %d has %d channels: %w", v, c, ErrChannels)
		}
	}
	if len(s.Derives) > len(s.Values) {
		return fmt.Errorf("%d derives for %d values: %w", len(s.Derives), len(s.Values), ErrDerives)
	}
	for v, d := range s.Derives {
		if d == nil {
			continue
		}
		if err := s.validateDerive(*d); err != nil {
			return fmt.Errorf("value %d derive %s: %w", v, d, err)
		}
	}
	return nil
}

func (s Spec) validateDerive(d Derive) error {
	stepsPast := s.StepsPast()
	checkStep := func(step int) error {
		// Steps at or past the bound boundary are still being written.
		if step < 0 || step >= stepsPast {
			return fmt.Errorf("step %d of %d readable: %w", step, stepsPast, ErrDeriveStep)
		}
		return nil
	}
	checkValue := func(v int) error {
		if v < 0 || v >= len(s.Values) {
			return fmt.Errorf("value %d of %d: %w", v, len(s.Values), ErrDeriveValue)
		}
		return nil
	}

	switch d.Kind {
	case DeriveValue:
		if err := checkValue(d.Value); err != nil {
			return err
		}
		return checkStep(d.Step)
	case DeriveAll:
		return checkStep(d.Step)
	case DeriveEveryStep:
		if stepsPast < 1 {
			return fmt.Errorf("no readable steps: %w", ErrDeriveStep)
		}
		return checkValue(d.Value)
	case DeriveGroup:
		for _, item := range d.Items {
			if err := s.validateDerive(item); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("kind %d: %w", d.Kind, ErrDeriveKind)
}

// Hash returns a content hash of the spec, stable across runs.
func (s Spec) Hash() uint64 {
	h := fnv.New64a()
	s.writeTo(h)
	return h.Sum64()
}

func (s Spec) writeTo(w io.Writer) {
	fmt.Fprintf(w, "v%v|c%d|b%d|s%d|o%d|p%t", s.Values, s.ChannelsMax, s.BuffersMax, s.Steps, s.Bound, s.Pack)
	for i, name := range s.Names {
		fmt.Fprintf(w, "|n%d=%q", i, name)
	}
	for i, d := range s.Derives {
		if d != nil {
			fmt.Fprintf(w, "|d%d=", i)
			w.Write(d.appendKey(nil))
		}
	}
}
