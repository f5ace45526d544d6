package config

import (
	"errors"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/gpgpu/layout"
)

// ErrDeriveSyntax is returned for derive nodes that match no form.
var ErrDeriveSyntax = errors.New("invalid derive")

// DeriveConfig is a derive in bracket notation:
//
//	2 or position   the value at the most recent readable step
//	[1, position]   the value one step before that
//	true            every value at the most recent readable step
//	[1, true]       every value one step before that
//	[true, 2]       the value at every readable step
//	[a, b, ...]     a group of the above, read in order
//
// A two element list starting with an integer is always a step pair; write a
// group of two indexes as [[0], 1].
type DeriveConfig struct {
	node *yaml.Node
}

// ParseDerive parses bracket notation.
func ParseDerive(text string) (*DeriveConfig, error) {
	var d DeriveConfig
	if err := yaml.Unmarshal([]byte(text), &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (d *DeriveConfig) UnmarshalYAML(n *yaml.Node) error {
	if err := checkDerive(n); err != nil {
		return err
	}
	d.node = n
	return nil
}

func (d DeriveConfig) MarshalYAML() (any, error) {
	return d.node, nil
}

func (d DeriveConfig) String() string {
	if d.node == nil {
		return ""
	}
	// Resolution without names only fails for name references.
	if derive, err := resolve(d.node, nil); err == nil {
		return derive.String()
	}
	out, err := yaml.Marshal(d.node)
	if err != nil {
		return "<invalid>"
	}
	return string(out)
}

// Resolve converts the notation to a layout derive, looking names up in
// index.
func (d DeriveConfig) Resolve(index map[string]int) (layout.Derive, error) {
	if d.node == nil {
		return layout.Derive{}, fmt.Errorf("empty: %w", ErrDeriveSyntax)
	}
	return resolve(d.node, index)
}

func checkDerive(n *yaml.Node) error {
	_, err := resolve(n, nil)
	var unknown unknownNameError
	if errors.As(err, &unknown) {
		return nil
	}
	return err
}

type unknownNameError string

func (e unknownNameError) Error() string {
	return fmt.Sprintf("unknown value %q", string(e))
}

func (e unknownNameError) Is(target error) bool {
	return target == layout.ErrDeriveValue
}

func syntaxError(n *yaml.Node) error {
	return fmt.Errorf("line %d: %w", n.Line, ErrDeriveSyntax)
}

func resolve(n *yaml.Node, index map[string]int) (layout.Derive, error) {
	if n.Kind == yaml.DocumentNode && len(n.Content) == 1 {
		n = n.Content[0]
	}
	switch n.Kind {
	case yaml.ScalarNode:
		if isTrue(n) {
			return layout.All(), nil
		}
		v, err := valueRef(n, index)
		if err != nil {
			return layout.Derive{}, err
		}
		return layout.FromMostRecent(v), nil

	case yaml.SequenceNode:
		if len(n.Content) == 2 {
			first, second := n.Content[0], n.Content[1]
			if step, ok := intScalar(first); ok && second.Kind == yaml.ScalarNode {
				if isTrue(second) {
					return layout.AllFromStep(step), nil
				}
				v, err := valueRef(second, index)
				if err != nil {
					return layout.Derive{}, err
				}
				return layout.FromStep(step, v), nil
			}
			if isTrue(first) && second.Kind == yaml.ScalarNode && !isTrue(second) {
				v, err := valueRef(second, index)
				if err != nil {
					return layout.Derive{}, err
				}
				return layout.EveryStep(v), nil
			}
		}
		items := make([]layout.Derive, 0, len(n.Content))
		var unknown error
		for _, c := range n.Content {
			d, err := resolve(c, index)
			var name unknownNameError
			if errors.As(err, &name) && unknown == nil {
				unknown = err
				continue
			}
			if err != nil {
				return layout.Derive{}, err
			}
			items = append(items, d)
		}
		if unknown != nil {
			return layout.Derive{}, unknown
		}
		return layout.Group(items...), nil
	}
	return layout.Derive{}, syntaxError(n)
}

func isTrue(n *yaml.Node) bool {
	if n.Kind != yaml.ScalarNode || n.ShortTag() != "!!bool" {
		return false
	}
	var b bool
	return n.Decode(&b) == nil && b
}

func intScalar(n *yaml.Node) (int, bool) {
	if n.Kind != yaml.ScalarNode || n.ShortTag() != "!!int" {
		return 0, false
	}
	v, err := strconv.Atoi(n.Value)
	return v, err == nil
}

// valueRef reads a value index or name.
func valueRef(n *yaml.Node, index map[string]int) (int, error) {
	if v, ok := intScalar(n); ok {
		return v, nil
	}
	if n.ShortTag() != "!!str" {
		return 0, syntaxError(n)
	}
	v, ok := index[n.Value]
	if !ok {
		return 0, unknownNameError(n.Value)
	}
	return v, nil
}
