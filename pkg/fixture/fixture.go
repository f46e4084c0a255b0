package fixture

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cuemby/cachecore/pkg/ir"
	"github.com/cuemby/cachecore/pkg/types"
)

// FieldSpec is the YAML shape of one compiled selection node. Only the
// subset of ir.Node fields a hand-written fixture plausibly needs are
// exposed; Match and FragmentSpread nodes are out of scope for fixtures,
// since those require a real GraphQL compiler to produce meaningfully.
type FieldSpec struct {
	Name        string         `yaml:"name"`
	Alias       string         `yaml:"alias,omitempty"`
	Args        map[string]any `yaml:"args,omitempty"`
	Plural      bool           `yaml:"plural,omitempty"`
	Linked      bool           `yaml:"linked,omitempty"`
	Condition   string         `yaml:"condition,omitempty"`
	IncludeWhen bool           `yaml:"includeWhen,omitempty"`
	Selections  []FieldSpec    `yaml:"selections,omitempty"`
}

// ToNode compiles a FieldSpec into an ir.Node.
func (f FieldSpec) ToNode() *ir.Node {
	if f.Condition != "" {
		return &ir.Node{
			Kind:              ir.Condition,
			ConditionVariable: f.Condition,
			IncludeWhen:       f.IncludeWhen,
			Selections:        toNodes(f.Selections),
		}
	}
	if f.Linked {
		return &ir.Node{
			Kind:       ir.LinkedField,
			FieldName:  f.Name,
			Alias:      f.Alias,
			Args:       f.Args,
			Plural:     f.Plural,
			Selections: toNodes(f.Selections),
		}
	}
	return &ir.Node{Kind: ir.ScalarField, FieldName: f.Name, Alias: f.Alias, Args: f.Args}
}

func toNodes(specs []FieldSpec) []*ir.Node {
	nodes := make([]*ir.Node, len(specs))
	for i, s := range specs {
		nodes[i] = s.ToNode()
	}
	return nodes
}

// Operation is the YAML envelope for one operation's selection shape.
type Operation struct {
	Name       string         `yaml:"name"`
	RootID     string         `yaml:"rootId"`
	Variables  map[string]any `yaml:"variables,omitempty"`
	Selections []FieldSpec    `yaml:"selections"`
}

// Node compiles the operation's selections into a root *ir.Node, suitable
// for both ReaderSelector.Node and NormalizationSelector.Node.
func (o *Operation) Node() *ir.Node {
	return &ir.Node{Selections: toNodes(o.Selections)}
}

// ReaderSelector builds a reader selector rooted at the operation's root.
func (o *Operation) ReaderSelector() ir.ReaderSelector {
	return ir.ReaderSelector{DataID: types.DataID(o.RootID), Node: o.Node(), Variables: o.Variables}
}

// NormalizationSelector builds a normalization selector rooted at the
// operation's root.
func (o *Operation) NormalizationSelector() ir.NormalizationSelector {
	return ir.NormalizationSelector{DataID: types.DataID(o.RootID), Node: o.Node(), Variables: o.Variables}
}

// Descriptor wraps the operation into an ir.OperationDescriptor, for
// Store.Retain.
func (o *Operation) Descriptor() *ir.OperationDescriptor {
	node := o.Node()
	return ir.NewOperationDescriptor(&ir.Request{ID: o.Name}, o.Variables, types.DataID(o.RootID), node, node)
}

// LoadOperation reads and parses an operation fixture file.
func LoadOperation(path string) (*Operation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("fixture: read operation %q: %w", path, err)
	}
	var op Operation
	if err := yaml.Unmarshal(data, &op); err != nil {
		return nil, fmt.Errorf("fixture: parse operation %q: %w", path, err)
	}
	if op.RootID == "" {
		op.RootID = string(types.RootID)
	}
	return &op, nil
}

// LoadResponse reads a YAML or JSON response payload, the shape
// normalize.Normalize expects for its data argument.
func LoadResponse(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("fixture: read response %q: %w", path, err)
	}
	var resp map[string]any
	if err := yaml.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("fixture: parse response %q: %w", path, err)
	}
	return resp, nil
}
