// Package yamltree parses YAML text into a tree that keeps, for every node,
// its position in the source document. Mappings preserve key order and
// record the line of the key that introduced each value, so an error tagged
// with a structural path such as ("signals", "flux_loop", 1, "name") can be
// resolved back to the exact source line and text.
//
// The dialect is deliberately strict: duplicate mapping keys, non-scalar
// keys and YAML aliases are rejected.
package yamltree

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind identifies the shape of a node.
type Kind int

const (
	// Scalar is a leaf value.
	Scalar Kind = iota
	// Mapping is an ordered key/value collection.
	Mapping
	// Sequence is an ordered list.
	Sequence
)

// Entry is one key/value pair of a mapping node.
type Entry struct {
	Key     string
	KeyLine int
	Value   *Node
}

// Node is one element of the parsed tree.
type Node struct {
	Kind Kind
	// Line is the 1-based source line of the node itself. For block
	// collections this is the line of the first contained item.
	Line int
	// KeyLine is the line of the mapping key introducing this node, or 0
	// for the root and for sequence items.
	KeyLine int
	// Value holds the scalar text; empty for collections.
	Value string
	// Tag is the resolved YAML tag of a scalar (e.g. "!!str").
	Tag string
	// Entries are the pairs of a mapping, in declaration order.
	Entries []Entry
	// Items are the elements of a sequence.
	Items []*Node
}

// Get returns the value node for key in a mapping node.
func (n *Node) Get(key string) (*Node, bool) {
	for _, e := range n.Entries {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// Tree is a parsed document plus its raw source lines.
type Tree struct {
	Root  *Node
	lines []string
}

// SourceLine returns the raw text of the given 1-based source line.
func (t *Tree) SourceLine(line int) string {
	if line < 1 || line > len(t.lines) {
		return ""
	}
	return t.lines[line-1]
}

// Lookup replays a structural path (string keys and integer indices) from
// the root and returns the addressed node.
func (t *Tree) Lookup(path ...any) (*Node, bool) {
	n := t.Root
	for _, step := range path {
		switch s := step.(type) {
		case string:
			if n.Kind != Mapping {
				return nil, false
			}
			child, ok := n.Get(s)
			if !ok {
				return nil, false
			}
			n = child
		case int:
			if n.Kind != Sequence || s < 0 || s >= len(n.Items) {
				return nil, false
			}
			n = n.Items[s]
		default:
			return nil, false
		}
	}
	return n, true
}

// SchemaError is a document-format error: the text is not valid YAML or
// does not have the shape the fixed schema requires. It is a distinct class
// from data validation errors so callers can apply different remediation
// (fix the YAML vs. fix the data).
type SchemaError struct {
	Msg  string
	Line int
}

func (e *SchemaError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
	}
	return e.Msg
}

// Errorf builds a SchemaError for the given source line.
func Errorf(line int, format string, args ...any) *SchemaError {
	return &SchemaError{Msg: fmt.Sprintf(format, args...), Line: line}
}

// Parse parses YAML text into a position-retaining tree. Any failure is a
// *SchemaError.
func Parse(text []byte) (*Tree, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(text, &doc); err != nil {
		// yaml.v3 errors already carry "line N:" context.
		return nil, &SchemaError{Msg: err.Error()}
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, &SchemaError{Msg: "empty document"}
	}
	root, err := build(doc.Content[0], 0)
	if err != nil {
		return nil, err
	}
	return &Tree{
		Root:  root,
		lines: strings.Split(strings.TrimRight(string(text), "\n"), "\n"),
	}, nil
}

func build(n *yaml.Node, keyLine int) (*Node, *SchemaError) {
	switch n.Kind {
	case yaml.ScalarNode:
		return &Node{Kind: Scalar, Line: n.Line, KeyLine: keyLine, Value: n.Value, Tag: n.Tag}, nil

	case yaml.MappingNode:
		node := &Node{Kind: Mapping, Line: n.Line, KeyLine: keyLine}
		seen := make(map[string]struct{}, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, v := n.Content[i], n.Content[i+1]
			if k.Kind != yaml.ScalarNode {
				return nil, Errorf(k.Line, "mapping keys must be scalars")
			}
			if _, dup := seen[k.Value]; dup {
				return nil, Errorf(k.Line, "duplicate key %q", k.Value)
			}
			seen[k.Value] = struct{}{}
			child, err := build(v, k.Line)
			if err != nil {
				return nil, err
			}
			node.Entries = append(node.Entries, Entry{Key: k.Value, KeyLine: k.Line, Value: child})
		}
		return node, nil

	case yaml.SequenceNode:
		node := &Node{Kind: Sequence, Line: n.Line, KeyLine: keyLine}
		for _, item := range n.Content {
			child, err := build(item, 0)
			if err != nil {
				return nil, err
			}
			node.Items = append(node.Items, child)
		}
		return node, nil

	case yaml.AliasNode:
		return nil, Errorf(n.Line, "YAML aliases are not supported")

	default:
		return nil, Errorf(n.Line, "unsupported YAML node")
	}
}
