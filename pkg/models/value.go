package models

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// ValueKind tells which part of a Value is populated
type ValueKind int

const (
	ScalarValue ValueKind = iota
	ListValue
	MapValue
)

// Value is a pass-through sitemap field: a scalar, a list, or a mapping whose
// fields keep their configured order.
type Value struct {
	Kind   ValueKind
	Scalar string
	List   []Value
	Fields []Field
}

// Field is a named entry of a mapping Value
type Field struct {
	Name  string
	Value Value
}

// String returns a scalar Value
func String(s string) Value {
	return Value{Kind: ScalarValue, Scalar: s}
}

// List returns a list Value
func List(items ...Value) Value {
	return Value{Kind: ListValue, List: items}
}

// Map returns a mapping Value
func Map(fields ...Field) Value {
	return Value{Kind: MapValue, Fields: fields}
}

// Get returns the named field of a mapping
func (v Value) Get(name string) (Value, bool) {
	for _, f := range v.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return Value{}, false
}

// GetString returns the scalar text of the named field, or ""
func (v Value) GetString(name string) string {
	f, ok := v.Get(name)
	if !ok || f.Kind != ScalarValue {
		return ""
	}
	return f.Scalar
}

// Items returns the elements of a list, or v itself for anything else
func (v Value) Items() []Value {
	if v.Kind == ListValue {
		return v.List
	}
	return []Value{v}
}

// UnmarshalYAML decodes any YAML node, keeping mapping order
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			*v = String("")
			return nil
		}
		return v.UnmarshalYAML(node.Content[0])
	case yaml.AliasNode:
		return v.UnmarshalYAML(node.Alias)
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			*v = String("")
			return nil
		}
		*v = String(node.Value)
		return nil
	case yaml.SequenceNode:
		items := make([]Value, len(node.Content))
		for i, c := range node.Content {
			if err := items[i].UnmarshalYAML(c); err != nil {
				return err
			}
		}
		*v = List(items...)
		return nil
	case yaml.MappingNode:
		fields := make([]Field, 0, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			var f Field
			f.Name = node.Content[i].Value
			if err := f.Value.UnmarshalYAML(node.Content[i+1]); err != nil {
				return err
			}
			fields = append(fields, f)
		}
		*v = Map(fields...)
		return nil
	}
	return fmt.Errorf("unsupported value at line %d", node.Line)
}

// MarshalYAML mirrors UnmarshalYAML
func (v Value) MarshalYAML() (interface{}, error) {
	return v.node(), nil
}

func (v Value) node() *yaml.Node {
	switch v.Kind {
	case ListValue:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range v.List {
			n.Content = append(n.Content, item.node())
		}
		return n
	case MapValue:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, f := range v.Fields {
			n.Content = append(n.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: f.Name}, f.Value.node())
		}
		return n
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Value: v.Scalar}
}
