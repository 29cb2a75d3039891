package style

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// UnmarshalYAML decodes mapping node into Object keeping key order. Scalars
// keep their YAML type so numbers get units appended the same way as numbers
// set from code.
func (o *Object) UnmarshalYAML(node *yaml.Node) error {
	obj, err := objectFromNode(node)
	if err != nil {
		return err
	}
	*o = obj
	return nil
}

func objectFromNode(node *yaml.Node) (Object, error) {
	if node.Kind == yaml.DocumentNode && len(node.Content) == 1 {
		node = node.Content[0]
	}
	if node.Kind == yaml.AliasNode {
		node = node.Alias
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: style object must be a mapping", node.Line)
	}

	out := make(Object, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		k, v := node.Content[i], node.Content[i+1]
		if k.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("line %d: style key must be a scalar", k.Line)
		}
		value, err := valueFromNode(v)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k.Value, err)
		}
		out = append(out, Prop{Key: k.Value, Value: value})
	}
	return out, nil
}

func valueFromNode(node *yaml.Node) (any, error) {
	if node.Kind == yaml.AliasNode {
		node = node.Alias
	}
	switch node.Kind {
	case yaml.MappingNode:
		return objectFromNode(node)
	case yaml.SequenceNode:
		list := make([]any, 0, len(node.Content))
		for _, n := range node.Content {
			v, err := valueFromNode(n)
			if err != nil {
				return nil, err
			}
			list = append(list, v)
		}
		return list, nil
	case yaml.ScalarNode:
		switch node.Tag {
		case "!!null":
			return nil, nil
		case "!!int":
			var v int
			err := node.Decode(&v)
			return v, err
		case "!!float":
			var v float64
			err := node.Decode(&v)
			return v, err
		case "!!bool":
			var v bool
			err := node.Decode(&v)
			return v, err
		}
		return node.Value, nil
	}
	return nil, fmt.Errorf("line %d: unsupported node", node.Line)
}
