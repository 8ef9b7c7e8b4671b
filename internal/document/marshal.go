package document

import (
	"bytes"
	"fmt"

	"go.yaml.in/yaml/v4"
)

// Marshal renders n as YAML with mapping keys sorted.
func Marshal(n Node) ([]byte, error) {
	y, err := toYAML(n)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(y); err != nil {
		return nil, fmt.Errorf("encoding YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding YAML: %w", err)
	}
	return buf.Bytes(), nil
}

func toYAML(n Node) (*yaml.Node, error) {
	switch v := n.(type) {
	case Scalar:
		y := &yaml.Node{}
		if err := y.Encode(v.Value); err != nil {
			return nil, fmt.Errorf("encoding scalar %v: %w", v.Value, err)
		}
		return y, nil

	case CyclicRef:
		return toYAML(Mapping{
			RefKey:    String(v.Ref),
			CyclicKey: Scalar{Value: true},
		})

	case Sequence:
		y := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range v {
			c, err := toYAML(item)
			if err != nil {
				return nil, err
			}
			y.Content = append(y.Content, c)
		}
		return y, nil

	case Mapping:
		y := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, k := range v.Keys() {
			c, err := toYAML(v[k])
			if err != nil {
				return nil, err
			}
			y.Content = append(y.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
				c,
			)
		}
		return y, nil
	}

	return nil, fmt.Errorf("unsupported node type %T", n)
}
