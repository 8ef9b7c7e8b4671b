package document

import (
	"fmt"

	"github.com/tinyalpaca/alpacagen/internal/specerrors"
	"go.yaml.in/yaml/v4"
)

// Alias expansion limits, the same ratio rule the YAML decoder applies when
// decoding into Go values.
const (
	aliasRatioRangeLow  = 400000
	aliasRatioRangeHigh = 4000000
	minAliasedNodes     = 100
	minConvertedNodes   = 1000
)

// Parse reads YAML or JSON text into a Mapping. The top level must be a
// mapping.
func Parse(data []byte) (Mapping, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, &specerrors.MalformedSpecError{Message: "invalid YAML", Err: err}
	}
	if root.Kind == 0 {
		return nil, &specerrors.MalformedSpecError{Message: "empty document"}
	}

	p := &parser{expanding: make(map[*yaml.Node]bool)}
	n, err := p.convert(&root, "")
	if err != nil {
		return nil, err
	}
	m, ok := n.(Mapping)
	if !ok {
		return nil, &specerrors.MalformedSpecError{Message: "top level is not a mapping"}
	}
	return m, nil
}

type parser struct {
	// expanding holds the anchored nodes being converted on the current
	// recursion path.
	expanding map[*yaml.Node]bool

	converted  int
	aliased    int
	aliasDepth int
}

func allowedAliasRatio(converted int) float64 {
	switch {
	case converted <= aliasRatioRangeLow:
		return 0.99
	case converted >= aliasRatioRangeHigh:
		return 0.10
	}
	return 0.99 - 0.89*(float64(converted-aliasRatioRangeLow)/(aliasRatioRangeHigh-aliasRatioRangeLow))
}

func (p *parser) count(n *yaml.Node, at string) error {
	p.converted++
	if p.aliasDepth > 0 {
		p.aliased++
	}
	if p.aliased > minAliasedNodes && p.converted > minConvertedNodes &&
		float64(p.aliased)/float64(p.converted) > allowedAliasRatio(p.converted) {
		return &specerrors.MalformedSpecError{Section: at, Message: fmt.Sprintf("excessive aliasing at line %d", n.Line)}
	}
	return nil
}

func (p *parser) convert(n *yaml.Node, at string) (Node, error) {
	if err := p.count(n, at); err != nil {
		return nil, err
	}

	if n.Anchor != "" {
		p.expanding[n] = true
		defer delete(p.expanding, n)
	}

	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, &specerrors.MalformedSpecError{Message: "empty document"}
		}
		return p.convert(n.Content[0], at)

	case yaml.AliasNode:
		if n.Alias == nil || p.expanding[n.Alias] {
			return nil, &specerrors.MalformedSpecError{Section: at, Message: fmt.Sprintf("recursive alias at line %d", n.Line)}
		}
		p.aliasDepth++
		defer func() { p.aliasDepth-- }()
		return p.convert(n.Alias, at)

	case yaml.ScalarNode:
		if n.ShortTag() == "!!timestamp" {
			return Scalar{Value: n.Value}, nil
		}
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, &specerrors.MalformedSpecError{Section: at, Message: fmt.Sprintf("line %d", n.Line), Err: err}
		}
		return Scalar{Value: v}, nil

	case yaml.SequenceNode:
		seq := make(Sequence, 0, len(n.Content))
		for i, item := range n.Content {
			v, err := p.convert(item, fmt.Sprintf("%s/%d", at, i))
			if err != nil {
				return nil, err
			}
			seq = append(seq, v)
		}
		return seq, nil

	case yaml.MappingNode:
		return p.convertMapping(n, at)
	}

	return nil, &specerrors.MalformedSpecError{Section: at, Message: fmt.Sprintf("unsupported YAML node kind %d at line %d", n.Kind, n.Line)}
}

func (p *parser) convertMapping(n *yaml.Node, at string) (Mapping, error) {
	m := make(Mapping, len(n.Content)/2)
	var merged []Mapping

	for i := 0; i+1 < len(n.Content); i += 2 {
		key, value := n.Content[i], n.Content[i+1]

		if key.Tag == "!!merge" {
			mm, err := p.mergeSources(value, at)
			if err != nil {
				return nil, err
			}
			merged = append(merged, mm...)
			continue
		}
		if key.Kind != yaml.ScalarNode {
			return nil, &specerrors.MalformedSpecError{Section: at, Message: fmt.Sprintf("non-scalar mapping key at line %d", key.Line)}
		}

		v, err := p.convert(value, at+"/"+key.Value)
		if err != nil {
			return nil, err
		}
		m[key.Value] = v
	}

	// Explicit keys win over merged ones; earlier merge sources win over later.
	for _, src := range merged {
		for k, v := range src {
			if _, ok := m[k]; !ok {
				m[k] = v
			}
		}
	}
	return m, nil
}

// mergeSources converts the value of a merge key, a mapping or a sequence of
// mappings.
func (p *parser) mergeSources(n *yaml.Node, at string) ([]Mapping, error) {
	v, err := p.convert(n, at)
	if err != nil {
		return nil, err
	}
	switch v := v.(type) {
	case Mapping:
		return []Mapping{v}, nil
	case Sequence:
		out := make([]Mapping, 0, len(v))
		for _, item := range v {
			m, ok := item.(Mapping)
			if !ok {
				return nil, &specerrors.MalformedSpecError{Section: at, Message: fmt.Sprintf("merge key value is not a mapping at line %d", n.Line)}
			}
			out = append(out, m)
		}
		return out, nil
	}
	return nil, &specerrors.MalformedSpecError{Section: at, Message: fmt.Sprintf("merge key value is not a mapping at line %d", n.Line)}
}
