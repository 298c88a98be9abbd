package codec

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/agentic-research/confedit/internal/tree"
	"gopkg.in/yaml.v3"
)

// YAML is the YAML codec built on yaml.v3 nodes, which keep mapping order.
type YAML struct{}

func (YAML) Name() string { return "yaml" }

// Decode implements Codec. An empty document decodes to an empty mapping.
func (c YAML) Decode(data []byte) (tree.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &ParseError{Format: c.Name(), Err: err}
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return tree.NewMapping(), nil
	}
	n, err := buildYAML(doc.Content[0])
	if err != nil {
		return nil, &ParseError{Format: c.Name(), Err: err}
	}
	return n, nil
}

func buildYAML(n *yaml.Node) (tree.Node, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return tree.NewNull(), nil
		}
		return buildYAML(n.Content[0])
	case yaml.AliasNode:
		return buildYAML(n.Alias)
	case yaml.MappingNode:
		m := tree.NewMapping()
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, v := n.Content[i], n.Content[i+1]
			if k.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: mapping keys must be scalars", k.Line)
			}
			child, err := buildYAML(v)
			if err != nil {
				return nil, err
			}
			m.Set(k.Value, child)
		}
		return m, nil
	case yaml.SequenceNode:
		s := tree.NewSequence()
		for _, item := range n.Content {
			child, err := buildYAML(item)
			if err != nil {
				return nil, err
			}
			s.Append(child)
		}
		return s, nil
	case yaml.ScalarNode:
		return yamlScalar(n)
	default:
		return nil, fmt.Errorf("line %d: unsupported node kind %d", n.Line, n.Kind)
	}
}

func yamlScalar(n *yaml.Node) (tree.Node, error) {
	switch n.ShortTag() {
	case "!!str":
		return tree.NewString(n.Value), nil
	case "!!null":
		return tree.NewNull(), nil
	case "!!timestamp":
		var t time.Time
		if err := n.Decode(&t); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		if len(strings.TrimSpace(n.Value)) == len(tree.LayoutLocalDate) {
			return tree.NewDateTime(t, tree.LocalDate), nil
		}
		return tree.NewDateTime(t, tree.OffsetDateTime), nil
	case "!!int", "!!float", "!!bool":
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return tree.FromPlain(v)
	default:
		return tree.NewString(n.Value), nil
	}
}

// Encode implements Codec.
func (c YAML) Encode(n tree.Node) ([]byte, error) {
	node, err := toYAML(nil, n)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(node); err != nil {
		return nil, &EncodeError{Format: c.Name(), Message: err.Error()}
	}
	if err := enc.Close(); err != nil {
		return nil, &EncodeError{Format: c.Name(), Message: err.Error()}
	}
	return buf.Bytes(), nil
}

func toYAML(loc tree.Location, n tree.Node) (*yaml.Node, error) {
	switch v := n.(type) {
	case *tree.Mapping:
		out := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, e := range v.Entries() {
			child, err := toYAML(loc.Child(tree.Key(e.Key)), e.Value)
			if err != nil {
				return nil, err
			}
			key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: e.Key}
			out.Content = append(out.Content, key, child)
		}
		return out, nil
	case *tree.Sequence:
		out := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for i, item := range v.Items() {
			child, err := toYAML(loc.Child(tree.Index(i)), item)
			if err != nil {
				return nil, err
			}
			out.Content = append(out.Content, child)
		}
		return out, nil
	case *tree.Scalar:
		tag, value := yamlScalarText(v)
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}, nil
	default:
		return nil, &EncodeError{Format: "yaml", Location: loc, Message: fmt.Sprintf("unknown node %T", n)}
	}
}

func yamlScalarText(s *tree.Scalar) (tag, value string) {
	switch s.ScalarKind() {
	case tree.Integer:
		return "!!int", strconv.FormatInt(s.AsInt(), 10)
	case tree.Float:
		f := s.AsFloat()
		switch {
		case math.IsNaN(f):
			return "!!float", ".nan"
		case math.IsInf(f, 1):
			return "!!float", ".inf"
		case math.IsInf(f, -1):
			return "!!float", "-.inf"
		}
		out := tree.FormatFloat(f)
		if !strings.ContainsAny(out, ".eE") {
			out += ".0"
		}
		return "!!float", out
	case tree.Bool:
		return "!!bool", strconv.FormatBool(s.AsBool())
	case tree.Null:
		return "!!null", "null"
	case tree.DateTime:
		if s.TimeKind() == tree.LocalTime {
			return "!!str", s.Text()
		}
		return "!!timestamp", s.Text()
	default:
		return "!!str", s.AsString()
	}
}
