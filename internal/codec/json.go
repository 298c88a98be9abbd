package codec

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/agentic-research/confedit/internal/tree"
	"github.com/ohler55/ojg/oj"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
)

// JSON is the JSON codec. gjson walks objects in document order, so key
// order survives a round trip; output is indented with tidwall/pretty.
type JSON struct{}

func (JSON) Name() string { return "json" }

// Decode implements Codec.
func (c JSON) Decode(data []byte) (tree.Node, error) {
	if !gjson.ValidBytes(data) {
		return nil, &ParseError{Format: c.Name(), Err: errors.New("invalid JSON document")}
	}
	return buildJSON(gjson.ParseBytes(data)), nil
}

func buildJSON(r gjson.Result) tree.Node {
	switch {
	case r.IsObject():
		m := tree.NewMapping()
		r.ForEach(func(k, v gjson.Result) bool {
			m.Set(k.String(), buildJSON(v))
			return true
		})
		return m
	case r.IsArray():
		s := tree.NewSequence()
		r.ForEach(func(_, v gjson.Result) bool {
			s.Append(buildJSON(v))
			return true
		})
		return s
	}

	switch r.Type {
	case gjson.True:
		return tree.NewBool(true)
	case gjson.False:
		return tree.NewBool(false)
	case gjson.Number:
		lit := strings.TrimSpace(r.Raw)
		if !strings.ContainsAny(lit, ".eE") {
			if i, err := strconv.ParseInt(lit, 10, 64); err == nil {
				return tree.NewInt(i)
			}
		}
		return tree.NewFloat(r.Num)
	case gjson.String:
		return tree.NewString(r.Str)
	default:
		return tree.NewNull()
	}
}

// Encode implements Codec.
func (c JSON) Encode(n tree.Node) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, nil, n); err != nil {
		return nil, err
	}
	return pretty.Pretty(buf.Bytes()), nil
}

// MarshalCompact renders n as single-line JSON, the form used for pipeline
// outputs.
func MarshalCompact(n tree.Node) (string, error) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, nil, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func writeJSON(buf *bytes.Buffer, loc tree.Location, n tree.Node) error {
	switch v := n.(type) {
	case *tree.Mapping:
		buf.WriteByte('{')
		for i, e := range v.Entries() {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.WriteString(oj.JSON(e.Key))
			buf.WriteByte(':')
			if err := writeJSON(buf, loc.Child(tree.Key(e.Key)), e.Value); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case *tree.Sequence:
		buf.WriteByte('[')
		for i, item := range v.Items() {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSON(buf, loc.Child(tree.Index(i)), item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case *tree.Scalar:
		s, err := jsonScalar(v)
		if err != nil {
			return &EncodeError{Format: "json", Location: loc, Message: err.Error()}
		}
		buf.WriteString(s)
	default:
		return &EncodeError{Format: "json", Location: loc, Message: fmt.Sprintf("unknown node %T", n)}
	}
	return nil
}

func jsonScalar(s *tree.Scalar) (string, error) {
	switch s.ScalarKind() {
	case tree.String, tree.DateTime:
		return oj.JSON(s.Text()), nil
	case tree.Integer:
		return strconv.FormatInt(s.AsInt(), 10), nil
	case tree.Float:
		f := s.AsFloat()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return "", fmt.Errorf("%s has no JSON representation", tree.FormatFloat(f))
		}
		out := tree.FormatFloat(f)
		if !strings.ContainsAny(out, ".eE") {
			out += ".0"
		}
		return out, nil
	case tree.Bool:
		return strconv.FormatBool(s.AsBool()), nil
	case tree.Null:
		return "null", nil
	default:
		return "", fmt.Errorf("unknown scalar kind %s", s.ScalarKind())
	}
}
