package codec

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"sort"
	"strconv"
	"strings"

	"github.com/agentic-research/confedit/internal/tree"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/zclconf/go-cty/cty"
)

// HCL is the codec for attribute-only HCL files such as Terraform .tfvars.
// Blocks and expressions that need an evaluation context are rejected.
type HCL struct{}

func (HCL) Name() string { return "hcl" }

// Decode implements Codec. Attributes keep their source order, and object
// constructors keep the order their items were written in.
func (c HCL) Decode(data []byte) (tree.Node, error) {
	file, diags := hclsyntax.ParseConfig(data, "config.hcl", hcl.InitialPos)
	if diags.HasErrors() {
		return nil, &ParseError{Format: c.Name(), Err: diags}
	}
	body, ok := file.Body.(*hclsyntax.Body)
	if !ok {
		return nil, &ParseError{Format: c.Name(), Err: errors.New("unexpected body type")}
	}
	if len(body.Blocks) > 0 {
		b := body.Blocks[0]
		return nil, &ParseError{Format: c.Name(), Err: fmt.Errorf("%s: blocks are not supported (%s)", b.TypeRange, b.Type)}
	}

	attrs := make([]*hclsyntax.Attribute, 0, len(body.Attributes))
	for _, a := range body.Attributes {
		attrs = append(attrs, a)
	}
	sort.Slice(attrs, func(i, j int) bool {
		return attrs[i].NameRange.Start.Byte < attrs[j].NameRange.Start.Byte
	})

	root := tree.NewMapping()
	for _, a := range attrs {
		v, err := buildHCL(data, a.Expr)
		if err != nil {
			return nil, &ParseError{Format: c.Name(), Err: fmt.Errorf("attribute %s: %w", a.Name, err)}
		}
		root.Set(a.Name, v)
	}
	return root, nil
}

func buildHCL(src []byte, expr hclsyntax.Expression) (tree.Node, error) {
	switch e := expr.(type) {
	case *hclsyntax.ObjectConsExpr:
		m := tree.NewMapping()
		for _, item := range e.Items {
			k, diags := item.KeyExpr.Value(nil)
			if diags.HasErrors() {
				return nil, diags
			}
			if k.IsNull() || k.Type() != cty.String {
				return nil, fmt.Errorf("%s: object keys must be strings", item.KeyExpr.Range())
			}
			v, err := buildHCL(src, item.ValueExpr)
			if err != nil {
				return nil, err
			}
			m.Set(k.AsString(), v)
		}
		return m, nil
	case *hclsyntax.TupleConsExpr:
		s := tree.NewSequence()
		for _, item := range e.Exprs {
			v, err := buildHCL(src, item)
			if err != nil {
				return nil, err
			}
			s.Append(v)
		}
		return s, nil
	}

	v, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, diags
	}
	if !v.IsWhollyKnown() {
		return nil, fmt.Errorf("%s: value is not known without evaluation", expr.Range())
	}
	if v.IsNull() {
		return tree.NewNull(), nil
	}

	switch v.Type() {
	case cty.String:
		return tree.NewString(v.AsString()), nil
	case cty.Bool:
		return tree.NewBool(v.True()), nil
	case cty.Number:
		r := expr.Range()
		lit := string(src[r.Start.Byte:r.End.Byte])
		bf := v.AsBigFloat()
		if !strings.ContainsAny(lit, ".eE") && bf.IsInt() {
			if i, acc := bf.Int64(); acc == big.Exact {
				return tree.NewInt(i), nil
			}
		}
		f, _ := bf.Float64()
		return tree.NewFloat(f), nil
	default:
		return nil, fmt.Errorf("%s: unsupported value of type %s", expr.Range(), v.Type().FriendlyName())
	}
}

// Encode implements Codec.
func (c HCL) Encode(n tree.Node) ([]byte, error) {
	root, ok := n.(*tree.Mapping)
	if !ok {
		return nil, &EncodeError{Format: c.Name(), Message: "top level must be a mapping of attributes"}
	}

	f := hclwrite.NewEmptyFile()
	body := f.Body()
	for _, e := range root.Entries() {
		loc := tree.Location{tree.Key(e.Key)}
		if !hclsyntax.ValidIdentifier(e.Key) {
			return nil, &EncodeError{Format: c.Name(), Location: loc, Message: fmt.Sprintf("%q is not a valid attribute name", e.Key)}
		}
		tokens, err := hclTokens(loc, e.Value)
		if err != nil {
			return nil, err
		}
		body.SetAttributeRaw(e.Key, tokens)
	}
	return hclwrite.Format(f.Bytes()), nil
}

func hclTokens(loc tree.Location, n tree.Node) (hclwrite.Tokens, error) {
	switch v := n.(type) {
	case *tree.Mapping:
		attrs := make([]hclwrite.ObjectAttrTokens, 0, v.Len())
		for _, e := range v.Entries() {
			val, err := hclTokens(loc.Child(tree.Key(e.Key)), e.Value)
			if err != nil {
				return nil, err
			}
			name := hclwrite.TokensForValue(cty.StringVal(e.Key))
			if hclsyntax.ValidIdentifier(e.Key) {
				name = hclwrite.TokensForIdentifier(e.Key)
			}
			attrs = append(attrs, hclwrite.ObjectAttrTokens{Name: name, Value: val})
		}
		return hclwrite.TokensForObject(attrs), nil
	case *tree.Sequence:
		items := v.Items()
		elems := make([]hclwrite.Tokens, len(items))
		for i, item := range items {
			t, err := hclTokens(loc.Child(tree.Index(i)), item)
			if err != nil {
				return nil, err
			}
			elems[i] = t
		}
		return hclwrite.TokensForTuple(elems), nil
	case *tree.Scalar:
		return hclScalar(loc, v)
	default:
		return nil, &EncodeError{Format: "hcl", Location: loc, Message: fmt.Sprintf("unknown node %T", n)}
	}
}

func hclScalar(loc tree.Location, s *tree.Scalar) (hclwrite.Tokens, error) {
	switch s.ScalarKind() {
	case tree.String:
		return hclwrite.TokensForValue(cty.StringVal(s.AsString())), nil
	case tree.Integer:
		return hclwrite.TokensForValue(cty.NumberIntVal(s.AsInt())), nil
	case tree.Float:
		f := s.AsFloat()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, &EncodeError{Format: "hcl", Location: loc, Message: tree.FormatFloat(f) + " has no HCL representation"}
		}
		// Written as a raw literal so a whole float keeps its ".0" and
		// decodes back as a float.
		lit := strconv.FormatFloat(f, 'f', -1, 64)
		if !strings.Contains(lit, ".") {
			lit += ".0"
		}
		return hclNumber(lit, f < 0), nil
	case tree.Bool:
		return hclwrite.TokensForValue(cty.BoolVal(s.AsBool())), nil
	case tree.Null:
		return hclwrite.TokensForValue(cty.NullVal(cty.DynamicPseudoType)), nil
	default:
		return nil, &EncodeError{Format: "hcl", Location: loc, Message: fmt.Sprintf("%s has no HCL representation", s.ScalarKind())}
	}
}

func hclNumber(lit string, negative bool) hclwrite.Tokens {
	if !negative {
		return hclwrite.Tokens{{Type: hclsyntax.TokenNumberLit, Bytes: []byte(lit)}}
	}
	return hclwrite.Tokens{
		{Type: hclsyntax.TokenMinus, Bytes: []byte("-")},
		{Type: hclsyntax.TokenNumberLit, Bytes: []byte(strings.TrimPrefix(lit, "-"))},
	}
}
