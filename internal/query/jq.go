package query

import (
	"errors"
	"fmt"
	"math"

	"github.com/agentic-research/confedit/internal/tree"
	"github.com/itchyny/gojq"
)

// JQ implements Evaluator for jq filters. The filter is wrapped in path(...)
// so every output is an address; values are then read from the ordered tree.
type JQ struct{}

func NewJQ() *JQ {
	return &JQ{}
}

func (*JQ) Name() string { return "jq" }

// Values implements Evaluator.
func (q *JQ) Values(root tree.Node, expr string) ([]tree.Node, error) {
	locs, err := q.Locations(root, expr)
	if err != nil {
		return nil, err
	}
	return valuesAt(root, locs)
}

// Locations implements Evaluator. Paths jq reports for keys or indices that
// do not exist in the document (jq happily yields path(.missing)) are dropped.
func (q *JQ) Locations(root tree.Node, expr string) ([]tree.Location, error) {
	parsed, err := gojq.Parse("path(" + expr + ")")
	if err != nil {
		return nil, &ExprError{Syntax: q.Name(), Expr: expr, Err: err}
	}

	var locs []tree.Location
	iter := parsed.Run(jqValue(root))
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, ok := v.(error); ok {
			var halt *gojq.HaltError
			if errors.As(err, &halt) && halt.Value() == nil {
				break
			}
			return nil, &ExprError{Syntax: q.Name(), Expr: expr, Err: err}
		}
		path, ok := v.([]any)
		if !ok {
			return nil, &ExprError{Syntax: q.Name(), Expr: expr, Err: fmt.Errorf("unexpected path %v", v)}
		}
		loc, ok, err := toLocation(root, path)
		if err != nil {
			return nil, &ExprError{Syntax: q.Name(), Expr: expr, Err: err}
		}
		if ok {
			locs = append(locs, loc)
		}
	}
	return locs, nil
}

// toLocation converts a jq path into a Location, resolving negative indices
// against the tree. ok is false when the path leaves the document.
func toLocation(root tree.Node, path []any) (tree.Location, bool, error) {
	loc := make(tree.Location, 0, len(path))
	cur := root
	for _, p := range path {
		var seg tree.Segment
		switch k := p.(type) {
		case string:
			seg = tree.Key(k)
		case int:
			seg = tree.Index(k)
		case float64:
			if k != math.Trunc(k) {
				return nil, false, fmt.Errorf("non-integer index %v", k)
			}
			seg = tree.Index(int(k))
		default:
			return nil, false, fmt.Errorf("unsupported path component %v", p)
		}
		if seq, ok := cur.(*tree.Sequence); ok && seg.IsIndex && seg.Index < 0 {
			seg.Index += seq.Len()
		}
		next, err := tree.Lookup(cur, tree.Location{seg})
		if err != nil {
			return nil, false, nil
		}
		loc = append(loc, seg)
		cur = next
	}
	return loc, true, nil
}

// jqValue converts a node into the value types gojq accepts: int instead of
// int64 and date/times as their text form.
func jqValue(n tree.Node) any {
	switch v := n.(type) {
	case *tree.Mapping:
		m := make(map[string]any, v.Len())
		for _, e := range v.Entries() {
			m[e.Key] = jqValue(e.Value)
		}
		return m
	case *tree.Sequence:
		items := v.Items()
		out := make([]any, len(items))
		for i, item := range items {
			out[i] = jqValue(item)
		}
		return out
	case *tree.Scalar:
		switch v.ScalarKind() {
		case tree.Integer:
			return int(v.AsInt())
		case tree.DateTime:
			return v.Text()
		default:
			return v.Value()
		}
	default:
		return nil
	}
}
