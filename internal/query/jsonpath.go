package query

import (
	"fmt"

	"github.com/agentic-research/confedit/internal/tree"
	"github.com/ohler55/ojg/jp"
)

// JSONPath implements Evaluator for JSONPath expressions. Parsing is done by
// ojg; evaluation walks the ordered tree so wildcards and descent follow
// document order and every match carries its location.
type JSONPath struct{}

func NewJSONPath() *JSONPath {
	return &JSONPath{}
}

func (*JSONPath) Name() string { return "jsonpath" }

// Values implements Evaluator.
func (w *JSONPath) Values(root tree.Node, expr string) ([]tree.Node, error) {
	matches, err := w.eval(root, expr)
	if err != nil {
		return nil, err
	}
	out := make([]tree.Node, len(matches))
	for i, m := range matches {
		out[i] = m.node
	}
	return out, nil
}

// Locations implements Evaluator.
func (w *JSONPath) Locations(root tree.Node, expr string) ([]tree.Location, error) {
	matches, err := w.eval(root, expr)
	if err != nil {
		return nil, err
	}
	out := make([]tree.Location, len(matches))
	for i, m := range matches {
		out[i] = m.loc
	}
	return out, nil
}

type match struct {
	node tree.Node
	loc  tree.Location
}

func (w *JSONPath) eval(root tree.Node, expr string) ([]match, error) {
	x, err := jp.ParseString(expr)
	if err != nil {
		return nil, &ExprError{Syntax: w.Name(), Expr: expr, Err: err}
	}

	current := []match{{node: root}}
	for _, frag := range x {
		current, err = applyFrag(current, frag)
		if err != nil {
			return nil, &ExprError{Syntax: w.Name(), Expr: expr, Err: err}
		}
		if len(current) == 0 {
			return nil, nil
		}
	}
	return current, nil
}

// applyFrag applies one fragment to every current match.
func applyFrag(current []match, frag jp.Frag) ([]match, error) {
	var results []match

	switch frag.(type) {
	case jp.Root, jp.At, jp.Bracket:
		return current, nil

	case jp.Descent:
		for _, m := range current {
			results = appendDescendants(results, m)
		}
		return results, nil
	}

	for _, m := range current {
		switch f := frag.(type) {
		case jp.Child:
			results = appendChild(results, m, string(f))

		case jp.Nth:
			results = appendIndex(results, m, int(f))

		case jp.Wildcard:
			results = appendChildren(results, m)

		case jp.Union:
			for _, key := range f {
				switch k := key.(type) {
				case string:
					results = appendChild(results, m, k)
				case int64:
					results = appendIndex(results, m, int(k))
				case int:
					results = appendIndex(results, m, k)
				default:
					return nil, fmt.Errorf("unsupported union key %v", key)
				}
			}

		case jp.Slice:
			results = appendSlice(results, m, f)

		case *jp.Filter:
			for _, child := range appendChildren(nil, m) {
				if f.Script.Match(tree.ToPlain(child.node)) {
					results = append(results, child)
				}
			}

		default:
			return nil, fmt.Errorf("unsupported path fragment %T", frag)
		}
	}
	return results, nil
}

func appendChild(results []match, m match, key string) []match {
	if mp, ok := m.node.(*tree.Mapping); ok {
		if v, ok := mp.Get(key); ok {
			results = append(results, match{node: v, loc: m.loc.Child(tree.Key(key))})
		}
	}
	return results
}

func appendIndex(results []match, m match, i int) []match {
	seq, ok := m.node.(*tree.Sequence)
	if !ok {
		return results
	}
	if i < 0 {
		i += seq.Len()
	}
	if v, ok := seq.At(i); ok {
		results = append(results, match{node: v, loc: m.loc.Child(tree.Index(i))})
	}
	return results
}

func appendChildren(results []match, m match) []match {
	switch n := m.node.(type) {
	case *tree.Mapping:
		for _, e := range n.Entries() {
			results = append(results, match{node: e.Value, loc: m.loc.Child(tree.Key(e.Key))})
		}
	case *tree.Sequence:
		for i, item := range n.Items() {
			results = append(results, match{node: item, loc: m.loc.Child(tree.Index(i))})
		}
	case *tree.Scalar:
	}
	return results
}

// appendDescendants adds m and every node below it, depth first in document
// order.
func appendDescendants(results []match, m match) []match {
	results = append(results, m)
	for _, child := range appendChildren(nil, m) {
		results = appendDescendants(results, child)
	}
	return results
}

func appendSlice(results []match, m match, s jp.Slice) []match {
	seq, ok := m.node.(*tree.Sequence)
	if !ok {
		return results
	}
	size := seq.Len()
	start, end, step := 0, size, 1
	if len(s) > 0 {
		start = s[0]
	}
	if len(s) > 1 {
		end = s[1]
	}
	if len(s) > 2 {
		step = s[2]
	}
	start = clampIndex(start, size)
	if step < 0 && len(s) < 2 {
		end = -1
	} else {
		end = clampIndex(end, size)
	}

	switch {
	case step > 0:
		for i := start; i < end; i += step {
			v, _ := seq.At(i)
			results = append(results, match{node: v, loc: m.loc.Child(tree.Index(i))})
		}
	case step < 0:
		if start >= size {
			start = size - 1
		}
		for i := start; i > end; i += step {
			v, _ := seq.At(i)
			results = append(results, match{node: v, loc: m.loc.Child(tree.Index(i))})
		}
	}
	return results
}

func clampIndex(i, size int) int {
	if i < 0 {
		i += size
		if i < 0 {
			return 0
		}
	}
	if i > size {
		return size
	}
	return i
}
