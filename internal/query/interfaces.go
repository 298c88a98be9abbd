// Package query resolves path expressions against a document tree.
package query

import (
	"errors"
	"fmt"

	"github.com/agentic-research/confedit/internal/tree"
)

// Evaluator abstracts over path languages (JSONPath, jq).
// Both methods return an empty result, never an error, when nothing matches.
// For the same tree and expression, Locations addresses exactly the nodes
// Values returns, in the same order.
type Evaluator interface {
	// Name identifies the path language, e.g. "jsonpath".
	Name() string

	// Values returns the matched nodes in document order.
	Values(root tree.Node, expr string) ([]tree.Node, error)

	// Locations returns the addresses of the matched nodes.
	Locations(root tree.Node, expr string) ([]tree.Location, error)
}

// ErrInvalidExpr matches any *ExprError.
var ErrInvalidExpr = errors.New("invalid path expression")

// ExprError reports an expression that could not be parsed or evaluated.
type ExprError struct {
	Syntax string
	Expr   string
	Err    error
}

func (e *ExprError) Error() string {
	return fmt.Sprintf("invalid %s expression %q: %v", e.Syntax, e.Expr, e.Err)
}

func (e *ExprError) Unwrap() error { return e.Err }

func (e *ExprError) Is(target error) bool { return target == ErrInvalidExpr }

// ForName returns the evaluator for a path language. An empty name selects
// JSONPath.
func ForName(name string) (Evaluator, error) {
	switch name {
	case "", "jsonpath":
		return NewJSONPath(), nil
	case "jq":
		return NewJQ(), nil
	default:
		return nil, fmt.Errorf("unknown path syntax %q (want jsonpath or jq)", name)
	}
}

// valuesAt reads the node at every location, in order.
func valuesAt(root tree.Node, locs []tree.Location) ([]tree.Node, error) {
	out := make([]tree.Node, 0, len(locs))
	for _, loc := range locs {
		n, err := tree.Lookup(root, loc)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}
