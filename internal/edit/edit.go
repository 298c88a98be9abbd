// Package edit is the query-and-mutate engine: it reads the value a path
// expression addresses in a document tree and replaces it in place.
package edit

import (
	"fmt"
	"log/slog"

	"github.com/agentic-research/confedit/internal/query"
	"github.com/agentic-research/confedit/internal/tree"
)

// Editor resolves and mutates document trees. It holds no per-document state
// and may be reused across documents.
type Editor struct {
	Eval   query.Evaluator
	Logger *slog.Logger
}

func NewEditor(eval query.Evaluator, logger *slog.Logger) *Editor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Editor{Eval: eval, Logger: logger}
}

// Resolution is the result of a read.
type Resolution struct {
	Path string
	// Matches are copies of the matched nodes in evaluator order.
	Matches []tree.Node
}

// Empty reports whether no path was given.
func (r *Resolution) Empty() bool { return r.Path == "" }

// First returns the resolved value: the first match, or nil for an empty
// resolution.
func (r *Resolution) First() tree.Node {
	if len(r.Matches) == 0 {
		return nil
	}
	return r.Matches[0]
}

// Resolve reads the nodes path addresses in root. An empty path resolves to an
// empty Resolution. A non-empty path that matches nothing fails with
// *NoMatchError.
func (e *Editor) Resolve(root tree.Node, path string) (*Resolution, error) {
	res := &Resolution{Path: path}
	if path == "" {
		return res, nil
	}

	values, err := e.Eval.Values(root, path)
	if err != nil {
		return nil, fmt.Errorf("resolve %q: %w", path, err)
	}
	e.Logger.Debug("parsed values", "path", path, "count", len(values))
	if len(values) == 0 {
		return nil, &NoMatchError{Path: path}
	}

	res.Matches = make([]tree.Node, len(values))
	for i, v := range values {
		res.Matches[i] = tree.Clone(v)
	}
	return res, nil
}

// MutationResult describes a completed write.
type MutationResult struct {
	// Value is the coerced replacement written at every location.
	Value *tree.Scalar
	// Fallback is true when the raw value was kept as a literal string.
	Fallback bool
	// Locations lists the slots written, in order.
	Locations []tree.Location
}

// Written returns the number of slots replaced.
func (r *MutationResult) Written() int { return len(r.Locations) }

// Mutate writes the coerced form of raw at every location path addresses in
// root. A path matching nothing is a no-op. Callers skip Mutate when either
// path or raw is empty.
func (e *Editor) Mutate(root tree.Node, path, raw string) (*MutationResult, error) {
	locs, err := e.Eval.Locations(root, path)
	if err != nil {
		return nil, fmt.Errorf("mutate %q: %w", path, err)
	}

	value, fallback := Coerce(raw)
	if fallback {
		e.Logger.Debug("value kept as string", "raw", raw)
	}
	result := &MutationResult{Value: value, Fallback: fallback}

	if len(locs) == 0 {
		e.Logger.Debug("no locations to update", "path", path)
		return result, nil
	}

	// Check every location before writing so a failure leaves root untouched.
	for _, loc := range locs {
		if loc.IsRoot() {
			return nil, fmt.Errorf("mutate %q: %w", path, ErrRootLocation)
		}
	}
	for _, loc := range locs {
		if err := tree.Replace(root, loc, tree.Clone(value)); err != nil {
			return nil, fmt.Errorf("mutate %q: %w", path, err)
		}
		e.Logger.Debug("updated location", "location", loc.String())
		result.Locations = append(result.Locations, loc)
	}
	return result, nil
}
