// Package pipeline runs one edit from inputs to outputs: read the file,
// decode it, resolve the path, optionally replace the value, encode, check
// the round trip, write and report.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/agentic-research/confedit/api"
	"github.com/agentic-research/confedit/internal/codec"
	"github.com/agentic-research/confedit/internal/edit"
	"github.com/agentic-research/confedit/internal/patch"
	"github.com/agentic-research/confedit/internal/query"
	"github.com/agentic-research/confedit/internal/tree"
	"github.com/agentic-research/confedit/internal/writeback"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/tidwall/pretty"
)

// ErrMissingFile is returned when no input file was given.
var ErrMissingFile = errors.New("input required and not supplied: file")

// StageError wraps the error that stopped a run with the stage it came from.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string { return e.Stage + ": " + e.Err.Error() }

func (e *StageError) Unwrap() error { return e.Err }

// Grouper collapses related log output. *actions.Host implements it.
type Grouper interface {
	Group(name string, fn func() error) error
}

type noGroups struct{}

func (noGroups) Group(_ string, fn func() error) error { return fn() }

// Deps are the collaborators a run needs.
type Deps struct {
	FS     billy.Filesystem
	Logger *slog.Logger
	// Groups may be nil.
	Groups Grouper
}

// Result is everything a run produced.
type Result struct {
	Codec      codec.Codec
	Document   tree.Node
	Resolution *edit.Resolution
	// Mutation is nil when no value was given.
	Mutation *edit.MutationResult
	Content  []byte
	// WrittenTo is the path the document was written to, empty if not written.
	WrittenTo string
	Patch     []byte
	Outputs   api.Outputs
}

// Run executes the pipeline for in.
func Run(ctx context.Context, deps Deps, in api.Inputs) (*Result, error) {
	log := deps.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	groups := deps.Groups
	if groups == nil {
		groups = noGroups{}
	}

	if in.File == "" {
		return nil, &StageError{Stage: "inputs", Err: ErrMissingFile}
	}
	if err := groups.Group("Inputs", func() error {
		log.Info("Inputs",
			"file", in.File, "path", in.Path, "value", in.Value,
			"write", in.Write, "output", in.Output,
			"format", in.Format, "syntax", in.Syntax)
		return nil
	}); err != nil {
		return nil, err
	}

	c, eval, err := selectCodecs(in)
	if err != nil {
		return nil, &StageError{Stage: "inputs", Err: err}
	}

	raw, err := util.ReadFile(deps.FS, in.File)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			err = fmt.Errorf("%s: %w", in.File, edit.ErrFileNotFound)
		}
		return nil, &StageError{Stage: "read", Err: err}
	}

	doc, err := c.Decode(raw)
	if err != nil {
		return nil, &StageError{Stage: "decode", Err: err}
	}
	if err := logDocument(groups, log, "Data", doc); err != nil {
		return nil, &StageError{Stage: "decode", Err: err}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ed := edit.NewEditor(eval, log)
	res := &Result{Codec: c, Document: doc}

	res.Resolution, err = ed.Resolve(doc, in.Path)
	if err != nil {
		return nil, &StageError{Stage: "resolve", Err: err}
	}

	if in.Path != "" && in.Value != "" {
		res.Mutation, err = ed.Mutate(doc, in.Path, in.Value)
		if err != nil {
			return nil, &StageError{Stage: "mutate", Err: err}
		}
		if err := logDocument(groups, log, "Updated Data", doc); err != nil {
			return nil, &StageError{Stage: "mutate", Err: err}
		}
	}

	res.Content, err = c.Encode(doc)
	if err != nil {
		return nil, &StageError{Stage: "encode", Err: err}
	}
	if err := writeback.Validate(c, res.Content, doc); err != nil {
		return nil, &StageError{Stage: "encode", Err: err}
	}
	if err := groups.Group("Content", func() error {
		log.Info(string(res.Content))
		return nil
	}); err != nil {
		return nil, &StageError{Stage: "encode", Err: err}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Patch and outputs are built before anything is written.
	if res.Mutation != nil && res.Mutation.Written() > 0 {
		res.Patch, err = patch.Build(res.Mutation.Locations, res.Mutation.Value)
		if err != nil {
			return nil, &StageError{Stage: "patch", Err: err}
		}
	}
	res.Outputs, err = buildOutputs(res)
	if err != nil {
		return nil, &StageError{Stage: "outputs", Err: err}
	}

	if in.PatchOutput != "" && res.Patch != nil {
		if err := writeback.WriteFile(deps.FS, in.PatchOutput, res.Patch); err != nil {
			return nil, &StageError{Stage: "patch", Err: err}
		}
	}

	if in.ShouldWrite() {
		dest := in.Destination()
		if dir, missing := writeback.MissingDir(deps.FS, dest); missing {
			log.Info("Creating Directory", "dir", dir)
		}
		if err := writeback.WriteFile(deps.FS, dest, res.Content); err != nil {
			return nil, &StageError{Stage: "write", Err: err}
		}
		log.Debug("wrote document", "path", dest)
		res.WrittenTo = dest
	}
	return res, nil
}

func selectCodecs(in api.Inputs) (codec.Codec, query.Evaluator, error) {
	c := codec.ForPath(in.File)
	if in.Format != "" {
		var err error
		if c, err = codec.ForName(in.Format); err != nil {
			return nil, nil, err
		}
	}
	eval, err := query.ForName(in.Syntax)
	if err != nil {
		return nil, nil, err
	}
	return c, eval, nil
}

func logDocument(groups Grouper, log *slog.Logger, name string, doc tree.Node) error {
	data, err := codec.MarshalCompact(doc)
	if err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	return groups.Group(name, func() error {
		log.Info(string(pretty.Pretty([]byte(data))))
		return nil
	})
}

func buildOutputs(res *Result) (api.Outputs, error) {
	out := api.Outputs{
		Content: string(res.Content),
		Format:  res.Codec.Name(),
		Patch:   string(res.Patch),
	}

	data, err := codec.MarshalCompact(res.Document)
	if err != nil {
		return out, err
	}
	out.Data = data

	if v := res.Resolution.First(); v != nil {
		if out.Value, err = ValueText(v); err != nil {
			return out, err
		}
	}
	return out, nil
}

// ValueText renders a resolved value for the value output: strings as-is,
// other scalars in literal form, mappings and sequences as JSON.
func ValueText(n tree.Node) (string, error) {
	if s, ok := n.(*tree.Scalar); ok {
		return s.Text(), nil
	}
	return codec.MarshalCompact(n)
}
