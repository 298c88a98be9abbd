// Package writeback checks encoded documents and writes them to disk.
package writeback

import (
	"errors"
	"fmt"

	"github.com/agentic-research/confedit/internal/codec"
	"github.com/agentic-research/confedit/internal/tree"
)

// ErrValidation matches any *ValidationError.
var ErrValidation = errors.New("round-trip validation failed")

// ValidationError reports encoded content that does not decode back to the
// tree it was produced from.
type ValidationError struct {
	Format  string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s output: %s: %v", e.Format, e.Message, e.Err)
	}
	return fmt.Sprintf("%s output: %s", e.Format, e.Message)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Validate decodes content with c and checks that the result is equivalent to
// want. Key order is not compared: some formats must reorder keys to be
// valid.
func Validate(c codec.Codec, content []byte, want tree.Node) error {
	got, err := c.Decode(content)
	if err != nil {
		return &ValidationError{Format: c.Name(), Message: "output does not parse", Err: err}
	}
	if !tree.Equivalent(got, want) {
		return &ValidationError{Format: c.Name(), Message: "output decodes to a different document"}
	}
	return nil
}
