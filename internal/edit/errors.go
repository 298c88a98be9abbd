package edit

import (
	"errors"
	"fmt"
)

// Sentinel errors for use with errors.Is.
var (
	// ErrFileNotFound reports a missing input document.
	ErrFileNotFound = errors.New("file not found")
	// ErrNoMatch matches any *NoMatchError.
	ErrNoMatch = errors.New("no values for path")
	// ErrRootLocation reports an attempt to replace the whole document.
	ErrRootLocation = errors.New("cannot replace the document root")
)

// NoMatchError reports a non-empty path that resolved to nothing during the
// read step.
type NoMatchError struct {
	Path string
}

func (e *NoMatchError) Error() string {
	return fmt.Sprintf("No Values for Path: %s", e.Path)
}

func (e *NoMatchError) Is(target error) bool { return target == ErrNoMatch }
