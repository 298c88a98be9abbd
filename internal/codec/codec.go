// Package codec converts configuration documents between text and trees.
package codec

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/agentic-research/confedit/internal/tree"
)

// Codec decodes and encodes one document format.
// Decode(Encode(t)) must be structurally equivalent to t for every tree the
// format can represent.
type Codec interface {
	// Name is the format name, e.g. "toml".
	Name() string
	// Decode parses a document. Malformed input fails with *ParseError.
	Decode(data []byte) (tree.Node, error)
	// Encode renders a tree. Values the format cannot hold fail with *EncodeError.
	Encode(n tree.Node) ([]byte, error)
}

var (
	// ErrParse matches any *ParseError.
	ErrParse = errors.New("parse error")
	// ErrEncode matches any *EncodeError.
	ErrEncode = errors.New("encode error")
)

// ParseError reports a document that could not be decoded.
type ParseError struct {
	Format string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Format, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrParse }

// EncodeError reports a tree the format cannot represent.
type EncodeError struct {
	Format   string
	Location tree.Location
	Message  string
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode %s at %s: %s", e.Format, e.Location, e.Message)
}

func (e *EncodeError) Is(target error) bool { return target == ErrEncode }

// Names lists the supported formats.
func Names() []string {
	return []string{"toml", "json", "yaml", "hcl"}
}

// ForName returns the codec for a format name.
func ForName(name string) (Codec, error) {
	switch strings.ToLower(name) {
	case "toml":
		return TOML{}, nil
	case "json":
		return JSON{}, nil
	case "yaml", "yml":
		return YAML{}, nil
	case "hcl", "tfvars":
		return HCL{}, nil
	default:
		return nil, fmt.Errorf("unknown format %q (want one of %s)", name, strings.Join(Names(), ", "))
	}
}

// ForPath picks a codec by file extension. Unknown extensions are read as
// TOML.
func ForPath(path string) Codec {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return JSON{}
	case ".yaml", ".yml":
		return YAML{}
	case ".hcl", ".tfvars":
		return HCL{}
	default:
		return TOML{}
	}
}
