// Package patch records a mutation as an RFC 6902 JSON Patch.
package patch

import (
	"fmt"

	"github.com/agentic-research/confedit/internal/codec"
	"github.com/agentic-research/confedit/internal/tree"
	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/tidwall/sjson"
)

// Build returns a JSON Patch with one "replace" operation per location, all
// carrying value. The patch is decoded once to make sure it is well formed.
func Build(locs []tree.Location, value tree.Node) ([]byte, error) {
	raw, err := codec.MarshalCompact(value)
	if err != nil {
		return nil, fmt.Errorf("encode patch value: %w", err)
	}

	doc := []byte("[]")
	for _, loc := range locs {
		op := []byte("{}")
		if op, err = sjson.SetBytes(op, "op", "replace"); err != nil {
			return nil, err
		}
		if op, err = sjson.SetBytes(op, "path", loc.Pointer()); err != nil {
			return nil, err
		}
		if op, err = sjson.SetRawBytes(op, "value", []byte(raw)); err != nil {
			return nil, err
		}
		if doc, err = sjson.SetRawBytes(doc, "-1", op); err != nil {
			return nil, err
		}
	}

	if _, err := jsonpatch.DecodePatch(doc); err != nil {
		return nil, fmt.Errorf("decode patch: %w", err)
	}
	return doc, nil
}

// Apply applies a patch produced by Build to a JSON document.
func Apply(doc, p []byte) ([]byte, error) {
	decoded, err := jsonpatch.DecodePatch(p)
	if err != nil {
		return nil, fmt.Errorf("decode patch: %w", err)
	}
	out, err := decoded.Apply(doc)
	if err != nil {
		return nil, fmt.Errorf("apply patch: %w", err)
	}
	return out, nil
}
