package tree

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ohler55/ojg/jp"
)

// Segment is one step of a Location: a mapping key or a sequence index.
type Segment struct {
	Key     string
	Index   int
	IsIndex bool
}

// Key returns a mapping-key segment.
func Key(k string) Segment { return Segment{Key: k} }

// Index returns a sequence-index segment.
func Index(i int) Segment { return Segment{Index: i, IsIndex: true} }

func (s Segment) String() string {
	if s.IsIndex {
		return strconv.Itoa(s.Index)
	}
	return s.Key
}

// Location addresses a single slot in a tree as the chain of segments walked
// from the root. It holds no reference to the tree itself.
type Location []Segment

// Child returns a new location extended by seg.
func (l Location) Child(seg Segment) Location {
	out := make(Location, len(l), len(l)+1)
	copy(out, l)
	return append(out, seg)
}

// IsRoot reports whether l addresses the document root.
func (l Location) IsRoot() bool { return len(l) == 0 }

// Expr converts the location into a normalized JSONPath expression.
func (l Location) Expr() jp.Expr {
	x := jp.R()
	for _, seg := range l {
		if seg.IsIndex {
			x = x.N(seg.Index)
		} else {
			x = x.C(seg.Key)
		}
	}
	return x
}

// String renders the location as a normalized JSONPath, e.g. $.a[0].b
func (l Location) String() string {
	return l.Expr().String()
}

// Pointer renders the location as an RFC 6901 JSON pointer.
func (l Location) Pointer() string {
	var b strings.Builder
	for _, seg := range l {
		b.WriteByte('/')
		if seg.IsIndex {
			b.WriteString(strconv.Itoa(seg.Index))
			continue
		}
		k := strings.ReplaceAll(seg.Key, "~", "~0")
		b.WriteString(strings.ReplaceAll(k, "/", "~1"))
	}
	return b.String()
}

// Lookup returns the node addressed by loc.
func Lookup(root Node, loc Location) (Node, error) {
	cur := root
	for i, seg := range loc {
		next, err := step(cur, seg)
		if err != nil {
			return nil, fmt.Errorf("lookup %s: %w", loc[:i+1], err)
		}
		cur = next
	}
	return cur, nil
}

// Replace overwrites the slot addressed by loc with value. It walks to the
// parent container and replaces the existing key or index; it never inserts
// keys or changes a sequence length.
func Replace(root Node, loc Location, value Node) error {
	if loc.IsRoot() {
		return fmt.Errorf("replace: cannot replace the document root")
	}
	parent, err := Lookup(root, loc[:len(loc)-1])
	if err != nil {
		return fmt.Errorf("replace %s: %w", loc, err)
	}
	last := loc[len(loc)-1]
	switch p := parent.(type) {
	case *Mapping:
		if last.IsIndex || !p.Replace(last.Key, value) {
			return fmt.Errorf("replace %s: no key %q in mapping", loc, last.String())
		}
	case *Sequence:
		if !last.IsIndex || !p.SetAt(last.Index, value) {
			return fmt.Errorf("replace %s: index %s out of range", loc, last.String())
		}
	case *Scalar:
		return fmt.Errorf("replace %s: parent is a scalar", loc)
	default:
		return fmt.Errorf("replace %s: unknown node %T", loc, parent)
	}
	return nil
}

func step(n Node, seg Segment) (Node, error) {
	switch c := n.(type) {
	case *Mapping:
		if seg.IsIndex {
			return nil, fmt.Errorf("index %d applied to a mapping", seg.Index)
		}
		v, ok := c.Get(seg.Key)
		if !ok {
			return nil, fmt.Errorf("no key %q", seg.Key)
		}
		return v, nil
	case *Sequence:
		if !seg.IsIndex {
			return nil, fmt.Errorf("key %q applied to a sequence", seg.Key)
		}
		v, ok := c.At(seg.Index)
		if !ok {
			return nil, fmt.Errorf("index %d out of range", seg.Index)
		}
		return v, nil
	case *Scalar:
		return nil, fmt.Errorf("cannot descend into a scalar")
	default:
		return nil, fmt.Errorf("unknown node %T", n)
	}
}
