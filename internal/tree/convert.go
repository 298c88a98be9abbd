package tree

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Equal reports whether a and b are structurally equal. Mapping key order is
// significant; NaN floats compare equal to each other.
func Equal(a, b Node) bool {
	switch x := a.(type) {
	case *Mapping:
		y, ok := b.(*Mapping)
		if !ok || x.Len() != y.Len() {
			return false
		}
		for i, e := range x.entries {
			f := y.entries[i]
			if e.Key != f.Key || !Equal(e.Value, f.Value) {
				return false
			}
		}
		return true
	case *Sequence:
		y, ok := b.(*Sequence)
		if !ok || x.Len() != y.Len() {
			return false
		}
		for i := range x.items {
			if !Equal(x.items[i], y.items[i]) {
				return false
			}
		}
		return true
	case *Scalar:
		y, ok := b.(*Scalar)
		if !ok || x.kind != y.kind {
			return false
		}
		return scalarEqual(x, y)
	default:
		return a == nil && b == nil
	}
}

func scalarEqual(x, y *Scalar) bool {
	switch x.kind {
	case String:
		return x.s == y.s
	case Integer:
		return x.i == y.i
	case Float:
		if math.IsNaN(x.f) {
			return math.IsNaN(y.f)
		}
		return x.f == y.f
	case Bool:
		return x.b == y.b
	case Null:
		return true
	case DateTime:
		return x.tk == y.tk && x.Text() == y.Text()
	default:
		return false
	}
}

// Clone returns a deep copy of n.
func Clone(n Node) Node {
	switch v := n.(type) {
	case *Mapping:
		m := NewMapping()
		for _, e := range v.entries {
			m.Set(e.Key, Clone(e.Value))
		}
		return m
	case *Sequence:
		s := &Sequence{items: make([]Node, len(v.items))}
		for i, item := range v.items {
			s.items[i] = Clone(item)
		}
		return s
	case *Scalar:
		c := *v
		return &c
	default:
		return nil
	}
}

// ToPlain converts n into plain Go values: map[string]any, []any, string,
// int64, float64, bool, nil and time.Time.
func ToPlain(n Node) any {
	switch v := n.(type) {
	case *Mapping:
		m := make(map[string]any, v.Len())
		for _, e := range v.entries {
			m[e.Key] = ToPlain(e.Value)
		}
		return m
	case *Sequence:
		out := make([]any, len(v.items))
		for i, item := range v.items {
			out[i] = ToPlain(item)
		}
		return out
	case *Scalar:
		return v.Value()
	default:
		return nil
	}
}

// FromPlain builds a tree from plain Go values. Map keys are sorted because Go
// maps carry no order; codecs that know the document order build mappings
// themselves.
func FromPlain(v any) (Node, error) {
	switch x := v.(type) {
	case nil:
		return NewNull(), nil
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		m := NewMapping()
		for _, k := range keys {
			child, err := FromPlain(x[k])
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			m.Set(k, child)
		}
		return m, nil
	case []map[string]any:
		s := &Sequence{}
		for i, item := range x {
			child, err := FromPlain(item)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			s.Append(child)
		}
		return s, nil
	case []any:
		s := &Sequence{}
		for i, item := range x {
			child, err := FromPlain(item)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			s.Append(child)
		}
		return s, nil
	case string:
		return NewString(x), nil
	case bool:
		return NewBool(x), nil
	case int:
		return NewInt(int64(x)), nil
	case int64:
		return NewInt(x), nil
	case int32:
		return NewInt(int64(x)), nil
	case uint64:
		if x > math.MaxInt64 {
			return NewFloat(float64(x)), nil
		}
		return NewInt(int64(x)), nil
	case float64:
		return NewFloat(x), nil
	case float32:
		return NewFloat(float64(x)), nil
	case time.Time:
		return NewDateTime(x, OffsetDateTime), nil
	case Node:
		return x, nil
	default:
		return nil, fmt.Errorf("unsupported value of type %T", v)
	}
}

// Equivalent is Equal without regard to mapping key order. Formats that must
// reorder keys on output (TOML writes plain keys before tables) round-trip
// to an equivalent tree rather than an equal one.
func Equivalent(a, b Node) bool {
	x, ok := a.(*Mapping)
	if !ok {
		if s, ok := a.(*Sequence); ok {
			t, ok := b.(*Sequence)
			if !ok || s.Len() != t.Len() {
				return false
			}
			for i := range s.items {
				if !Equivalent(s.items[i], t.items[i]) {
					return false
				}
			}
			return true
		}
		return Equal(a, b)
	}
	y, ok := b.(*Mapping)
	if !ok || x.Len() != y.Len() {
		return false
	}
	for _, e := range x.entries {
		v, ok := y.Get(e.Key)
		if !ok || !Equivalent(e.Value, v) {
			return false
		}
	}
	return true
}
