// Package tree is the in-memory form of a parsed configuration document.
//
// A document is a closed sum of three node kinds: *Mapping (ordered string
// keys), *Sequence and *Scalar. Consumers switch on the concrete type; no
// other implementations of Node exist.
package tree

import "fmt"

// Kind identifies the concrete type of a Node.
type Kind int

const (
	KindMapping Kind = iota
	KindSequence
	KindScalar
)

func (k Kind) String() string {
	switch k {
	case KindMapping:
		return "mapping"
	case KindSequence:
		return "sequence"
	case KindScalar:
		return "scalar"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Node is one of *Mapping, *Sequence or *Scalar.
type Node interface {
	Kind() Kind
	node()
}

// Entry is a single key/value pair of a Mapping.
type Entry struct {
	Key   string
	Value Node
}

// Mapping is an insertion-ordered string-keyed map.
type Mapping struct {
	entries []Entry
	index   map[string]int
}

// NewMapping returns an empty mapping.
func NewMapping() *Mapping {
	return &Mapping{index: map[string]int{}}
}

func (*Mapping) Kind() Kind { return KindMapping }
func (*Mapping) node()      {}

// Len returns the number of entries.
func (m *Mapping) Len() int { return len(m.entries) }

// Keys returns the keys in document order.
func (m *Mapping) Keys() []string {
	keys := make([]string, len(m.entries))
	for i, e := range m.entries {
		keys[i] = e.Key
	}
	return keys
}

// Entries returns a copy of the entries in document order.
func (m *Mapping) Entries() []Entry {
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Get returns the value stored under key.
func (m *Mapping) Get(key string) (Node, bool) {
	i, ok := m.index[key]
	if !ok {
		return nil, false
	}
	return m.entries[i].Value, true
}

// Set stores value under key. An existing key keeps its position; a new key
// is appended.
func (m *Mapping) Set(key string, value Node) {
	if m.index == nil {
		m.index = map[string]int{}
	}
	if i, ok := m.index[key]; ok {
		m.entries[i].Value = value
		return
	}
	m.index[key] = len(m.entries)
	m.entries = append(m.entries, Entry{Key: key, Value: value})
}

// Replace overwrites the value of an existing key and reports whether the key
// was present. It never adds keys.
func (m *Mapping) Replace(key string, value Node) bool {
	i, ok := m.index[key]
	if !ok {
		return false
	}
	m.entries[i].Value = value
	return true
}

// Sequence is an ordered list of nodes.
type Sequence struct {
	items []Node
}

// NewSequence returns a sequence holding items.
func NewSequence(items ...Node) *Sequence {
	return &Sequence{items: append([]Node(nil), items...)}
}

func (*Sequence) Kind() Kind { return KindSequence }
func (*Sequence) node()      {}

// Len returns the number of items.
func (s *Sequence) Len() int { return len(s.items) }

// Items returns a copy of the items.
func (s *Sequence) Items() []Node {
	return append([]Node(nil), s.items...)
}

// At returns the item at index i.
func (s *Sequence) At(i int) (Node, bool) {
	if i < 0 || i >= len(s.items) {
		return nil, false
	}
	return s.items[i], true
}

// SetAt overwrites the item at index i and reports whether i was in range.
func (s *Sequence) SetAt(i int, value Node) bool {
	if i < 0 || i >= len(s.items) {
		return false
	}
	s.items[i] = value
	return true
}

// Append adds an item at the end. Codecs use it while building a tree.
func (s *Sequence) Append(value Node) {
	s.items = append(s.items, value)
}
