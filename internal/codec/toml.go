package codec

import (
	"bytes"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/agentic-research/confedit/internal/tree"
)

// TOML is the TOML codec. Decoding goes through BurntSushi/toml and restores
// the document's key order from its metadata; encoding writes the tree in
// order, with plain keys ahead of [tables] and [[arrays of tables]] as TOML
// requires.
type TOML struct{}

func (TOML) Name() string { return "toml" }

// Decode implements Codec.
func (c TOML) Decode(data []byte) (tree.Node, error) {
	var raw map[string]any
	md, err := toml.Decode(string(data), &raw)
	if err != nil {
		return nil, &ParseError{Format: c.Name(), Err: err}
	}
	if raw == nil {
		raw = map[string]any{}
	}
	n, err := buildTOML(raw, "", tomlKeyOrder(&md))
	if err != nil {
		return nil, &ParseError{Format: c.Name(), Err: err}
	}
	return n, nil
}

// childPath and elemPath name a concrete table. Array-of-tables elements
// carry their index so every element keeps its own key order.
func childPath(parent, key string) string {
	return parent + "\x00" + key
}

func elemPath(parent string, i int) string {
	return parent + "\x00#" + strconv.Itoa(i)
}

// tomlKeyOrder replays md.Keys() (document order) and records, per concrete
// table, the order its keys first appeared in.
func tomlKeyOrder(md *toml.MetaData) map[string][]string {
	order := map[string][]string{}
	seen := map[string]bool{}
	headers := map[string]int{}

	for _, key := range md.Keys() {
		concrete := ""
		for i, seg := range key {
			child := childPath(concrete, seg)
			if !seen[child] {
				seen[child] = true
				order[concrete] = append(order[concrete], seg)
			}
			if md.Type(key[:i+1]...) == "ArrayHash" {
				if i == len(key)-1 {
					headers[child]++
				}
				idx := headers[child] - 1
				if idx < 0 {
					idx = 0
				}
				child = elemPath(child, idx)
			}
			concrete = child
		}
	}
	return order
}

func buildTOML(v any, path string, order map[string][]string) (tree.Node, error) {
	switch x := v.(type) {
	case map[string]any:
		m := tree.NewMapping()
		for _, k := range orderedKeys(x, order[path]) {
			child, err := buildTOML(x[k], childPath(path, k), order)
			if err != nil {
				return nil, err
			}
			m.Set(k, child)
		}
		return m, nil
	case []map[string]any:
		s := tree.NewSequence()
		for i, item := range x {
			child, err := buildTOML(item, elemPath(path, i), order)
			if err != nil {
				return nil, err
			}
			s.Append(child)
		}
		return s, nil
	case []any:
		s := tree.NewSequence()
		for i, item := range x {
			child, err := buildTOML(item, elemPath(path, i), order)
			if err != nil {
				return nil, err
			}
			s.Append(child)
		}
		return s, nil
	case time.Time:
		// BurntSushi/toml marks local date/times with named fixed zones.
		switch x.Location().String() {
		case "datetime-local":
			return tree.NewDateTime(x, tree.LocalDateTime), nil
		case "date-local":
			return tree.NewDateTime(x, tree.LocalDate), nil
		case "time-local":
			return tree.NewDateTime(x, tree.LocalTime), nil
		default:
			return tree.NewDateTime(x, tree.OffsetDateTime), nil
		}
	default:
		return tree.FromPlain(x)
	}
}

// orderedKeys returns the keys of m: those with a recorded position first, in
// that order, then the rest sorted.
func orderedKeys(m map[string]any, known []string) []string {
	keys := make([]string, 0, len(m))
	used := make(map[string]bool, len(m))
	for _, k := range known {
		if _, ok := m[k]; ok && !used[k] {
			keys = append(keys, k)
			used[k] = true
		}
	}
	var rest []string
	for k := range m {
		if !used[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}

// Encode implements Codec.
func (c TOML) Encode(n tree.Node) ([]byte, error) {
	root, ok := n.(*tree.Mapping)
	if !ok {
		return nil, &EncodeError{Format: c.Name(), Message: "top-level value must be a table"}
	}
	w := &tomlWriter{}
	if err := w.table(nil, nil, root); err != nil {
		return nil, err
	}
	return w.buf.Bytes(), nil
}

type tomlWriter struct {
	buf bytes.Buffer
}

// isArrayOfTables reports whether n is a non-empty sequence of mappings.
func isArrayOfTables(n tree.Node) bool {
	s, ok := n.(*tree.Sequence)
	if !ok || s.Len() == 0 {
		return false
	}
	for _, item := range s.Items() {
		if _, ok := item.(*tree.Mapping); !ok {
			return false
		}
	}
	return true
}

func isTable(n tree.Node) bool {
	_, ok := n.(*tree.Mapping)
	return ok
}

// table writes the body of a table whose header (if any) has been written.
func (w *tomlWriter) table(keys []string, loc tree.Location, m *tree.Mapping) error {
	entries := m.Entries()
	for _, e := range entries {
		if isTable(e.Value) || isArrayOfTables(e.Value) {
			continue
		}
		w.buf.WriteString(tomlKey(e.Key))
		w.buf.WriteString(" = ")
		if err := w.inline(loc.Child(tree.Key(e.Key)), e.Value); err != nil {
			return err
		}
		w.buf.WriteByte('\n')
	}

	for _, e := range entries {
		sub := append(append([]string(nil), keys...), e.Key)
		subLoc := loc.Child(tree.Key(e.Key))
		switch v := e.Value.(type) {
		case *tree.Mapping:
			if hasPlainEntries(v) || v.Len() == 0 {
				w.header("[", sub, "]")
			}
			if err := w.table(sub, subLoc, v); err != nil {
				return err
			}
		case *tree.Sequence:
			if !isArrayOfTables(v) {
				continue
			}
			for i, item := range v.Items() {
				w.header("[[", sub, "]]")
				if err := w.table(sub, subLoc.Child(tree.Index(i)), item.(*tree.Mapping)); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func hasPlainEntries(m *tree.Mapping) bool {
	for _, e := range m.Entries() {
		if !isTable(e.Value) && !isArrayOfTables(e.Value) {
			return true
		}
	}
	return false
}

func (w *tomlWriter) header(open string, keys []string, closing string) {
	if w.buf.Len() > 0 {
		w.buf.WriteByte('\n')
	}
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = tomlKey(k)
	}
	w.buf.WriteString(open)
	w.buf.WriteString(strings.Join(parts, "."))
	w.buf.WriteString(closing)
	w.buf.WriteByte('\n')
}

// inline writes a value in key = value position.
func (w *tomlWriter) inline(loc tree.Location, n tree.Node) error {
	switch v := n.(type) {
	case *tree.Mapping:
		entries := v.Entries()
		if len(entries) == 0 {
			w.buf.WriteString("{}")
			return nil
		}
		w.buf.WriteString("{ ")
		for i, e := range entries {
			if i > 0 {
				w.buf.WriteString(", ")
			}
			w.buf.WriteString(tomlKey(e.Key))
			w.buf.WriteString(" = ")
			if err := w.inline(loc.Child(tree.Key(e.Key)), e.Value); err != nil {
				return err
			}
		}
		w.buf.WriteString(" }")
	case *tree.Sequence:
		w.buf.WriteByte('[')
		for i, item := range v.Items() {
			if i > 0 {
				w.buf.WriteString(", ")
			}
			if err := w.inline(loc.Child(tree.Index(i)), item); err != nil {
				return err
			}
		}
		w.buf.WriteByte(']')
	case *tree.Scalar:
		s, err := tomlScalar(v)
		if err != nil {
			return &EncodeError{Format: "toml", Location: loc, Message: err.Error()}
		}
		w.buf.WriteString(s)
	default:
		return &EncodeError{Format: "toml", Location: loc, Message: fmt.Sprintf("unknown node %T", n)}
	}
	return nil
}

func tomlScalar(s *tree.Scalar) (string, error) {
	switch s.ScalarKind() {
	case tree.String:
		return tomlString(s.AsString()), nil
	case tree.Integer:
		return strconv.FormatInt(s.AsInt(), 10), nil
	case tree.Float:
		return tomlFloat(s.AsFloat()), nil
	case tree.Bool:
		return strconv.FormatBool(s.AsBool()), nil
	case tree.DateTime:
		return s.Text(), nil
	case tree.Null:
		return "", fmt.Errorf("null has no TOML representation")
	default:
		return "", fmt.Errorf("unknown scalar kind %s", s.ScalarKind())
	}
}

func tomlFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	s := tree.FormatFloat(f)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

var bareKey = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

func tomlKey(k string) string {
	if bareKey.MatchString(k) {
		return k
	}
	return tomlString(k)
}

// tomlString quotes s as a TOML basic string.
func tomlString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\b':
			b.WriteString(`\b`)
		case '\t':
			b.WriteString(`\t`)
		case '\n':
			b.WriteString(`\n`)
		case '\f':
			b.WriteString(`\f`)
		case '\r':
			b.WriteString(`\r`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&b, `\u%04X`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
