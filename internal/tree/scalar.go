package tree

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// ScalarKind identifies the value held by a Scalar.
type ScalarKind int

const (
	String ScalarKind = iota
	Integer
	Float
	Bool
	Null
	DateTime
)

func (k ScalarKind) String() string {
	switch k {
	case String:
		return "string"
	case Integer:
		return "integer"
	case Float:
		return "float"
	case Bool:
		return "boolean"
	case Null:
		return "null"
	case DateTime:
		return "datetime"
	default:
		return fmt.Sprintf("scalar(%d)", int(k))
	}
}

// TimeKind distinguishes the date/time flavours config formats know about.
type TimeKind int

const (
	OffsetDateTime TimeKind = iota
	LocalDateTime
	LocalDate
	LocalTime
)

// Layouts used to render each TimeKind.
const (
	LayoutOffsetDateTime = time.RFC3339Nano
	LayoutLocalDateTime  = "2006-01-02T15:04:05.999999999"
	LayoutLocalDate      = "2006-01-02"
	LayoutLocalTime      = "15:04:05.999999999"
)

// Layout returns the time layout for k.
func (k TimeKind) Layout() string {
	switch k {
	case LocalDateTime:
		return LayoutLocalDateTime
	case LocalDate:
		return LayoutLocalDate
	case LocalTime:
		return LayoutLocalTime
	default:
		return LayoutOffsetDateTime
	}
}

// Scalar is a leaf value. The zero value is the empty string.
type Scalar struct {
	kind ScalarKind
	s    string
	i    int64
	f    float64
	b    bool
	t    time.Time
	tk   TimeKind
}

func (*Scalar) Kind() Kind { return KindScalar }
func (*Scalar) node()      {}

func NewString(s string) *Scalar { return &Scalar{kind: String, s: s} }
func NewInt(i int64) *Scalar     { return &Scalar{kind: Integer, i: i} }
func NewFloat(f float64) *Scalar { return &Scalar{kind: Float, f: f} }
func NewBool(b bool) *Scalar     { return &Scalar{kind: Bool, b: b} }
func NewNull() *Scalar           { return &Scalar{kind: Null} }

// NewDateTime returns a date/time scalar of flavour k.
func NewDateTime(t time.Time, k TimeKind) *Scalar {
	return &Scalar{kind: DateTime, t: t, tk: k}
}

// ScalarKind reports which value the scalar holds.
func (s *Scalar) ScalarKind() ScalarKind { return s.kind }

func (s *Scalar) AsString() string   { return s.s }
func (s *Scalar) AsInt() int64       { return s.i }
func (s *Scalar) AsFloat() float64   { return s.f }
func (s *Scalar) AsBool() bool       { return s.b }
func (s *Scalar) AsTime() time.Time  { return s.t }
func (s *Scalar) TimeKind() TimeKind { return s.tk }

// Value returns the scalar as a plain Go value: string, int64, float64, bool,
// nil or time.Time.
func (s *Scalar) Value() any {
	switch s.kind {
	case String:
		return s.s
	case Integer:
		return s.i
	case Float:
		return s.f
	case Bool:
		return s.b
	case Null:
		return nil
	case DateTime:
		return s.t
	default:
		panic(fmt.Sprintf("tree: unknown scalar kind %d", int(s.kind)))
	}
}

// Text renders the scalar the way it is reported to a calling pipeline:
// strings verbatim, everything else in literal form.
func (s *Scalar) Text() string {
	switch s.kind {
	case String:
		return s.s
	case Integer:
		return strconv.FormatInt(s.i, 10)
	case Float:
		return FormatFloat(s.f)
	case Bool:
		return strconv.FormatBool(s.b)
	case Null:
		return "null"
	case DateTime:
		return s.t.Format(s.tk.Layout())
	default:
		panic(fmt.Sprintf("tree: unknown scalar kind %d", int(s.kind)))
	}
}

func (s *Scalar) String() string {
	return fmt.Sprintf("%s(%s)", s.kind, s.Text())
}

// FormatFloat renders f in the shortest form that parses back to f, using
// exponent notation only for very large or very small magnitudes.
func FormatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
