// Package value defines the scalar value model shared by the query AST,
// the dialect compilers, and the executor row decoders.
//
// A Value is a closed, kind-tagged union. Typed absence (a "null int64")
// and the untyped Null are distinct kinds-with-validity so that decoded
// rows round-trip the column class, but both count as SQL NULL for
// comparison purposes.
//
// Now and NowAdd are pseudo-values: they never bind as parameters and the
// compiler inlines them as dialect-specific function calls.
package value

import (
	"fmt"
	"time"
)

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindUint
	KindReal
	KindString
	KindDateTime
	KindNow
	KindNowAdd
)

// String returns the kind name, for diagnostics.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindUint:
		return "uint"
	case KindReal:
		return "real"
	case KindString:
		return "string"
	case KindDateTime:
		return "datetime"
	case KindNow:
		return "now"
	case KindNowAdd:
		return "now_add"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Value is a single scalar in the generic value model.
// The zero Value is the untyped NULL.
type Value struct {
	kind  Kind
	valid bool

	b        bool
	n        int64
	u        uint64
	f        float64
	s        string
	t        time.Time
	interval string
}

// Null returns the untyped SQL NULL.
func Null() Value { return Value{kind: KindNull} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, valid: true, b: b} }

// NullBool returns a typed absent boolean.
func NullBool() Value { return Value{kind: KindBool} }

// Int64 returns a signed integer value.
func Int64(n int64) Value { return Value{kind: KindInt, valid: true, n: n} }

// NullInt64 returns a typed absent signed integer.
func NullInt64() Value { return Value{kind: KindInt} }

// Uint64 returns an unsigned integer value.
func Uint64(u uint64) Value { return Value{kind: KindUint, valid: true, u: u} }

// NullUint64 returns a typed absent unsigned integer.
func NullUint64() Value { return Value{kind: KindUint} }

// Float64 returns a floating point value.
func Float64(f float64) Value { return Value{kind: KindReal, valid: true, f: f} }

// NullFloat64 returns a typed absent floating point value.
func NullFloat64() Value { return Value{kind: KindReal} }

// String returns a text value.
func String(s string) Value { return Value{kind: KindString, valid: true, s: s} }

// NullString returns a typed absent text value.
func NullString() Value { return Value{kind: KindString} }

// Time returns a timestamp value.
func Time(t time.Time) Value { return Value{kind: KindDateTime, valid: true, t: t} }

// NullTime returns a typed absent timestamp.
func NullTime() Value { return Value{kind: KindDateTime} }

// Now returns the pseudo-value compiled to the dialect's current-timestamp
// function. It never binds as a parameter.
func Now() Value { return Value{kind: KindNow, valid: true} }

// NowAdd returns the pseudo-value compiled to the dialect's
// current-timestamp-plus-interval expression. The interval is raw SQL
// interval text such as "1 DAY" or "30 MINUTE"; it is the caller's job to
// keep it dialect-appropriate.
func NowAdd(interval string) Value {
	return Value{kind: KindNowAdd, valid: true, interval: interval}
}

// Kind returns the variant tag.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is SQL NULL. Both the untyped Null and
// every typed absent value report true.
func (v Value) IsNull() bool { return !v.valid }

// IsParam reports whether the value binds as a statement parameter.
// Now and NowAdd render inline and report false.
func (v Value) IsParam() bool { return v.kind != KindNow && v.kind != KindNowAdd }

// Bool returns the boolean payload and whether it is present.
func (v Value) Bool() (bool, bool) { return v.b, v.valid && v.kind == KindBool }

// Int64 returns the signed integer payload and whether it is present.
func (v Value) Int64() (int64, bool) { return v.n, v.valid && v.kind == KindInt }

// Uint64 returns the unsigned integer payload and whether it is present.
func (v Value) Uint64() (uint64, bool) { return v.u, v.valid && v.kind == KindUint }

// Float64 returns the floating point payload and whether it is present.
func (v Value) Float64() (float64, bool) { return v.f, v.valid && v.kind == KindReal }

// Str returns the text payload and whether it is present.
func (v Value) Str() (string, bool) { return v.s, v.valid && v.kind == KindString }

// Time returns the timestamp payload and whether it is present.
func (v Value) Time() (time.Time, bool) { return v.t, v.valid && v.kind == KindDateTime }

// Interval returns the raw interval text of a NowAdd value.
func (v Value) Interval() string { return v.interval }

// Arg returns the driver-level bound argument for the value. The second
// result is false for Now/NowAdd, which do not bind.
func (v Value) Arg() (any, bool) {
	switch v.kind {
	case KindNow, KindNowAdd:
		return nil, false
	}
	if !v.valid {
		return nil, true
	}
	switch v.kind {
	case KindBool:
		return v.b, true
	case KindInt:
		return v.n, true
	case KindUint:
		return v.u, true
	case KindReal:
		return v.f, true
	case KindString:
		return v.s, true
	case KindDateTime:
		return v.t, true
	default:
		return nil, true
	}
}

// Equal reports whether two values are equal. Any two NULL values compare
// equal regardless of their typed kind.
func (v Value) Equal(o Value) bool {
	if v.IsNull() || o.IsNull() {
		return v.IsNull() && o.IsNull()
	}
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindBool:
		return v.b == o.b
	case KindInt:
		return v.n == o.n
	case KindUint:
		return v.u == o.u
	case KindReal:
		return v.f == o.f
	case KindString:
		return v.s == o.s
	case KindDateTime:
		return v.t.Equal(o.t)
	case KindNow:
		return true
	case KindNowAdd:
		return v.interval == o.interval
	default:
		return false
	}
}

// String renders the value for logs and test failures, never for SQL.
func (v Value) String() string {
	if v.IsNull() {
		if v.kind == KindNull {
			return "NULL"
		}
		return fmt.Sprintf("NULL(%s)", v.kind)
	}
	switch v.kind {
	case KindBool:
		return fmt.Sprintf("%v", v.b)
	case KindInt:
		return fmt.Sprintf("%d", v.n)
	case KindUint:
		return fmt.Sprintf("%du", v.u)
	case KindReal:
		return fmt.Sprintf("%g", v.f)
	case KindString:
		return fmt.Sprintf("%q", v.s)
	case KindDateTime:
		return v.t.Format(time.RFC3339Nano)
	case KindNow:
		return "NOW"
	case KindNowAdd:
		return fmt.Sprintf("NOW+%s", v.interval)
	default:
		return v.kind.String()
	}
}
