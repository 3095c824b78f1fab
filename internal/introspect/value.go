// Package introspect describes decoded message values through a small
// capability interface, so the inspector can walk any message graph without
// knowing the concrete Go types the decoding layer produced.
package introspect

import (
	"fmt"
	"strconv"
)

// Kind identifies the runtime shape of a Value.
type Kind int

const (
	KindNull Kind = iota
	KindNumber
	KindBool
	KindEnum
	KindString
	KindSequence
	KindRecord
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindEnum:
		return "enum"
	case KindString:
		return "string"
	case KindSequence:
		return "sequence"
	case KindRecord:
		return "record"
	default:
		return "unknown"
	}
}

// Value is a node of a decoded message.
type Value interface {
	// Kind reports the runtime shape of the value.
	Kind() Kind

	// TypeName returns the declared type name (e.g. "int32", "exlcm.pose_t").
	TypeName() string
}

// Scalar is a leaf value with a display text.
type Scalar interface {
	Value
	Text() string
}

// Numeric is a scalar that can be charted.
type Numeric interface {
	Scalar
	Float64() float64
}

// Sequence is an array value with indexed access.
type Sequence interface {
	Value

	// ElemType returns the declared element type.
	ElemType() string

	// Len returns the number of elements.
	Len() int

	// At returns the element at index i.
	At(i int) (Value, error)
}

// Record is a composite value with declared fields.
type Record interface {
	Value

	// Fields returns the declared fields in declaration order.
	Fields() []Field
}

// Null is an absent value. Type keeps the declared type when it is known.
type Null struct {
	Type string
}

func (Null) Kind() Kind { return KindNull }

func (n Null) TypeName() string {
	if n.Type == "" {
		return "(null)"
	}
	return n.Type
}

// Number is a numeric scalar. Integer values keep their exact integer
// representation in I; V always holds the float64 view used for charting.
type Number struct {
	Type    string
	V       float64
	I       int64
	Integer bool
}

// Int builds an integer Number.
func Int(typ string, i int64) Number {
	return Number{Type: typ, V: float64(i), I: i, Integer: true}
}

// Float builds a floating point Number.
func Float(typ string, v float64) Number {
	return Number{Type: typ, V: v}
}

func (Number) Kind() Kind         { return KindNumber }
func (n Number) TypeName() string { return n.Type }
func (n Number) Float64() float64 { return n.V }

// Text formats the number for display. Bytes show hex, unsigned, signed
// and character views side by side.
func (n Number) Text() string {
	if n.Type == "byte" {
		b := byte(n.I)
		return fmt.Sprintf("0x%02X   %03d   %+04d   %c", b, b, int8(b), printable(b))
	}
	if n.Integer {
		return strconv.FormatInt(n.I, 10)
	}
	return strconv.FormatFloat(n.V, 'g', -1, 64)
}

func printable(b byte) rune {
	if b < 0x20 || b >= 0x7f {
		return '.'
	}
	return rune(b)
}

// Bool is a boolean scalar.
type Bool struct {
	V bool
}

func (Bool) Kind() Kind       { return KindBool }
func (Bool) TypeName() string { return "boolean" }
func (b Bool) Text() string   { return strconv.FormatBool(b.V) }

// Enum is a value of an enumerated type, shown by its symbolic name.
type Enum struct {
	Type    string
	Name    string
	Ordinal int64
}

func (Enum) Kind() Kind         { return KindEnum }
func (e Enum) TypeName() string { return e.Type }
func (e Enum) Text() string     { return e.Name }

// String is a character string scalar.
type String struct {
	V string
}

func (String) Kind() Kind       { return KindString }
func (String) TypeName() string { return "string" }
func (s String) Text() string   { return s.V }

// Text returns the display text of a scalar value. Composite values return
// an empty string.
func Text(v Value) string {
	switch t := v.(type) {
	case nil, Null:
		return "(null)"
	case Scalar:
		return t.Text()
	default:
		return ""
	}
}
