package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	jsoniter "github.com/json-iterator/go"

	"github.com/ikari-pl/go-msgspy/internal/introspect"
)

// UseNumber keeps 64-bit integers exact.
var jsonAPI = jsoniter.Config{UseNumber: true}.Froze()

const maxInferDepth = 64

// Decoder turns JSON payloads into introspect values. Fields are decoded on
// read, so a bad field only fails its own row.
type Decoder struct {
	reg *Registry
	// Strict rejects channels without a type binding instead of inferring
	// the payload shape.
	Strict bool
}

// NewDecoder creates a decoder. A nil registry decodes by inference only.
func NewDecoder(reg *Registry) *Decoder {
	if reg == nil {
		reg = NewRegistry()
	}
	return &Decoder{reg: reg}
}

// Registry returns the type registry.
func (d *Decoder) Registry() *Registry { return d.reg }

// DecodeChannel decodes a payload published on channel. It returns the
// message type name along with the value.
func (d *Decoder) DecodeChannel(channel string, payload []byte) (string, introspect.Value, error) {
	typ, err := d.reg.TypeFor(channel)
	if err != nil {
		if d.Strict {
			return "", nil, err
		}
		v, err := Infer(payload)
		if err != nil {
			return "", nil, err
		}
		return v.TypeName(), v, nil
	}
	v, err := d.DecodeType(typ, payload)
	return typ, v, err
}

// DecodeType decodes a payload of a registered message type.
func (d *Decoder) DecodeType(typ string, payload []byte) (introspect.Value, error) {
	t, err := d.reg.Type(typ)
	if err != nil {
		return nil, err
	}
	var raw any
	if err := jsonAPI.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", typ, err)
	}
	if raw == nil {
		return introspect.Null{Type: typ}, nil
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, mismatch(typ, raw)
	}
	return d.record(t, obj), nil
}

func (d *Decoder) record(t *TypeDef, obj map[string]any) *introspect.Struct {
	s := &introspect.Struct{
		Type:    t.Name,
		Members: make([]introspect.Field, 0, len(t.Fields)+len(t.Constants)),
	}
	for _, f := range t.Fields {
		raw, ok := obj[f.Name]
		if !ok {
			s.Members = append(s.Members, introspect.LazyField(f.Name, f.Type, false, func() (introspect.Value, error) {
				return nil, fmt.Errorf("%w: %s.%s", ErrMissingField, t.Name, f.Name)
			}))
			continue
		}
		s.Members = append(s.Members, introspect.LazyField(f.Name, f.Type, false, func() (introspect.Value, error) {
			return d.value(f.Type, raw)
		}))
	}
	for _, c := range t.Constants {
		s.Members = append(s.Members, introspect.LazyField(c.Name, c.Type, true, func() (introspect.Value, error) {
			return constant(c)
		}))
	}
	return s
}

func (d *Decoder) value(typ string, raw any) (introspect.Value, error) {
	if raw == nil {
		return introspect.Null{Type: typ}, nil
	}
	elem, n, isArray, err := splitArray(typ)
	if err != nil {
		return nil, err
	}
	if isArray {
		items, ok := raw.([]any)
		if !ok {
			return nil, mismatch(typ, raw)
		}
		if n >= 0 && len(items) != n {
			return nil, fmt.Errorf("%w: %s has %d elements", ErrTypeMismatch, typ, len(items))
		}
		return &sequence{d: d, elem: elem, items: items}, nil
	}
	if bits, ok := primitives[typ]; ok {
		return primitive(typ, bits, raw)
	}
	if values, ok := d.reg.enums[typ]; ok {
		return enumValue(typ, values, raw)
	}
	if t, ok := d.reg.types[typ]; ok {
		obj, ok := raw.(map[string]any)
		if !ok {
			return nil, mismatch(typ, raw)
		}
		return d.record(t, obj), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownType, typ)
}

type sequence struct {
	d     *Decoder
	elem  string
	items []any
}

func (*sequence) Kind() introspect.Kind { return introspect.KindSequence }
func (s *sequence) TypeName() string    { return s.elem + "[]" }
func (s *sequence) ElemType() string    { return s.elem }
func (s *sequence) Len() int            { return len(s.items) }

func (s *sequence) At(i int) (introspect.Value, error) {
	if i < 0 || i >= len(s.items) {
		return nil, fmt.Errorf("index %d out of range [0,%d)", i, len(s.items))
	}
	return s.d.value(s.elem, s.items[i])
}

func primitive(typ string, bits int, raw any) (introspect.Value, error) {
	switch typ {
	case "boolean":
		b, ok := raw.(bool)
		if !ok {
			return nil, mismatch(typ, raw)
		}
		return introspect.Bool{V: b}, nil
	case "string":
		s, ok := raw.(string)
		if !ok {
			return nil, mismatch(typ, raw)
		}
		return introspect.String{V: s}, nil
	case "float", "double":
		num, ok := raw.(json.Number)
		if !ok {
			return nil, mismatch(typ, raw)
		}
		f, err := num.Float64()
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrTypeMismatch, typ, err)
		}
		return introspect.Float(typ, f), nil
	}

	num, ok := raw.(json.Number)
	if !ok {
		return nil, mismatch(typ, raw)
	}
	i, err := num.Int64()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrTypeMismatch, typ, err)
	}
	if typ == "byte" {
		if i < 0 || i > 0xff {
			return nil, fmt.Errorf("%w: %d overflows byte", ErrTypeMismatch, i)
		}
	} else if bits < 64 {
		limit := int64(1) << (bits - 1)
		if i < -limit || i >= limit {
			return nil, fmt.Errorf("%w: %d overflows %s", ErrTypeMismatch, i, typ)
		}
	}
	return introspect.Int(typ, i), nil
}

func enumValue(typ string, values []string, raw any) (introspect.Value, error) {
	switch v := raw.(type) {
	case string:
		for i, name := range values {
			if name == v {
				return introspect.Enum{Type: typ, Name: name, Ordinal: int64(i)}, nil
			}
		}
		return nil, fmt.Errorf("%w: %q is not a %s", ErrTypeMismatch, v, typ)
	case json.Number:
		i, err := v.Int64()
		if err != nil || i < 0 || i >= int64(len(values)) {
			return nil, fmt.Errorf("%w: %s is not a %s ordinal", ErrTypeMismatch, v, typ)
		}
		return introspect.Enum{Type: typ, Name: values[i], Ordinal: i}, nil
	default:
		return nil, mismatch(typ, raw)
	}
}

func constant(c ConstDef) (introspect.Value, error) {
	text := c.Value.Value
	var raw any
	switch c.Type {
	case "boolean":
		b, err := strconv.ParseBool(text)
		if err != nil {
			return nil, fmt.Errorf("constant %s: %w", c.Name, err)
		}
		raw = b
	case "string":
		raw = text
	default:
		raw = json.Number(text)
	}
	v, err := primitive(c.Type, primitives[c.Type], raw)
	if err != nil {
		return nil, fmt.Errorf("constant %s: %w", c.Name, err)
	}
	return v, nil
}

func mismatch(typ string, raw any) error {
	return fmt.Errorf("%w: want %s, got %T", ErrTypeMismatch, typ, raw)
}

// Infer decodes a payload without a schema. Objects keep their key order;
// integers become int64 and other numbers double.
func Infer(payload []byte) (introspect.Value, error) {
	iter := jsonAPI.BorrowIterator(payload)
	defer jsonAPI.ReturnIterator(iter)

	v := inferValue(iter, 0)
	if iter.Error != nil && !errors.Is(iter.Error, io.EOF) {
		return nil, fmt.Errorf("failed to decode payload: %w", iter.Error)
	}
	return v, nil
}

func inferValue(iter *jsoniter.Iterator, depth int) introspect.Value {
	if depth > maxInferDepth {
		iter.ReportError("infer", "nesting too deep")
		return introspect.Null{}
	}
	switch iter.WhatIsNext() {
	case jsoniter.ObjectValue:
		s := &introspect.Struct{Type: "object"}
		iter.ReadObjectCB(func(it *jsoniter.Iterator, key string) bool {
			v := inferValue(it, depth+1)
			s.Members = append(s.Members, introspect.NewField(key, v.TypeName(), false, v))
			return it.Error == nil
		})
		return s
	case jsoniter.ArrayValue:
		l := &introspect.List{}
		iter.ReadArrayCB(func(it *jsoniter.Iterator) bool {
			l.Items = append(l.Items, inferValue(it, depth+1))
			return it.Error == nil
		})
		l.Elem = commonType(l.Items)
		return l
	case jsoniter.NumberValue:
		num := iter.ReadNumber()
		if i, err := num.Int64(); err == nil {
			return introspect.Int("int64", i)
		}
		f, err := num.Float64()
		if err != nil {
			iter.ReportError("infer", err.Error())
			return introspect.Null{}
		}
		return introspect.Float("double", f)
	case jsoniter.StringValue:
		return introspect.String{V: iter.ReadString()}
	case jsoniter.BoolValue:
		return introspect.Bool{V: iter.ReadBool()}
	case jsoniter.NilValue:
		iter.ReadNil()
		return introspect.Null{}
	default:
		iter.ReportError("infer", "unexpected token")
		return introspect.Null{}
	}
}

func commonType(items []introspect.Value) string {
	if len(items) == 0 {
		return "any"
	}
	typ := items[0].TypeName()
	for _, it := range items[1:] {
		if it.TypeName() != typ {
			return "any"
		}
	}
	return typ
}
