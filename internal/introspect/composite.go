package introspect

import "fmt"

// Field is one declared member of a Record. The value is read lazily so that a
// field failing to decode only affects its own row.
type Field struct {
	Name   string
	Type   string
	Static bool

	get func() (Value, error)
}

// NewField returns a field holding an already decoded value.
func NewField(name, typ string, static bool, v Value) Field {
	return Field{Name: name, Type: typ, Static: static, get: func() (Value, error) { return v, nil }}
}

// LazyField returns a field whose value is produced on read.
func LazyField(name, typ string, static bool, get func() (Value, error)) Field {
	return Field{Name: name, Type: typ, Static: static, get: get}
}

// Value reads the field.
func (f Field) Value() (Value, error) {
	if f.get == nil {
		return nil, fmt.Errorf("field %s has no accessor", f.Name)
	}
	return f.get()
}

// Struct is the default Record implementation.
type Struct struct {
	Type    string
	Members []Field
}

func (*Struct) Kind() Kind         { return KindRecord }
func (s *Struct) TypeName() string { return s.Type }
func (s *Struct) Fields() []Field  { return s.Members }

// List is the default Sequence implementation.
type List struct {
	Elem  string
	Items []Value
}

func (*List) Kind() Kind         { return KindSequence }
func (l *List) TypeName() string { return l.Elem + "[]" }
func (l *List) ElemType() string { return l.Elem }
func (l *List) Len() int         { return len(l.Items) }

// At returns the element at index i.
func (l *List) At(i int) (Value, error) {
	if i < 0 || i >= len(l.Items) {
		return nil, fmt.Errorf("index %d out of range [0,%d)", i, len(l.Items))
	}
	return l.Items[i], nil
}
