// Package schema holds the message type registry and decodes JSON payloads
// into introspect values.
//
// A registry is loaded from a YAML file:
//
//	enums:
//	  exlcm.mode_t: [IDLE, SLOW, FAST]
//	types:
//	  exlcm.pose_t:
//	    fields:
//	      - {name: utime, type: int64}
//	      - {name: position, type: "double[3]"}
//	      - {name: mode, type: exlcm.mode_t}
//	    constants:
//	      - {name: MAX_SPEED, type: double, value: 12.5}
//	channels:
//	  POSE: exlcm.pose_t
package schema

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	// ErrUnknownType is returned for a type name the registry does not define.
	ErrUnknownType = errors.New("unknown type")
	// ErrUnknownChannel is returned for a channel without a type binding.
	ErrUnknownChannel = errors.New("unknown channel")
	// ErrTypeMismatch is returned when a payload value does not fit its declared type.
	ErrTypeMismatch = errors.New("type mismatch")
	// ErrMissingField is returned when a declared field is absent from a payload.
	ErrMissingField = errors.New("missing field")
)

// primitives maps each primitive type to its integer width in bits; zero for
// non-integer primitives.
var primitives = map[string]int{
	"int8_t":  8,
	"int16_t": 16,
	"int32_t": 32,
	"int64_t": 64,
	"int8":    8,
	"int16":   16,
	"int32":   32,
	"int64":   64,
	"byte":    8,
	"float":   0,
	"double":  0,
	"boolean": 0,
	"string":  0,
}

// IsPrimitive reports whether name is a built-in scalar type.
func IsPrimitive(name string) bool {
	_, ok := primitives[name]
	return ok
}

// FieldDef declares one member of a message type.
type FieldDef struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// ConstDef declares a constant shared by every message of a type.
type ConstDef struct {
	Name  string    `yaml:"name"`
	Type  string    `yaml:"type"`
	Value yaml.Node `yaml:"value"`
}

// TypeDef is a message type.
type TypeDef struct {
	Name      string     `yaml:"-"`
	Fields    []FieldDef `yaml:"fields"`
	Constants []ConstDef `yaml:"constants"`
}

type file struct {
	Enums    map[string][]string `yaml:"enums"`
	Types    map[string]*TypeDef `yaml:"types"`
	Channels map[string]string   `yaml:"channels"`
}

// Registry resolves type names and channel bindings.
type Registry struct {
	types    map[string]*TypeDef
	enums    map[string][]string
	channels map[string]string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		types:    make(map[string]*TypeDef),
		enums:    make(map[string][]string),
		channels: make(map[string]string),
	}
}

// Load reads a registry from a YAML file.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}
	reg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("schema %s: %w", path, err)
	}
	return reg, nil
}

// Parse decodes and validates a YAML registry document.
func Parse(data []byte) (*Registry, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse schema: %w", err)
	}

	reg := NewRegistry()
	for name, values := range f.Enums {
		if len(values) == 0 {
			return nil, fmt.Errorf("enum %s has no values", name)
		}
		reg.enums[name] = values
	}
	for name, t := range f.Types {
		if t == nil {
			t = &TypeDef{}
		}
		t.Name = name
		reg.types[name] = t
	}
	for ch, typ := range f.Channels {
		reg.channels[ch] = typ
	}
	if err := reg.Validate(); err != nil {
		return nil, err
	}
	return reg, nil
}

// Validate checks that every referenced type is defined.
func (r *Registry) Validate() error {
	for _, name := range r.TypeNames() {
		t := r.types[name]
		seen := make(map[string]bool)
		for _, f := range t.Fields {
			if f.Name == "" {
				return fmt.Errorf("type %s: field without a name", name)
			}
			if seen[f.Name] {
				return fmt.Errorf("type %s: duplicate field %s", name, f.Name)
			}
			seen[f.Name] = true
			if err := r.checkRef(f.Type); err != nil {
				return fmt.Errorf("type %s field %s: %w", name, f.Name, err)
			}
		}
		for _, c := range t.Constants {
			if !IsPrimitive(c.Type) {
				return fmt.Errorf("type %s constant %s: constants must be primitive, got %q", name, c.Name, c.Type)
			}
		}
	}
	for ch, typ := range r.channels {
		if _, ok := r.types[typ]; !ok {
			return fmt.Errorf("channel %s: %w: %s", ch, ErrUnknownType, typ)
		}
	}
	return nil
}

func (r *Registry) checkRef(typ string) error {
	elem, _, isArray, err := splitArray(typ)
	if err != nil {
		return err
	}
	if isArray {
		return r.checkRef(elem)
	}
	if IsPrimitive(typ) {
		return nil
	}
	if _, ok := r.enums[typ]; ok {
		return nil
	}
	if _, ok := r.types[typ]; ok {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUnknownType, typ)
}

// splitArray parses "T[]" and "T[N]". n is -1 for variable length arrays.
func splitArray(typ string) (elem string, n int, isArray bool, err error) {
	if !strings.HasSuffix(typ, "]") {
		return typ, 0, false, nil
	}
	open := strings.LastIndexByte(typ, '[')
	if open <= 0 {
		return "", 0, false, fmt.Errorf("malformed array type %q", typ)
	}
	elem, size := typ[:open], typ[open+1:len(typ)-1]
	if size == "" {
		return elem, -1, true, nil
	}
	n, err = strconv.Atoi(size)
	if err != nil || n < 0 {
		return "", 0, false, fmt.Errorf("malformed array length in %q", typ)
	}
	return elem, n, true, nil
}

// Type returns a message type definition.
func (r *Registry) Type(name string) (*TypeDef, error) {
	t, ok := r.types[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, name)
	}
	return t, nil
}

// TypeNames returns the defined message types in sorted order.
func (r *Registry) TypeNames() []string {
	names := make([]string, 0, len(r.types))
	for n := range r.types {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// TypeFor returns the message type bound to a channel.
func (r *Registry) TypeFor(channel string) (string, error) {
	t, ok := r.channels[channel]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownChannel, channel)
	}
	return t, nil
}

// Bind associates a channel with a message type.
func (r *Registry) Bind(channel, typ string) error {
	if _, ok := r.types[typ]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownType, typ)
	}
	r.channels[channel] = typ
	return nil
}

// Define adds or replaces a message type.
func (r *Registry) Define(t *TypeDef) error {
	if t == nil || t.Name == "" {
		return errors.New("type definition without a name")
	}
	r.types[t.Name] = t
	return nil
}

// DefineEnum adds or replaces an enumerated type.
func (r *Registry) DefineEnum(name string, values []string) {
	r.enums[name] = values
}
