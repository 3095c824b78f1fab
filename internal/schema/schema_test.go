package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ikari-pl/go-msgspy/internal/introspect"
)

const testSchema = `
enums:
  exlcm.mode_t: [IDLE, SLOW, FAST]
types:
  exlcm.pose_t:
    fields:
      - {name: utime, type: int64}
      - {name: position, type: "double[3]"}
      - {name: mode, type: exlcm.mode_t}
      - {name: ranges, type: "int16[]"}
      - {name: raw, type: byte}
      - {name: label, type: string}
      - {name: ok, type: boolean}
      - {name: child, type: exlcm.point_t}
    constants:
      - {name: MAX_SPEED, type: double, value: 12.5}
  exlcm.point_t:
    fields:
      - {name: x, type: float}
channels:
  POSE: exlcm.pose_t
`

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	reg, err := Parse([]byte(testSchema))
	require.NoError(t, err)
	return reg
}

func TestParse(t *testing.T) {
	reg := testRegistry(t)

	assert.Equal(t, []string{"exlcm.point_t", "exlcm.pose_t"}, reg.TypeNames())
	typ, err := reg.TypeFor("POSE")
	require.NoError(t, err)
	assert.Equal(t, "exlcm.pose_t", typ)

	_, err = reg.TypeFor("NOPE")
	assert.ErrorIs(t, err, ErrUnknownChannel)
	_, err = reg.Type("exlcm.nope_t")
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestParseRejectsInvalidSchemas(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown field type", "types:\n  a:\n    fields:\n      - {name: x, type: b}\n"},
		{"unknown array element", "types:\n  a:\n    fields:\n      - {name: x, type: \"b[]\"}\n"},
		{"bad array length", "types:\n  a:\n    fields:\n      - {name: x, type: \"int8[z]\"}\n"},
		{"duplicate field", "types:\n  a:\n    fields:\n      - {name: x, type: int8}\n      - {name: x, type: int8}\n"},
		{"channel to unknown type", "channels:\n  C: a\n"},
		{"empty enum", "enums:\n  e: []\n"},
		{"composite constant", "types:\n  a:\n    constants:\n      - {name: K, type: a, value: 1}\n"},
		{"not yaml", "types: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "types.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testSchema), 0o600))

	reg, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, reg.TypeNames(), 2)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestBindAndDefine(t *testing.T) {
	reg := NewRegistry()
	assert.ErrorIs(t, reg.Bind("C", "a"), ErrUnknownType)

	require.NoError(t, reg.Define(&TypeDef{Name: "a", Fields: []FieldDef{{Name: "v", Type: "int32"}}}))
	require.NoError(t, reg.Bind("C", "a"))
	typ, err := reg.TypeFor("C")
	require.NoError(t, err)
	assert.Equal(t, "a", typ)
	assert.Error(t, reg.Define(&TypeDef{}))
}

func fieldValue(t *testing.T, v introspect.Value, name string) (introspect.Value, error) {
	t.Helper()
	rec, ok := v.(introspect.Record)
	require.True(t, ok, "%T is not a record", v)
	for _, f := range rec.Fields() {
		if f.Name == name {
			return f.Value()
		}
	}
	t.Fatalf("no field %s", name)
	return nil, nil
}

func TestDecodeType(t *testing.T) {
	d := NewDecoder(testRegistry(t))
	payload := `{"utime": 9007199254740993, "position": [1, 2.5, -3], "mode": "FAST",
		"ranges": [1, 2], "raw": 65, "label": "hi", "ok": true, "child": {"x": 0.5}}`

	v, err := d.DecodeType("exlcm.pose_t", []byte(payload))
	require.NoError(t, err)
	assert.Equal(t, "exlcm.pose_t", v.TypeName())

	utime, err := fieldValue(t, v, "utime")
	require.NoError(t, err)
	assert.Equal(t, "9007199254740993", introspect.Text(utime), "integers keep full precision")

	pos, err := fieldValue(t, v, "position")
	require.NoError(t, err)
	seq := pos.(introspect.Sequence)
	assert.Equal(t, "double", seq.ElemType())
	require.Equal(t, 3, seq.Len())
	second, err := seq.At(1)
	require.NoError(t, err)
	assert.Equal(t, 2.5, second.(introspect.Numeric).Float64())

	mode, err := fieldValue(t, v, "mode")
	require.NoError(t, err)
	assert.Equal(t, introspect.Enum{Type: "exlcm.mode_t", Name: "FAST", Ordinal: 2}, mode)

	raw, err := fieldValue(t, v, "raw")
	require.NoError(t, err)
	assert.Equal(t, "0x41   065   +065   A", introspect.Text(raw))

	child, err := fieldValue(t, v, "child")
	require.NoError(t, err)
	x, err := fieldValue(t, child, "x")
	require.NoError(t, err)
	assert.Equal(t, "0.5", introspect.Text(x))

	k, err := fieldValue(t, v, "MAX_SPEED")
	require.NoError(t, err)
	assert.Equal(t, "12.5", introspect.Text(k))
	for _, f := range v.(introspect.Record).Fields() {
		assert.Equal(t, f.Name == "MAX_SPEED", f.Static, f.Name)
	}
}

func TestDecodeFieldErrorsStayLocal(t *testing.T) {
	d := NewDecoder(testRegistry(t))
	payload := `{"utime": 1, "position": [1, 2], "mode": 7, "ranges": [1, 40000], "raw": 300, "ok": "yes", "child": null}`

	v, err := d.DecodeType("exlcm.pose_t", []byte(payload))
	require.NoError(t, err, "a bad field never fails the whole message")

	tests := []struct {
		field string
		want  error
	}{
		{"position", ErrTypeMismatch},
		{"mode", ErrTypeMismatch},
		{"raw", ErrTypeMismatch},
		{"label", ErrMissingField},
		{"ok", ErrTypeMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			_, err := fieldValue(t, v, tt.field)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	utime, err := fieldValue(t, v, "utime")
	require.NoError(t, err)
	assert.Equal(t, "1", introspect.Text(utime))

	ranges, err := fieldValue(t, v, "ranges")
	require.NoError(t, err)
	_, err = ranges.(introspect.Sequence).At(1)
	assert.ErrorIs(t, err, ErrTypeMismatch, "40000 overflows int16")

	child, err := fieldValue(t, v, "child")
	require.NoError(t, err)
	assert.Equal(t, introspect.KindNull, child.Kind())
	assert.Equal(t, "exlcm.point_t", child.TypeName())
}

func TestDecodeChannel(t *testing.T) {
	d := NewDecoder(testRegistry(t))

	typ, v, err := d.DecodeChannel("POSE", []byte(`{"utime": 1}`))
	require.NoError(t, err)
	assert.Equal(t, "exlcm.pose_t", typ)
	assert.Equal(t, introspect.KindRecord, v.Kind())

	typ, v, err = d.DecodeChannel("OTHER", []byte(`{"b": 2, "a": 1}`))
	require.NoError(t, err)
	assert.Equal(t, "object", typ)
	names := []string{}
	for _, f := range v.(introspect.Record).Fields() {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"b", "a"}, names, "inferred objects keep key order")

	d.Strict = true
	_, _, err = d.DecodeChannel("OTHER", []byte(`{}`))
	assert.ErrorIs(t, err, ErrUnknownChannel)

	_, err = d.DecodeType("exlcm.pose_t", []byte(`[1]`))
	assert.ErrorIs(t, err, ErrTypeMismatch)
	_, err = d.DecodeType("exlcm.pose_t", []byte(`{`))
	assert.Error(t, err)
}

func TestInfer(t *testing.T) {
	v, err := Infer([]byte(`{"n": 3, "f": 1.5, "s": "x", "b": false, "z": null, "l": [1, 2], "m": [1, "a"], "o": {"k": 1}}`))
	require.NoError(t, err)

	want := map[string]string{
		"n": "int64",
		"f": "double",
		"s": "string",
		"b": "boolean",
		"z": "(null)",
		"l": "int64[]",
		"m": "any[]",
		"o": "object",
	}
	for name, typ := range want {
		fv, err := fieldValue(t, v, name)
		require.NoError(t, err)
		assert.Equal(t, typ, fv.TypeName(), name)
	}

	_, err = Infer([]byte(`{"a": tru}`))
	assert.Error(t, err)
	_, err = Infer(nil)
	assert.Error(t, err)
}
