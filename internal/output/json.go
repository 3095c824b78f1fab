package output

import (
	"context"
	"io"
	"math"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/ikari-pl/go-msgspy/internal/introspect"
)

var jsonAPI = jsoniter.Config{IndentionStep: 2, EscapeHTML: false}.Froze()

// jsonFormatter implements the Formatter interface for JSON output.
type jsonFormatter struct{}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter() Formatter {
	return &jsonFormatter{}
}

// Format writes the snapshot as JSON. Record fields keep their declared
// order and integers keep their exact value.
func (f *jsonFormatter) Format(ctx context.Context, snap Snapshot, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	stream := jsoniter.NewStream(jsonAPI, w, 4096)
	stream.WriteObjectStart()
	stream.WriteObjectField("channel")
	stream.WriteString(snap.Channel)
	stream.WriteMore()
	stream.WriteObjectField("type")
	stream.WriteString(snap.Type)
	if !snap.Received.IsZero() {
		stream.WriteMore()
		stream.WriteObjectField("received")
		stream.WriteString(snap.Received.UTC().Format(time.RFC3339Nano))
	}
	stream.WriteMore()
	stream.WriteObjectField("value")
	writeValue(stream, snap.Value, 0)
	stream.WriteObjectEnd()
	stream.WriteRaw("\n")
	return stream.Flush()
}

// Name returns the name of the formatter.
func (f *jsonFormatter) Name() string {
	return "json"
}

// Description returns a description of the output format.
func (f *jsonFormatter) Description() string {
	return "JSON format for programmatic consumption"
}

func writeValue(stream *jsoniter.Stream, v introspect.Value, depth int) {
	if v == nil || depth > maxDepth {
		stream.WriteNil()
		return
	}
	switch v.Kind() {
	case introspect.KindNumber:
		writeNumber(stream, v)
	case introspect.KindBool:
		if b, ok := v.(introspect.Bool); ok {
			stream.WriteBool(b.V)
		} else {
			stream.WriteString(introspect.Text(v))
		}
	case introspect.KindEnum, introspect.KindString:
		stream.WriteString(introspect.Text(v))
	case introspect.KindSequence:
		seq := v.(introspect.Sequence)
		stream.WriteArrayStart()
		for i := 0; i < seq.Len(); i++ {
			if i > 0 {
				stream.WriteMore()
			}
			elem, err := seq.At(i)
			if err != nil {
				writeError(stream, err)
				continue
			}
			writeValue(stream, elem, depth+1)
		}
		stream.WriteArrayEnd()
	case introspect.KindRecord:
		stream.WriteObjectStart()
		for i, field := range v.(introspect.Record).Fields() {
			if i > 0 {
				stream.WriteMore()
			}
			stream.WriteObjectField(field.Name)
			fv, err := field.Value()
			if err != nil {
				writeError(stream, err)
				continue
			}
			writeValue(stream, fv, depth+1)
		}
		stream.WriteObjectEnd()
	default:
		stream.WriteNil()
	}
}

func writeNumber(stream *jsoniter.Stream, v introspect.Value) {
	switch n := v.(type) {
	case introspect.Number:
		switch {
		case n.Integer:
			stream.WriteInt64(n.I)
		case math.IsNaN(n.V) || math.IsInf(n.V, 0):
			stream.WriteString(n.Text())
		default:
			stream.WriteFloat64(n.V)
		}
	case introspect.Numeric:
		if f := n.Float64(); math.IsNaN(f) || math.IsInf(f, 0) {
			stream.WriteString(n.Text())
		} else {
			stream.WriteFloat64(f)
		}
	default:
		stream.WriteString(introspect.Text(v))
	}
}

// writeError stands in for a value that could not be read.
func writeError(stream *jsoniter.Stream, err error) {
	stream.WriteObjectStart()
	stream.WriteObjectField("error")
	stream.WriteString(err.Error())
	stream.WriteObjectEnd()
}
