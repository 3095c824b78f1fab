package output

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/ikari-pl/go-msgspy/internal/introspect"
)

// maxDepth bounds recursion through cyclic or absurdly nested values.
const maxDepth = 64

// ErrUnknownFormat is returned for an unregistered formatter name.
var ErrUnknownFormat = errors.New("unknown output format")

// manager implements the Manager interface.
type manager struct {
	mu         sync.RWMutex
	formatters map[string]Formatter
}

// NewManager creates a Manager with the json and tree formatters registered.
func NewManager() Manager {
	m := &manager{formatters: make(map[string]Formatter)}
	m.RegisterFormatter(NewJSONFormatter())
	m.RegisterFormatter(NewTreeFormatter())
	return m
}

// RegisterFormatter registers a new formatter, replacing one of the same name.
func (m *manager) RegisterFormatter(formatter Formatter) {
	if formatter == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.formatters[formatter.Name()] = formatter
}

// GetFormatter returns a formatter by name.
func (m *manager) GetFormatter(name string) (Formatter, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.formatters[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s (valid: %s)", ErrUnknownFormat, name, strings.Join(m.names(), ", "))
	}
	return f, nil
}

// ListFormatters returns all available formatter names, sorted.
func (m *manager) ListFormatters() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.names()
}

func (m *manager) names() []string {
	names := make([]string, 0, len(m.formatters))
	for name := range m.formatters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Format formats the snapshot using the specified formatter.
func (m *manager) Format(ctx context.Context, formatName string, snap Snapshot, w io.Writer) error {
	f, err := m.GetFormatter(formatName)
	if err != nil {
		return err
	}
	if err := f.Format(ctx, snap, w); err != nil {
		return fmt.Errorf("failed to format %s as %s: %w", snap.Channel, formatName, err)
	}
	return nil
}

// treeFormatter prints an indented name/type/value listing.
type treeFormatter struct {
	indent    int
	nameWidth int
	typeWidth int
}

// NewTreeFormatter creates a plain text tree formatter.
func NewTreeFormatter() Formatter {
	return &treeFormatter{indent: 2, nameWidth: 24, typeWidth: 16}
}

// Name returns the name of the formatter.
func (f *treeFormatter) Name() string {
	return "tree"
}

// Description returns a description of the output format.
func (f *treeFormatter) Description() string {
	return "Indented text tree of field names, types and values"
}

// Format writes one line per field.
func (f *treeFormatter) Format(ctx context.Context, snap Snapshot, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	typ := snap.Type
	if typ == "" && snap.Value != nil {
		typ = snap.Value.TypeName()
	}
	fmt.Fprintf(bw, "%s  %s\n", snap.Channel, typ)
	f.write(bw, "", snap.Value, 1)
	return bw.Flush()
}

func (f *treeFormatter) write(w io.Writer, name string, v introspect.Value, depth int) {
	if depth > maxDepth {
		return
	}
	if v == nil {
		v = introspect.Null{}
	}
	switch v.Kind() {
	case introspect.KindSequence:
		seq := v.(introspect.Sequence)
		if name != "" {
			f.line(w, depth, fmt.Sprintf("%s[%d]", name, seq.Len()), v.TypeName(), "")
			depth++
		}
		for i := 0; i < seq.Len(); i++ {
			elemName := fmt.Sprintf("%s[%d]", name, i)
			elem, err := seq.At(i)
			if err != nil {
				f.line(w, depth, elemName, seq.ElemType(), "<"+err.Error()+">")
				continue
			}
			f.write(w, elemName, elem, depth)
		}
	case introspect.KindRecord:
		if name != "" {
			f.line(w, depth, name, v.TypeName(), "")
			depth++
		}
		for _, field := range v.(introspect.Record).Fields() {
			fv, err := field.Value()
			if err != nil {
				f.line(w, depth, field.Name, field.Type, "<"+err.Error()+">")
				continue
			}
			f.write(w, field.Name, fv, depth)
		}
	default:
		f.line(w, depth, name, v.TypeName(), introspect.Text(v))
	}
}

func (f *treeFormatter) line(w io.Writer, depth int, name, typ, value string) {
	pad := strings.Repeat(" ", depth*f.indent)
	row := fmt.Sprintf("%s%-*s %-*s %s", pad, f.nameWidth, name, f.typeWidth, typ, value)
	fmt.Fprintln(w, strings.TrimRight(row, " "))
}
