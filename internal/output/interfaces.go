// Package output writes snapshots of decoded messages for scripts and
// one-shot terminal dumps.
package output

import (
	"context"
	"io"
	"time"

	"github.com/ikari-pl/go-msgspy/internal/introspect"
)

// Snapshot is one decoded message of a channel.
type Snapshot struct {
	Channel  string
	Type     string
	Received time.Time
	Value    introspect.Value
}

// Formatter provides methods for formatting snapshots into different output formats.
type Formatter interface {
	// Format formats the given snapshot and writes it to the writer.
	Format(ctx context.Context, snap Snapshot, w io.Writer) error

	// Name returns the name of the formatter.
	Name() string

	// Description returns a description of the output format.
	Description() string
}

// Manager manages multiple output formatters.
type Manager interface {
	// RegisterFormatter registers a new formatter.
	RegisterFormatter(formatter Formatter)

	// GetFormatter returns a formatter by name.
	GetFormatter(name string) (Formatter, error)

	// ListFormatters returns all available formatter names.
	ListFormatters() []string

	// Format formats the snapshot using the specified formatter.
	Format(ctx context.Context, formatName string, snap Snapshot, w io.Writer) error
}
