// Package source produces raw channel messages for the inspector and hands
// them, decoded, to the channel registry.
package source

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/ikari-pl/go-msgspy/internal/introspect"
)

// Message is one payload received on a channel.
type Message struct {
	Channel string
	// Type optionally names the message type, overriding the channel binding.
	Type    string
	Payload []byte
	// Micros is the arrival time in microseconds since the Unix epoch.
	Micros int64
}

// Publisher consumes messages. Publish must not block for long; sources
// call it from their receive loop.
type Publisher interface {
	Publish(m Message)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(m Message)

// Publish calls f(m).
func (f PublisherFunc) Publish(m Message) { f(m) }

// Source delivers messages until its input ends or ctx is cancelled.
type Source interface {
	Name() string
	Run(ctx context.Context, pub Publisher) error
}

// Decoder turns payloads into values.
type Decoder interface {
	DecodeChannel(channel string, payload []byte) (string, introspect.Value, error)
	DecodeType(typ string, payload []byte) (introspect.Value, error)
}

// Observer records decoded messages.
type Observer interface {
	Observe(channel, typ string, size int, obj introspect.Value, arrivalMicros int64)
	ObserveError(channel string, err error)
}

// Dispatcher decodes published messages and records them. Decode failures
// drop the message, never the source.
type Dispatcher struct {
	dec    Decoder
	obs    Observer
	logger zerolog.Logger
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(dec Decoder, obs Observer, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{dec: dec, obs: obs, logger: logger}
}

// Publish implements Publisher.
func (d *Dispatcher) Publish(m Message) {
	if m.Micros == 0 {
		m.Micros = time.Now().UnixMicro()
	}

	var (
		typ = m.Type
		v   introspect.Value
		err error
	)
	if typ != "" {
		v, err = d.dec.DecodeType(typ, m.Payload)
	} else {
		typ, v, err = d.dec.DecodeChannel(m.Channel, m.Payload)
	}
	if err != nil {
		d.obs.ObserveError(m.Channel, err)
		return
	}
	d.obs.Observe(m.Channel, typ, len(m.Payload), v, m.Micros)
}
