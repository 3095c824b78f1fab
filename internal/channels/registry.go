// Package channels tracks the message channels seen by the inspector: their
// type, counters, latest decoded message and recent activity.
package channels

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/keilerkonzept/topk/sliding"
	"github.com/rs/zerolog"

	"github.com/ikari-pl/go-msgspy/internal/introspect"
)

// Sink receives every decoded message of a channel. inspect.Panel is one.
type Sink interface {
	Deliver(obj introspect.Value, arrivalMicros int64)
}

// Info is a snapshot of one channel.
type Info struct {
	Name     string
	Type     string
	Count    uint64
	Errors   uint64
	Size     int
	LastSeen time.Time
	// Rate is the number of messages per second over the activity window.
	Rate float64
}

// Summary formats the counters for status lines.
func (i Info) Summary() string {
	return fmt.Sprintf("%s msgs, %.1f/s, %s", humanize.Comma(int64(i.Count)), i.Rate, humanize.Bytes(uint64(i.Size)))
}

// Options configures the activity sketch.
type Options struct {
	TopK   int
	Width  int
	Depth  int
	Decay  float64
	Tick   time.Duration
	Window time.Duration
}

// DefaultOptions returns a sketch sized for a few thousand channels.
func DefaultOptions() Options {
	return Options{
		TopK:   50,
		Width:  3000,
		Depth:  3,
		Decay:  0.9,
		Tick:   time.Second,
		Window: 10 * time.Second,
	}
}

type entry struct {
	info   Info
	latest introspect.Value
	micros int64
	sink   Sink
}

// Registry is safe for concurrent use.
type Registry struct {
	mu       sync.Mutex
	opts     Options
	sketch   *sliding.Sketch
	entries  map[string]*entry
	lastTick time.Time
	now      func() time.Time
	logger   zerolog.Logger
}

// New creates an empty registry.
func New(opts Options, logger zerolog.Logger) *Registry {
	def := DefaultOptions()
	if opts.TopK <= 0 {
		opts.TopK = def.TopK
	}
	if opts.Width <= 0 {
		opts.Width = def.Width
	}
	if opts.Depth <= 0 {
		opts.Depth = def.Depth
	}
	if opts.Decay <= 0 || opts.Decay > 1 {
		opts.Decay = def.Decay
	}
	if opts.Tick <= 0 {
		opts.Tick = def.Tick
	}
	if opts.Window < opts.Tick {
		opts.Window = max(def.Window, opts.Tick)
	}

	return &Registry{
		opts: opts,
		sketch: sliding.New(opts.TopK,
			int(opts.Window/opts.Tick),
			sliding.WithWidth(opts.Width),
			sliding.WithDepth(opts.Depth),
			sliding.WithDecay(float32(opts.Decay)),
		),
		entries: make(map[string]*entry),
		now:     time.Now,
		logger:  logger,
	}
}

func (r *Registry) entry(channel string) *entry {
	e, ok := r.entries[channel]
	if !ok {
		e = &entry{info: Info{Name: channel}}
		r.entries[channel] = e
		r.logger.Debug().Str("channel", channel).Msg("new channel")
	}
	return e
}

// Observe records a decoded message and forwards it to the channel sink.
func (r *Registry) Observe(channel, typ string, size int, obj introspect.Value, arrivalMicros int64) {
	r.mu.Lock()
	e := r.entry(channel)
	if e.info.Type != "" && e.info.Type != typ {
		r.logger.Info().Str("channel", channel).Str("from", e.info.Type).Str("to", typ).Msg("channel type changed")
	}
	e.info.Type = typ
	e.info.Count++
	e.info.Size = size
	e.info.LastSeen = r.now()
	e.latest, e.micros = obj, arrivalMicros
	sink := e.sink
	r.sketch.Incr(channel)
	r.mu.Unlock()

	if sink != nil {
		sink.Deliver(obj, arrivalMicros)
	}
}

// ObserveError counts a message that could not be decoded.
func (r *Registry) ObserveError(channel string, err error) {
	r.mu.Lock()
	e := r.entry(channel)
	e.info.Errors++
	n := e.info.Errors
	r.mu.Unlock()

	r.logger.Warn().Str("channel", channel).Uint64("errors", n).Err(err).Msg("dropping undecodable message")
}

// Attach routes a channel's messages to sink. The latest message, if any,
// is delivered at once.
func (r *Registry) Attach(channel string, sink Sink) {
	r.mu.Lock()
	e := r.entry(channel)
	e.sink = sink
	latest, micros := e.latest, e.micros
	r.mu.Unlock()

	if sink != nil && latest != nil {
		sink.Deliver(latest, micros)
	}
}

// Detach stops forwarding a channel.
func (r *Registry) Detach(channel string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[channel]; ok {
		e.sink = nil
	}
}

// Latest returns the most recent message of a channel.
func (r *Registry) Latest(channel string) (introspect.Value, int64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[channel]
	if !ok || e.latest == nil {
		return nil, 0, false
	}
	return e.latest, e.micros, true
}

// Tick advances the activity window to now.
func (r *Registry) Tick(now time.Time) {
	now = now.Truncate(r.opts.Tick)
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.lastTick.IsZero() {
		r.lastTick = now
		return
	}
	if ticks := int(now.Sub(r.lastTick) / r.opts.Tick); ticks > 0 {
		r.sketch.Ticks(ticks)
		r.lastTick = now
	}
}

// Run ticks the activity window until ctx is done.
func (r *Registry) Run(ctx context.Context) {
	t := time.NewTicker(r.opts.Tick)
	defer t.Stop()
	r.Tick(r.now())
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			r.Tick(now)
		}
	}
}

func (r *Registry) info(e *entry) Info {
	info := e.info
	info.Rate = float64(r.sketch.Count(e.info.Name)) / r.opts.Window.Seconds()
	return info
}

// Len returns the number of known channels.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Get returns one channel.
func (r *Registry) Get(channel string) (Info, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[channel]
	if !ok {
		return Info{}, false
	}
	return r.info(e), true
}

// Snapshot returns every channel sorted by name.
func (r *Registry) Snapshot() []Info {
	r.mu.Lock()
	out := make([]Info, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, r.info(e))
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Top returns up to n channels ranked by recent activity.
func (r *Registry) Top(n int) []Info {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Info
	for _, item := range r.sketch.SortedSlice() {
		if len(out) == n {
			break
		}
		if e, ok := r.entries[item.Item]; ok && item.Count > 0 {
			out = append(out, r.info(e))
		}
	}
	return out
}
