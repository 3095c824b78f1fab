package source

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"
)

const maxLineSize = 4 << 20

// record is one line of a capture file:
//
//	{"channel": "POSE", "utime": 1700000000000000, "type": "exlcm.pose_t", "data": {...}}
type record struct {
	Channel string              `json:"channel"`
	Utime   int64               `json:"utime"`
	Type    string              `json:"type"`
	Data    jsoniter.RawMessage `json:"data"`
}

// ReplayOptions configures a Replay.
type ReplayOptions struct {
	// Path of the capture file; "-" reads stdin.
	Path string
	// Speed scales the recorded inter-message gaps. Zero replays as fast
	// as possible.
	Speed float64
	// Loop restarts from the beginning at end of file.
	Loop bool
}

// Replay reads a JSON-lines capture.
type Replay struct {
	opts   ReplayOptions
	open   func() (io.ReadCloser, error)
	sleep  func(ctx context.Context, d time.Duration) error
	logger zerolog.Logger
}

// NewReplay creates a replay source.
func NewReplay(opts ReplayOptions, logger zerolog.Logger) *Replay {
	r := &Replay{opts: opts, sleep: sleepCtx, logger: logger}
	r.open = func() (io.ReadCloser, error) {
		if opts.Path == "-" {
			return io.NopCloser(os.Stdin), nil
		}
		return os.Open(opts.Path)
	}
	return r
}

// NewReaderReplay replays from an already open reader, once.
func NewReaderReplay(rd io.Reader, speed float64, logger zerolog.Logger) *Replay {
	return &Replay{
		opts:   ReplayOptions{Path: "reader", Speed: speed},
		open:   func() (io.ReadCloser, error) { return io.NopCloser(rd), nil },
		sleep:  sleepCtx,
		logger: logger,
	}
}

// Name implements Source.
func (r *Replay) Name() string { return "replay:" + r.opts.Path }

// Run implements Source.
func (r *Replay) Run(ctx context.Context, pub Publisher) error {
	for {
		n, err := r.pass(ctx, pub)
		if err != nil {
			return err
		}
		if !r.opts.Loop || r.opts.Path == "-" || n == 0 {
			r.logger.Info().Str("source", r.Name()).Msg("replay finished")
			return nil
		}
		r.logger.Debug().Int("messages", n).Msg("replay restarting")
	}
}

func (r *Replay) pass(ctx context.Context, pub Publisher) (int, error) {
	f, err := r.open()
	if err != nil {
		return 0, fmt.Errorf("failed to open capture: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), maxLineSize)

	var (
		n        int
		line     int
		lastTime int64
	)
	for sc.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return n, nil
		}
		raw := sc.Bytes()
		if len(raw) == 0 {
			continue
		}
		var rec record
		if err := jsonAPI.Unmarshal(raw, &rec); err != nil {
			r.logger.Warn().Int("line", line).Err(err).Msg("skipping malformed capture line")
			continue
		}
		if rec.Channel == "" {
			r.logger.Warn().Int("line", line).Msg("skipping capture line without channel")
			continue
		}

		if r.opts.Speed > 0 && lastTime != 0 && rec.Utime > lastTime {
			gap := time.Duration(float64(rec.Utime-lastTime)/r.opts.Speed) * time.Microsecond
			if err := r.sleep(ctx, gap); err != nil {
				return n, nil
			}
		}
		if rec.Utime != 0 {
			lastTime = rec.Utime
		}

		pub.Publish(Message{
			Channel: rec.Channel,
			Type:    rec.Type,
			Payload: append([]byte(nil), rec.Data...),
			Micros:  time.Now().UnixMicro(),
		})
		n++
	}
	if err := sc.Err(); err != nil && !errors.Is(err, io.EOF) {
		return n, fmt.Errorf("failed to read capture: %w", err)
	}
	return n, nil
}

var jsonAPI = jsoniter.Config{UseNumber: true}.Froze()

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
