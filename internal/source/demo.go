package source

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog"
)

// DemoSchema describes the messages published by Demo.
const DemoSchema = `
enums:
  demo.mode_t: [IDLE, MANUAL, AUTO, FAULT]
types:
  demo.vec3_t:
    fields:
      - {name: x, type: double}
      - {name: y, type: double}
      - {name: z, type: double}
  demo.pose_t:
    fields:
      - {name: utime, type: int64}
      - {name: position, type: "double[3]"}
      - {name: orientation, type: "double[4]"}
      - {name: velocity, type: demo.vec3_t}
  demo.status_t:
    fields:
      - {name: utime, type: int64}
      - {name: mode, type: demo.mode_t}
      - {name: armed, type: boolean}
      - {name: name, type: string}
      - {name: battery, type: float}
      - {name: cells, type: "int16[]"}
      - {name: flags, type: byte}
    constants:
      - {name: MAX_CELLS, type: int32, value: 6}
  demo.scan_t:
    fields:
      - {name: utime, type: int64}
      - {name: ranges, type: "float[]"}
channels:
  POSE: demo.pose_t
  STATUS: demo.status_t
  SCAN: demo.scan_t
`

type demoVec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type demoPose struct {
	Utime       int64      `json:"utime"`
	Position    [3]float64 `json:"position"`
	Orientation [4]float64 `json:"orientation"`
	Velocity    demoVec3   `json:"velocity"`
}

type demoStatus struct {
	Utime   int64   `json:"utime"`
	Mode    string  `json:"mode"`
	Armed   bool    `json:"armed"`
	Name    string  `json:"name"`
	Battery float64 `json:"battery"`
	Cells   []int16 `json:"cells"`
	Flags   uint8   `json:"flags"`
}

type demoScan struct {
	Utime  int64     `json:"utime"`
	Ranges []float64 `json:"ranges"`
}

// Demo publishes synthetic messages on the DemoSchema channels.
type Demo struct {
	rate   float64
	now    func() time.Time
	logger zerolog.Logger
}

// NewDemo creates a generator publishing each channel rate times a second.
func NewDemo(rate float64, logger zerolog.Logger) *Demo {
	if rate <= 0 {
		rate = 10
	}
	return &Demo{rate: rate, now: time.Now, logger: logger}
}

// Name implements Source.
func (d *Demo) Name() string { return "demo" }

// Run implements Source.
func (d *Demo) Run(ctx context.Context, pub Publisher) error {
	t := time.NewTicker(time.Duration(float64(time.Second) / d.rate))
	defer t.Stop()
	start := d.now()
	var seq int
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}
		now := d.now()
		for _, m := range d.Messages(now.Sub(start).Seconds(), seq, now.UnixMicro()) {
			pub.Publish(m)
		}
		seq++
	}
}

// Messages builds one round of messages for elapsed seconds t.
func (d *Demo) Messages(t float64, seq int, micros int64) []Message {
	pose := demoPose{
		Utime:    micros,
		Position: [3]float64{10 * math.Cos(t/4), 10 * math.Sin(t/4), 1 + 0.2*math.Sin(t)},
		Velocity: demoVec3{X: -2.5 * math.Sin(t/4), Y: 2.5 * math.Cos(t/4), Z: 0.2 * math.Cos(t)},
	}
	half := t / 8
	pose.Orientation = [4]float64{math.Cos(half), 0, 0, math.Sin(half)}

	modes := []string{"IDLE", "MANUAL", "AUTO", "AUTO", "AUTO", "FAULT"}
	status := demoStatus{
		Utime:   micros,
		Mode:    modes[(seq/50)%len(modes)],
		Armed:   (seq/50)%len(modes) >= 1,
		Name:    "rover-1",
		Battery: 100 - math.Mod(t, 600)/6,
		Cells:   make([]int16, 2+(seq/100)%3),
		Flags:   uint8(seq),
	}
	for i := range status.Cells {
		status.Cells[i] = int16(3700 + 50*math.Sin(t+float64(i)))
	}

	scan := demoScan{Utime: micros, Ranges: make([]float64, 8)}
	for i := range scan.Ranges {
		scan.Ranges[i] = 5 + 2*math.Sin(t*2+float64(i)/2)
	}

	var out []Message
	for _, p := range []struct {
		channel string
		v       any
	}{{"POSE", pose}, {"STATUS", status}, {"SCAN", scan}} {
		payload, err := jsonAPI.Marshal(p.v)
		if err != nil {
			d.logger.Error().Err(err).Str("channel", p.channel).Msg("failed to encode demo message")
			continue
		}
		out = append(out, Message{Channel: p.channel, Payload: payload, Micros: micros})
	}
	return out
}
