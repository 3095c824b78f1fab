// Package config provides configuration management for msgspy.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ikari-pl/go-msgspy/internal/inspect"
	"github.com/ikari-pl/go-msgspy/internal/logging"
	"github.com/ikari-pl/go-msgspy/internal/source"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Source kinds.
const (
	SourceDemo   = "demo"
	SourceReplay = "replay"
	SourceMQTT   = "mqtt"
)

// Config holds the application configuration.
type Config struct {
	Inspector InspectorConfig `yaml:"inspector" mapstructure:"inspector"`
	Source    SourceConfig    `yaml:"source" mapstructure:"source"`
	Schema    SchemaConfig    `yaml:"schema" mapstructure:"schema"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`

	// Channel is opened in the inspector at startup. Empty shows the channel list.
	Channel string `yaml:"channel" mapstructure:"channel"`
}

// InspectorConfig sizes the tree view and its sparklines. Distances are in
// pixels: a terminal cell is 2 pixels wide and RowHeight pixels tall.
type InspectorConfig struct {
	RowHeight      int `yaml:"row_height" mapstructure:"row_height"`
	IndentWidth    int `yaml:"indent_width" mapstructure:"indent_width"`
	NameColumnMax  int `yaml:"name_column_max" mapstructure:"name_column_max"`
	ValueColumnMax int `yaml:"value_column_max" mapstructure:"value_column_max"`
	ValueWidth     int `yaml:"value_width" mapstructure:"value_width"`

	SparklineWidth  int     `yaml:"sparkline_width" mapstructure:"sparkline_width"`
	SparklineHeight int     `yaml:"sparkline_height" mapstructure:"sparkline_height"`
	SparklineWindow float64 `yaml:"sparkline_window" mapstructure:"sparkline_window"` // seconds

	// SparklineSamples is the buffer capacity of every field; DetailedSamples
	// is used once the field is opened in a chart window.
	SparklineSamples int `yaml:"sparkline_samples" mapstructure:"sparkline_samples"`
	DetailedSamples  int `yaml:"detailed_samples" mapstructure:"detailed_samples"`

	CullMargin    int           `yaml:"cull_margin" mapstructure:"cull_margin"`
	FrameInterval time.Duration `yaml:"frame_interval" mapstructure:"frame_interval"`

	Theme     string `yaml:"theme" mapstructure:"theme"` // "default", "neon"
	ExportDir string `yaml:"export_dir" mapstructure:"export_dir"`
}

// SourceConfig selects where messages come from.
type SourceConfig struct {
	Kind string `yaml:"kind" mapstructure:"kind"` // "demo", "replay", "mqtt"

	// Replay
	File  string  `yaml:"file" mapstructure:"file"`
	Speed float64 `yaml:"speed" mapstructure:"speed"`
	Loop  bool    `yaml:"loop" mapstructure:"loop"`

	// MQTT
	Broker      string `yaml:"broker" mapstructure:"broker"`
	Topic       string `yaml:"topic" mapstructure:"topic"`
	ClientID    string `yaml:"client_id" mapstructure:"client_id"`
	QoS         int    `yaml:"qos" mapstructure:"qos"`
	Username    string `yaml:"username" mapstructure:"username"`
	Password    string `yaml:"password" mapstructure:"password"`
	StripPrefix string `yaml:"strip_prefix" mapstructure:"strip_prefix"`

	// Demo
	DemoRate float64 `yaml:"demo_rate" mapstructure:"demo_rate"`
}

// SchemaConfig locates the type registry.
type SchemaConfig struct {
	// Types is a YAML type registry. Empty uses the demo types for the demo
	// source and JSON inference otherwise.
	Types string `yaml:"types" mapstructure:"types"`
	// Strict rejects messages on channels with no bound type.
	Strict bool `yaml:"strict" mapstructure:"strict"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level        string `yaml:"level" mapstructure:"level"`
	Format       string `yaml:"format" mapstructure:"format"` // "console", "json"
	File         string `yaml:"file" mapstructure:"file"`
	EnableCaller bool   `yaml:"enable_caller" mapstructure:"enable_caller"`
}

// NewConfig creates a new configuration with default values.
func NewConfig() *Config {
	layout := inspect.DefaultLayout()
	return &Config{
		Inspector: InspectorConfig{
			RowHeight:        layout.RowHeight,
			IndentWidth:      layout.IndentWidth,
			NameColumnMax:    layout.NameColumnMax,
			ValueColumnMax:   layout.ValueColumnMax,
			ValueWidth:       layout.ValueWidth,
			SparklineWidth:   layout.Spark.Width,
			SparklineHeight:  layout.Spark.Height,
			SparklineWindow:  layout.Spark.Window,
			SparklineSamples: 256,
			DetailedSamples:  4096,
			CullMargin:       64,
			FrameInterval:    50 * time.Millisecond,
			Theme:            "default",
			ExportDir:        ".",
		},
		Source: SourceConfig{
			Kind:     SourceDemo,
			Speed:    1,
			Topic:    "#",
			DemoRate: 10,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
			File:   "msgspy.log",
		},
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	in := c.Inspector
	if in.RowHeight < 2 {
		return fmt.Errorf("%w: inspector.row_height must be at least 2", ErrInvalid)
	}
	if in.SparklineHeight < 1 || in.SparklineHeight > in.RowHeight {
		return fmt.Errorf("%w: inspector.sparkline_height must be between 1 and row_height", ErrInvalid)
	}
	if in.SparklineWidth < 2 || in.SparklineWindow <= 0 {
		return fmt.Errorf("%w: inspector sparkline width and window must be positive", ErrInvalid)
	}
	if in.SparklineSamples < 2 {
		return fmt.Errorf("%w: inspector.sparkline_samples must be at least 2", ErrInvalid)
	}
	if in.DetailedSamples < in.SparklineSamples {
		return fmt.Errorf("%w: inspector.detailed_samples must not be below sparkline_samples", ErrInvalid)
	}
	if in.FrameInterval < 10*time.Millisecond {
		return fmt.Errorf("%w: inspector.frame_interval must be at least 10ms", ErrInvalid)
	}

	if in.Theme != "default" && in.Theme != "neon" {
		return fmt.Errorf("%w: inspector.theme %q (valid: default, neon)", ErrInvalid, in.Theme)
	}

	switch c.Source.Kind {
	case SourceDemo:
	case SourceReplay:
		if c.Source.File == "" {
			return fmt.Errorf("%w: source.file is required for replay", ErrInvalid)
		}
		if c.Source.File != "-" {
			if _, err := os.Stat(c.Source.File); err != nil {
				return fmt.Errorf("%w: replay file: %w", ErrInvalid, err)
			}
		}
		if c.Source.Speed < 0 {
			return fmt.Errorf("%w: source.speed must not be negative", ErrInvalid)
		}
	case SourceMQTT:
		if c.Source.Broker == "" || c.Source.Topic == "" {
			return fmt.Errorf("%w: source.broker and source.topic are required for mqtt", ErrInvalid)
		}
		if c.Source.QoS < 0 || c.Source.QoS > 2 {
			return fmt.Errorf("%w: source.qos must be 0, 1 or 2", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: source.kind %q (valid: demo, replay, mqtt)", ErrInvalid, c.Source.Kind)
	}

	if c.Schema.Types != "" {
		if _, err := os.Stat(c.Schema.Types); err != nil {
			return fmt.Errorf("%w: schema.types: %w", ErrInvalid, err)
		}
	}

	if c.Log.Format != "console" && c.Log.Format != "json" {
		return fmt.Errorf("%w: log.format %q (valid: console, json)", ErrInvalid, c.Log.Format)
	}
	return nil
}

// Layout converts the inspector settings to paint metrics.
func (c *Config) Layout() inspect.Layout {
	l := inspect.DefaultLayout()
	l.RowHeight = c.Inspector.RowHeight
	l.IndentWidth = c.Inspector.IndentWidth
	l.NameColumnMax = c.Inspector.NameColumnMax
	l.ValueColumnMax = c.Inspector.ValueColumnMax
	l.ValueWidth = c.Inspector.ValueWidth
	l.Spark = inspect.SparkStyle{
		Width:  c.Inspector.SparklineWidth,
		Height: c.Inspector.SparklineHeight,
		Window: c.Inspector.SparklineWindow,
	}
	return l
}

// Logging converts the log settings for logging.Init.
func (c *Config) Logging() logging.Config {
	return logging.Config{
		Level:        c.Log.Level,
		Format:       c.Log.Format,
		File:         c.Log.File,
		EnableCaller: c.Log.EnableCaller,
	}
}

// ReplayOptions converts the replay settings.
func (c *Config) ReplayOptions() source.ReplayOptions {
	return source.ReplayOptions{Path: c.Source.File, Speed: c.Source.Speed, Loop: c.Source.Loop}
}

// MQTTOptions converts the MQTT settings.
func (c *Config) MQTTOptions() source.MQTTOptions {
	return source.MQTTOptions{
		Broker:      c.Source.Broker,
		Topic:       c.Source.Topic,
		ClientID:    c.Source.ClientID,
		QoS:         byte(c.Source.QoS),
		Username:    c.Source.Username,
		Password:    c.Source.Password,
		StripPrefix: c.Source.StripPrefix,
	}
}
