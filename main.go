// Package main is the entry point for the msgspy CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/ikari-pl/go-msgspy/internal/channels"
	"github.com/ikari-pl/go-msgspy/internal/config"
	"github.com/ikari-pl/go-msgspy/internal/logging"
	"github.com/ikari-pl/go-msgspy/internal/output"
	"github.com/ikari-pl/go-msgspy/internal/schema"
	"github.com/ikari-pl/go-msgspy/internal/source"
	"github.com/ikari-pl/go-msgspy/internal/tui"
	"github.com/ikari-pl/go-msgspy/internal/tui/theme"
)

// Version information (set at build time)
var version = "dev"

// dumpCols is the frame width when stdout is not a terminal.
const dumpCols = 120

func main() {
	if err := newRootCmd(version).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type rootOptions struct {
	configFile string
	dump       bool
	format     string
	wait       time.Duration
}

func newRootCmd(version string) *cobra.Command {
	opts := &rootOptions{}
	defaults := config.NewConfig()

	cmd := &cobra.Command{
		Use:   "msgspy",
		Short: "Live message inspector",
		Long: `msgspy shows decoded messages as a collapsible tree with a sparkline
next to every numeric field. Messages come from a JSON-lines capture, an MQTT
broker or a built-in demo generator.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.configFile, "config", "", "config file (default: msgspy.yaml in ., ~/.config/msgspy)")
	f.String("source", defaults.Source.Kind, "message source: demo, replay, mqtt")
	f.String("file", "", "capture file for the replay source (- for stdin)")
	f.Float64("speed", defaults.Source.Speed, "replay speed factor, 0 for as fast as possible")
	f.String("broker", "", "MQTT broker URL, e.g. tcp://localhost:1883")
	f.String("topic", defaults.Source.Topic, "MQTT topic filter")
	f.String("types", "", "YAML type registry")
	f.Bool("strict", false, "reject messages on channels without a bound type")
	f.String("channel", "", "channel to inspect on start")
	f.String("theme", defaults.Inspector.Theme, "colour theme: default, neon")
	f.String("log-level", defaults.Log.Level, "log level: trace, debug, info, warn, error")
	f.String("log-file", defaults.Log.File, "log file, empty to discard logs")
	f.BoolVar(&opts.dump, "dump", false, "print the latest message of --channel once and exit")
	f.StringVar(&opts.format, "format", "frame", "dump format: frame, json, tree")
	f.DurationVar(&opts.wait, "wait", 5*time.Second, "how long --dump waits for a message")

	return cmd
}

func run(ctx context.Context, cmd *cobra.Command, opts *rootOptions) error {
	loader := config.NewLoader()
	if opts.configFile != "" {
		loader.SetConfigFile(opts.configFile)
	}
	if err := loader.BindFlags(cmd.Flags()); err != nil {
		return err
	}
	cfg, err := loader.Load()
	if err != nil {
		return err
	}

	closer, err := logging.Init(cfg.Logging())
	if err != nil {
		return err
	}
	defer closer.Close()

	logger := logging.Component("main")
	if used := loader.ConfigFileUsed(); used != "" {
		logger.Info().Str("file", used).Msg("config loaded")
	}

	dec, err := newDecoder(cfg)
	if err != nil {
		return err
	}
	src, err := newSource(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	registry := channels.New(channels.DefaultOptions(), logging.Component("channels"))
	go registry.Run(ctx)

	done := make(chan struct{})
	dispatcher := source.NewDispatcher(dec, registry, logging.Component("source"))
	go func() {
		defer close(done)
		logger.Info().Str("source", src.Name()).Msg("source started")
		if err := src.Run(ctx, dispatcher); err != nil {
			logger.Error().Err(err).Str("source", src.Name()).Msg("source failed")
		}
	}()

	if opts.dump {
		return dump(ctx, cmd.OutOrStdout(), registry, done, cfg, opts)
	}

	ui := tui.NewTUI(registry, tui.Options{
		Layout:        cfg.Layout(),
		Samples:       cfg.Inspector.SparklineSamples,
		Detailed:      cfg.Inspector.DetailedSamples,
		CullMargin:    cfg.Inspector.CullMargin,
		StartMicros:   time.Now().UnixMicro(),
		FrameInterval: cfg.Inspector.FrameInterval,
		Channel:       cfg.Channel,
		ExportDir:     cfg.Inspector.ExportDir,
		Theme:         theme.ByName(cfg.Inspector.Theme),
		Logger:        logging.Component("tui"),
	})
	return ui.Run(ctx)
}

// newDecoder loads the type registry. Without a types file the demo
// source uses its own types and other sources infer from the payload.
func newDecoder(cfg *config.Config) (*schema.Decoder, error) {
	var (
		reg *schema.Registry
		err error
	)
	switch {
	case cfg.Schema.Types != "":
		reg, err = schema.Load(cfg.Schema.Types)
	case cfg.Source.Kind == config.SourceDemo:
		reg, err = schema.Parse([]byte(source.DemoSchema))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load types: %w", err)
	}

	dec := schema.NewDecoder(reg)
	dec.Strict = cfg.Schema.Strict
	return dec, nil
}

func newSource(cfg *config.Config) (source.Source, error) {
	logger := logging.Component("source")
	switch cfg.Source.Kind {
	case config.SourceDemo:
		return source.NewDemo(cfg.Source.DemoRate, logger), nil
	case config.SourceReplay:
		return source.NewReplay(cfg.ReplayOptions(), logger), nil
	case config.SourceMQTT:
		return source.NewMQTT(cfg.MQTTOptions(), logger), nil
	default:
		return nil, fmt.Errorf("%w: unknown source %q", config.ErrInvalid, cfg.Source.Kind)
	}
}

// dump waits for the first message of the configured channel, or of any
// channel when none is configured, and writes it once.
func dump(ctx context.Context, w io.Writer, registry *channels.Registry, done <-chan struct{}, cfg *config.Config, opts *rootOptions) error {
	logger := logging.Component("dump")

	mgr := output.NewManager()
	cols, styles := dumpCols, tui.StyleManager(nil)
	if f, ok := w.(*os.File); ok && term.IsTerminal(f.Fd()) {
		if width, _, err := term.GetSize(f.Fd()); err == nil && width > 0 {
			cols = width
		}
		styles = tui.NewStyleManager(theme.ByName(cfg.Inspector.Theme))
	}
	mgr.RegisterFormatter(tui.NewFrameFormatter(cols, cfg.Layout(), styles))
	if _, err := mgr.GetFormatter(opts.format); err != nil {
		return err
	}

	deadline := time.NewTimer(opts.wait)
	defer deadline.Stop()
	poll := time.NewTicker(20 * time.Millisecond)
	defer poll.Stop()

	for {
		if snap, ok := latest(registry, cfg.Channel); ok {
			logger.Debug().Str("channel", snap.Channel).Str("format", opts.format).Msg("dumping")
			return mgr.Format(ctx, opts.format, snap, w)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return errNoMessage(cfg.Channel)
		case <-done:
			// The source has ended; whatever it published is in the registry.
			if snap, ok := latest(registry, cfg.Channel); ok {
				return mgr.Format(ctx, opts.format, snap, w)
			}
			return errNoMessage(cfg.Channel)
		case <-poll.C:
		}
	}
}

func latest(registry *channels.Registry, channel string) (output.Snapshot, bool) {
	if channel == "" {
		infos := registry.Snapshot()
		if len(infos) == 0 {
			return output.Snapshot{}, false
		}
		channel = infos[0].Name
	}
	v, micros, ok := registry.Latest(channel)
	if !ok {
		return output.Snapshot{}, false
	}
	info, _ := registry.Get(channel)
	return output.Snapshot{
		Channel:  channel,
		Type:     info.Type,
		Received: time.UnixMicro(micros),
		Value:    v,
	}, true
}

func errNoMessage(channel string) error {
	if channel == "" {
		return errors.New("no message received")
	}
	return fmt.Errorf("no message received on channel %q", channel)
}
