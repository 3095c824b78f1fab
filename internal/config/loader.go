package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. MSGSPY_SOURCE_KIND.
const EnvPrefix = "MSGSPY"

// flagKeys maps command line flags to config keys.
var flagKeys = map[string]string{
	"source":    "source.kind",
	"file":      "source.file",
	"speed":     "source.speed",
	"broker":    "source.broker",
	"topic":     "source.topic",
	"types":     "schema.types",
	"strict":    "schema.strict",
	"channel":   "channel",
	"theme":     "inspector.theme",
	"log-level": "log.level",
	"log-file":  "log.file",
}

// Loader handles configuration loading with Viper.
type Loader struct {
	v          *viper.Viper
	configFile string
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return &Loader{v: viper.New()}
}

// SetConfigFile sets an explicit config file path.
func (l *Loader) SetConfigFile(path string) {
	l.configFile = path
}

// BindFlags binds the known flags of fs so that a flag given on the command
// line overrides every other source.
func (l *Loader) BindFlags(fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := l.v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("failed to bind flag --%s: %w", name, err)
		}
	}
	return nil
}

// Load loads configuration with proper precedence:
// defaults < config file < env vars < CLI flags
func (l *Loader) Load() (*Config, error) {
	cfg := NewConfig()
	l.setup(cfg)

	if err := l.loadConfigFile(); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}
	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Source.File = expandTilde(cfg.Source.File)
	cfg.Schema.Types = expandTilde(cfg.Schema.Types)
	cfg.Log.File = expandTilde(cfg.Log.File)
	cfg.Inspector.ExportDir = expandTilde(cfg.Inspector.ExportDir)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// ConfigFileUsed returns the config file that was loaded.
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

func (l *Loader) setup(cfg *Config) {
	v := l.v
	v.SetConfigName("msgspy")
	v.SetConfigType("yaml")
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		v.AddConfigPath(filepath.Join(xdg, "msgspy"))
	}
	if home, _ := os.UserHomeDir(); home != "" {
		v.AddConfigPath(filepath.Join(home, ".config", "msgspy"))
	}
	v.AddConfigPath(".")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	for key, val := range defaults(cfg) {
		v.SetDefault(key, val)
		// Unmarshal only sees env vars for explicitly bound nested keys.
		_ = v.BindEnv(key)
	}
	v.AutomaticEnv()
}

// defaults flattens cfg into viper keys.
func defaults(cfg *Config) map[string]any {
	in, src := cfg.Inspector, cfg.Source
	return map[string]any{
		"inspector.row_height":        in.RowHeight,
		"inspector.indent_width":      in.IndentWidth,
		"inspector.name_column_max":   in.NameColumnMax,
		"inspector.value_column_max":  in.ValueColumnMax,
		"inspector.value_width":       in.ValueWidth,
		"inspector.sparkline_width":   in.SparklineWidth,
		"inspector.sparkline_height":  in.SparklineHeight,
		"inspector.sparkline_window":  in.SparklineWindow,
		"inspector.sparkline_samples": in.SparklineSamples,
		"inspector.detailed_samples":  in.DetailedSamples,
		"inspector.cull_margin":       in.CullMargin,
		"inspector.frame_interval":    in.FrameInterval,
		"inspector.theme":             in.Theme,
		"inspector.export_dir":        in.ExportDir,

		"source.kind":         src.Kind,
		"source.file":         src.File,
		"source.speed":        src.Speed,
		"source.loop":         src.Loop,
		"source.broker":       src.Broker,
		"source.topic":        src.Topic,
		"source.client_id":    src.ClientID,
		"source.qos":          src.QoS,
		"source.username":     src.Username,
		"source.password":     src.Password,
		"source.strip_prefix": src.StripPrefix,
		"source.demo_rate":    src.DemoRate,

		"schema.types":  cfg.Schema.Types,
		"schema.strict": cfg.Schema.Strict,

		"log.level":         cfg.Log.Level,
		"log.format":        cfg.Log.Format,
		"log.file":          cfg.Log.File,
		"log.enable_caller": cfg.Log.EnableCaller,

		"channel": cfg.Channel,
	}
}

// loadConfigFile reads the config file. A missing file is only an error
// when it was named explicitly.
func (l *Loader) loadConfigFile() error {
	if l.configFile != "" {
		l.v.SetConfigFile(l.configFile)
	}
	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return err
	}
	return nil
}

// expandTilde expands ~ to the user's home directory.
func expandTilde(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
