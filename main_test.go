package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ikari-pl/go-msgspy/internal/config"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// execute runs the root command with a quiet config and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cfgFile := writeFile(t, "msgspy.yaml", "log:\n  level: warn\n")
	cmd := newRootCmd("test")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", cfgFile, "--log-file", ""}, args...))
	err := cmd.Execute()
	return out.String(), err
}

const capture = `{"channel": "a", "utime": 1, "data": {"seq": 1}}
{"channel": "b", "utime": 2, "data": {"name": "probe", "accel": {"x": 2.5, "y": -1}}}
`

func TestRootCmdFlags(t *testing.T) {
	cmd := newRootCmd("1.2.3")

	assert.Equal(t, "msgspy", cmd.Use)
	assert.Equal(t, "1.2.3", cmd.Version)
	assert.True(t, cmd.SilenceUsage)

	for _, name := range []string{
		"config", "source", "file", "speed", "broker", "topic", "types", "strict",
		"channel", "theme", "log-level", "log-file", "dump", "format", "wait",
	} {
		assert.NotNil(t, cmd.Flags().Lookup(name), "flag --%s", name)
	}
	assert.Equal(t, config.SourceDemo, cmd.Flags().Lookup("source").DefValue)
}

func TestDump(t *testing.T) {
	file := writeFile(t, "capture.jsonl", capture)

	tests := []struct {
		name   string
		format string
		want   []string
	}{
		{
			name:   "json",
			format: "json",
			want:   []string{`"channel": "b"`, `"x": 2.5`, `"name": "probe"`},
		},
		{
			name:   "tree",
			format: "tree",
			want:   []string{"b  ", "accel", "probe"},
		},
		{
			name:   "frame",
			format: "frame",
			want:   []string{"accel", "2.5", "probe"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t,
				"--source", "replay", "--file", file, "--speed", "0",
				"--channel", "b", "--dump", "--format", tt.format,
			)
			require.NoError(t, err)
			for _, want := range tt.want {
				assert.Contains(t, out, want)
			}
		})
	}
}

func TestDumpErrors(t *testing.T) {
	empty := writeFile(t, "empty.jsonl", "")
	file := writeFile(t, "capture.jsonl", capture)

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{
			name:    "no messages",
			args:    []string{"--source", "replay", "--file", empty, "--dump"},
			wantErr: "no message received",
		},
		{
			name:    "channel never seen",
			args:    []string{"--source", "replay", "--file", file, "--channel", "zz", "--dump"},
			wantErr: `channel "zz"`,
		},
		{
			name:    "unknown format",
			args:    []string{"--source", "replay", "--file", file, "--dump", "--format", "xml"},
			wantErr: "unknown output format",
		},
		{
			name:    "invalid source",
			args:    []string{"--source", "carrier-pigeon", "--dump"},
			wantErr: "source.kind",
		},
		{
			name:    "missing replay file",
			args:    []string{"--source", "replay", "--dump"},
			wantErr: "source.file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewDecoder(t *testing.T) {
	cfg := config.NewConfig()

	dec, err := newDecoder(cfg)
	require.NoError(t, err)
	typ, err := dec.Registry().TypeFor("POSE")
	require.NoError(t, err)
	assert.Equal(t, "demo.pose_t", typ)

	cfg.Source.Kind = config.SourceReplay
	cfg.Schema.Strict = true
	dec, err = newDecoder(cfg)
	require.NoError(t, err)
	assert.True(t, dec.Strict)
	assert.Empty(t, dec.Registry().TypeNames())

	cfg.Schema.Types = writeFile(t, "types.yaml", "types: [")
	_, err = newDecoder(cfg)
	assert.Error(t, err)
}

func TestNewSource(t *testing.T) {
	cfg := config.NewConfig()

	tests := []struct {
		kind string
		want string
	}{
		{config.SourceDemo, "demo"},
		{config.SourceReplay, "replay:"},
		{config.SourceMQTT, "mqtt:"},
	}
	for _, tt := range tests {
		cfg.Source.Kind = tt.kind
		src, err := newSource(cfg)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(src.Name(), tt.want), src.Name())
	}

	cfg.Source.Kind = "nope"
	_, err := newSource(cfg)
	assert.ErrorIs(t, err, config.ErrInvalid)
}
