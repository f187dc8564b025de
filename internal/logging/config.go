package logging

import (
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/danmuck/gbtlink/internal/observability"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	EnvLogLevel     = "GBTLINK_LOG_LEVEL"
	EnvLogTimestamp = "GBTLINK_LOG_TIMESTAMP"
	EnvLogNoColor   = "GBTLINK_LOG_NOCOLOR"
	EnvLogFile      = "GBTLINK_LOG_FILE"
)

type Profile int

const (
	ProfileRuntime Profile = iota
	ProfileTest
)

// Options controls the process wide logger. File, when set, receives a copy
// of every line and is rotated by size.
type Options struct {
	App        string
	Level      zerolog.Level
	Timestamp  bool
	NoColor    bool
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

var configureOnce sync.Once

func ConfigureRuntime() {
	Configure(ProfileRuntime)
}

func ConfigureTests() {
	Configure(ProfileTest)
}

// Configure installs the default options for profile once per process.
func Configure(profile Profile) {
	configureOnce.Do(func() {
		Apply(DefaultOptions(profile))
	})
}

func DefaultOptions(profile Profile) Options {
	opts := Options{
		App:        "gbtlink",
		MaxSizeMB:  64,
		MaxBackups: 4,
		MaxAgeDays: 14,
	}
	switch profile {
	case ProfileTest:
		opts.Level = zerolog.DebugLevel
		opts.Timestamp = false
		opts.NoColor = true
	default:
		opts.Level = zerolog.InfoLevel
		opts.Timestamp = true
	}
	return opts
}

// Apply applies env overrides to opts, installs the resulting logger as the
// global zerolog logger and returns it.
func Apply(opts Options) zerolog.Logger {
	applyEnvOverrides(&opts)
	zerolog.SetGlobalLevel(opts.Level)
	return observability.InitLogger(opts.App, Writer(opts))
}

// Writer builds the console writer and, if configured, the rotating file sink.
func Writer(opts Options) io.Writer {
	console := zerolog.ConsoleWriter{
		Out:     os.Stderr,
		NoColor: opts.NoColor,
	}
	if opts.Timestamp {
		console.TimeFormat = "2006-01-02T15:04:05.000Z07:00"
	} else {
		console.PartsExclude = []string{zerolog.TimestampFieldName}
	}
	if strings.TrimSpace(opts.File) == "" {
		return console
	}
	file := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   opts.Compress,
	}
	return zerolog.MultiLevelWriter(console, file)
}

func applyEnvOverrides(opts *Options) {
	if lvl, ok := ParseLevel(os.Getenv(EnvLogLevel)); ok {
		opts.Level = lvl
	}
	if v, ok := parseBool(os.Getenv(EnvLogTimestamp)); ok {
		opts.Timestamp = v
	}
	if v, ok := parseBool(os.Getenv(EnvLogNoColor)); ok {
		opts.NoColor = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		opts.File = v
	}
}

// ParseLevel maps a level name to a zerolog level. The second result is false
// for empty or unknown names.
func ParseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return zerolog.InfoLevel, false
	case "trace", "diagnostics":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "disabled", "disable", "off", "none", "inactive":
		return zerolog.Disabled, true
	default:
		return zerolog.InfoLevel, false
	}
}

func parseBool(raw string) (bool, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
