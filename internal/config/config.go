package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

var ErrInvalid = errors.New("config: invalid")

type Config struct {
	Gateway GatewayConfig
	Admin   AdminConfig
	Log     LogConfig
}

type GatewayConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	MaxBodyBytes int
}

type AdminConfig struct {
	Enabled     bool
	Addr        string
	CorsOrigins []string
}

type LogConfig struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

type fileConfig struct {
	Gateway struct {
		Addr         string `toml:"addr"`
		ReadTimeout  string `toml:"read_timeout"`
		WriteTimeout string `toml:"write_timeout"`
		MaxBodyBytes int    `toml:"max_body_bytes"`
	} `toml:"gateway"`
	Admin struct {
		Enabled     bool     `toml:"enabled"`
		Addr        string   `toml:"addr"`
		CorsOrigins []string `toml:"cors_origins"`
	} `toml:"admin"`
	Log struct {
		Level      string `toml:"level"`
		File       string `toml:"file"`
		MaxSizeMB  int    `toml:"max_size_mb"`
		MaxBackups int    `toml:"max_backups"`
		MaxAgeDays int    `toml:"max_age_days"`
		Compress   bool   `toml:"compress"`
	} `toml:"log"`
}

func Default() Config {
	return Config{
		Gateway: GatewayConfig{
			Addr:         ":32960",
			ReadTimeout:  3 * time.Minute,
			WriteTimeout: 10 * time.Second,
			MaxBodyBytes: 0xffff,
		},
		Admin: AdminConfig{
			Enabled:     true,
			Addr:        ":9090",
			CorsOrigins: []string{"http://localhost:3000"},
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  64,
			MaxBackups: 4,
			MaxAgeDays: 14,
		},
	}
}

// Load reads path over Default; keys absent from the file keep their defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%w: unknown keys %s", ErrInvalid, strings.Join(keys, ", "))
	}

	if meta.IsDefined("gateway", "addr") {
		cfg.Gateway.Addr = strings.TrimSpace(raw.Gateway.Addr)
	}
	if meta.IsDefined("gateway", "read_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Gateway.ReadTimeout))
		if err != nil {
			return Config{}, fmt.Errorf("parse gateway.read_timeout: %w", err)
		}
		cfg.Gateway.ReadTimeout = d
	}
	if meta.IsDefined("gateway", "write_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Gateway.WriteTimeout))
		if err != nil {
			return Config{}, fmt.Errorf("parse gateway.write_timeout: %w", err)
		}
		cfg.Gateway.WriteTimeout = d
	}
	if meta.IsDefined("gateway", "max_body_bytes") {
		cfg.Gateway.MaxBodyBytes = raw.Gateway.MaxBodyBytes
	}

	if meta.IsDefined("admin", "enabled") {
		cfg.Admin.Enabled = raw.Admin.Enabled
	}
	if meta.IsDefined("admin", "addr") {
		cfg.Admin.Addr = strings.TrimSpace(raw.Admin.Addr)
	}
	if meta.IsDefined("admin", "cors_origins") {
		cfg.Admin.CorsOrigins = normalizeList(raw.Admin.CorsOrigins)
	}

	if meta.IsDefined("log", "level") {
		cfg.Log.Level = strings.TrimSpace(raw.Log.Level)
	}
	if meta.IsDefined("log", "file") {
		cfg.Log.File = strings.TrimSpace(raw.Log.File)
	}
	if meta.IsDefined("log", "max_size_mb") {
		cfg.Log.MaxSizeMB = raw.Log.MaxSizeMB
	}
	if meta.IsDefined("log", "max_backups") {
		cfg.Log.MaxBackups = raw.Log.MaxBackups
	}
	if meta.IsDefined("log", "max_age_days") {
		cfg.Log.MaxAgeDays = raw.Log.MaxAgeDays
	}
	if meta.IsDefined("log", "compress") {
		cfg.Log.Compress = raw.Log.Compress
	}

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func Validate(cfg Config) error {
	if err := validateAddr("gateway.addr", cfg.Gateway.Addr); err != nil {
		return err
	}
	if cfg.Gateway.ReadTimeout < 0 || cfg.Gateway.WriteTimeout < 0 {
		return fmt.Errorf("%w: gateway timeouts must not be negative", ErrInvalid)
	}
	if cfg.Gateway.MaxBodyBytes <= 0 || cfg.Gateway.MaxBodyBytes > 0xffff {
		return fmt.Errorf("%w: gateway.max_body_bytes must be in 1..65535, got %d", ErrInvalid, cfg.Gateway.MaxBodyBytes)
	}
	if cfg.Admin.Enabled {
		if err := validateAddr("admin.addr", cfg.Admin.Addr); err != nil {
			return err
		}
		if cfg.Admin.Addr == cfg.Gateway.Addr {
			return fmt.Errorf("%w: admin.addr and gateway.addr collide (%s)", ErrInvalid, cfg.Admin.Addr)
		}
	}
	switch strings.ToLower(cfg.Log.Level) {
	case "", "trace", "debug", "info", "warn", "warning", "error", "off", "disabled":
	default:
		return fmt.Errorf("%w: unknown log.level %q", ErrInvalid, cfg.Log.Level)
	}
	if cfg.Log.MaxSizeMB < 0 || cfg.Log.MaxBackups < 0 || cfg.Log.MaxAgeDays < 0 {
		return fmt.Errorf("%w: log rotation limits must not be negative", ErrInvalid)
	}
	return nil
}

func validateAddr(key, addr string) error {
	if addr == "" {
		return fmt.Errorf("%w: %s is required", ErrInvalid, key)
	}
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return fmt.Errorf("%w: %s %q: %v", ErrInvalid, key, addr, err)
	}
	return nil
}

func normalizeList(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
