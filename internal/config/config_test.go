package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gbtlink.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestTemplateLoadsAsDefaults(t *testing.T) {
	cfg, err := Load(writeFile(t, Template()))
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoadOverridesOnlyDefinedKeys(t *testing.T) {
	cfg, err := Load(writeFile(t, `
[gateway]
read_timeout = "30s"

[admin]
enabled = false
cors_origins = [" https://a.example ", "", "https://a.example"]

[log]
level = "debug"
`))
	require.NoError(t, err)
	require.Equal(t, ":32960", cfg.Gateway.Addr)
	require.Equal(t, 30*time.Second, cfg.Gateway.ReadTimeout)
	require.False(t, cfg.Admin.Enabled)
	require.Equal(t, []string{"https://a.example"}, cfg.Admin.CorsOrigins)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, 64, cfg.Log.MaxSizeMB)
}

func TestLoadRejects(t *testing.T) {
	cases := map[string]string{
		"duration":    "[gateway]\nread_timeout = \"soon\"\n",
		"unknown key": "[gateway]\nport = 1\n",
		"body limit":  "[gateway]\nmax_body_bytes = 70000\n",
		"addr":        "[gateway]\naddr = \"nope\"\n",
		"collision":   "[gateway]\naddr = \":9090\"\n",
		"level":       "[log]\nlevel = \"loud\"\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeFile(t, body))
			require.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}

func TestValidateErrInvalid(t *testing.T) {
	cfg := Default()
	cfg.Gateway.MaxBodyBytes = 0
	require.ErrorIs(t, Validate(cfg), ErrInvalid)

	cfg = Default()
	cfg.Admin.Enabled = false
	cfg.Admin.Addr = ""
	require.NoError(t, Validate(cfg))
}

func TestWriteTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gbtlink.toml")
	require.NoError(t, WriteTemplate(path, false))
	require.Error(t, WriteTemplate(path, false))
	require.NoError(t, WriteTemplate(path, true))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, Template(), string(data))
}
