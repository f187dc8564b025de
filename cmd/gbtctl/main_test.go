package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danmuck/gbtlink/internal/protocol"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestBuildDecodeRespond(t *testing.T) {
	frame, err := run(t, "", "build", "vehicle_login",
		"--vin", "LZYTBGBW6J1014194",
		"--iccid", "89860402101700179779",
		"--seq", "253",
		"--at", "2018-10-30T20:35:54Z")
	require.NoError(t, err)
	frame = strings.TrimSpace(frame)

	p, err := protocol.DecodeHex(frame)
	require.NoError(t, err)
	require.Equal(t, uint16(253), p.Body.(protocol.VehicleLogin).Seq)

	out, err := run(t, frame, "decode")
	require.NoError(t, err)
	var view map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	require.Equal(t, "vehicle_login", view["command"])
	require.Equal(t, "2018-10-30 20:35:54", view["body"].(map[string]any)["at"])

	out, err = run(t, "", "respond", frame, "--code", "duplicate_vin")
	require.NoError(t, err)
	reply, err := protocol.DecodeHex(out)
	require.NoError(t, err)
	require.Equal(t, protocol.ResponseDuplicateVIN, reply.Header.Response)
}

func TestDecodeReportsErrorKind(t *testing.T) {
	_, err := run(t, "", "decode", "232301")
	require.Error(t, err)
	require.Contains(t, err.Error(), "unexpected_eof")
}

func TestBuildRejectsBadInput(t *testing.T) {
	_, err := run(t, "", "build", "teleport", "--vin", "X")
	require.Error(t, err)

	_, err = run(t, "", "build", "heartbeat", "--vin", strings.Repeat("V", 18))
	require.Error(t, err)

	_, err = run(t, "", "respond", "00", "--code", "perhaps")
	require.Error(t, err)
}

func TestConfigInitAndValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gbtlink.toml")
	_, err := run(t, "", "config", "init", path)
	require.NoError(t, err)
	_, err = run(t, "", "config", "init", path)
	require.Error(t, err)

	out, err := run(t, "", "--config", path, "config", "validate")
	require.NoError(t, err)
	require.Contains(t, out, `":32960"`)
}
