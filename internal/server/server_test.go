package server

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/danmuck/gbtlink/internal/gateway"
	"github.com/danmuck/gbtlink/internal/protocol"
	"github.com/danmuck/gbtlink/internal/protocol/wire"
	"github.com/danmuck/gbtlink/internal/testutil/testlog"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func newAdmin(t *testing.T) (*Admin, *gateway.Sessions) {
	t.Helper()
	testlog.Start(t)
	gin.SetMode(gin.TestMode)
	sessions := gateway.NewSessions()
	return Appear("gbtlink-test", "127.0.0.1:0", nil, nil, sessions), sessions
}

func heartbeatHex(t *testing.T) string {
	t.Helper()
	p, err := protocol.Build(protocol.Header{
		Response:   protocol.ResponseCommand,
		VIN:        wire.MustFixedString[protocol.VINWidth]("LZYTBGBW6J1014194"),
		Encryption: protocol.EncryptionNone,
	}, protocol.Heartbeat{})
	require.NoError(t, err)
	s, err := protocol.EncodeHex(p)
	require.NoError(t, err)
	return s
}

func do(t *testing.T, h http.Handler, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	out := map[string]any{}
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w, out
}

func TestHealthAndSessions(t *testing.T) {
	a, sessions := newAdmin(t)
	_, err := sessions.Login("LZYTBGBW6J1014194", "conn-1", "10.0.0.9:4000", 1)
	require.NoError(t, err)

	w, out := do(t, a.Handler(), http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "ok", out["status"])
	require.Equal(t, float64(1), out["sessions"])

	w, out = do(t, a.Handler(), http.MethodGet, "/sessions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := out["sessions"].([]any)
	require.Len(t, list, 1)
	require.Equal(t, "conn-1", list[0].(map[string]any)["conn_id"])

	w, _ = do(t, a.Handler(), http.MethodGet, "/sessions/LZYTBGBW6J1014194", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = do(t, a.Handler(), http.MethodGet, "/sessions/UNKNOWN", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	a, _ := newAdmin(t)
	do(t, a.Handler(), http.MethodPost, "/v1/decode", gin.H{"hex": "2323"})

	w, _ := do(t, a.Handler(), http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "gbtlink_codec_decode_errors_total")
}

func TestDecodeEndpoint(t *testing.T) {
	a, _ := newAdmin(t)

	w, out := do(t, a.Handler(), http.MethodPost, "/v1/decode", gin.H{"hex": heartbeatHex(t)})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "heartbeat", out["command"])
	require.Equal(t, "LZYTBGBW6J1014194", out["vin"])

	raw, err := protocol.ParseHex(heartbeatHex(t))
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0xff
	w, out = do(t, a.Handler(), http.MethodPost, "/v1/decode", gin.H{"hex": hex.EncodeToString(raw)})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	require.Equal(t, "checksum_mismatch", out["kind"])

	w, _ = do(t, a.Handler(), http.MethodPost, "/v1/decode", gin.H{"hex": "not hex"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, a.Handler(), http.MethodPost, "/v1/decode", gin.H{})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRespondEndpoint(t *testing.T) {
	a, _ := newAdmin(t)

	w, out := do(t, a.Handler(), http.MethodPost, "/v1/respond", gin.H{"hex": heartbeatHex(t), "response": "success"})
	require.Equal(t, http.StatusOK, w.Code)
	p, err := protocol.DecodeHex(out["hex"].(string))
	require.NoError(t, err)
	require.Equal(t, protocol.ResponseSuccess, p.Header.Response)

	w, _ = do(t, a.Handler(), http.MethodPost, "/v1/respond", gin.H{"hex": heartbeatHex(t), "response": "later"})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCommandsAndRequestID(t *testing.T) {
	a, _ := newAdmin(t)
	w, out := do(t, a.Handler(), http.MethodGet, "/v1/commands", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, out["commands"].([]any), 8)
	require.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestNormalizeOrigins(t *testing.T) {
	require.Equal(t, []string{"http://localhost:3000"}, normalizeOrigins(nil))
	require.Equal(t, []string{"https://a"}, normalizeOrigins([]string{" https://a ", ""}))
}

func TestRunStopsOnCancel(t *testing.T) {
	a, _ := newAdmin(t)
	ctx, cancel := testContext(t)
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("admin server did not stop")
	}
}

func testContext(t *testing.T) (context.Context, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx, cancel
}
