package gateway

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/danmuck/gbtlink/internal/auth"
	"github.com/danmuck/gbtlink/internal/observability"
	"github.com/danmuck/gbtlink/internal/protocol"
	"github.com/danmuck/gbtlink/internal/protocol/frame"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Limits       frame.Limits

	// Platform checks platform logins. Nil accepts any credentials.
	Platform auth.Validator
}

func DefaultConfig() Config {
	return Config{
		Addr:         ":32960",
		ReadTimeout:  3 * time.Minute,
		WriteTimeout: 10 * time.Second,
		Limits:       frame.DefaultLimits(),
	}
}

// Server accepts terminal connections and answers their frames.
type Server struct {
	cfg      Config
	reg      *protocol.Registry
	sessions *Sessions
	logger   zerolog.Logger

	connsMu sync.Mutex
	conns   map[net.Conn]struct{}
	addr    net.Addr
}

// New builds a Server. A nil registry uses protocol.DefaultRegistry and nil
// sessions starts an empty table.
func New(cfg Config, reg *protocol.Registry, sessions *Sessions, logger zerolog.Logger) *Server {
	if strings.TrimSpace(cfg.Addr) == "" {
		cfg.Addr = DefaultConfig().Addr
	}
	if cfg.Limits.MaxBodyBytes <= 0 {
		cfg.Limits = frame.DefaultLimits()
	}
	if cfg.Platform == nil {
		cfg.Platform = auth.AllowAll{}
	}
	if reg == nil {
		reg = protocol.DefaultRegistry()
	}
	if sessions == nil {
		sessions = NewSessions()
	}
	return &Server{
		cfg:      cfg,
		reg:      reg,
		sessions: sessions,
		logger:   logger.With().Str("component", "gateway").Logger(),
		conns:    make(map[net.Conn]struct{}),
	}
}

func (s *Server) Sessions() *Sessions { return s.sessions }

// Addr is the bound listener address once Serve has started.
func (s *Server) Addr() net.Addr {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	return s.addr
}

func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve runs the accept loop on ln until ctx is cancelled. Cancelling closes
// the listener and every open connection.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	defer ln.Close()
	s.connsMu.Lock()
	s.addr = ln.Addr()
	s.connsMu.Unlock()
	s.logger.Info().Str("addr", ln.Addr().String()).Msg("gateway listening")

	stop := context.AfterFunc(ctx, func() {
		s.closeAllConns()
		_ = ln.Close()
	})
	defer stop()

	var wg sync.WaitGroup
	defer wg.Wait()
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.closeAllConns()
			return err
		}
		s.trackConn(conn)
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer s.untrackConn(conn)
			s.ServeConn(ctx, conn)
		}()
	}
}

// ServeConn reads frames from conn until it closes, a frame fails to decode or
// ctx is cancelled. There is no resynchronisation after a bad frame: the
// connection is dropped along with every session it held.
func (s *Server) ServeConn(ctx context.Context, conn net.Conn) {
	c := &connState{
		id:     uuid.NewString(),
		remote: remoteOf(conn),
		conn:   conn,
	}
	logger := s.logger.With().Str("conn_id", c.id).Str("remote", c.remote).Logger()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	observability.ConnectionOpened()
	logger.Info().Msg("terminal connected")
	defer func() {
		_ = conn.Close()
		observability.ConnectionClosed()
		dropped := s.sessions.DropConn(c.id)
		logger.Info().Strs("dropped_vins", dropped).Msg("terminal disconnected")
	}()

	reader := bufio.NewReader(conn)
	for {
		if s.cfg.ReadTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
		}
		raw, err := frame.ReadFrame(reader, s.cfg.Limits)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
				return
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				logger.Warn().Dur("read_timeout", s.cfg.ReadTimeout).Msg("terminal idle, closing")
				return
			}
			kind := protocol.Kind(err)
			observability.RecordDecodeError("gateway", kind)
			logger.Warn().Err(err).Str("kind", kind).Msg("frame read failed")
			return
		}

		pkt, err := s.reg.Decode(raw)
		if err != nil {
			kind := protocol.Kind(err)
			observability.RecordDecodeError("gateway", kind)
			logger.Warn().Err(err).Str("kind", kind).Hex("frame", raw).Msg("frame decode failed")
			return
		}

		reply, result := s.handle(c, pkt)
		observability.RecordFrame(pkt.Header.Command.String(), result, len(raw))
		logger.Debug().
			Str("command", pkt.Header.Command.String()).
			Str("vin", pkt.Header.VIN.String()).
			Str("result", result).
			Msg("frame")

		if reply == nil {
			continue
		}
		if s.cfg.WriteTimeout > 0 {
			_ = conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
		}
		if err := protocol.WritePacket(conn, *reply); err != nil {
			logger.Warn().Err(err).Msg("write reply failed")
			return
		}
	}
}

type connState struct {
	id       string
	remote   string
	conn     net.Conn
	platform bool
}

func remoteOf(conn net.Conn) string {
	if addr := conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}

func (s *Server) trackConn(conn net.Conn) {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	s.conns[conn] = struct{}{}
}

func (s *Server) untrackConn(conn net.Conn) {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	delete(s.conns, conn)
}

func (s *Server) closeAllConns() {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	for conn := range s.conns {
		_ = conn.Close()
		delete(s.conns, conn)
	}
}
