package terminal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/danmuck/gbtlink/internal/protocol"
	"github.com/danmuck/gbtlink/internal/protocol/frame"
	"github.com/danmuck/gbtlink/internal/protocol/wire"
	"github.com/rs/zerolog"
)

var (
	ErrAddressRequired = errors.New("terminal: gateway address is required")
	ErrVINRequired     = errors.New("terminal: vin is required")
	ErrRejected        = errors.New("terminal: request rejected")
	ErrUnexpectedReply = errors.New("terminal: unexpected reply")
)

// RejectedError carries the response code of a refused request.
type RejectedError struct {
	Command protocol.Command
	Code    protocol.Response
}

func (e RejectedError) Error() string {
	return fmt.Sprintf("terminal: %s rejected with %s", e.Command, e.Code)
}

func (e RejectedError) Unwrap() error { return ErrRejected }

type Config struct {
	Address            string
	VIN                string
	ICCID              string
	ConnectTimeout     time.Duration
	ReplyTimeout       time.Duration
	HeartbeatInterval  time.Duration
	ReportInterval     time.Duration
	MaxConnectAttempts int
	Backoff            BackoffConfig
}

func DefaultConfig() Config {
	return Config{
		Address:           "127.0.0.1:32960",
		ConnectTimeout:    5 * time.Second,
		ReplyTimeout:      10 * time.Second,
		HeartbeatInterval: 30 * time.Second,
		ReportInterval:    10 * time.Second,
		Backoff: BackoffConfig{
			InitialDelay: 250 * time.Millisecond,
			Multiplier:   2.0,
			MaxDelay:     5 * time.Second,
			Jitter:       true,
		},
	}
}

// Client plays the vehicle side of the link: it logs in, keeps the session
// alive and pushes realtime reports.
type Client struct {
	cfg    Config
	vin    protocol.VIN
	iccid  protocol.ICCID
	reg    *protocol.Registry
	logger zerolog.Logger

	mu  sync.Mutex
	rng *rand.Rand
	seq uint16
	now func() time.Time
}

func NewClient(cfg Config, logger zerolog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.Address) == "" {
		return nil, ErrAddressRequired
	}
	if strings.TrimSpace(cfg.VIN) == "" {
		return nil, ErrVINRequired
	}
	vin, err := wire.NewFixedString[protocol.VINWidth](cfg.VIN)
	if err != nil {
		return nil, fmt.Errorf("terminal: vin: %w", err)
	}
	iccid, err := wire.NewFixedString[protocol.ICCIDWidth](cfg.ICCID)
	if err != nil {
		return nil, fmt.Errorf("terminal: iccid: %w", err)
	}
	def := DefaultConfig()
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = def.ConnectTimeout
	}
	if cfg.ReplyTimeout <= 0 {
		cfg.ReplyTimeout = def.ReplyTimeout
	}
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = def.HeartbeatInterval
	}
	return &Client{
		cfg:    cfg,
		vin:    vin,
		iccid:  iccid,
		reg:    protocol.DefaultRegistry(),
		logger: logger.With().Str("component", "terminal").Str("vin", cfg.VIN).Logger(),
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		now:    time.Now,
	}, nil
}

// Connect dials the gateway and logs the vehicle in, retrying with backoff
// until MaxConnectAttempts is reached. A rejected login is not retried.
func (c *Client) Connect(ctx context.Context) (*Link, error) {
	var attempt int
	for {
		attempt++
		link, err := c.connectOnce(ctx)
		if err == nil {
			return link, nil
		}
		c.logger.Warn().Err(err).Int("attempt", attempt).Str("addr", c.cfg.Address).Msg("connect failed")
		if errors.Is(err, ErrRejected) || !c.shouldRetry(attempt) {
			return nil, err
		}
		if err := c.sleepBackoff(ctx, attempt); err != nil {
			return nil, err
		}
	}
}

func (c *Client) connectOnce(ctx context.Context) (*Link, error) {
	dialer := net.Dialer{Timeout: c.cfg.ConnectTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", c.cfg.Address)
	if err != nil {
		return nil, err
	}
	link := &Link{c: c, conn: conn, reader: bufio.NewReader(conn)}
	if _, err := link.Request(protocol.VehicleLogin{
		At:    protocol.TimestampOf(c.now()),
		Seq:   c.nextSeq(),
		ICCID: c.iccid,
	}); err != nil {
		_ = conn.Close()
		return nil, err
	}
	c.logger.Info().Str("addr", c.cfg.Address).Msg("logged in")
	return link, nil
}

// Run keeps a logged in link until ctx is cancelled, reconnecting when the
// link drops. report, when non-nil, supplies the payload of each realtime
// report.
func (c *Client) Run(ctx context.Context, report func(time.Time) []byte) error {
	for {
		link, err := c.Connect(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		err = link.loop(ctx, report)
		if ctx.Err() != nil {
			if lerr := link.Logout(); lerr != nil {
				c.logger.Debug().Err(lerr).Msg("logout on shutdown")
			}
			_ = link.Close()
			return nil
		}
		_ = link.Close()
		c.logger.Warn().Err(err).Msg("link dropped, reconnecting")
	}
}

func (c *Client) shouldRetry(attempt int) bool {
	if c.cfg.MaxConnectAttempts <= 0 {
		return true
	}
	return attempt < c.cfg.MaxConnectAttempts
}

func (c *Client) sleepBackoff(ctx context.Context, attempt int) error {
	c.mu.Lock()
	delay := NextBackoffDelay(c.cfg.Backoff, attempt, c.rng)
	c.mu.Unlock()
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// nextSeq returns the login/logout serial; it wraps at 65531 as terminals do.
func (c *Client) nextSeq() uint16 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	if c.seq > 65531 {
		c.seq = 1
	}
	return c.seq
}

func (c *Client) header() protocol.Header {
	return protocol.Header{
		Response:   protocol.ResponseCommand,
		VIN:        c.vin,
		Encryption: protocol.EncryptionNone,
	}
}

// Link is one logged in connection to the gateway. It is not safe for
// concurrent use.
type Link struct {
	c      *Client
	conn   net.Conn
	reader *bufio.Reader
}

// Send writes body without waiting for a reply.
func (l *Link) Send(body protocol.Body) error {
	p, err := protocol.Build(l.c.header(), body)
	if err != nil {
		return err
	}
	_ = l.conn.SetWriteDeadline(time.Now().Add(l.c.cfg.ReplyTimeout))
	return protocol.WritePacket(l.conn, p)
}

// Request sends body and waits for the platform reply to the same command.
// A reply other than success is returned as a RejectedError.
func (l *Link) Request(body protocol.Body) (protocol.Packet, error) {
	if err := l.Send(body); err != nil {
		return protocol.Packet{}, err
	}
	_ = l.conn.SetReadDeadline(time.Now().Add(l.c.cfg.ReplyTimeout))
	reply, err := l.c.reg.ReadPacket(l.reader, frame.DefaultLimits())
	if err != nil {
		return protocol.Packet{}, err
	}
	if reply.Header.Command != body.Command() {
		return reply, fmt.Errorf("%w: sent %s, got %s", ErrUnexpectedReply, body.Command(), reply.Header.Command)
	}
	if reply.Header.Response != protocol.ResponseSuccess {
		return reply, RejectedError{Command: body.Command(), Code: reply.Header.Response}
	}
	return reply, nil
}

func (l *Link) Heartbeat() error {
	_, err := l.Request(protocol.Heartbeat{})
	return err
}

func (l *Link) Report(data []byte) error {
	return l.Send(protocol.RealtimeReport{At: protocol.TimestampOf(l.c.now()), Data: data})
}

func (l *Link) Logout() error {
	_, err := l.Request(protocol.VehicleLogout{At: protocol.TimestampOf(l.c.now()), Seq: l.c.nextSeq()})
	return err
}

func (l *Link) Close() error {
	return l.conn.Close()
}

func (l *Link) loop(ctx context.Context, report func(time.Time) []byte) error {
	heartbeat := time.NewTicker(l.c.cfg.HeartbeatInterval)
	defer heartbeat.Stop()

	var reports <-chan time.Time
	if report != nil && l.c.cfg.ReportInterval > 0 {
		t := time.NewTicker(l.c.cfg.ReportInterval)
		defer t.Stop()
		reports = t.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-heartbeat.C:
			if err := l.Heartbeat(); err != nil {
				return err
			}
		case at := <-reports:
			if err := l.Report(report(at)); err != nil {
				return err
			}
		}
	}
}
