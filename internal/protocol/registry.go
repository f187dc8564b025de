package protocol

import (
	"fmt"
	"sync"

	"github.com/danmuck/gbtlink/internal/protocol/wire"
)

// BodyDecoder reads one body variant from a cursor bounded to the declared
// body length.
type BodyDecoder func(d *wire.Decoder) (Body, error)

// DecodeAs returns a BodyDecoder for the struct variant T.
func DecodeAs[T Body]() BodyDecoder {
	return func(d *wire.Decoder) (Body, error) {
		var b T
		if err := d.Decode(&b); err != nil {
			return nil, err
		}
		return b, nil
	}
}

// UnknownCommandError reports a command with no registered body schema.
type UnknownCommandError struct {
	Command Command
}

func (e UnknownCommandError) Error() string {
	return fmt.Sprintf("protocol: unknown command 0x%02x", uint8(e.Command))
}

func (e UnknownCommandError) Unwrap() error { return ErrUnknownCommand }

// Registry maps a header command to the decoder for its body schema.
type Registry struct {
	mu     sync.RWMutex
	bodies map[Command]BodyDecoder
}

func NewRegistry() *Registry {
	return &Registry{bodies: make(map[Command]BodyDecoder)}
}

// DefaultRegistry returns a registry holding every built in body variant.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(CommandVehicleLogin, DecodeAs[VehicleLogin]())
	r.Register(CommandRealtimeReport, DecodeAs[RealtimeReport]())
	r.Register(CommandReissueReport, DecodeAs[ReissueReport]())
	r.Register(CommandVehicleLogout, DecodeAs[VehicleLogout]())
	r.Register(CommandPlatformLogin, DecodeAs[PlatformLogin]())
	r.Register(CommandPlatformLogout, DecodeAs[PlatformLogout]())
	r.Register(CommandHeartbeat, DecodeAs[Heartbeat]())
	r.Register(CommandTime, DecodeAs[TimeSync]())
	return r
}

// Register installs or replaces the body decoder for cmd.
func (r *Registry) Register(cmd Command, dec BodyDecoder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bodies[cmd] = dec
}

func (r *Registry) lookup(cmd Command) (BodyDecoder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	dec, ok := r.bodies[cmd]
	if !ok || dec == nil {
		return nil, UnknownCommandError{Command: cmd}
	}
	return dec, nil
}

// Commands lists the registered commands in ascending order.
func (r *Registry) Commands() []Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Command, 0, len(r.bodies))
	for c := Command(0); ; c++ {
		if _, ok := r.bodies[c]; ok {
			out = append(out, c)
		}
		if c == 0xff {
			break
		}
	}
	return out
}

var defaultRegistry = DefaultRegistry()
