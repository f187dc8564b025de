package gateway

import (
	"github.com/danmuck/gbtlink/internal/protocol"
)

const (
	resultOK        = "ok"
	resultNoSession = "no_session"
	resultIgnored   = "ignored"
)

// handle applies pkt to the session table and returns the reply to send, if
// any, with a result label for metrics. Frames that are themselves replies
// are only counted.
func (s *Server) handle(c *connState, pkt protocol.Packet) (*protocol.Packet, string) {
	if pkt.Header.Response != protocol.ResponseCommand {
		return nil, resultIgnored
	}
	vin := pkt.Header.VIN.String()

	switch body := pkt.Body.(type) {
	case protocol.VehicleLogin:
		code := protocol.ResponseSuccess
		if _, err := s.sessions.Login(vin, c.id, c.remote, body.Seq); err != nil {
			code = protocol.ResponseDuplicateVIN
			s.logger.Warn().Err(err).Str("vin", vin).Str("conn_id", c.id).Msg("duplicate login")
		} else {
			s.logger.Info().Str("vin", vin).Str("conn_id", c.id).
				Str("iccid", body.ICCID.String()).Int("subsystems", len(body.Subsystems())).
				Msg("vehicle login")
		}
		return s.reply(pkt, code)

	case protocol.VehicleLogout:
		code := protocol.ResponseSuccess
		if err := s.sessions.Logout(vin, c.id); err != nil {
			code = protocol.ResponseFail
		} else {
			s.logger.Info().Str("vin", vin).Str("conn_id", c.id).Msg("vehicle logout")
		}
		return s.reply(pkt, code)

	case protocol.PlatformLogin:
		code := protocol.ResponseFail
		c.platform = s.platformAllowed(body)
		if c.platform {
			code = protocol.ResponseSuccess
		}
		s.logger.Info().Str("username", body.Username.String()).Bool("accepted", c.platform).Msg("platform login")
		return s.reply(pkt, code)

	case protocol.PlatformLogout:
		code := protocol.ResponseSuccess
		if !c.platform {
			code = protocol.ResponseFail
		}
		c.platform = false
		return s.reply(pkt, code)

	case protocol.Heartbeat, protocol.TimeSync:
		s.sessions.Touch(vin, c.id)
		return s.reply(pkt, protocol.ResponseSuccess)

	case protocol.RealtimeReport, protocol.ReissueReport:
		if !s.sessions.Touch(vin, c.id) && !c.platform {
			return nil, resultNoSession
		}
		return nil, resultOK

	default:
		return nil, resultIgnored
	}
}

func (s *Server) reply(req protocol.Packet, code protocol.Response) (*protocol.Packet, string) {
	out, err := protocol.Respond(req, code)
	if err != nil {
		s.logger.Error().Err(err).Str("command", req.Header.Command.String()).Msg("build reply failed")
		return nil, "reply_error"
	}
	return &out, code.String()
}

func (s *Server) platformAllowed(body protocol.PlatformLogin) bool {
	return s.cfg.Platform.Validate(body.Username.String(), body.Password.String()) == nil
}
