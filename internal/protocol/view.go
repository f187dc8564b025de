package protocol

import (
	"encoding/hex"
	"fmt"
)

// PacketView is the JSON rendering of a Packet used by the admin API and the
// CLI.
type PacketView struct {
	Command    string `json:"command"`
	Response   string `json:"response"`
	VIN        string `json:"vin"`
	Encryption string `json:"encryption"`
	BodyLen    uint16 `json:"body_len"`
	Checksum   string `json:"checksum"`
	Body       any    `json:"body"`
}

func ViewOf(p Packet) PacketView {
	v := PacketView{
		Command:    p.Header.Command.String(),
		Response:   p.Header.Response.String(),
		VIN:        p.Header.VIN.String(),
		Encryption: p.Header.Encryption.String(),
		BodyLen:    p.Header.BodyLen,
		Checksum:   fmt.Sprintf("0x%02x", p.Checksum),
	}
	switch b := p.Body.(type) {
	case VehicleLogin:
		codes := make([]string, 0, b.SubsystemCount)
		for _, c := range b.Subsystems() {
			codes = append(codes, hex.EncodeToString(c))
		}
		v.Body = map[string]any{
			"at":         b.At.String(),
			"seq":        b.Seq,
			"iccid":      b.ICCID.String(),
			"subsystems": codes,
		}
	case VehicleLogout:
		v.Body = map[string]any{"at": b.At.String(), "seq": b.Seq}
	case PlatformLogin:
		v.Body = map[string]any{
			"at":         b.At.String(),
			"seq":        b.Seq,
			"username":   b.Username.String(),
			"encryption": b.Encryption.String(),
		}
	case PlatformLogout:
		v.Body = map[string]any{"at": b.At.String(), "seq": b.Seq}
	case RealtimeReport:
		v.Body = map[string]any{"at": b.At.String(), "data": hex.EncodeToString(b.Data)}
	case ReissueReport:
		v.Body = map[string]any{"at": b.At.String(), "data": hex.EncodeToString(b.Data)}
	case Heartbeat, TimeSync:
		v.Body = map[string]any{}
	default:
		v.Body = p.Body
	}
	return v
}
