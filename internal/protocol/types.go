package protocol

import (
	"fmt"
	"strings"
	"time"

	"github.com/danmuck/gbtlink/internal/protocol/wire"
)

const (
	// Begin is the "##" synchronisation marker.
	Begin uint16 = 0x2323
	// HeaderSize is begin(2) + command(1) + response(1) + vin(17) + encryption(1) + body length(2).
	HeaderSize = 24
	// ChecksumSize is the trailing BCC byte.
	ChecksumSize = 1
	// MaxBodyLen is the largest body the 2 byte length field can declare.
	MaxBodyLen = 0xffff
)

// Command identifies the body schema of a frame. It is not a
// wire.Discriminant; the Registry decides which commands are understood and
// reports the rest as ErrUnknownCommand.
type Command uint8

const (
	CommandVehicleLogin   Command = 0x01
	CommandRealtimeReport Command = 0x02
	CommandReissueReport  Command = 0x03
	CommandVehicleLogout  Command = 0x04
	CommandPlatformLogin  Command = 0x05
	CommandPlatformLogout Command = 0x06
	CommandHeartbeat      Command = 0x07
	CommandTime           Command = 0x08
)

var commandNames = map[Command]string{
	CommandVehicleLogin:   "vehicle_login",
	CommandRealtimeReport: "realtime_report",
	CommandReissueReport:  "reissue_report",
	CommandVehicleLogout:  "vehicle_logout",
	CommandPlatformLogin:  "platform_login",
	CommandPlatformLogout: "platform_logout",
	CommandHeartbeat:      "heartbeat",
	CommandTime:           "time",
}

func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return fmt.Sprintf("command(0x%02x)", uint8(c))
}

// Response is the ack code carried in every header.
type Response uint8

const (
	ResponseSuccess      Response = 0x00
	ResponseFail         Response = 0x01
	ResponseDuplicateVIN Response = 0x02
	ResponseCommand      Response = 0xFE
)

var responseNames = map[Response]string{
	ResponseSuccess:      "success",
	ResponseFail:         "fail",
	ResponseDuplicateVIN: "duplicate_vin",
	ResponseCommand:      "command",
}

func (r Response) KnownTag() bool {
	_, ok := responseNames[r]
	return ok
}

func (r Response) String() string {
	if name, ok := responseNames[r]; ok {
		return name
	}
	return fmt.Sprintf("response(0x%02x)", uint8(r))
}

// ParseResponse maps a response name such as "success" or "duplicate_vin" to
// its code.
func ParseResponse(name string) (Response, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for code, n := range responseNames {
		if n == name {
			return code, true
		}
	}
	return 0, false
}

// Encryption is the body encryption mode. The codec carries it but never
// decrypts.
type Encryption uint8

const (
	EncryptionNone   Encryption = 0x01
	EncryptionRSA    Encryption = 0x02
	EncryptionAES128 Encryption = 0x03
)

var encryptionNames = map[Encryption]string{
	EncryptionNone:   "none",
	EncryptionRSA:    "rsa",
	EncryptionAES128: "aes128",
}

func (e Encryption) KnownTag() bool {
	_, ok := encryptionNames[e]
	return ok
}

func (e Encryption) String() string {
	if name, ok := encryptionNames[e]; ok {
		return name
	}
	return fmt.Sprintf("encryption(0x%02x)", uint8(e))
}

// Field widths of the fixed text slots.
type (
	VINWidth      struct{}
	ICCIDWidth    struct{}
	UsernameWidth struct{}
	PasswordWidth struct{}
)

func (VINWidth) Width() int      { return 17 }
func (ICCIDWidth) Width() int    { return 20 }
func (UsernameWidth) Width() int { return 12 }
func (PasswordWidth) Width() int { return 20 }

type (
	VIN      = wire.FixedString[VINWidth]
	ICCID    = wire.FixedString[ICCIDWidth]
	Username = wire.FixedString[UsernameWidth]
	Password = wire.FixedString[PasswordWidth]
)

// Timestamp is six raw bytes. Values are neither BCD decoded nor range checked.
type Timestamp struct {
	Year   uint8 // years since 2000
	Month  uint8
	Day    uint8
	Hour   uint8
	Minute uint8
	Second uint8
}

// TimestampOf converts t to the wire form. Years outside 2000..2255 wrap.
func TimestampOf(t time.Time) Timestamp {
	return Timestamp{
		Year:   uint8(t.Year() - 2000),
		Month:  uint8(t.Month()),
		Day:    uint8(t.Day()),
		Hour:   uint8(t.Hour()),
		Minute: uint8(t.Minute()),
		Second: uint8(t.Second()),
	}
}

// Time interprets the raw fields in loc. Out of range fields normalise the way
// time.Date does.
func (ts Timestamp) Time(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(2000+int(ts.Year), time.Month(ts.Month), int(ts.Day),
		int(ts.Hour), int(ts.Minute), int(ts.Second), 0, loc)
}

func (ts Timestamp) String() string {
	return fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d", 2000+int(ts.Year), ts.Month, ts.Day, ts.Hour, ts.Minute, ts.Second)
}

// Header is the fixed 24 byte frame prefix.
type Header struct {
	Begin      uint16
	Command    Command
	Response   Response
	VIN        VIN
	Encryption Encryption
	BodyLen    uint16
}

// Packet is one complete frame.
type Packet struct {
	Header   Header
	Body     Body
	Checksum uint8
}
