package protocol

// Body is the command dependent part of a frame. Variants are plain structs
// traversed by the wire codec and are stored in a Packet by value.
type Body interface {
	Command() Command
}

// VehicleLogin is sent by a terminal when it comes online.
type VehicleLogin struct {
	At               Timestamp
	Seq              uint16
	ICCID            ICCID
	SubsystemCount   uint8
	SubsystemCodeLen uint8
	SubsystemCodes   []byte `wire:"size=SubsystemCount*SubsystemCodeLen"`
}

func (VehicleLogin) Command() Command { return CommandVehicleLogin }

// Subsystems splits SubsystemCodes into SubsystemCount codes of
// SubsystemCodeLen bytes each.
func (l VehicleLogin) Subsystems() [][]byte {
	n, w := int(l.SubsystemCount), int(l.SubsystemCodeLen)
	if w == 0 || len(l.SubsystemCodes) != n*w {
		return nil
	}
	out := make([][]byte, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, l.SubsystemCodes[i*w:(i+1)*w])
	}
	return out
}

type VehicleLogout struct {
	At  Timestamp
	Seq uint16
}

func (VehicleLogout) Command() Command { return CommandVehicleLogout }

// PlatformLogin authenticates a forwarding platform.
type PlatformLogin struct {
	At         Timestamp
	Seq        uint16
	Username   Username
	Password   Password
	Encryption Encryption
}

func (PlatformLogin) Command() Command { return CommandPlatformLogin }

type PlatformLogout struct {
	At  Timestamp
	Seq uint16
}

func (PlatformLogout) Command() Command { return CommandPlatformLogout }

// RealtimeReport carries the collection time and the undecoded information
// units that follow it.
type RealtimeReport struct {
	At   Timestamp
	Data []byte `wire:"rest"`
}

func (RealtimeReport) Command() Command { return CommandRealtimeReport }

// ReissueReport has the realtime layout and carries data buffered while the
// link was down.
type ReissueReport struct {
	At   Timestamp
	Data []byte `wire:"rest"`
}

func (ReissueReport) Command() Command { return CommandReissueReport }

type Heartbeat struct{}

func (Heartbeat) Command() Command { return CommandHeartbeat }

// TimeSync is the terminal's request for platform time.
type TimeSync struct{}

func (TimeSync) Command() Command { return CommandTime }
