package dlt

import (
	"encoding/binary"
	"time"
)

// Marker starts every message of a storaged capture.
const Marker = "DLT\x01"

// Wire sizes in bytes.
const (
	MarkerSize         = len(Marker)
	StorageHeaderSize  = 12
	StandardHeaderSize = 4 // mandatory part only
	ExtendedHeaderSize = 10

	ecuIDSize     = 4
	sessionIDSize = 4
	timestampSize = 4
	typeInfoSize  = 4
	lengthSize    = 2
)

// DefaultBlockSize is the read size used by the scanner.
const DefaultBlockSize = 32000

// StorageHeader precedes each message in a storaged capture.
// Its integers are little-endian.
type StorageHeader struct {
	Seconds      int32
	Microseconds uint32
	EcuID        string
}

// Time returns the storage timestamp in UTC.
func (h StorageHeader) Time() time.Time {
	return time.Unix(int64(h.Seconds), int64(h.Microseconds)*int64(time.Microsecond)).UTC()
}

// HeaderType is the first byte of the standard header.
type HeaderType uint8

const (
	htypeUEH  HeaderType = 1 << 0 // use extended header
	htypeMSBF HeaderType = 1 << 1 // most significant byte first
	htypeWEID HeaderType = 1 << 2 // with ecu id
	htypeWSID HeaderType = 1 << 3 // with session id
	htypeWTMS HeaderType = 1 << 4 // with timestamp
)

// UseExtendedHeader reports whether an extended header follows the standard header.
func (t HeaderType) UseExtendedHeader() bool { return t&htypeUEH != 0 }

// MostSignificantByteFirst reports whether the payload is big-endian.
func (t HeaderType) MostSignificantByteFirst() bool { return t&htypeMSBF != 0 }

// WithEcuID reports whether the standard header carries an ECU id.
func (t HeaderType) WithEcuID() bool { return t&htypeWEID != 0 }

// WithSessionID reports whether the standard header carries a session id.
func (t HeaderType) WithSessionID() bool { return t&htypeWSID != 0 }

// WithTimestamp reports whether the standard header carries a timestamp.
func (t HeaderType) WithTimestamp() bool { return t&htypeWTMS != 0 }

// Version returns the protocol version carried in bits 5-7.
func (t HeaderType) Version() uint8 { return uint8(t) >> 5 }

// ByteOrder is the byte order of the payload of a message with this header type.
func (t HeaderType) ByteOrder() binary.ByteOrder {
	if t.MostSignificantByteFirst() {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// StandardHeader is present in every message. Optional fields are only
// meaningful when the matching HeaderType flag is set.
type StandardHeader struct {
	Type      HeaderType
	Counter   uint8
	Length    uint16 // informational, framing relies on the marker
	EcuID     string
	SessionID uint32
	Timestamp int32 // 0.1 ms ticks since ECU startup
}

// Size returns the encoded size including the optional fields present.
func (h StandardHeader) Size() int {
	n := StandardHeaderSize
	if h.Type.WithEcuID() {
		n += ecuIDSize
	}
	if h.Type.WithSessionID() {
		n += sessionIDSize
	}
	if h.Type.WithTimestamp() {
		n += timestampSize
	}
	return n
}

// Uptime converts the timestamp field to a duration.
func (h StandardHeader) Uptime() time.Duration {
	return time.Duration(h.Timestamp) * 100 * time.Microsecond
}

// MessageInfo is the first byte of the extended header.
type MessageInfo uint8

// Verbose reports whether the payload is a self-describing argument list.
func (m MessageInfo) Verbose() bool { return m&0x01 != 0 }

// Type returns bits 1-3.
func (m MessageInfo) Type() MessageType { return MessageType((m >> 1) & 0x07) }

// TypeInfo returns bits 4-7; for log messages this is the log level.
func (m MessageInfo) TypeInfo() uint8 { return uint8(m) >> 4 }

// MessageType is the MSTP field of the message info.
type MessageType uint8

const (
	TypeLog MessageType = iota
	TypeAppTrace
	TypeNwTrace
	TypeControl
)

func (t MessageType) String() string {
	switch t {
	case TypeLog:
		return "log"
	case TypeAppTrace:
		return "app_trace"
	case TypeNwTrace:
		return "nw_trace"
	case TypeControl:
		return "control"
	}
	return "reserved"
}

var logLevels = [...]string{"", "fatal", "error", "warn", "info", "debug", "verbose"}

// Level names the log level of a log message, or "" for other message types.
func (m MessageInfo) Level() string {
	if m.Type() != TypeLog || int(m.TypeInfo()) >= len(logLevels) {
		return ""
	}
	return logLevels[m.TypeInfo()]
}

// ExtendedHeader follows the standard header when UseExtendedHeader is set.
type ExtendedHeader struct {
	Info          MessageInfo
	NumArgs       uint8 // always 0 for non-verbose messages
	ApplicationID string
	ContextID     string
}

// Size returns the encoded size of the extended header.
func (ExtendedHeader) Size() int { return ExtendedHeaderSize }

// Message is one decoded DLT message. It is not modified after decoding.
type Message struct {
	Index    int
	Storage  *StorageHeader
	Standard StandardHeader
	Extended *ExtendedHeader
	Args     []Argument
	// Err is set when argument decoding failed part way; Args holds what was
	// decoded before the failure.
	Err error
}

// Verbose reports whether the payload was decoded as self-describing arguments.
func (m *Message) Verbose() bool {
	return m.Extended != nil && m.Extended.Info.Verbose()
}

// EcuID prefers the storage header's id and falls back to the standard header's.
func (m *Message) EcuID() string {
	if m.Storage != nil {
		return m.Storage.EcuID
	}
	return m.Standard.EcuID
}
