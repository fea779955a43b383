package dlt

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// ParseStorageHeader decodes the 12 bytes that follow the marker:
// seconds (i32), microseconds (u32), both little-endian, then the ECU id.
func ParseStorageHeader(span []byte) (StorageHeader, error) {
	if len(span) < StorageHeaderSize {
		return StorageHeader{}, errors.Wrapf(ErrMalformedHeader,
			"storage header: got %d bytes, need %d", len(span), StorageHeaderSize)
	}
	return StorageHeader{
		Seconds:      int32(binary.LittleEndian.Uint32(span[0:4])),
		Microseconds: binary.LittleEndian.Uint32(span[4:8]),
		EcuID:        TrimID(span[8:12]),
	}, nil
}

// ParseStandardHeader decodes the mandatory 4 bytes and whichever optional
// fields the header type declares. Optional fields are big-endian and appear
// in the order ecu id, session id, timestamp.
func ParseStandardHeader(span []byte) (StandardHeader, error) {
	if len(span) < StandardHeaderSize {
		return StandardHeader{}, errors.Wrapf(ErrMalformedHeader,
			"standard header: got %d bytes, need %d", len(span), StandardHeaderSize)
	}

	h := StandardHeader{
		Type:    HeaderType(span[0]),
		Counter: span[1],
		Length:  binary.BigEndian.Uint16(span[2:4]),
	}
	if need := h.Size(); len(span) < need {
		return StandardHeader{}, errors.Wrapf(ErrMalformedHeader,
			"standard header (type 0x%02X): got %d bytes, need %d", span[0], len(span), need)
	}

	offset := StandardHeaderSize
	if h.Type.WithEcuID() {
		h.EcuID = TrimID(span[offset : offset+ecuIDSize])
		offset += ecuIDSize
	}
	if h.Type.WithSessionID() {
		h.SessionID = binary.BigEndian.Uint32(span[offset : offset+sessionIDSize])
		offset += sessionIDSize
	}
	if h.Type.WithTimestamp() {
		h.Timestamp = int32(binary.BigEndian.Uint32(span[offset : offset+timestampSize]))
	}
	return h, nil
}

// ParseExtendedHeader decodes the fixed 10 byte extended header. The argument
// count of a non-verbose message is reported as 0 whatever the byte holds.
func ParseExtendedHeader(span []byte) (ExtendedHeader, error) {
	if len(span) < ExtendedHeaderSize {
		return ExtendedHeader{}, errors.Wrapf(ErrMalformedHeader,
			"extended header: got %d bytes, need %d", len(span), ExtendedHeaderSize)
	}

	h := ExtendedHeader{
		Info:          MessageInfo(span[0]),
		ApplicationID: TrimID(span[2:6]),
		ContextID:     TrimID(span[6:10]),
	}
	if h.Info.Verbose() {
		h.NumArgs = span[1]
	}
	return h, nil
}
