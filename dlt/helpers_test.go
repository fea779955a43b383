package dlt

import (
	"bytes"
	"encoding/binary"
)

// id4 pads s with NULs to a 4 byte identifier field.
func id4(s string) []byte {
	b := make([]byte, 4)
	copy(b, s)
	return b
}

func storageBytes(sec int32, usec uint32, ecu string) []byte {
	b := make([]byte, 8, 12)
	binary.LittleEndian.PutUint32(b[0:4], uint32(sec))
	binary.LittleEndian.PutUint32(b[4:8], usec)
	return append(b, id4(ecu)...)
}

// stdHeader describes a standard header to encode; optional fields are
// written when the matching flag in Type is set.
type stdHeader struct {
	Type      byte
	Counter   byte
	Length    uint16
	EcuID     string
	SessionID uint32
	Timestamp int32
}

func (h stdHeader) bytes() []byte {
	b := []byte{h.Type, h.Counter, 0, 0}
	binary.BigEndian.PutUint16(b[2:4], h.Length)
	if HeaderType(h.Type).WithEcuID() {
		b = append(b, id4(h.EcuID)...)
	}
	if HeaderType(h.Type).WithSessionID() {
		b = binary.BigEndian.AppendUint32(b, h.SessionID)
	}
	if HeaderType(h.Type).WithTimestamp() {
		b = binary.BigEndian.AppendUint32(b, uint32(h.Timestamp))
	}
	return b
}

func extBytes(info, noar byte, apid, ctid string) []byte {
	b := []byte{info, noar}
	b = append(b, id4(apid)...)
	return append(b, id4(ctid)...)
}

// payload builds verbose arguments in one byte order.
type payload struct {
	order binary.ByteOrder
	buf   bytes.Buffer
}

func newPayload(order binary.ByteOrder) *payload {
	return &payload{order: order}
}

func (p *payload) tinfo(v uint32) *payload {
	b := make([]byte, 4)
	p.order.PutUint32(b, v)
	p.buf.Write(b)
	return p
}

func (p *payload) u8(v uint8) *payload {
	p.buf.WriteByte(v)
	return p
}

func (p *payload) u16(v uint16) *payload {
	b := make([]byte, 2)
	p.order.PutUint16(b, v)
	p.buf.Write(b)
	return p
}

func (p *payload) u32(v uint32) *payload {
	b := make([]byte, 4)
	p.order.PutUint32(b, v)
	p.buf.Write(b)
	return p
}

func (p *payload) u64(v uint64) *payload {
	b := make([]byte, 8)
	p.order.PutUint64(b, v)
	p.buf.Write(b)
	return p
}

func (p *payload) str(scod uint32, s string) *payload {
	p.tinfo(tinfoSTRG | scod<<scodShift)
	p.u16(uint16(len(s)))
	p.buf.WriteString(s)
	return p
}

func (p *payload) raw(b []byte) *payload {
	p.tinfo(tinfoRAWD)
	p.u16(uint16(len(b)))
	p.buf.Write(b)
	return p
}

func (p *payload) bytes() []byte {
	return p.buf.Bytes()
}

// storaged joins messages into a storaged capture, each prefixed by the marker.
func storaged(msgs ...[]byte) []byte {
	var b bytes.Buffer
	for _, m := range msgs {
		b.WriteString(Marker)
		b.Write(m)
	}
	return b.Bytes()
}

func concat(parts ...[]byte) []byte {
	return bytes.Join(parts, nil)
}

// verboseMessage is a storaged message with an extended header and the given payload.
func verboseMessage(counter byte, msbf bool, noar byte, body []byte) []byte {
	htype := byte(htypeUEH)
	if msbf {
		htype |= byte(htypeMSBF)
	}
	return concat(
		storageBytes(1620000000, 0, "ECU1"),
		stdHeader{Type: htype, Counter: counter}.bytes(),
		extBytes(0x41, noar, "APP1", "CTX1"), // verbose log, level info
		body,
	)
}
