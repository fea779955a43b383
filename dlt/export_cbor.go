package dlt

import (
	"io"

	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"
)

// Record is the CBOR form of a message.
type Record struct {
	Index     int         `cbor:"index"`
	Time      int64       `cbor:"time,omitempty"` // storage timestamp, microseconds since the epoch
	Timestamp *int32      `cbor:"timestamp,omitempty"`
	Counter   uint8       `cbor:"count"`
	EcuID     string      `cbor:"ecu,omitempty"`
	SessionID *uint32     `cbor:"session,omitempty"`
	AppID     string      `cbor:"apid,omitempty"`
	ContextID string      `cbor:"ctid,omitempty"`
	Type      string      `cbor:"type,omitempty"`
	Level     string      `cbor:"level,omitempty"`
	Verbose   bool        `cbor:"verbose"`
	NumArgs   uint8       `cbor:"noar"`
	Args      []RecordArg `cbor:"args"`
	Error     string      `cbor:"error,omitempty"`
}

// RecordArg is one argument of a Record. V holds bytes, text, an unsigned or
// a signed integer depending on K, and is nil for markers.
type RecordArg struct {
	K string `cbor:"k"`
	V any    `cbor:"v"`
}

// NewRecord converts msg into its CBOR form.
func NewRecord(msg *Message) Record {
	r := Record{
		Index:   msg.Index,
		Counter: msg.Standard.Counter,
		EcuID:   msg.EcuID(),
		Args:    make([]RecordArg, len(msg.Args)),
	}
	if msg.Storage != nil {
		r.Time = msg.Storage.Time().UnixMicro()
	}
	if msg.Standard.Type.WithTimestamp() {
		ts := msg.Standard.Timestamp
		r.Timestamp = &ts
	}
	if msg.Standard.Type.WithSessionID() {
		sid := msg.Standard.SessionID
		r.SessionID = &sid
	}
	if ext := msg.Extended; ext != nil {
		r.AppID = ext.ApplicationID
		r.ContextID = ext.ContextID
		r.Type = ext.Info.Type().String()
		r.Level = ext.Info.Level()
		r.Verbose = ext.Info.Verbose()
		r.NumArgs = ext.NumArgs
	}
	for i, a := range msg.Args {
		r.Args[i] = RecordArg{K: a.Kind.String(), V: a.Value()}
	}
	if msg.Err != nil {
		r.Error = msg.Err.Error()
	}
	return r
}

var recordEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	recordEncMode = em
}

// ExportCBOR writes one canonical CBOR Record per message to w, back to back
// as a CBOR sequence.
func (c *Capture) ExportCBOR(w io.Writer) error {
	enc := recordEncMode.NewEncoder(w)
	n := 0
	for msg, err := range c.Messages() {
		if err != nil {
			return err
		}
		if err := enc.Encode(NewRecord(msg)); err != nil {
			return errors.Wrapf(err, "dlt: encode message %d", msg.Index)
		}
		n++
	}
	log().Infow("cbor export written", "capture", c.name, "messages", n)
	return nil
}

// ReadRecords decodes a CBOR sequence written by ExportCBOR.
func ReadRecords(r io.Reader) ([]Record, error) {
	dec := cbor.NewDecoder(r)
	var out []Record
	for {
		var rec Record
		err := dec.Decode(&rec)
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, errors.Wrap(err, "dlt: decode record")
		}
		out = append(out, rec)
	}
}
