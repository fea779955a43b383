package main

import "dltdump/dlt"

// MessageInfo stores a decoded message with metadata for grouping
type MessageInfo struct {
	Msg            *dlt.Message
	Capture        string
	TimestampFloat float64 // storage time in seconds, 0 without storage header
	Key            string  // APID/CTID, or "-" for messages without extended header
	Category       Category
	SequenceNum    int // For maintaining order when timestamps are identical
}

func newMessageInfo(capture string, m *dlt.Message) *MessageInfo {
	info := &MessageInfo{
		Msg:         m,
		Capture:     capture,
		Key:         contextKey(m),
		Category:    classify(m),
		SequenceNum: m.Index,
	}
	if m.Storage != nil {
		info.TimestampFloat = float64(m.Storage.Seconds) + float64(m.Storage.Microseconds)/1e6
	}
	return info
}

func contextKey(m *dlt.Message) string {
	if m.Extended == nil {
		return "-"
	}
	return m.Extended.ApplicationID + "/" + m.Extended.ContextID
}
