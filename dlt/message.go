package dlt

import (
	"github.com/pkg/errors"
)

// DecodeMessage decodes one span produced by the Scanner. storaged selects
// whether the span starts with a storage header.
//
// A header that does not fit the span fails the whole message and a nil
// message is returned. A payload failure returns the message with the
// arguments decoded so far, its Err set to the same error that is returned.
func DecodeMessage(span []byte, storaged bool) (*Message, error) {
	var (
		msg    = &Message{}
		offset int
	)

	if storaged {
		sh, err := ParseStorageHeader(span)
		if err != nil {
			return nil, err
		}
		msg.Storage = &sh
		offset += StorageHeaderSize
	}

	std, err := ParseStandardHeader(span[offset:])
	if err != nil {
		return nil, err
	}
	msg.Standard = std
	offset += std.Size()

	pc := PayloadContext{Order: std.Type.ByteOrder()}
	if std.Type.UseExtendedHeader() {
		ext, err := ParseExtendedHeader(span[offset:])
		if err != nil {
			return nil, err
		}
		msg.Extended = &ext
		offset += ext.Size()

		pc.Decodable = ext.Info.Verbose()
		pc.Count = int(ext.NumArgs)
	}
	if !pc.Decodable {
		log().Debugw("payload not decodable", "counter", std.Counter, "bytes", len(span)-offset)
	}

	msg.Args, err = DecodePayload(span[offset:], pc)
	if err != nil {
		msg.Err = errors.WithMessagef(err, "message counter %d", std.Counter)
		return msg, msg.Err
	}
	return msg, nil
}
