package dlt

import (
	"encoding/binary"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// Encoding selects how a byte range is turned into text.
type Encoding uint8

const (
	ASCII Encoding = iota
	UTF8
)

// DecodeText decodes b lossily. ASCII drops every byte above 0x7F, UTF-8 drops
// invalid sequences. Decoding never fails.
func DecodeText(b []byte, enc Encoding) string {
	if enc == ASCII {
		var sb strings.Builder
		sb.Grow(len(b))
		for _, c := range b {
			if c < utf8.RuneSelf {
				sb.WriteByte(c)
			}
		}
		return sb.String()
	}
	return strings.ToValidUTF8(string(b), "")
}

// TrimID decodes a fixed-width identifier field such as an ECU, application or
// context id. Trailing NULs are removed.
func TrimID(b []byte) string {
	return strings.TrimRight(DecodeText(b, UTF8), "\x00")
}

// cursor reads fixed-width values from a byte slice, advancing as it goes.
type cursor struct {
	buf []byte
	off int
}

func newCursor(b []byte) *cursor {
	return &cursor{buf: b}
}

func (c *cursor) remaining() int {
	return len(c.buf) - c.off
}

// next returns the following n bytes, or an ErrIndexOutOfRange error if fewer remain.
func (c *cursor) next(n int) ([]byte, error) {
	if n < 0 || c.remaining() < n {
		return nil, errors.Wrapf(ErrIndexOutOfRange, "read %d bytes at offset %d of %d", n, c.off, len(c.buf))
	}
	b := c.buf[c.off : c.off+n]
	c.off += n
	return b, nil
}

func (c *cursor) bytes(n int) ([]byte, error) {
	b, err := c.next(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

func (c *cursor) text(n int, enc Encoding) (string, error) {
	b, err := c.next(n)
	if err != nil {
		return "", err
	}
	return DecodeText(b, enc), nil
}

func (c *cursor) uint8() (uint8, error) {
	b, err := c.next(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (c *cursor) uint16(order binary.ByteOrder) (uint16, error) {
	b, err := c.next(2)
	if err != nil {
		return 0, err
	}
	return order.Uint16(b), nil
}

func (c *cursor) uint32(order binary.ByteOrder) (uint32, error) {
	b, err := c.next(4)
	if err != nil {
		return 0, err
	}
	return order.Uint32(b), nil
}

func (c *cursor) uint64(order binary.ByteOrder) (uint64, error) {
	b, err := c.next(8)
	if err != nil {
		return 0, err
	}
	return order.Uint64(b), nil
}

// uintN reads an unsigned integer of the given width in bits.
func (c *cursor) uintN(bits int, order binary.ByteOrder) (uint64, error) {
	switch bits {
	case 8:
		v, err := c.uint8()
		return uint64(v), err
	case 16:
		v, err := c.uint16(order)
		return uint64(v), err
	case 32:
		v, err := c.uint32(order)
		return uint64(v), err
	case 64:
		return c.uint64(order)
	}
	return 0, errors.Errorf("dlt: unsupported integer width %d", bits)
}

// intN reads a two's complement signed integer of the given width in bits.
func (c *cursor) intN(bits int, order binary.ByteOrder) (int64, error) {
	v, err := c.uintN(bits, order)
	if err != nil {
		return 0, err
	}
	switch bits {
	case 8:
		return int64(int8(v)), nil
	case 16:
		return int64(int16(v)), nil
	case 32:
		return int64(int32(v)), nil
	}
	return int64(v), nil
}
