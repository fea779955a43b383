package dlt

import (
	"encoding/binary"
	"encoding/hex"
	"strconv"

	"github.com/pkg/errors"
)

// Type info bits of a verbose argument.
const (
	tinfoTYLE  uint32 = 0x0000000F
	tinfoBOOL  uint32 = 0x00000010
	tinfoSINT  uint32 = 0x00000020
	tinfoUINT  uint32 = 0x00000040
	tinfoFLOA  uint32 = 0x00000080
	tinfoARAY  uint32 = 0x00000100
	tinfoSTRG  uint32 = 0x00000200
	tinfoRAWD  uint32 = 0x00000400
	tinfoVARI  uint32 = 0x00000800
	tinfoFIXP  uint32 = 0x00001000
	tinfoTRAI  uint32 = 0x00002000
	tinfoSTRU  uint32 = 0x00004000
	tinfoSCOD  uint32 = 0x00038000
	scodShift         = 15

	tyle8   = 1
	tyle16  = 2
	tyle32  = 3
	tyle64  = 4
	tyle128 = 5
)

// ArgKind tags the value held by an Argument.
type ArgKind uint8

const (
	KindRaw ArgKind = iota
	KindString
	KindUint
	KindSint
	// KindUnsupported marks a type info with no decode branch; decoding stopped there.
	KindUnsupported
	// KindVariUnsupported marks an argument carrying variable info; decoding stopped there.
	KindVariUnsupported
)

func (k ArgKind) String() string {
	switch k {
	case KindRaw:
		return "raw"
	case KindString:
		return "string"
	case KindUint:
		return "uint"
	case KindSint:
		return "sint"
	case KindUnsupported:
		return "unsupported"
	case KindVariUnsupported:
		return "vari"
	}
	return "unknown"
}

// Argument is one decoded payload argument.
type Argument struct {
	Kind  ArgKind
	Width int // bits, integers only
	Raw   []byte
	Str   string
	Uint  uint64
	Int   int64
}

// Value returns the argument as a plain Go value, nil for markers.
func (a Argument) Value() any {
	switch a.Kind {
	case KindRaw:
		return a.Raw
	case KindString:
		return a.Str
	case KindUint:
		return a.Uint
	case KindSint:
		return a.Int
	}
	return nil
}

func (a Argument) String() string {
	switch a.Kind {
	case KindRaw:
		return hex.EncodeToString(a.Raw)
	case KindString:
		return a.Str
	case KindUint:
		return strconv.FormatUint(a.Uint, 10)
	case KindSint:
		return strconv.FormatInt(a.Int, 10)
	case KindVariUnsupported:
		return "[VARI is not supported yet]"
	}
	return "[Unsupported type]"
}

// PayloadContext carries what the payload decoder needs to know from the
// headers of its message.
type PayloadContext struct {
	Order     binary.ByteOrder
	Count     int
	Decodable bool
}

// DecodePayload decodes the bytes after the headers. A non-decodable payload
// is returned whole as a single raw argument. On error the arguments decoded
// so far are returned along with it.
func DecodePayload(span []byte, pc PayloadContext) ([]Argument, error) {
	if !pc.Decodable {
		raw := make([]byte, len(span))
		copy(raw, span)
		return []Argument{{Kind: KindRaw, Raw: raw}}, nil
	}

	order := pc.Order
	if order == nil {
		order = binary.LittleEndian
	}

	c := newCursor(span)
	args := make([]Argument, 0, pc.Count)
	for i := 0; i < pc.Count; i++ {
		tinfo, err := c.uint32(order)
		if err != nil {
			return args, errors.Wrapf(err, "argument %d type info", i)
		}

		arg, stop, err := decodeArgument(c, tinfo, order)
		if err != nil {
			return args, errors.Wrapf(err, "argument %d (type info 0x%08X)", i, tinfo)
		}
		args = append(args, arg)
		if stop {
			log().Debugw("argument list truncated", "argument", i, "type_info", tinfo, "kind", arg.Kind.String())
			break
		}
	}
	return args, nil
}

// decodeArgument decodes the value following a type info word. stop is true
// when the argument is a marker and the rest of the list cannot be located.
func decodeArgument(c *cursor, tinfo uint32, order binary.ByteOrder) (arg Argument, stop bool, err error) {
	switch {
	case tinfo&tinfoVARI != 0:
		return Argument{Kind: KindVariUnsupported}, true, nil

	case tinfo&tinfoRAWD != 0:
		n, err := c.uint16(order)
		if err != nil {
			return arg, false, err
		}
		raw, err := c.bytes(int(n))
		if err != nil {
			return arg, false, err
		}
		return Argument{Kind: KindRaw, Raw: raw}, false, nil

	case tinfo&tinfoSTRG != 0:
		n, err := c.uint16(order)
		if err != nil {
			return arg, false, err
		}
		enc := UTF8
		if (tinfo&tinfoSCOD)>>scodShift == 0 {
			enc = ASCII
		}
		s, err := c.text(int(n), enc)
		if err != nil {
			return arg, false, err
		}
		return Argument{Kind: KindString, Str: s}, false, nil

	case tinfo&tinfoUINT != 0:
		bits, ok, err := tyleWidth(tinfo)
		if err != nil || !ok {
			return Argument{Kind: KindUnsupported}, true, err
		}
		v, err := c.uintN(bits, order)
		if err != nil {
			return arg, false, err
		}
		return Argument{Kind: KindUint, Width: bits, Uint: v}, false, nil

	case tinfo&tinfoSINT != 0:
		bits, ok, err := tyleWidth(tinfo)
		if err != nil || !ok {
			return Argument{Kind: KindUnsupported}, true, err
		}
		v, err := c.intN(bits, order)
		if err != nil {
			return arg, false, err
		}
		return Argument{Kind: KindSint, Width: bits, Int: v}, false, nil
	}

	// BOOL, FLOA, ARAY, FIXP, TRAI, STRU and anything unrecognised.
	return Argument{Kind: KindUnsupported}, true, nil
}

// tyleWidth maps the TYLE field to an integer width in bits. ok is false for
// reserved TYLE values.
func tyleWidth(tinfo uint32) (bits int, ok bool, err error) {
	switch tinfo & tinfoTYLE {
	case tyle8:
		return 8, true, nil
	case tyle16:
		return 16, true, nil
	case tyle32:
		return 32, true, nil
	case tyle64:
		return 64, true, nil
	case tyle128:
		return 0, false, ErrUnsupported128Bit
	}
	return 0, false, nil
}
