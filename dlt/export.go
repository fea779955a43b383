package dlt

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// DefaultSeparator separates the columns of a delimited export.
const DefaultSeparator = ";"

// DecodeErrorMark ends the payload text of a message whose arguments could
// only be partly decoded.
const DecodeErrorMark = "[decode error]"

var columns = []string{
	"Index", "DateTime", "Timestamp", "Count", "EcuId", "Apid",
	"Ctid", "SessionId", "Mode", "#Args", "Payload",
}

// Columns returns the header line of a delimited export.
func Columns() []string {
	out := make([]string, len(columns))
	copy(out, columns)
	return out
}

var fieldCleaner = strings.NewReplacer(`"`, `""`, "\n", "", "\r", "", "\x00", "")

// Row returns the export columns of msg, unquoted.
func Row(msg *Message) []string {
	row := make([]string, 0, len(columns))
	row = append(row, strconv.Itoa(msg.Index))

	if msg.Storage != nil {
		row = append(row, time.Unix(int64(msg.Storage.Seconds), 0).UTC().Format("2006-01-02T15:04:05")+"Z")
	} else {
		row = append(row, "")
	}

	std := msg.Standard
	if std.Type.WithTimestamp() {
		row = append(row, strconv.FormatInt(int64(std.Timestamp), 10))
	} else {
		row = append(row, "")
	}
	row = append(row, strconv.Itoa(int(std.Counter)), msg.EcuID())

	if ext := msg.Extended; ext != nil {
		row = append(row, ext.ApplicationID, ext.ContextID)
	} else {
		row = append(row, "", "")
	}

	if std.Type.WithSessionID() {
		row = append(row, strconv.FormatUint(uint64(std.SessionID), 10))
	} else {
		row = append(row, "")
	}

	if ext := msg.Extended; ext != nil {
		mode := "non-verbose"
		if ext.Info.Verbose() {
			mode = "verbose"
		}
		row = append(row, mode, strconv.Itoa(int(ext.NumArgs)))
	} else {
		row = append(row, "", "")
	}

	return append(row, PayloadText(msg))
}

// PayloadText joins the arguments of msg with spaces. A message kept after a
// payload error ends with DecodeErrorMark.
func PayloadText(msg *Message) string {
	parts := make([]string, len(msg.Args), len(msg.Args)+1)
	for i, a := range msg.Args {
		parts[i] = a.String()
	}
	if msg.Err != nil {
		parts = append(parts, DecodeErrorMark)
	}
	return strings.Join(parts, " ")
}

// ExportDelimited writes a header line and one line per message to w. Every
// field is double quoted; quotes inside a field are doubled and CR, LF and
// NUL are removed from it.
func (c *Capture) ExportDelimited(w io.Writer, sep string) (err error) {
	if sep == "" {
		sep = DefaultSeparator
	}
	bw := bufio.NewWriter(w)
	defer func() {
		if ferr := bw.Flush(); ferr != nil && err == nil {
			err = errors.Wrap(ferr, "dlt: flush export")
		}
	}()

	if err := writeLine(bw, columns, sep); err != nil {
		return err
	}
	lines := 0
	for msg, err := range c.Messages() {
		if err != nil {
			return err
		}
		if err := writeLine(bw, Row(msg), sep); err != nil {
			return err
		}
		lines++
	}
	log().Infow("delimited export written", "capture", c.name, "messages", lines)
	return nil
}

func writeLine(w *bufio.Writer, fields []string, sep string) error {
	for i, f := range fields {
		if i > 0 {
			w.WriteString(sep)
		}
		w.WriteByte('"')
		w.WriteString(fieldCleaner.Replace(f))
		w.WriteByte('"')
	}
	if err := w.WriteByte('\n'); err != nil {
		return errors.Wrap(err, "dlt: write export")
	}
	return nil
}

// ExportDelimitedFile decodes the capture at inPath and writes its delimited
// export to outPath.
func ExportDelimitedFile(inPath, outPath, sep string, opt ...Option) error {
	return WithCapture(inPath, func(c *Capture) (err error) {
		f, err := os.Create(outPath)
		if err != nil {
			return &IOError{Op: "create", Path: outPath, Err: err}
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = &IOError{Op: "close", Path: outPath, Err: cerr}
			}
		}()
		return c.ExportDelimited(f, sep)
	}, opt...)
}
