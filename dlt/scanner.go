package dlt

import (
	"bufio"
	"bytes"
	"io"
)

var markerBytes = []byte(Marker)

// ScanOption configures a Scanner.
type ScanOption func(*Scanner)

// BlockSizeOption sets how many bytes are requested from the source per read.
func BlockSizeOption(n int) ScanOption {
	return func(s *Scanner) {
		if n > 0 {
			s.blockSize = n
		}
	}
}

// Scanner splits a capture into message spans at each Marker. It makes a
// single forward pass over its source.
//
// Every marker ends the span before it and is dropped, so a storaged capture
// yields an empty first span. At end of input the remaining bytes are
// yielded as a last span, which may also be empty. A capture without markers
// comes out as a single span.
type Scanner struct {
	r         *bufio.Reader
	blockSize int

	classified bool
	storaged   bool

	buf      []byte
	start    int // first unconsumed byte in buf
	searched int // no marker begins in buf[start:searched]
	eof      bool
	done     bool

	span []byte
	err  error
}

// NewScanner returns a Scanner reading from r.
func NewScanner(r io.Reader, opts ...ScanOption) *Scanner {
	s := &Scanner{blockSize: DefaultBlockSize}
	for _, o := range opts {
		o(s)
	}
	s.r = bufio.NewReaderSize(r, s.blockSize)
	return s
}

// Storaged reports whether the capture begins with the marker. The answer is
// computed once, on first use, without consuming input.
func (s *Scanner) Storaged() (bool, error) {
	if !s.classified {
		s.classified = true
		head, err := s.r.Peek(MarkerSize)
		if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
			s.err = &IOError{Op: "read", Err: err}
			s.done = true
			return false, s.err
		}
		s.storaged = bytes.Equal(head, markerBytes)
	}
	return s.storaged, s.err
}

// Scan advances to the next span. It returns false at the end of input or
// after a read error; Err tells them apart.
func (s *Scanner) Scan() bool {
	if _, err := s.Storaged(); err != nil || s.done {
		return false
	}

	for {
		if i := bytes.Index(s.buf[s.searched:], markerBytes); i >= 0 {
			end := s.searched + i
			s.span = s.take(s.start, end)
			s.start = end + MarkerSize
			s.searched = s.start
			return true
		}
		// A marker may still begin in the last three bytes.
		if tail := len(s.buf) - (MarkerSize - 1); tail > s.searched {
			s.searched = tail
		}

		if s.eof {
			s.span = s.take(s.start, len(s.buf))
			s.start = len(s.buf)
			s.done = true
			return true
		}
		if err := s.fill(); err != nil {
			s.err = err
			s.done = true
			return false
		}
	}
}

// Bytes returns the current span. The slice is owned by the caller.
func (s *Scanner) Bytes() []byte {
	return s.span
}

// Err returns the first read error, if any.
func (s *Scanner) Err() error {
	return s.err
}

func (s *Scanner) take(from, to int) []byte {
	out := make([]byte, to-from)
	copy(out, s.buf[from:to])
	return out
}

// fill drops consumed bytes and appends the next block from the source.
func (s *Scanner) fill() error {
	if s.start > 0 {
		n := copy(s.buf, s.buf[s.start:])
		s.buf = s.buf[:n]
		s.searched -= s.start
		s.start = 0
	}

	block := make([]byte, s.blockSize)
	n, err := s.r.Read(block)
	s.buf = append(s.buf, block[:n]...)
	switch {
	case err == io.EOF:
		s.eof = true
	case err != nil:
		return &IOError{Op: "read", Err: err}
	}
	return nil
}
