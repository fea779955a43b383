package main

import (
	"fmt"
	"io"
	"math"

	"dltdump/dlt"
)

// Category sorts a decoded message for filtering and the summary
type Category int

const (
	CatVerbose    Category = iota // every declared argument decoded
	CatTruncated                  // verbose, argument list ends in a marker
	CatPartial                    // verbose, decoding failed part way
	CatNonVerbose                 // payload kept as raw bytes
	CatNoExtended                 // no extended header, payload kept as raw bytes
)

func (c Category) String() string {
	switch c {
	case CatVerbose:
		return "VERBOSE"
	case CatTruncated:
		return "TRUNCATED"
	case CatPartial:
		return "PARTIAL"
	case CatNonVerbose:
		return "NON-VERBOSE"
	case CatNoExtended:
		return "NO-EXT"
	}
	return "UNKNOWN"
}

// Accounted reports whether the payload was fully understood.
func (c Category) Accounted() bool {
	return c == CatVerbose
}

// classify analyzes a decoded message and returns its category
func classify(m *dlt.Message) Category {
	switch {
	case m.Extended == nil:
		return CatNoExtended
	case !m.Verbose():
		return CatNonVerbose
	case m.Err != nil:
		return CatPartial
	}
	if n := len(m.Args); n > 0 {
		if k := m.Args[n-1].Kind; k == dlt.KindUnsupported || k == dlt.KindVariUnsupported {
			return CatTruncated
		}
	}
	return CatVerbose
}

// summary accumulates capture statistics while messages stream past
type summary struct {
	counts       map[Category]int
	total        int
	minTimestamp float64
	maxTimestamp float64
	started      bool
}

func newSummary() *summary {
	return &summary{
		counts:       make(map[Category]int),
		minTimestamp: math.MaxFloat64,
	}
}

func (s *summary) add(info *MessageInfo) {
	s.total++
	s.counts[info.Category]++
	if info.Msg.Storage == nil {
		return
	}
	s.started = true
	if info.TimestampFloat < s.minTimestamp {
		s.minTimestamp = info.TimestampFloat
	}
	if info.TimestampFloat > s.maxTimestamp {
		s.maxTimestamp = info.TimestampFloat
	}
}

func (s *summary) print(w io.Writer) {
	fmt.Fprintln(w, "\n===================================================")
	fmt.Fprintf(w, "📊 Capture Summary\n")
	if s.started && s.maxTimestamp > s.minTimestamp {
		duration := s.maxTimestamp - s.minTimestamp
		fmt.Fprintf(w, "   Duration: %s (%.3f sec)\n", formatDuration(duration*1000), duration)
		fmt.Fprintf(w, "   From: %.6f to %.6f seconds\n", s.minTimestamp, s.maxTimestamp)
	}
	fmt.Fprintf(w, "   Verbose Messages Decoded: %d\n", s.counts[CatVerbose])
	fmt.Fprintf(w, "   Truncated Argument Lists: %d\n", s.counts[CatTruncated])
	fmt.Fprintf(w, "   Partially Decoded: %d\n", s.counts[CatPartial])
	fmt.Fprintf(w, "   Non-Verbose Messages: %d\n", s.counts[CatNonVerbose])
	fmt.Fprintf(w, "   Without Extended Header: %d\n", s.counts[CatNoExtended])
	fmt.Fprintf(w, "   Total Messages Processed: %d\n", s.total)
	fmt.Fprintln(w, "===================================================")
}
