package main

import (
	"bytes"
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dltdump/dlt"
)

// message encodes a storaged message: storage header, standard header with
// the extended header flag, extended header and a payload of one unsigned
// 16-bit argument (verbose) or raw bytes (non-verbose).
func message(sec int32, apid, ctid string, verbose bool, value uint16) []byte {
	var b bytes.Buffer
	b.WriteString(dlt.Marker)

	storage := make([]byte, 12)
	binary.LittleEndian.PutUint32(storage[0:4], uint32(sec))
	copy(storage[8:], "ECU1")
	b.Write(storage)

	b.Write([]byte{0x21, 0x00, 0x00, 0x00}) // UEH, version 1

	info := byte(0x40)
	noar := byte(0)
	if verbose {
		info |= 0x01
		noar = 1
	}
	ext := make([]byte, 10)
	ext[0], ext[1] = info, noar
	copy(ext[2:6], apid)
	copy(ext[6:10], ctid)
	b.Write(ext)

	payload := make([]byte, 6)
	binary.LittleEndian.PutUint32(payload[0:4], 0x42) // UINT, 16 bit
	binary.LittleEndian.PutUint16(payload[4:6], value)
	b.Write(payload)
	return b.Bytes()
}

func writeCapture(t *testing.T, name string, msgs ...[]byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, bytes.Join(msgs, nil), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunDump(t *testing.T) {
	path := writeCapture(t, "a.dlt",
		message(1620000000, "APP1", "CTX1", true, 42),
		message(1620000090, "APP2", "CTX2", false, 7),
	)

	for _, workers := range []int{1, 4} {
		cfg := defaultConfig()
		cfg.Scan.Workers = workers
		var out bytes.Buffer
		if err := run(context.Background(), &out, cfg, runOptions{}, []string{path}); err != nil {
			t.Fatalf("run: %v", err)
		}
		got := out.String()
		for _, want := range []string{
			"Detected storaged capture",
			"APP1/CTX1 MC:0 [VERBOSE] log/info: 42",
			"APP2/CTX2 MC:0 [NON-VERBOSE] log/info: 420000000700",
			"Duration: 1 min 30 sec",
			"Total Messages Processed: 2",
		} {
			if !strings.Contains(got, want) {
				t.Errorf("workers %d: output lacks %q:\n%s", workers, want, got)
			}
		}
	}
}

func TestRunHideAccountedAndGroup(t *testing.T) {
	path := writeCapture(t, "a.dlt",
		message(1620000000, "APP1", "CTX1", true, 1),
		message(1620000001, "APP1", "CTX1", false, 2),
		message(1620000002, "APP2", "CTX9", true, 3),
	)

	var out bytes.Buffer
	opts := runOptions{hideAccounted: true, groupByID: true}
	if err := run(context.Background(), &out, defaultConfig(), opts, []string{path}); err != nil {
		t.Fatalf("run: %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "APP1/CTX1 (1 messages)") {
		t.Errorf("missing APP1 group:\n%s", got)
	}
	if strings.Contains(got, "APP2/CTX9 (") {
		t.Errorf("fully decoded group shown with hide-accounted:\n%s", got)
	}
}

func TestRunCSVExport(t *testing.T) {
	path := writeCapture(t, "a.dlt", message(1620000000, "APP1", "CTX1", true, 42))
	csv := filepath.Join(t.TempDir(), "out.csv")

	var out bytes.Buffer
	if err := run(context.Background(), &out, defaultConfig(), runOptions{csvOut: csv, separator: ","}, []string{path}); err != nil {
		t.Fatalf("run: %v", err)
	}
	data, err := os.ReadFile(csv)
	if err != nil {
		t.Fatal(err)
	}
	want := `"0","2021-05-03T00:00:00Z","","0","ECU1","APP1","CTX1","","verbose","1","42"`
	if lines := strings.Split(strings.TrimSpace(string(data)), "\n"); len(lines) != 2 || lines[1] != want {
		t.Errorf("csv =\n%s", data)
	}
}

func TestRunCBORExport(t *testing.T) {
	path := writeCapture(t, "a.dlt", message(1620000000, "APP1", "CTX1", true, 42), message(1620000001, "APP1", "CTX2", true, 1))
	out := filepath.Join(t.TempDir(), "out.cbor")

	if err := run(context.Background(), &bytes.Buffer{}, defaultConfig(), runOptions{cborOut: out}, []string{path}); err != nil {
		t.Fatalf("run: %v", err)
	}
	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	recs, err := dlt.ReadRecords(f)
	if err != nil {
		t.Fatalf("ReadRecords: %v", err)
	}
	if len(recs) != 2 || recs[1].ContextID != "CTX2" {
		t.Errorf("records = %+v", recs)
	}
}

func TestRunExportNeedsOneCapture(t *testing.T) {
	err := run(context.Background(), &bytes.Buffer{}, defaultConfig(), runOptions{csvOut: "x.csv"}, []string{"a", "b"})
	if err == nil {
		t.Fatal("expected an error for two captures")
	}
}

func TestRunCompare(t *testing.T) {
	a := writeCapture(t, "a.dlt",
		message(1620000000, "APP1", "CTX1", true, 1),
		message(1620000001, "APP2", "CTX2", true, 1),
	)
	b := writeCapture(t, "b.dlt",
		message(1620000000, "APP1", "CTX1", true, 1),
		message(1620000001, "APP1", "CTX1", true, 1),
		message(1620000002, "APP3", "CTX3", true, 1),
	)

	var out bytes.Buffer
	if err := run(context.Background(), &out, defaultConfig(), runOptions{compare: true}, []string{a, b}); err != nil {
		t.Fatalf("run: %v", err)
	}
	got := out.String()
	for _, want := range []string{
		"Contexts Common to ALL Captures (1 patterns)",
		"Occurrences: [1, 2]",
		"ECU:ECU1 APP2/CTX2 (count: 1)",
		"ECU:ECU1 APP3/CTX3 (count: 1)",
		"Total unique patterns: 3",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output lacks %q:\n%s", want, got)
		}
	}
}

func TestRunCompareMissingCapture(t *testing.T) {
	a := writeCapture(t, "a.dlt", message(1620000000, "APP1", "CTX1", true, 1))
	err := run(context.Background(), &bytes.Buffer{}, defaultConfig(), runOptions{compare: true},
		[]string{a, filepath.Join(t.TempDir(), "missing.dlt")})
	if err == nil {
		t.Fatal("expected an error for a missing capture")
	}
}

func TestRunCompareRejectsStdinAndDuplicates(t *testing.T) {
	a := writeCapture(t, "a.dlt", message(1620000000, "APP1", "CTX1", true, 1))
	for _, paths := range [][]string{{a, "-"}, {a, a}} {
		err := run(context.Background(), &bytes.Buffer{}, defaultConfig(), runOptions{compare: true}, paths)
		if err == nil {
			t.Errorf("%q: expected an error", paths)
		}
	}
}
