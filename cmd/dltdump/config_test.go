package main

import (
	"os"
	"path/filepath"
	"testing"

	"dltdump/dlt"
)

func TestLoadConfigDefaults(t *testing.T) {
	c, err := loadConfig("")
	if err != nil {
		t.Fatal(err)
	}
	if c.Scan.BlockSize != dlt.DefaultBlockSize || c.Scan.Workers != 1 || c.Export.Separator != ";" {
		t.Errorf("defaults = %+v", c)
	}
	if c.Log.Level != "warn" || !c.Log.ConsoleEnable || c.Log.FileEnable {
		t.Errorf("log defaults = %+v", c.Log)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dltdump.yaml")
	data := `
scan:
  blockSize: 4096
  workers: 8
export:
  separator: ","
log:
  level: debug
  fileEnable: true
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := loadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if c.Scan.BlockSize != 4096 || c.Scan.Workers != 8 || c.Export.Separator != "," {
		t.Errorf("config = %+v", c)
	}
	if c.Log.Level != "debug" || !c.Log.FileEnable {
		t.Errorf("log = %+v", c.Log)
	}
	// untouched fields keep their defaults
	if c.Log.MaxSize != 10 || c.Log.File != "logs/dltdump.log" {
		t.Errorf("log defaults lost: %+v", c.Log)
	}
}

func TestLoadConfigRepairsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dltdump.yaml")
	if err := os.WriteFile(path, []byte("scan:\n  blockSize: -1\nexport:\n  separator: \"\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := loadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if c.Scan.BlockSize != dlt.DefaultBlockSize || c.Export.Separator != dlt.DefaultSeparator {
		t.Errorf("config = %+v", c)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	if _, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for a missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("scan: [1, 2"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadConfig(path); err == nil {
		t.Error("expected error for malformed yaml")
	}
}

func TestNewLoggerLevels(t *testing.T) {
	cfg := defaultConfig().Log
	cfg.ConsoleEnable = false
	for _, level := range []string{"debug", "info", "warn", "error", "bogus"} {
		cfg.Level = level
		if l := newLogger(cfg); l == nil {
			t.Errorf("newLogger(%q) = nil", level)
		}
	}
}
