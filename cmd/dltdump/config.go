package main

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"dltdump/dlt"
)

// Config is the optional YAML configuration of dltdump. Command line flags
// override whatever it sets.
type Config struct {
	Scan struct {
		BlockSize int `yaml:"blockSize"`
		Workers   int `yaml:"workers"`
	} `yaml:"scan"`
	Export struct {
		Separator string `yaml:"separator"`
	} `yaml:"export"`
	Log LogConfig `yaml:"log"`
}

// LogConfig controls the diagnostics logger, not the decoded output.
type LogConfig struct {
	Level         string `yaml:"level"`
	File          string `yaml:"file"`
	FileEnable    bool   `yaml:"fileEnable"`
	ConsoleEnable bool   `yaml:"consoleEnable"`
	MaxSize       int    `yaml:"maxSize"`
	MaxAge        int    `yaml:"maxAge"`
	MaxBack       int    `yaml:"maxBack"`
}

// defaultConfig is used when no file is given and fills fields a file leaves out.
func defaultConfig() *Config {
	c := &Config{}
	c.Scan.BlockSize = dlt.DefaultBlockSize
	c.Scan.Workers = 1
	c.Export.Separator = dlt.DefaultSeparator
	c.Log.Level = "warn"
	c.Log.ConsoleEnable = true
	c.Log.File = "logs/dltdump.log"
	c.Log.MaxSize = 10
	c.Log.MaxAge = 7
	c.Log.MaxBack = 3
	return c
}

// loadConfig reads the YAML file at path on top of the defaults. An empty
// path returns the defaults.
func loadConfig(path string) (*Config, error) {
	c := defaultConfig()
	if path == "" {
		return c, nil
	}
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config file")
	}
	if err := yaml.Unmarshal(file, c); err != nil {
		return nil, errors.Wrapf(err, "unmarshal config file %s", path)
	}
	if c.Scan.BlockSize <= 0 {
		c.Scan.BlockSize = dlt.DefaultBlockSize
	}
	if c.Export.Separator == "" {
		c.Export.Separator = dlt.DefaultSeparator
	}
	return c, nil
}

// options turns the scan settings into capture options.
func (c *Config) options() []dlt.Option {
	return []dlt.Option{
		dlt.ScanBlockSizeOption(c.Scan.BlockSize),
		dlt.WorkersOption(c.Scan.Workers),
	}
}
