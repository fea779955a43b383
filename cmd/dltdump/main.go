package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"dltdump/dlt"
)

// runOptions holds the display and export switches of one invocation
type runOptions struct {
	csvOut          string
	cborOut         string
	separator       string
	hideAccounted   bool
	hideUnaccounted bool
	groupByID       bool
	compare         bool
}

func main() {
	configPath := flag.String("config", "", "YAML configuration file")
	csvOut := flag.String("csv", "", "write a delimited export of the capture to this file")
	cborOut := flag.String("cbor", "", "write a CBOR sequence export of the capture to this file")
	separator := flag.String("sep", "", "column separator of the delimited export (default \";\")")
	blockSize := flag.Int("block-size", 0, "read block size in bytes")
	workers := flag.Int("workers", 0, "decode workers; above 1 the capture is buffered and decoded in parallel")
	hideUnaccounted := flag.Bool("hide-unaccounted", false, "hide messages whose payload was not fully decoded")
	hideAccounted := flag.Bool("hide-accounted", false, "hide fully decoded verbose messages")
	groupByID := flag.Bool("group-by-id", false, "group messages by APID/CTID, then sort by timestamp within each group")
	compare := flag.Bool("compare", false, "compare APID/CTID usage across all given captures")
	logLevel := flag.String("log-level", "", "diagnostics log level: debug, info, warn, error")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] capture.dlt [more.dlt ...]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	paths := flag.Args()
	if len(paths) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *blockSize > 0 {
		cfg.Scan.BlockSize = *blockSize
	}
	if *workers > 0 {
		cfg.Scan.Workers = *workers
	}
	if *separator != "" {
		cfg.Export.Separator = *separator
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}

	logger := newLogger(cfg.Log)
	defer logger.Sync()
	dlt.SetLogger(logger)

	opts := runOptions{
		csvOut:          *csvOut,
		cborOut:         *cborOut,
		separator:       cfg.Export.Separator,
		hideAccounted:   *hideAccounted,
		hideUnaccounted: *hideUnaccounted,
		groupByID:       *groupByID,
		compare:         *compare,
	}
	if err := run(context.Background(), os.Stdout, cfg, opts, paths); err != nil {
		logger.Error("dltdump failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

// run executes one invocation, writing human readable output to w
func run(ctx context.Context, w io.Writer, cfg *Config, opts runOptions, paths []string) error {
	if opts.compare {
		captures, err := loadCaptures(ctx, paths, cfg.options()...)
		if err != nil {
			return err
		}
		CompareContexts(w, captures)
		return nil
	}

	if opts.csvOut != "" || opts.cborOut != "" {
		if len(paths) != 1 {
			return errors.New("exports take exactly one capture")
		}
		return export(w, cfg, opts, paths[0])
	}

	for _, path := range paths {
		if err := dump(w, cfg, opts, path); err != nil {
			return err
		}
	}
	return nil
}

func export(w io.Writer, cfg *Config, opts runOptions, path string) error {
	if opts.csvOut != "" {
		if err := dlt.ExportDelimitedFile(path, opts.csvOut, opts.separator, cfg.options()...); err != nil {
			return err
		}
		fmt.Fprintf(w, "✅ Delimited export written to %s\n", opts.csvOut)
	}
	if opts.cborOut != "" {
		err := withSource(path, cfg, func(c *dlt.Capture) error {
			f, err := os.Create(opts.cborOut)
			if err != nil {
				return errors.Wrap(err, "create cbor export")
			}
			if err := c.ExportCBOR(f); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "✅ CBOR export written to %s\n", opts.cborOut)
	}
	return nil
}

// dump prints every message of one capture followed by its summary
func dump(w io.Writer, cfg *Config, opts runOptions, path string) error {
	return withSource(path, cfg, func(c *dlt.Capture) error {
		storaged, err := c.Storaged()
		if err != nil {
			return err
		}

		fmt.Fprintln(w, "DLT Trace Decoder")
		fmt.Fprintf(w, "Capture: %s\n", c.Name())
		fmt.Fprintf(w, "Mode: %s\n", func() string {
			if opts.hideUnaccounted {
				return "Fully decoded messages only (hiding unaccounted)"
			} else if opts.hideAccounted {
				return "Unaccounted messages only (hiding accounted)"
			}
			if opts.groupByID {
				return "All messages (grouped by APID/CTID)"
			}
			return "All messages"
		}())
		if storaged {
			fmt.Fprintln(w, "📄 Detected storaged capture")
		} else {
			fmt.Fprintln(w, "📄 No storage header marker, capture is read as a single message")
		}
		fmt.Fprintln(w, "---------------------------------------------------")

		sum := newSummary()
		var all []*MessageInfo
		err = eachMessage(c, cfg.Scan.Workers, func(m *dlt.Message) {
			info := newMessageInfo(c.Name(), m)
			sum.add(info)

			if opts.groupByID {
				all = append(all, info)
				return
			}
			if opts.hideAccounted && info.Category.Accounted() {
				return
			}
			if opts.hideUnaccounted && !info.Category.Accounted() {
				return
			}
			printMessageLine(w, info)
		})
		if err != nil {
			return err
		}

		if opts.groupByID && len(all) > 0 {
			displayGroupedMessages(w, all, opts.hideAccounted, opts.hideUnaccounted)
		}
		sum.print(w)
		return nil
	})
}

// eachMessage streams the messages of c to fn, or decodes them all on a
// worker pool first when more than one worker is configured
func eachMessage(c *dlt.Capture, workers int, fn func(*dlt.Message)) error {
	if workers > 1 {
		msgs, err := c.Collect()
		if err != nil {
			return err
		}
		for _, m := range msgs {
			fn(m)
		}
		return nil
	}
	for m, err := range c.Messages() {
		if err != nil {
			return err
		}
		fn(m)
	}
	return nil
}

// withSource opens path, or stdin for "-", and closes it when fn returns
func withSource(path string, cfg *Config, fn func(*dlt.Capture) error) error {
	if path == "-" {
		c := dlt.NewCapture(struct{ io.Reader }{os.Stdin}, cfg.options()...)
		return fn(c)
	}
	return dlt.WithCapture(path, fn, cfg.options()...)
}
