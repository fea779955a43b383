// Package dlt decodes DLT (diagnostic log and trace) captures recorded from
// vehicle ECUs into typed messages.
//
// A Capture scans its source for message boundaries, decodes the storage,
// standard and extended headers of each message and, for verbose messages,
// the self-describing argument list of the payload.
package dlt

import (
	"io"
	"iter"
	"os"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/pkg/errors"
)

// Capture is an open DLT capture. It is read in one forward pass and is not
// safe for concurrent use.
type Capture struct {
	name    string
	closer  io.Closer
	scanner *Scanner
	opts    options

	next int // index of the next delivered message
}

// Open opens the capture file at path.
func Open(path string, opt ...Option) (*Capture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &IOError{Op: "open", Path: path, Err: err}
	}
	c := NewCapture(f, opt...)
	c.name = path
	c.closer = f
	return c, nil
}

// NewCapture reads a capture from r. If r is an io.Closer, Close closes it.
func NewCapture(r io.Reader, opt ...Option) *Capture {
	var opts options
	for _, o := range opt {
		o(&opts)
	}
	checkOptions(&opts)

	c := &Capture{
		name:    "<stream>",
		scanner: NewScanner(r, BlockSizeOption(opts.blockSize)),
		opts:    opts,
	}
	if cl, ok := r.(io.Closer); ok {
		c.closer = cl
	}
	return c
}

// WithCapture opens path, hands the capture to fn and closes it on every
// return path.
func WithCapture(path string, fn func(*Capture) error, opt ...Option) (err error) {
	c, err := Open(path, opt...)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(c)
}

// Name returns the path the capture was opened from.
func (c *Capture) Name() string {
	return c.name
}

// Storaged reports whether every message carries a storage header.
func (c *Capture) Storaged() (bool, error) {
	return c.scanner.Storaged()
}

// Close releases the underlying source. It is safe to call more than once.
func (c *Capture) Close() error {
	if c.closer == nil {
		return nil
	}
	err := c.closer.Close()
	c.closer = nil
	log().Debugw("capture closed", "capture", c.name, "messages", c.next)
	if err != nil {
		return &IOError{Op: "close", Path: c.name, Err: err}
	}
	return nil
}

// Messages returns the decoded messages in capture order. Decode errors are
// handled by the capture's error policy; a read error or an Abort ends the
// sequence with a non-nil error.
func (c *Capture) Messages() iter.Seq2[*Message, error] {
	return func(yield func(*Message, error) bool) {
		storaged, err := c.scanner.Storaged()
		if err != nil {
			yield(nil, err)
			return
		}

		for c.scanner.Scan() {
			span := c.scanner.Bytes()
			if len(span) == 0 {
				continue
			}
			msg, err := DecodeMessage(span, storaged)
			msg, err = c.resolve(msg, err)
			if err != nil {
				yield(nil, err)
				return
			}
			if msg == nil {
				continue
			}
			if !yield(msg, nil) {
				return
			}
		}
		if err := c.scanner.Err(); err != nil {
			yield(nil, errors.WithMessage(err, c.name))
		}
	}
}

// resolve applies the error policy to the outcome of DecodeMessage. A nil
// message with a nil error means the message is skipped.
func (c *Capture) resolve(msg *Message, err error) (*Message, error) {
	if err == nil {
		msg.Index = c.next
		c.next++
		return msg, nil
	}

	switch c.opts.onError(err) {
	case Abort:
		return nil, err
	case Keep:
		if msg != nil {
			msg.Index = c.next
			c.next++
			log().Debugw("keeping partially decoded message", "capture", c.name, "index", msg.Index, "error", err)
			return msg, nil
		}
	}
	log().Debugw("skipping message", "capture", c.name, "error", err)
	return nil, nil
}

// Collect decodes all remaining messages into memory. With more than one
// worker configured the spans are read first and decoded on a worker pool;
// the result keeps capture order either way.
func (c *Capture) Collect() ([]*Message, error) {
	if c.opts.workers < 2 {
		var out []*Message
		for msg, err := range c.Messages() {
			if err != nil {
				return out, err
			}
			out = append(out, msg)
		}
		log().Infow("capture decoded", "capture", c.name, "messages", len(out))
		return out, nil
	}
	return c.collectParallel()
}

type decoded struct {
	msg *Message
	err error
}

func (c *Capture) collectParallel() ([]*Message, error) {
	storaged, err := c.scanner.Storaged()
	if err != nil {
		return nil, err
	}

	var spans [][]byte
	for c.scanner.Scan() {
		if span := c.scanner.Bytes(); len(span) > 0 {
			spans = append(spans, span)
		}
	}
	if err := c.scanner.Err(); err != nil {
		return nil, errors.WithMessage(err, c.name)
	}

	pool, err := ants.NewPool(c.opts.workers)
	if err != nil {
		return nil, errors.Wrap(err, "dlt: create worker pool")
	}
	defer pool.Release()

	results := make([]decoded, len(spans))
	var wg sync.WaitGroup
	for i, span := range spans {
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			msg, err := DecodeMessage(span, storaged)
			results[i] = decoded{msg: msg, err: err}
		}); err != nil {
			wg.Done()
			wg.Wait()
			return nil, errors.Wrap(err, "dlt: submit decode task")
		}
	}
	wg.Wait()

	out := make([]*Message, 0, len(results))
	for _, r := range results {
		msg, err := c.resolve(r.msg, r.err)
		if err != nil {
			return out, err
		}
		if msg != nil {
			out = append(out, msg)
		}
	}
	log().Infow("capture decoded", "capture", c.name, "messages", len(out), "workers", c.opts.workers)
	return out, nil
}
