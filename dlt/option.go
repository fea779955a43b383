package dlt

// ErrorAction decides what happens to a message whose decoding failed.
type ErrorAction int

const (
	// Skip drops the message and continues with the next one.
	Skip ErrorAction = iota
	// Keep delivers the partially decoded message with its Err set. Messages
	// whose headers could not be decoded are always skipped.
	Keep
	// Abort stops iteration and reports the error.
	Abort
)

// options holds the configuration of a Capture.
type options struct {
	blockSize int
	workers   int
	// onError is consulted for every per-message decode error.
	onError func(error) ErrorAction
}

// Option configures a Capture.
type Option func(*options)

// ScanBlockSizeOption sets the read block size of the underlying Scanner.
func ScanBlockSizeOption(n int) Option {
	return func(o *options) {
		o.blockSize = n
	}
}

// WorkersOption sets how many goroutines Collect uses to decode messages.
// Values below 2 decode sequentially.
func WorkersOption(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// OnErrorOption sets the per-message error policy.
func OnErrorOption(cb func(error) ErrorAction) Option {
	return func(o *options) {
		o.onError = cb
	}
}

// DefaultOnError keeps messages with partial payloads and skips those with
// unreadable headers.
func DefaultOnError(err error) ErrorAction {
	if isPayloadError(err) {
		return Keep
	}
	return Skip
}

func checkOptions(o *options) {
	if o.blockSize <= 0 {
		o.blockSize = DefaultBlockSize
	}
	if o.workers <= 0 {
		o.workers = 1
	}
	if o.onError == nil {
		o.onError = DefaultOnError
	}
}
