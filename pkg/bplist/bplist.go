// Package bplist decodes Apple binary property lists (bplist00) into plain Go
// trees.
//
// Decoded values map to Go types as follows:
//
//   - dict    → map[string]any
//   - array   → []any
//   - set     → []any
//   - string  → string (ASCII and UTF-16 forms)
//   - integer → int64, or uint64 for 128-bit encodings
//   - real    → float64
//   - boolean → bool
//   - date    → time.Time (UTC)
//   - data    → []byte
//   - uid     → UID
//   - null    → nil
package bplist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Magic is the header every binary property list starts with
const Magic = "bplist00"

const (
	headerSize  = 8
	trailerSize = 32
)

var (
	// ErrNotBinaryPlist is returned when the input lacks the bplist00 header
	ErrNotBinaryPlist = errors.New("not a binary property list")
	// ErrCorrupt is returned for structurally invalid documents
	ErrCorrupt = errors.New("corrupt binary property list")
)

// UID is a keyed-archiver object reference
type UID uint64

// appleEpoch is the reference date of binary plist timestamps
var appleEpoch = time.Date(2001, time.January, 1, 0, 0, 0, 0, time.UTC)

// Decoder decodes binary property lists
type Decoder struct {
	logger  *slog.Logger
	options options
}

type options struct {
	logger   *slog.Logger
	maxDepth int
}

// Option configures a Decoder
type Option func(*options)

// WithLogger sets a custom logger
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMaxDepth bounds container nesting
func WithMaxDepth(depth int) Option {
	return func(o *options) {
		o.maxDepth = depth
	}
}

func defaultOptions() options {
	return options{
		logger:   slog.Default(),
		maxDepth: 512,
	}
}

// NewDecoder creates a decoder with the given options
func NewDecoder(opts ...Option) *Decoder {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return &Decoder{logger: o.logger, options: o}
}

// Decode decodes a complete binary property list with a default decoder
func Decode(data []byte) (any, error) {
	return NewDecoder().Decode(context.Background(), data)
}

// Decode decodes a complete binary property list. Decode holds no state
// between calls and is safe for concurrent use.
func (d *Decoder) Decode(ctx context.Context, data []byte) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(data) < headerSize || string(data[:headerSize]) != Magic {
		return nil, ErrNotBinaryPlist
	}
	if len(data) < headerSize+trailerSize {
		return nil, fmt.Errorf("%w: %d bytes is too short for a trailer", ErrCorrupt, len(data))
	}

	doc, err := newDocument(ctx, data, d.options.maxDepth)
	if err != nil {
		return nil, err
	}
	value, err := doc.decodeRoot()
	if err != nil {
		return nil, err
	}
	d.logger.DebugContext(ctx, "Decoded binary property list", "bytes", len(data), "objects", doc.trailer.numObjects)
	return value, nil
}
