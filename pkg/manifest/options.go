package manifest

import (
	"context"
	"log/slog"

	"github.com/twinfer/plistreader/internal/render"
	"github.com/twinfer/plistreader/pkg/bplist"
)

// Format selects how decoded documents are surfaced
type Format = render.Format

const (
	FormatRaw  = render.FormatRaw
	FormatJSON = render.FormatJSON
	FormatYAML = render.FormatYAML
	FormatXML  = render.FormatXML
	FormatCBOR = render.FormatCBOR
)

// ParseFormat resolves a format name such as "json"
func ParseFormat(name string) (Format, error) {
	return render.ParseFormat(name)
}

// DefaultSuffix is the entry name suffix of documents inside a container
const DefaultSuffix = ".plist"

// DefaultChunkSize is the read size used when streaming entry payloads
const DefaultChunkSize = 32 * 1024

// Decoder turns a complete binary document into a tree
type Decoder interface {
	Decode(ctx context.Context, data []byte) (any, error)
}

// DecoderFunc adapts a function to a Decoder
type DecoderFunc func(ctx context.Context, data []byte) (any, error)

func (f DecoderFunc) Decode(ctx context.Context, data []byte) (any, error) {
	return f(ctx, data)
}

// options holds configuration for the pipeline
type options struct {
	logger      *slog.Logger
	decoder     Decoder
	format      Format
	concurrency int
	chunkSize   int
	suffix      string
	entryFilter string
	query       string
}

// Option is a function that configures pipeline options
type Option func(*options)

// WithLogger sets a custom logger
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithDecoder replaces the binary property list decoder
func WithDecoder(d Decoder) Option {
	return func(o *options) {
		o.decoder = d
	}
}

// WithFormat sets the output format (defaults to raw)
func WithFormat(f Format) Option {
	return func(o *options) {
		o.format = f
	}
}

// WithConcurrency bounds the number of in-flight decodes. Zero or a negative
// value leaves fan-out unbounded, which is the default.
func WithConcurrency(n int) Option {
	return func(o *options) {
		o.concurrency = n
	}
}

// WithChunkSize sets the read size used when streaming entry payloads
func WithChunkSize(n int) Option {
	return func(o *options) {
		o.chunkSize = n
	}
}

// WithSuffix changes the entry name suffix that marks documents
func WithSuffix(suffix string) Option {
	return func(o *options) {
		o.suffix = suffix
	}
}

// WithEntryFilter narrows container entries with a CEL expression over
// entry.path, entry.name, entry.dir and entry.size. It is applied after the
// suffix and kind checks.
func WithEntryFilter(expr string) Option {
	return func(o *options) {
		o.entryFilter = expr
	}
}

// WithQuery projects each decoded document with a CEL expression over doc and
// filename before it is formatted
func WithQuery(expr string) Option {
	return func(o *options) {
		o.query = expr
	}
}

// defaultOptions returns the default configuration
func defaultOptions() options {
	return options{
		logger:    slog.Default(),
		decoder:   bplist.NewDecoder(),
		format:    FormatRaw,
		chunkSize: DefaultChunkSize,
		suffix:    DefaultSuffix,
	}
}
