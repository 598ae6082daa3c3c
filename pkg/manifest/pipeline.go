package manifest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/twinfer/plistreader/internal/cel"
	"github.com/twinfer/plistreader/internal/render"
	"github.com/twinfer/plistreader/pkg/archive"
)

// Input is the target of one pipeline run: a filesystem path, or document
// bytes held in memory. Data wins when both are set.
type Input struct {
	Path string
	Data []byte
}

// IsContainer reports whether the input is a .zip/.ipa archive rather than a
// single document
func (in Input) IsContainer() bool {
	if in.Data != nil {
		return archive.IsContainerData(in.Data)
	}
	return archive.IsContainerPath(in.Path)
}

// Pipeline decodes documents from raw input or containers. A Pipeline holds no
// per-run state and may be reused and shared between goroutines.
type Pipeline struct {
	logger  *slog.Logger
	options options
	filter  *cel.EntryFilter
	query   *cel.Query
}

// New creates a pipeline with the given options
func New(opts ...Option) (*Pipeline, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.decoder == nil {
		return nil, errors.New("decoder cannot be nil")
	}
	if o.chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", o.chunkSize)
	}
	if o.format == "" {
		o.format = FormatRaw
	}
	format, err := render.ParseFormat(string(o.format))
	if err != nil {
		return nil, err
	}
	o.format = format

	p := &Pipeline{logger: o.logger, options: o}
	if o.entryFilter != "" {
		f, err := cel.NewEntryFilter(o.entryFilter)
		if err != nil {
			return nil, fmt.Errorf("entry filter: %w", err)
		}
		p.filter = f
	}
	if o.query != "" {
		q, err := cel.NewQuery(o.query)
		if err != nil {
			return nil, fmt.Errorf("query: %w", err)
		}
		p.query = q
	}
	return p, nil
}

// reader is one input-shape specific way of running the pipeline
type reader interface {
	read(ctx context.Context, l Listener) error
}

func (p *Pipeline) readerFor(in Input) reader {
	if in.IsContainer() {
		return &containerReader{p: p, in: in}
	}
	return &rawReader{p: p, in: in}
}

// Run processes the input and reports to l. It returns the fatal error that
// ended the run, or nil; per-document errors are only reported to l.
func (p *Pipeline) Run(ctx context.Context, in Input, l Listener) error {
	return p.readerFor(in).read(ctx, l)
}

// RunStream processes an already opened container stream. The caller keeps
// ownership of the stream.
func (p *Pipeline) RunStream(ctx context.Context, stream archive.Stream, l Listener) error {
	return p.decodeStream(ctx, stream, l)
}

func (p *Pipeline) newAggregator() *aggregator {
	return &aggregator{mode: p.options.format, query: p.query}
}

func (p *Pipeline) fatal(ctx context.Context, l Listener, err error) error {
	p.logger.ErrorContext(ctx, "Pipeline failed", "error", err)
	l.OnError(err, "")
	return err
}

// decodeStream runs the Scanning and Decoding states. Documents are decoded
// while the rest of the container is still being read.
func (p *Pipeline) decodeStream(ctx context.Context, stream archive.Stream, l Listener) error {
	co := &coordinator{
		scanner: &scanner{
			suffix:    p.options.suffix,
			chunkSize: p.options.chunkSize,
			filter:    p.filter,
			logger:    p.logger,
		},
		decoder:     p.options.decoder,
		concurrency: p.options.concurrency,
		agg:         p.newAggregator(),
		listener:    l,
		logger:      p.logger,
	}
	if err := co.run(ctx, stream); err != nil {
		return p.fatal(ctx, l, err)
	}
	return nil
}

// containerReader handles .zip/.ipa archives
type containerReader struct {
	p  *Pipeline
	in Input
}

func (r *containerReader) read(ctx context.Context, l Listener) error {
	if err := ctx.Err(); err != nil {
		return r.p.fatal(ctx, l, err)
	}

	var stream *archive.ZipStream
	var err error
	if r.in.Data != nil {
		stream, err = archive.NewZipStream(r.in.Data)
	} else {
		if _, serr := os.Stat(r.in.Path); serr != nil {
			if errors.Is(serr, fs.ErrNotExist) {
				return r.p.fatal(ctx, l, fmt.Errorf("%w: %s", ErrMissingFile, r.in.Path))
			}
			return r.p.fatal(ctx, l, fmt.Errorf("inspecting %s: %w", r.in.Path, serr))
		}
		stream, err = archive.OpenZip(r.in.Path)
	}
	if err != nil {
		return r.p.fatal(ctx, l, err)
	}
	defer stream.Close()

	return r.p.decodeStream(ctx, stream, l)
}

// rawReader handles a single document; there is exactly one job, so no join
// counter is involved and OnComplete never fires
type rawReader struct {
	p  *Pipeline
	in Input
}

func (r *rawReader) read(ctx context.Context, l Listener) error {
	if err := ctx.Err(); err != nil {
		return r.p.fatal(ctx, l, err)
	}

	data := r.in.Data
	if data == nil {
		var err error
		data, err = os.ReadFile(r.in.Path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return r.p.fatal(ctx, l, fmt.Errorf("%w: %s", ErrMissingFile, r.in.Path))
			}
			return r.p.fatal(ctx, l, fmt.Errorf("reading %s: %w", r.in.Path, err))
		}
	}

	content, err := r.p.options.decoder.Decode(ctx, data)
	if err != nil {
		if ctx.Err() != nil {
			return r.p.fatal(ctx, l, ctx.Err())
		}
		return r.p.fatal(ctx, l, &DecodeError{Cause: err})
	}
	res, err := r.p.newAggregator().format(Result{Content: content})
	if err != nil {
		return r.p.fatal(ctx, l, &DecodeError{Cause: err})
	}
	l.OnDocument(res.Content, "")
	return nil
}
