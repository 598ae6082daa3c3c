package manifest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/twinfer/plistreader/internal/cel"
	"github.com/twinfer/plistreader/pkg/archive"
)

// job is one document awaiting decode. err is set when the entry already
// failed while it was being buffered.
type job struct {
	filename string
	payload  []byte
	err      error
}

// scanResult reports the end of scanning: how many documents were
// discovered, or why the container could not be read to its end
type scanResult struct {
	total int
	err   error
}

// scanner filters container entries and buffers the matching ones
type scanner struct {
	suffix    string
	chunkSize int
	filter    *cel.EntryFilter
	logger    *slog.Logger
}

func (s *scanner) include(e *archive.Entry) (bool, error) {
	if e.Kind != archive.KindFile || !strings.HasSuffix(e.Path, s.suffix) {
		return false, nil
	}
	if s.filter == nil {
		return true, nil
	}
	return s.filter.Match(e.Path, e.Size)
}

// scan consumes the stream and hands every matching entry to submit as soon
// as its buffer is finalized. Each matching entry is counted when it is first
// observed and contributes exactly one job.
func (s *scanner) scan(ctx context.Context, stream archive.Stream, submit func(job)) (int, error) {
	var total int
	buffers := make(map[string]*EntryBuffer)

	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		entry, err := stream.Next(ctx)
		if errors.Is(err, io.EOF) {
			return total, nil
		}
		if err != nil {
			return total, fmt.Errorf("reading container: %w", err)
		}

		ok, err := s.include(entry)
		if err != nil {
			return total, fmt.Errorf("filtering %s: %w", entry.Path, err)
		}
		if !ok {
			s.logger.DebugContext(ctx, "Skipping entry", "path", entry.Path, "kind", entry.Kind.String())
			continue
		}
		total++

		buf, seen := buffers[entry.Path]
		if !seen {
			buf = NewEntryBuffer(entry.Path)
			buffers[entry.Path] = buf
		}
		if err := s.fill(ctx, buf, entry.Body); err != nil {
			var protoErr *StreamProtocolError
			switch {
			case errors.As(err, &protoErr):
				s.logger.WarnContext(ctx, "Entry received data after finalize", "path", entry.Path)
				submit(job{filename: entry.Path, err: protoErr})
				continue
			case ctx.Err() != nil:
				return total, ctx.Err()
			default:
				submit(job{filename: entry.Path, err: &DecodeError{Filename: entry.Path, Cause: err}})
				continue
			}
		}
		s.logger.DebugContext(ctx, "Buffered entry", "path", entry.Path, "bytes", buf.Len())
		submit(job{filename: entry.Path, payload: buf.Detach()})
	}
}

// fill streams body into buf chunk by chunk and finalizes it at end of data
func (s *scanner) fill(ctx context.Context, buf *EntryBuffer, body io.Reader) error {
	chunk := make([]byte, s.chunkSize)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := body.Read(chunk)
		if n > 0 {
			if aerr := buf.Append(chunk[:n]); aerr != nil {
				return aerr
			}
		}
		if errors.Is(err, io.EOF) {
			return buf.Finalize()
		}
		if err != nil {
			return fmt.Errorf("reading entry: %w", err)
		}
	}
}
