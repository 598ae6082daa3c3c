package manifest

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/twinfer/plistreader/pkg/archive"
)

// outcome is the terminal state of one job
type outcome struct {
	job     job
	content any
	err     error
}

// coordinator dispatches decode jobs while the container is still being
// scanned and joins their outcomes. total, resolved and the aggregator are
// only touched from the goroutine calling run.
type coordinator struct {
	scanner     *scanner
	decoder     Decoder
	concurrency int
	agg         *aggregator
	listener    Listener
	logger      *slog.Logger

	// total is known once scanning finished
	total     int
	scanned   bool
	resolved  int
	completed bool
}

// remaining is the join counter: discovered documents not yet resolved
func (c *coordinator) remaining() int {
	return c.total - c.resolved
}

// run scans the stream and decodes every matching entry. It returns the fatal
// error that ended the run: a container read failure, ErrNoEntries or
// cancellation. OnComplete has not fired when an error is returned.
func (c *coordinator) run(ctx context.Context, stream archive.Stream) error {
	workCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	outcomes := make(chan outcome)
	scanned := make(chan scanResult, 1)
	go c.produce(workCtx, stream, outcomes, scanned)

	var fatal error
	for outcomes != nil || scanned != nil {
		select {
		case o, ok := <-outcomes:
			if !ok {
				outcomes = nil
				continue
			}
			if fatal != nil || ctx.Err() != nil {
				// Drain in-flight workers without reporting.
				continue
			}
			c.resolve(o)
		case res := <-scanned:
			scanned = nil
			switch {
			case res.err != nil:
				fatal = res.err
				cancel()
			case res.total == 0:
				fatal = ErrNoEntries
			default:
				c.total = res.total
				c.scanned = true
				c.logger.DebugContext(ctx, "Scanned container", "documents", res.total)
				c.checkComplete()
			}
		}
	}

	if fatal != nil {
		return fatal
	}
	if !c.completed {
		err := ctx.Err()
		if err == nil {
			err = context.Canceled
		}
		c.logger.WarnContext(ctx, "Decoding aborted", "remaining", c.remaining(), "total", c.total, "error", err)
		return err
	}
	return nil
}

// produce runs the scanner and submits each job to the decoder as soon as it
// is buffered, bounded by the concurrency limit. It reports the scan result
// before waiting for workers and closes out once every job reported back.
func (c *coordinator) produce(ctx context.Context, stream archive.Stream, out chan<- outcome, scanned chan<- scanResult) {
	var g errgroup.Group
	if c.concurrency > 0 {
		g.SetLimit(c.concurrency)
	}

	total, err := c.scanner.scan(ctx, stream, func(j job) {
		if j.err != nil {
			out <- outcome{job: j, err: j.err}
			return
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				out <- outcome{job: j, err: err}
				return nil
			}
			c.logger.DebugContext(ctx, "Decoding entry", "path", j.filename, "bytes", len(j.payload))
			content, err := c.decoder.Decode(ctx, j.payload)
			out <- outcome{job: j, content: content, err: err}
			return nil
		})
	})
	scanned <- scanResult{total: total, err: err}

	_ = g.Wait()
	close(out)
}

// resolve records one outcome, then always checks the join counter
func (c *coordinator) resolve(o outcome) {
	c.resolved++

	err := o.err
	if err == nil {
		res, ferr := c.agg.format(Result{Filename: o.job.filename, Content: o.content})
		if ferr != nil {
			err = ferr
		} else {
			c.agg.push(res)
			c.listener.OnDocument(res.Content, res.Filename)
		}
	}
	if err != nil {
		var protoErr *StreamProtocolError
		var decErr *DecodeError
		if !errors.As(err, &protoErr) && !errors.As(err, &decErr) {
			err = &DecodeError{Filename: o.job.filename, Cause: err}
		}
		c.logger.Debug("Entry failed", "path", o.job.filename, "error", err)
		c.listener.OnError(err, o.job.filename)
	}

	c.checkComplete()
}

// checkComplete fires OnComplete once scanning finished and every discovered
// document resolved
func (c *coordinator) checkComplete() {
	if !c.scanned || c.completed || c.remaining() != 0 {
		return
	}
	c.completed = true
	c.logger.Debug("Decoding complete", "total", c.total, "decoded", len(c.agg.results))
	c.listener.OnComplete(c.agg.snapshot())
}
