package manifest

import "errors"

// Result is one decoded document
type Result struct {
	// Filename is the entry path inside the container, empty for raw input.
	Filename string
	// Content is the decoded tree in raw mode, or its rendered text otherwise.
	Content any
}

// Listener receives pipeline events. All methods are called serially from the
// goroutine running the pipeline.
//
//   - OnDocument fires once per decoded document. filename is empty for raw input.
//   - OnError fires once per failed document (*DecodeError, *StreamProtocolError),
//     and at most once for a fatal error (ErrMissingFile, ErrNoEntries,
//     cancellation, container I/O). Fatal errors carry an empty filename.
//   - OnComplete fires at most once, for container input, after every
//     discovered document resolved and no fatal error occurred. Results are in
//     decode completion order, which is not the container order.
type Listener interface {
	OnDocument(content any, filename string)
	OnError(err error, filename string)
	OnComplete(results []Result)
}

// ListenerFuncs adapts plain functions to a Listener. Nil fields are ignored.
type ListenerFuncs struct {
	Document func(content any, filename string)
	Error    func(err error, filename string)
	Complete func(results []Result)
}

func (l ListenerFuncs) OnDocument(content any, filename string) {
	if l.Document != nil {
		l.Document(content, filename)
	}
}

func (l ListenerFuncs) OnError(err error, filename string) {
	if l.Error != nil {
		l.Error(err, filename)
	}
}

func (l ListenerFuncs) OnComplete(results []Result) {
	if l.Complete != nil {
		l.Complete(results)
	}
}

// FileError pairs an error with the entry it was reported for
type FileError struct {
	Filename string
	Err      error
}

// Collector is a Listener that records every event
type Collector struct {
	Documents   []Result
	Errors      []FileError
	Completions [][]Result
}

func (c *Collector) OnDocument(content any, filename string) {
	c.Documents = append(c.Documents, Result{Filename: filename, Content: content})
}

func (c *Collector) OnError(err error, filename string) {
	c.Errors = append(c.Errors, FileError{Filename: filename, Err: err})
}

func (c *Collector) OnComplete(results []Result) {
	c.Completions = append(c.Completions, results)
}

// Err joins every recorded error, or returns nil
func (c *Collector) Err() error {
	errs := make([]error, 0, len(c.Errors))
	for _, fe := range c.Errors {
		errs = append(errs, fe.Err)
	}
	return errors.Join(errs...)
}
