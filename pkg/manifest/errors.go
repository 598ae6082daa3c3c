package manifest

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingFile is reported when the target does not exist
	ErrMissingFile = errors.New("file does not exist")
	// ErrNoEntries is reported when a container holds no matching documents
	ErrNoEntries = errors.New("archive does not contain any plist files")
)

// DecodeError is a per-document failure. It never aborts sibling documents.
type DecodeError struct {
	// Filename is the entry path, empty for raw single-document input.
	Filename string
	Cause    error
}

func (e *DecodeError) Error() string {
	if e.Filename == "" {
		return fmt.Sprintf("decoding document: %v", e.Cause)
	}
	return fmt.Sprintf("decoding %s: %v", e.Filename, e.Cause)
}

func (e *DecodeError) Unwrap() error {
	return e.Cause
}

// StreamProtocolError reports data arriving for an entry whose buffer was
// already finalized, e.g. a container listing the same path twice.
type StreamProtocolError struct {
	Filename string
}

func (e *StreamProtocolError) Error() string {
	return fmt.Sprintf("entry %s received data after it was finalized", e.Filename)
}
