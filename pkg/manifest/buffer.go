package manifest

import "bytes"

// EntryBuffer accumulates the chunked payload of one container entry.
// Every chunk is appended, the first one included. Once finalized the buffer
// is frozen and its bytes belong to the decode job.
type EntryBuffer struct {
	path      string
	buf       bytes.Buffer
	finalized bool
}

// NewEntryBuffer creates an empty buffer for the entry at path
func NewEntryBuffer(path string) *EntryBuffer {
	return &EntryBuffer{path: path}
}

// Path returns the entry path the buffer belongs to
func (b *EntryBuffer) Path() string {
	return b.path
}

// Append copies chunk onto the end of the buffer
func (b *EntryBuffer) Append(chunk []byte) error {
	if b.finalized {
		return &StreamProtocolError{Filename: b.path}
	}
	b.buf.Write(chunk)
	return nil
}

// Finalize freezes the buffer. It may be called once.
func (b *EntryBuffer) Finalize() error {
	if b.finalized {
		return &StreamProtocolError{Filename: b.path}
	}
	b.finalized = true
	return nil
}

// Finalized reports whether Finalize has been called
func (b *EntryBuffer) Finalized() bool {
	return b.finalized
}

// Len returns the number of buffered bytes
func (b *EntryBuffer) Len() int {
	return b.buf.Len()
}

// Detach hands the payload of a finalized buffer to the caller. The buffer
// keeps its finalized state but no longer references the bytes.
func (b *EntryBuffer) Detach() []byte {
	if !b.finalized {
		return nil
	}
	out := b.buf.Bytes()
	b.buf = bytes.Buffer{}
	return out
}

// Bytes returns the accumulated payload. It must not be modified.
func (b *EntryBuffer) Bytes() []byte {
	return b.buf.Bytes()
}
