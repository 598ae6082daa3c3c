// Package archive exposes compressed containers as a sequence of named entries.
//
// A Stream yields entries in the container's own iteration order. The body of
// an entry is only valid until the next call to Next.
package archive

import (
	"context"
	"io"
	"strings"
)

// EntryKind distinguishes regular files from directories inside a container
type EntryKind int

const (
	KindFile EntryKind = iota
	KindDirectory
)

func (k EntryKind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDirectory:
		return "directory"
	default:
		return "unknown"
	}
}

// Entry is a single named item of a container
type Entry struct {
	Path string
	Kind EntryKind
	// Size is the uncompressed size announced by the container, or -1 when unknown.
	Size int64
	Body io.Reader
}

// Stream iterates over the entries of a container.
// Next returns io.EOF once the container is exhausted.
type Stream interface {
	Next(ctx context.Context) (*Entry, error)
	Close() error
}

// IsContainerPath reports whether the filename carries a container suffix (.zip or .ipa)
func IsContainerPath(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".zip") || strings.HasSuffix(lower, ".ipa")
}

// zipMagic is the signature of a zip local file header
var zipMagic = []byte{'P', 'K', 0x03, 0x04}

// IsContainerData reports whether data starts with a zip local file header
func IsContainerData(data []byte) bool {
	if len(data) < len(zipMagic) {
		return false
	}
	for i, b := range zipMagic {
		if data[i] != b {
			return false
		}
	}
	return true
}
