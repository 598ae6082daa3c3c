package archive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zip"
)

// ZipStream walks the entries of a zip (or ipa) archive in central directory order
type ZipStream struct {
	reader *zip.Reader
	closer io.Closer
	next   int
	body   *entryBody
}

// OpenZip opens the archive at path. The caller must Close the stream.
func OpenZip(path string) (*ZipStream, error) {
	rc, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening archive %s: %w", path, err)
	}
	return &ZipStream{reader: &rc.Reader, closer: rc}, nil
}

// NewZipStream reads an archive held in memory
func NewZipStream(data []byte) (*ZipStream, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("reading archive: %w", err)
	}
	return &ZipStream{reader: zr}, nil
}

// Next returns the next entry. The previous entry's body is closed.
func (z *ZipStream) Next(ctx context.Context) (*Entry, error) {
	z.closeBody()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if z.next >= len(z.reader.File) {
		return nil, io.EOF
	}
	f := z.reader.File[z.next]
	z.next++

	entry := &Entry{
		Path: f.Name,
		Kind: KindFile,
		Size: int64(f.UncompressedSize64),
	}
	if f.FileInfo().IsDir() || strings.HasSuffix(f.Name, "/") {
		entry.Kind = KindDirectory
		entry.Body = bytes.NewReader(nil)
		return entry, nil
	}

	z.body = &entryBody{file: f}
	entry.Body = z.body
	return entry, nil
}

// closeBody releases the previous entry. Failures while reading that entry
// already surfaced through its Read, so the close error is not reported again.
func (z *ZipStream) closeBody() {
	if z.body == nil {
		return
	}
	_ = z.body.Close()
	z.body = nil
}

// Close releases the current entry and the underlying file, if any
func (z *ZipStream) Close() error {
	z.closeBody()
	if z.closer == nil {
		return nil
	}
	err := z.closer.Close()
	z.closer = nil
	return err
}

// entryBody opens its file on the first Read, so entries nobody reads are
// never decompressed. An open failure, such as an unsupported compression
// method, is returned from Read and only affects that entry.
type entryBody struct {
	file *zip.File
	rc   io.ReadCloser
	err  error
}

func (b *entryBody) Read(p []byte) (int, error) {
	if b.err != nil {
		return 0, b.err
	}
	if b.rc == nil {
		rc, err := b.file.Open()
		if err != nil {
			b.err = fmt.Errorf("opening entry %s: %w", b.file.Name, err)
			return 0, b.err
		}
		b.rc = rc
	}
	return b.rc.Read(p)
}

func (b *entryBody) Close() error {
	if b.rc == nil {
		return nil
	}
	err := b.rc.Close()
	b.rc = nil
	return err
}
