package testutil

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/require"
)

// ZipEntry is one item of a fixture archive. Names ending in "/" become directories.
type ZipEntry struct {
	Name string
	Data []byte
	// Method, when non-zero, stores Data verbatim under that compression method id.
	Method uint16
}

// ZipBytes builds an in-memory archive with the entries in the given order
func ZipBytes(t testing.TB, entries ...ZipEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		if strings.HasSuffix(e.Name, "/") {
			_, err := zw.CreateHeader(&zip.FileHeader{Name: e.Name, Method: zip.Store})
			require.NoError(t, err)
			continue
		}
		if e.Method != 0 {
			w, err := zw.CreateRaw(&zip.FileHeader{
				Name:               e.Name,
				Method:             e.Method,
				CRC32:              crc32.ChecksumIEEE(e.Data),
				CompressedSize64:   uint64(len(e.Data)),
				UncompressedSize64: uint64(len(e.Data)),
			})
			require.NoError(t, err)
			_, err = w.Write(e.Data)
			require.NoError(t, err)
			continue
		}
		w, err := zw.Create(e.Name)
		require.NoError(t, err)
		_, err = w.Write(e.Data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// WriteZip writes a fixture archive named name into a temp dir and returns its path
func WriteZip(t testing.TB, name string, entries ...ZipEntry) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, ZipBytes(t, entries...), 0644))
	return path
}

// CorruptZipEntry returns a copy of an archive built by ZipBytes with the
// first bytes of the named entry's compressed data overwritten, so inflating
// that entry fails while every other entry stays readable.
func CorruptZipEntry(t testing.TB, data []byte, name string) []byte {
	t.Helper()
	out := append([]byte(nil), data...)
	sig := []byte("PK\x03\x04")
	for i := 0; i+30 <= len(out); i++ {
		if !bytes.Equal(out[i:i+4], sig) {
			continue
		}
		nameLen := int(binary.LittleEndian.Uint16(out[i+26:]))
		extraLen := int(binary.LittleEndian.Uint16(out[i+28:]))
		if nameLen != len(name) || i+30+nameLen > len(out) || string(out[i+30:i+30+nameLen]) != name {
			continue
		}
		start := i + 30 + nameLen + extraLen
		require.LessOrEqual(t, start+4, len(out))
		copy(out[start:], []byte{0xff, 0xff, 0xff, 0xff})
		return out
	}
	t.Fatalf("entry %s not found in archive", name)
	return nil
}
