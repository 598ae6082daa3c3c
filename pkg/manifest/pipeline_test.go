package manifest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twinfer/plistreader/pkg/archive"
	"github.com/twinfer/plistreader/pkg/bplist"
	"github.com/twinfer/plistreader/testutil"
)

// --- Test Helpers ---

// chunkReader hands out its chunks one Read at a time
type chunkReader struct {
	chunks [][]byte
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if len(r.chunks) == 0 {
		return 0, io.EOF
	}
	n := copy(p, r.chunks[0])
	r.chunks[0] = r.chunks[0][n:]
	if len(r.chunks[0]) == 0 {
		r.chunks = r.chunks[1:]
	}
	return n, nil
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("checksum mismatch")
}

type fakeEntry struct {
	path   string
	kind   archive.EntryKind
	chunks [][]byte
	broken bool
}

func file(path string, chunks ...[]byte) fakeEntry {
	return fakeEntry{path: path, kind: archive.KindFile, chunks: chunks}
}

func dir(path string) fakeEntry {
	return fakeEntry{path: path, kind: archive.KindDirectory}
}

// fakeStream replays a fixed list of entries, then returns err (or io.EOF)
type fakeStream struct {
	entries []fakeEntry
	next    int
	err     error
}

func (s *fakeStream) Next(ctx context.Context) (*archive.Entry, error) {
	if s.next >= len(s.entries) {
		if s.err != nil {
			return nil, s.err
		}
		return nil, io.EOF
	}
	e := s.entries[s.next]
	s.next++
	var body io.Reader = &chunkReader{chunks: append([][]byte(nil), e.chunks...)}
	if e.broken {
		body = failingReader{}
	}
	return &archive.Entry{Path: e.path, Kind: e.kind, Size: -1, Body: body}, nil
}

func (s *fakeStream) Close() error { return nil }

// gatedStream holds back every entry after the first until gate is closed
type gatedStream struct {
	fakeStream
	gate <-chan struct{}
}

func (s *gatedStream) Next(ctx context.Context) (*archive.Entry, error) {
	if s.next > 0 {
		select {
		case <-s.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(2 * time.Second):
			return nil, errors.New("first document was not decoded while the container was open")
		}
	}
	return s.fakeStream.Next(ctx)
}

// textDecoder accepts any payload not starting with "bad"
func textDecoder(_ context.Context, data []byte) (any, error) {
	if bytes.HasPrefix(data, []byte("bad")) {
		return nil, errors.New("malformed document")
	}
	return string(data), nil
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func newTestPipeline(t *testing.T, opts ...Option) *Pipeline {
	t.Helper()
	p, err := New(append([]Option{WithDecoder(DecoderFunc(textDecoder))}, opts...)...)
	require.NoError(t, err)
	return p
}

func filenames(results []Result) []string {
	out := make([]string, 0, len(results))
	for _, r := range results {
		out = append(out, r.Filename)
	}
	return out
}

// --- Container path ---

func TestIPAWithValidAndCorruptDocuments(t *testing.T) {
	tree := map[string]any{"CFBundleIdentifier": "com.example.app", "CFBundleVersion": 12}
	info := testutil.MustBinaryPlist(tree)
	half := len(info) / 2

	stream := &fakeStream{entries: []fakeEntry{
		dir("Payload/"),
		file("Info.plist", info[:half], info[half:]),
		file("Bad.plist", []byte("definitely not a plist")),
	}}

	p, err := New()
	require.NoError(t, err)
	var c Collector
	require.NoError(t, p.RunStream(context.Background(), stream, &c))

	require.Len(t, c.Errors, 1)
	assert.Equal(t, "Bad.plist", c.Errors[0].Filename)
	var decErr *DecodeError
	require.ErrorAs(t, c.Errors[0].Err, &decErr)
	assert.Equal(t, "Bad.plist", decErr.Filename)
	assert.ErrorIs(t, c.Errors[0].Err, bplist.ErrNotBinaryPlist)

	require.Len(t, c.Completions, 1)
	results := c.Completions[0]
	require.Len(t, results, 1)
	assert.Equal(t, "Info.plist", results[0].Filename)
	testutil.AssertTree(t, tree, results[0].Content)

	require.Len(t, c.Documents, 1)
	assert.Equal(t, "Info.plist", c.Documents[0].Filename)
}

func TestIPAFileOnDisk(t *testing.T) {
	tree := map[string]any{"CFBundleName": "App"}
	path := testutil.WriteZip(t, "app.ipa",
		testutil.ZipEntry{Name: "Payload/"},
		testutil.ZipEntry{Name: "Payload/App.app/"},
		testutil.ZipEntry{Name: "Payload/App.app/Info.plist", Data: testutil.MustBinaryPlist(tree)},
		testutil.ZipEntry{Name: "Payload/App.app/Bad.plist", Data: []byte("corrupt")},
		testutil.ZipEntry{Name: "Payload/App.app/App", Data: []byte{0xcf, 0xfa, 0xed, 0xfe}},
	)

	p, err := New(WithChunkSize(7))
	require.NoError(t, err)
	var c Collector
	require.NoError(t, p.Run(context.Background(), Input{Path: path}, &c))

	require.Len(t, c.Errors, 1)
	assert.Equal(t, "Payload/App.app/Bad.plist", c.Errors[0].Filename)
	require.Len(t, c.Completions, 1)
	require.Len(t, c.Completions[0], 1)
	assert.Equal(t, "Payload/App.app/Info.plist", c.Completions[0][0].Filename)
	testutil.AssertTree(t, tree, c.Completions[0][0].Content)
}

func TestCorruptZipEntryFailsOnlyItself(t *testing.T) {
	good := map[string]any{"CFBundleName": "Good"}
	data := testutil.ZipBytes(t,
		testutil.ZipEntry{Name: "Bad.plist", Data: testutil.MustBinaryPlist(map[string]any{"CFBundleName": "Bad"})},
		testutil.ZipEntry{Name: "Good.plist", Data: testutil.MustBinaryPlist(good)},
	)
	data = testutil.CorruptZipEntry(t, data, "Bad.plist")

	p, err := New()
	require.NoError(t, err)
	var c Collector
	require.NoError(t, p.Run(context.Background(), Input{Data: data}, &c))

	require.Len(t, c.Errors, 1)
	assert.Equal(t, "Bad.plist", c.Errors[0].Filename)
	var decErr *DecodeError
	assert.ErrorAs(t, c.Errors[0].Err, &decErr)
	require.Len(t, c.Completions, 1)
	require.Len(t, c.Completions[0], 1)
	assert.Equal(t, "Good.plist", c.Completions[0][0].Filename)
	testutil.AssertTree(t, good, c.Completions[0][0].Content)
}

func TestUnsupportedCompressionOnSkippedEntry(t *testing.T) {
	data := testutil.ZipBytes(t,
		testutil.ZipEntry{Name: "Payload/App.app/Assets.car", Method: 14, Data: []byte("lzma payload")},
		testutil.ZipEntry{Name: "Payload/App.app/Info.plist", Data: testutil.MustBinaryPlist("info")},
	)

	p, err := New()
	require.NoError(t, err)
	var c Collector
	require.NoError(t, p.Run(context.Background(), Input{Data: data}, &c))

	assert.Empty(t, c.Errors)
	require.Len(t, c.Completions, 1)
	require.Len(t, c.Completions[0], 1)
	assert.Equal(t, "info", c.Completions[0][0].Content)
}

func TestContainerBytesInMemory(t *testing.T) {
	data := testutil.ZipBytes(t,
		testutil.ZipEntry{Name: "a.plist", Data: testutil.MustBinaryPlist("a")},
		testutil.ZipEntry{Name: "b.plist", Data: testutil.MustBinaryPlist("b")},
	)
	p, err := New()
	require.NoError(t, err)
	var c Collector
	require.NoError(t, p.Run(context.Background(), Input{Data: data}, &c))
	require.Len(t, c.Completions, 1)
	assert.ElementsMatch(t, []string{"a.plist", "b.plist"}, filenames(c.Completions[0]))
}

func TestOutcomeCounts(t *testing.T) {
	for k := 1; k <= 6; k++ {
		for f := 0; f <= k; f++ {
			t.Run(fmt.Sprintf("k=%d f=%d", k, f), func(t *testing.T) {
				stream := &fakeStream{}
				for i := 0; i < k; i++ {
					payload := []byte(fmt.Sprintf("doc-%d", i))
					if i < f {
						payload = []byte(fmt.Sprintf("bad-%d", i))
					}
					stream.entries = append(stream.entries, file(fmt.Sprintf("%d.plist", i), payload))
				}

				var c Collector
				require.NoError(t, newTestPipeline(t).RunStream(context.Background(), stream, &c))

				assert.Len(t, c.Documents, k-f)
				assert.Len(t, c.Errors, f)
				require.Len(t, c.Completions, 1)
				assert.Len(t, c.Completions[0], k-f)
			})
		}
	}
}

func TestCompletesWhenLastDocumentFails(t *testing.T) {
	stream := &fakeStream{entries: []fakeEntry{
		file("a.plist", []byte("ok")),
		file("b.plist", []byte("ok")),
		file("c.plist", []byte("bad")),
	}}

	var c Collector
	require.NoError(t, newTestPipeline(t, WithConcurrency(1)).RunStream(context.Background(), stream, &c))

	require.Len(t, c.Errors, 1)
	assert.Equal(t, "c.plist", c.Errors[0].Filename)
	require.Len(t, c.Completions, 1)
	assert.Equal(t, []string{"a.plist", "b.plist"}, filenames(c.Completions[0]))
}

func TestCompletesWhenEveryDocumentFails(t *testing.T) {
	stream := &fakeStream{entries: []fakeEntry{
		file("a.plist", []byte("bad")),
		file("b.plist", []byte("bad")),
	}}

	var c Collector
	require.NoError(t, newTestPipeline(t).RunStream(context.Background(), stream, &c))
	assert.Len(t, c.Errors, 2)
	require.Len(t, c.Completions, 1)
	assert.Empty(t, c.Completions[0])
}

func TestMultiChunkEntriesAreConcatenated(t *testing.T) {
	var mu sync.Mutex
	seen := make(map[string]bool)
	decoder := DecoderFunc(func(_ context.Context, data []byte) (any, error) {
		mu.Lock()
		seen[string(data)] = true
		mu.Unlock()
		return string(data), nil
	})

	stream := &fakeStream{}
	var want []string
	for n := 1; n <= 8; n++ {
		var chunks [][]byte
		var whole []byte
		for i := 0; i < n; i++ {
			chunk := []byte(fmt.Sprintf("[%d:%d]", n, i))
			chunks = append(chunks, chunk)
			whole = append(whole, chunk...)
		}
		want = append(want, string(whole))
		stream.entries = append(stream.entries, file(fmt.Sprintf("doc%d.plist", n), chunks...))
	}

	p, err := New(WithDecoder(decoder), WithChunkSize(3))
	require.NoError(t, err)
	var c Collector
	require.NoError(t, p.RunStream(context.Background(), stream, &c))

	require.Len(t, c.Completions, 1)
	for _, w := range want {
		assert.True(t, seen[w], "payload %q was not decoded intact", w)
	}
}

func TestResultsFollowCompletionOrder(t *testing.T) {
	release := make(chan struct{})
	decoder := DecoderFunc(func(ctx context.Context, data []byte) (any, error) {
		if string(data) == "slow" {
			select {
			case <-release:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		return string(data), nil
	})

	stream := &fakeStream{entries: []fakeEntry{
		file("slow.plist", []byte("slow")),
		file("fast.plist", []byte("fast")),
	}}

	p, err := New(WithDecoder(decoder))
	require.NoError(t, err)

	var completed []Result
	listener := ListenerFuncs{
		Document: func(_ any, filename string) {
			if filename == "fast.plist" {
				close(release)
			}
		},
		Complete: func(results []Result) { completed = results },
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, p.RunStream(ctx, stream, listener))
	assert.Equal(t, []string{"fast.plist", "slow.plist"}, filenames(completed))
}

func TestConcurrencyBound(t *testing.T) {
	var inFlight, peak atomic.Int32
	decoder := DecoderFunc(func(_ context.Context, data []byte) (any, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		return string(data), nil
	})

	stream := &fakeStream{}
	for i := 0; i < 12; i++ {
		stream.entries = append(stream.entries, file(fmt.Sprintf("%d.plist", i), []byte("x")))
	}

	p, err := New(WithDecoder(decoder), WithConcurrency(2))
	require.NoError(t, err)
	var c Collector
	require.NoError(t, p.RunStream(context.Background(), stream, &c))

	require.Len(t, c.Completions, 1)
	assert.Len(t, c.Completions[0], 12)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestDecodingStartsBeforeScanEnds(t *testing.T) {
	started := make(chan struct{})
	var once sync.Once
	decoder := DecoderFunc(func(_ context.Context, data []byte) (any, error) {
		once.Do(func() { close(started) })
		return string(data), nil
	})

	stream := &gatedStream{
		fakeStream: fakeStream{entries: []fakeEntry{
			file("a.plist", []byte("a")),
			file("b.plist", []byte("b")),
		}},
		gate: started,
	}

	p, err := New(WithDecoder(decoder))
	require.NoError(t, err)
	var c Collector
	require.NoError(t, p.RunStream(context.Background(), stream, &c))
	require.Len(t, c.Completions, 1)
	assert.ElementsMatch(t, []string{"a.plist", "b.plist"}, filenames(c.Completions[0]))
}

func TestWrappedDecodeErrorIsReportedAsIs(t *testing.T) {
	wrapped := fmt.Errorf("nested document: %w", &DecodeError{Filename: "inner.plist", Cause: errors.New("boom")})
	decoder := DecoderFunc(func(context.Context, []byte) (any, error) {
		return nil, wrapped
	})
	stream := &fakeStream{entries: []fakeEntry{file("outer.plist", []byte("x"))}}

	p, err := New(WithDecoder(decoder))
	require.NoError(t, err)
	var c Collector
	require.NoError(t, p.RunStream(context.Background(), stream, &c))

	require.Len(t, c.Errors, 1)
	assert.Equal(t, "outer.plist", c.Errors[0].Filename)
	assert.Equal(t, wrapped, c.Errors[0].Err)
	require.Len(t, c.Completions, 1)
	assert.Empty(t, c.Completions[0])
}

func TestDuplicateEntryIsAProtocolError(t *testing.T) {
	stream := &fakeStream{entries: []fakeEntry{
		file("Info.plist", []byte("first")),
		file("Info.plist", []byte("second")),
		file("Other.plist", []byte("other")),
	}}

	var c Collector
	require.NoError(t, newTestPipeline(t).RunStream(context.Background(), stream, &c))

	require.Len(t, c.Errors, 1)
	var protoErr *StreamProtocolError
	require.ErrorAs(t, c.Errors[0].Err, &protoErr)
	assert.Equal(t, "Info.plist", protoErr.Filename)

	require.Len(t, c.Completions, 1)
	assert.ElementsMatch(t, []Result{
		{Filename: "Info.plist", Content: "first"},
		{Filename: "Other.plist", Content: "other"},
	}, c.Completions[0])
}

func TestUnreadableEntryFailsOnlyItself(t *testing.T) {
	stream := &fakeStream{entries: []fakeEntry{
		{path: "broken.plist", kind: archive.KindFile, broken: true},
		file("good.plist", []byte("good")),
	}}

	var c Collector
	require.NoError(t, newTestPipeline(t).RunStream(context.Background(), stream, &c))

	require.Len(t, c.Errors, 1)
	assert.Equal(t, "broken.plist", c.Errors[0].Filename)
	var decErr *DecodeError
	assert.ErrorAs(t, c.Errors[0].Err, &decErr)
	require.Len(t, c.Completions, 1)
	assert.Equal(t, []string{"good.plist"}, filenames(c.Completions[0]))
}

// --- Fatal paths ---

func TestNoMatchingEntries(t *testing.T) {
	stream := &fakeStream{entries: []fakeEntry{
		dir("Payload/"),
		dir("Payload/Settings.plist/"),
		file("Payload/readme.txt", []byte("hello")),
		file("Payload/Info.plist.bak", []byte("old")),
	}}

	var c Collector
	err := newTestPipeline(t).RunStream(context.Background(), stream, &c)
	assert.ErrorIs(t, err, ErrNoEntries)

	require.Len(t, c.Errors, 1)
	assert.ErrorIs(t, c.Errors[0].Err, ErrNoEntries)
	assert.Empty(t, c.Errors[0].Filename)
	assert.Empty(t, c.Completions)
	assert.Empty(t, c.Documents)
}

func TestMissingContainer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.ipa")

	var c Collector
	err := newTestPipeline(t).Run(context.Background(), Input{Path: path}, &c)
	assert.ErrorIs(t, err, ErrMissingFile)

	require.Len(t, c.Errors, 1)
	assert.ErrorIs(t, c.Errors[0].Err, ErrMissingFile)
	assert.Empty(t, c.Completions)
	assert.Empty(t, c.Documents)
}

func TestContainerReadFailureIsFatal(t *testing.T) {
	stream := &fakeStream{
		entries: []fakeEntry{file("a.plist", []byte("a"))},
		err:     fs.ErrPermission,
	}

	var c Collector
	err := newTestPipeline(t).RunStream(context.Background(), stream, &c)
	assert.ErrorIs(t, err, fs.ErrPermission)
	require.Len(t, c.Errors, 1)
	assert.Empty(t, c.Errors[0].Filename)
	assert.Empty(t, c.Completions)
}

func TestCancellationSuppressesCompletion(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	decoder := DecoderFunc(func(_ context.Context, data []byte) (any, error) {
		cancel()
		return string(data), nil
	})
	stream := &fakeStream{entries: []fakeEntry{
		file("a.plist", []byte("a")),
		file("b.plist", []byte("b")),
		file("c.plist", []byte("c")),
	}}

	p, err := New(WithDecoder(decoder), WithConcurrency(1))
	require.NoError(t, err)
	var c Collector
	err = p.RunStream(ctx, stream, &c)
	assert.ErrorIs(t, err, context.Canceled)

	assert.Empty(t, c.Completions)
	assert.Empty(t, c.Documents)
	require.Len(t, c.Errors, 1)
	assert.ErrorIs(t, c.Errors[0].Err, context.Canceled)
}

func TestCancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var c Collector
	err := newTestPipeline(t).Run(ctx, Input{Data: []byte("doc")}, &c)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, c.Errors, 1)
	assert.Empty(t, c.Documents)
}

// --- Raw path ---

func TestRawDocumentBytes(t *testing.T) {
	tree := map[string]any{"Key": "Value"}
	p, err := New()
	require.NoError(t, err)

	var c Collector
	require.NoError(t, p.Run(context.Background(), Input{Data: testutil.MustBinaryPlist(tree)}, &c))

	require.Len(t, c.Documents, 1)
	assert.Empty(t, c.Documents[0].Filename)
	testutil.AssertTree(t, tree, c.Documents[0].Content)
	assert.Empty(t, c.Errors)
	assert.Empty(t, c.Completions)
}

func TestRawDocumentIsIdempotent(t *testing.T) {
	data := testutil.MustBinaryPlist(map[string]any{"a": []any{1, 2, "three"}, "b": true})
	first, err := DecodeBytes(context.Background(), data)
	require.NoError(t, err)
	second, err := DecodeBytes(context.Background(), data)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRawDocumentFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Info.plist")
	writeFile(t, path, testutil.MustBinaryPlist(map[string]any{"CFBundleName": "App"}))

	results, err := ReadFile(context.Background(), path, WithFormat(FormatJSON))
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.JSONEq(t, `{"CFBundleName": "App"}`, results[0].Content.(string))
}

func TestRawDocumentErrors(t *testing.T) {
	p, err := New()
	require.NoError(t, err)

	var c Collector
	err = p.Run(context.Background(), Input{Data: []byte("garbage")}, &c)
	var decErr *DecodeError
	require.ErrorAs(t, err, &decErr)
	assert.Empty(t, decErr.Filename)
	assert.Len(t, c.Errors, 1)
	assert.Empty(t, c.Documents)

	c = Collector{}
	err = p.Run(context.Background(), Input{Path: filepath.Join(t.TempDir(), "nope.plist")}, &c)
	assert.ErrorIs(t, err, ErrMissingFile)
	assert.Len(t, c.Errors, 1)
}

// --- Options ---

func TestEntryFilterNarrowsEntries(t *testing.T) {
	path := testutil.WriteZip(t, "app.ipa",
		testutil.ZipEntry{Name: "Payload/App.app/Info.plist", Data: testutil.MustBinaryPlist("info")},
		testutil.ZipEntry{Name: "Payload/App.app/Settings.bundle/Root.plist", Data: testutil.MustBinaryPlist("root")},
	)

	results, err := ReadFile(context.Background(), path, WithEntryFilter(`entry.name == "Info.plist"`))
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "info", results[0].Content)

	_, err = ReadFile(context.Background(), path, WithEntryFilter(`entry.name == "Nothing.plist"`))
	assert.ErrorIs(t, err, ErrNoEntries)
}

func TestQueryAndFormat(t *testing.T) {
	path := testutil.WriteZip(t, "bundle.zip",
		testutil.ZipEntry{Name: "Info.plist", Data: testutil.MustBinaryPlist(map[string]any{
			"CFBundleIdentifier": "com.example.app",
			"CFBundleVersion":    "3",
		})},
	)

	results, err := ReadFile(context.Background(), path,
		WithQuery(`{"id": doc.CFBundleIdentifier, "file": filename}`),
		WithFormat(FormatJSON),
	)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.JSONEq(t, `{"id": "com.example.app", "file": "Info.plist"}`, results[0].Content.(string))
}

func TestQueryFailureIsPerDocument(t *testing.T) {
	stream := &fakeStream{entries: []fakeEntry{file("a.plist", []byte("a"))}}
	p, err := New(WithDecoder(DecoderFunc(func(context.Context, []byte) (any, error) {
		return map[string]any{"other": 1}, nil
	})), WithQuery(`doc.missing`))
	require.NoError(t, err)

	var c Collector
	require.NoError(t, p.RunStream(context.Background(), stream, &c))
	require.Len(t, c.Errors, 1)
	var decErr *DecodeError
	assert.ErrorAs(t, c.Errors[0].Err, &decErr)
	require.Len(t, c.Completions, 1)
	assert.Empty(t, c.Completions[0])
}

func TestFormatNameIsNormalized(t *testing.T) {
	p, err := New(WithFormat(Format(" JSON ")))
	require.NoError(t, err)

	var c Collector
	data := testutil.MustBinaryPlist(map[string]any{"Key": "Value"})
	require.NoError(t, p.Run(context.Background(), Input{Data: data}, &c))
	require.Len(t, c.Documents, 1)
	text, ok := c.Documents[0].Content.(string)
	require.True(t, ok, "expected JSON text, got %T", c.Documents[0].Content)
	assert.JSONEq(t, `{"Key": "Value"}`, text)
}

func TestNewValidatesOptions(t *testing.T) {
	_, err := New(WithChunkSize(0))
	assert.Error(t, err)
	_, err = New(WithFormat(Format("toml")))
	assert.Error(t, err)
	_, err = New(WithEntryFilter(`entry.name ==`))
	assert.Error(t, err)
	_, err = New(WithQuery(`doc.(`))
	assert.Error(t, err)
	_, err = New(WithDecoder(nil))
	assert.Error(t, err)
}
