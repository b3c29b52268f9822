package archive

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	failOn  string
	open    int
	maxOpen int
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: make(map[string][]byte)}
}

func (s *fakeStore) put(key string, data []byte) {
	s.objects[key] = data
}

func (s *fakeStore) Fetch(ctx context.Context, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if key == s.failOn {
		return nil, errors.New("storage unavailable")
	}
	data, ok := s.objects[key]
	if !ok {
		return nil, fmt.Errorf("no object %q", key)
	}
	s.open++
	if s.open > s.maxOpen {
		s.maxOpen = s.open
	}
	return &trackedReader{store: s, r: bytes.NewReader(data)}, nil
}

type trackedReader struct {
	store *fakeStore
	r     *bytes.Reader
}

func (t *trackedReader) Read(p []byte) (int, error) { return t.r.Read(p) }

func (t *trackedReader) Close() error {
	t.store.mu.Lock()
	t.store.open--
	t.store.mu.Unlock()
	return nil
}

func randomBytes(seed int64, n int) []byte {
	r := rand.New(rand.NewSource(seed))
	data := make([]byte, n)
	r.Read(data)
	return data
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func drainZip(t *testing.T, r io.Reader) *zip.Reader {
	t.Helper()
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	return zr
}

func TestExportPreservesOrderAndContents(t *testing.T) {
	store := newFakeStore()
	store.put("keyA", []byte("alpha contents"))
	store.put("keyB", []byte("bravo contents"))

	t1 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	t2 := time.Date(2026, 3, 2, 11, 30, 0, 0, time.UTC)

	exp := NewExporter(store, discardLogger())
	stream := exp.Export(context.Background(), []Entry{
		{Key: "keyA", Name: "a.txt", Modified: t1},
		{Key: "keyB", Name: "b.txt", Modified: t2},
	})
	defer stream.Close()

	zr := drainZip(t, stream)
	require.Len(t, zr.File, 2)
	assert.Equal(t, "a.txt", zr.File[0].Name)
	assert.Equal(t, "b.txt", zr.File[1].Name)

	for i, want := range [][]byte{[]byte("alpha contents"), []byte("bravo contents")} {
		rc, err := zr.File[i].Open()
		require.NoError(t, err)
		got, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		assert.Equal(t, want, got)
	}

	assert.WithinDuration(t, t1, zr.File[0].Modified, 2*time.Second)
}

func TestExportDeduplicatesDisplayNames(t *testing.T) {
	store := newFakeStore()
	store.put("k1", []byte("one"))
	store.put("k2", []byte("two"))
	store.put("k3", []byte("three"))

	exp := NewExporter(store, discardLogger())
	stream := exp.Export(context.Background(), []Entry{
		{Key: "k1", Name: "report.pdf"},
		{Key: "k2", Name: "report.pdf"},
		{Key: "k3", Name: "report.pdf"},
	})
	defer stream.Close()

	zr := drainZip(t, stream)
	require.Len(t, zr.File, 3)
	assert.Equal(t, "report.pdf", zr.File[0].Name)
	assert.Equal(t, "report (2).pdf", zr.File[1].Name)
	assert.Equal(t, "report (3).pdf", zr.File[2].Name)
}

func TestExportManyFilesSequentialFetches(t *testing.T) {
	store := newFakeStore()
	var entries []Entry
	for i := 0; i < 1000; i++ {
		key := fmt.Sprintf("obj-%04d", i)
		store.put(key, bytes.Repeat([]byte{byte(i)}, 600))
		entries = append(entries, Entry{Key: key, Name: fmt.Sprintf("file-%04d.bin", i)})
	}

	exp := NewExporter(store, discardLogger())
	stream := exp.Export(context.Background(), entries)
	defer stream.Close()

	zr := drainZip(t, stream)
	require.Len(t, zr.File, 1000)
	assert.Equal(t, "file-0000.bin", zr.File[0].Name)
	assert.Equal(t, "file-0999.bin", zr.File[999].Name)

	// Entries are fetched one at a time, never ahead of the stream.
	assert.Equal(t, 1, store.maxOpen)
	assert.Equal(t, 0, store.open)
}

func TestExportBackpressureBlocksProducer(t *testing.T) {
	store := newFakeStore()
	for i := 0; i < 16; i++ {
		key := fmt.Sprintf("big-%d", i)
		// Incompressible payloads so deflate cannot shrink them under the
		// pipe capacity.
		store.put(key, randomBytes(int64(i), 32*1024))
	}
	var entries []Entry
	for i := 0; i < 16; i++ {
		entries = append(entries, Entry{Key: fmt.Sprintf("big-%d", i), Name: fmt.Sprintf("big-%d.dat", i)})
	}

	done := make(chan error, 1)
	exp := NewExporter(store, discardLogger(),
		WithBufferSize(4*1024),
		WithCompletionHook(func(err error) { done <- err }),
	)
	stream := exp.Export(context.Background(), entries)

	// Nobody reads: the producer must stall on the bounded pipe instead of
	// buffering the whole archive.
	select {
	case <-done:
		t.Fatal("producer completed without a consumer draining the pipe")
	case <-time.After(200 * time.Millisecond):
	}

	// Draining releases it.
	zr := drainZip(t, stream)
	require.Len(t, zr.File, 16)
	require.NoError(t, <-done)
	require.NoError(t, stream.Close())
}

func TestExportDroppedConsumerStopsProducer(t *testing.T) {
	store := newFakeStore()
	for i := 0; i < 64; i++ {
		key := fmt.Sprintf("obj-%d", i)
		store.put(key, randomBytes(int64(i)+100, 64*1024))
	}
	var entries []Entry
	for i := 0; i < 64; i++ {
		entries = append(entries, Entry{Key: fmt.Sprintf("obj-%d", i), Name: fmt.Sprintf("f-%d.dat", i)})
	}

	done := make(chan error, 1)
	exp := NewExporter(store, discardLogger(),
		WithBufferSize(4*1024),
		WithCompletionHook(func(err error) { done <- err }),
	)
	stream := exp.Export(context.Background(), entries)

	// Read a little, then walk away.
	buf := make([]byte, 1024)
	_, err := io.ReadFull(stream, buf)
	require.NoError(t, err)
	require.NoError(t, stream.Close())

	select {
	case err := <-done:
		require.Error(t, err)
		assert.ErrorIs(t, err, io.ErrClosedPipe)
	case <-time.After(2 * time.Second):
		t.Fatal("producer did not terminate after the consumer dropped")
	}
}

func TestExportStorageFailureTruncatesStream(t *testing.T) {
	store := newFakeStore()
	store.put("ok", []byte("fine"))
	store.put("bad", []byte("never served"))
	store.failOn = "bad"

	done := make(chan error, 1)
	exp := NewExporter(store, discardLogger(), WithCompletionHook(func(err error) { done <- err }))
	stream := exp.Export(context.Background(), []Entry{
		{Key: "ok", Name: "ok.txt"},
		{Key: "bad", Name: "bad.txt"},
	})
	defer stream.Close()

	_, err := io.ReadAll(stream)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTruncated)
	require.Error(t, <-done)
}

func TestExportCancelledContextStopsProducer(t *testing.T) {
	store := newFakeStore()
	store.put("k", []byte("data"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	exp := NewExporter(store, discardLogger(), WithCompletionHook(func(err error) { done <- err }))
	stream := exp.Export(ctx, []Entry{{Key: "k", Name: "k.txt"}})
	defer stream.Close()

	_, err := io.ReadAll(stream)
	require.Error(t, err)
	require.ErrorIs(t, <-done, context.Canceled)
}
