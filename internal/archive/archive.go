// Package archive streams zip archives of stored objects through a bounded
// in-memory pipe. The archive is produced by a detached goroutine and
// consumed through the returned reader; at no point is the whole archive, or
// more than the pipe buffer of it, held in memory.
package archive

import (
	"archive/zip"
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"
)

// DefaultBufferSize is the pipe buffer capacity between producer and consumer.
const DefaultBufferSize = 64 * 1024

// ErrTruncated marks a stream that ended before every entry was written.
// Consumers observe it as the error returned by Read once production fails.
var ErrTruncated = errors.New("archive: stream truncated")

// Entry describes one file to include in the archive, in output order.
type Entry struct {
	Key      string
	Name     string
	Modified time.Time
}

// ObjectStore fetches the bytes backing an entry. Implementations live in
// platform/objstore; tests supply in-memory stores.
type ObjectStore interface {
	Fetch(ctx context.Context, key string) (io.ReadCloser, error)
}

// Exporter builds archive streams. Safe for concurrent use; each Export call
// owns its own pipe and producer goroutine.
type Exporter struct {
	store   ObjectStore
	logger  *slog.Logger
	bufSize int
	onDone  func(error)
}

// Option adjusts an Exporter.
type Option func(*Exporter)

// WithBufferSize overrides the pipe buffer capacity.
func WithBufferSize(n int) Option {
	return func(e *Exporter) {
		if n > 0 {
			e.bufSize = n
		}
	}
}

// WithCompletionHook registers a callback invoked when the producer
// goroutine finishes, with the error it stopped on (nil on success). Tests
// use it to observe producer termination.
func WithCompletionHook(fn func(error)) Option {
	return func(e *Exporter) { e.onDone = fn }
}

// NewExporter constructs an Exporter over the given store.
func NewExporter(store ObjectStore, logger *slog.Logger, opts ...Option) *Exporter {
	e := &Exporter{store: store, logger: logger, bufSize: DefaultBufferSize}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Export returns a stream of a zip archive containing the entries in the
// given order. The reader is single-pass and becomes readable immediately;
// bytes arrive as the producer writes them. Closing the reader early makes
// the producer observe a write failure and stop promptly.
//
// Failures after this call returns cannot reach the caller: they are logged
// and the stream is closed with ErrTruncated so the consumer can tell a
// short archive from a complete one.
func (e *Exporter) Export(ctx context.Context, entries []Entry) io.ReadCloser {
	pr, pw := io.Pipe()
	go e.produce(ctx, entries, pw)
	return pr
}

func (e *Exporter) produce(ctx context.Context, entries []Entry, pw *io.PipeWriter) {
	buf := bufio.NewWriterSize(pw, e.bufSize)
	zw := zip.NewWriter(buf)

	err := e.writeEntries(ctx, entries, zw)
	if err == nil {
		err = zw.Close()
		if err == nil {
			err = buf.Flush()
		}
	}

	if err != nil {
		if !errors.Is(err, io.ErrClosedPipe) && e.logger != nil {
			e.logger.Error("archive: production failed", slog.Any("error", err))
		}
		_ = pw.CloseWithError(fmt.Errorf("%w: %v", ErrTruncated, err))
	} else {
		_ = pw.Close()
	}
	if e.onDone != nil {
		e.onDone(err)
	}
}

func (e *Exporter) writeEntries(ctx context.Context, entries []Entry, zw *zip.Writer) error {
	names := make(map[string]int, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.writeEntry(ctx, entry, uniqueName(names, entry.Name), zw); err != nil {
			return fmt.Errorf("entry %q: %w", entry.Key, err)
		}
	}
	return nil
}

func (e *Exporter) writeEntry(ctx context.Context, entry Entry, name string, zw *zip.Writer) error {
	obj, err := e.store.Fetch(ctx, entry.Key)
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}
	defer obj.Close()

	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: entry.Modified,
	})
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, obj); err != nil {
		return err
	}
	return nil
}

// uniqueName disambiguates repeated display names so the zip stays readable
// by strict extractors.
func uniqueName(seen map[string]int, name string) string {
	seen[name]++
	if seen[name] == 1 {
		return name
	}
	ext := ""
	base := name
	if i := lastDot(name); i > 0 {
		base, ext = name[:i], name[i:]
	}
	return fmt.Sprintf("%s (%d)%s", base, seen[name], ext)
}

func lastDot(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '.' {
			return i
		}
		if s[i] == '/' {
			break
		}
	}
	return -1
}
