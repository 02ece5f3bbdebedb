// Package rbuf provides a byte-range reader over an EnSight Gold file and
// a small set of allocation-light helpers for scanning ASCII text embedded
// in otherwise binary records.
//
// Files are mapped into memory where the host platform allows it and read
// onto the heap otherwise, matching the resource policy described for the
// byte reader component: a read-only view with a cursor, never a copy of
// the whole file unless mmap is unavailable or disabled by the caller.
package rbuf

import (
	"io"
	"os"

	"github.com/edsrzf/mmap-go"
	"github.com/pkg/errors"
)

// Reader is a cursor over a byte range: either an mmap'd file or a heap
// buffer holding its full contents. Seeks and reads never allocate.
type Reader struct {
	data   []byte
	pos    int64
	region mmap.MMap // nil when the heap fallback was used
	file   *os.File
}

// Open maps path into memory. If mmap fails (platform refusal, filesystem
// that doesn't support it, zero-length file) the reader falls back to
// reading the whole file onto the heap.
func Open(path string) (*Reader, error) {
	return OpenWithOptions(path, false)
}

// OpenWithOptions is Open with the mmap path skippable via disableMmap, for
// filesystems (typically network-mounted) where mmap'd pages fault
// unpredictably, driven by Config.DisableMmap.
func OpenWithOptions(path string, disableMmap bool) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "rbuf: open %s", path)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "rbuf: stat %s", path)
	}
	if info.Size() == 0 {
		f.Close()
		return &Reader{data: nil}, nil
	}
	if disableMmap {
		defer f.Close()
		data, rerr := io.ReadAll(f)
		if rerr != nil {
			return nil, errors.Wrapf(rerr, "rbuf: read %s", path)
		}
		return &Reader{data: data}, nil
	}
	region, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		defer f.Close()
		data, rerr := io.ReadAll(f)
		if rerr != nil {
			return nil, errors.Wrapf(rerr, "rbuf: read %s", path)
		}
		return &Reader{data: data}, nil
	}
	return &Reader{data: []byte(region), region: region, file: f}, nil
}

// OpenBytes wraps an in-memory byte slice directly, used by tests and by
// callers that already hold file contents (e.g. from an archive).
func OpenBytes(data []byte) *Reader {
	return &Reader{data: data}
}

// Close releases the mapping, if any.
func (r *Reader) Close() error {
	var err error
	if r.region != nil {
		err = r.region.Unmap()
	}
	if r.file != nil {
		if cerr := r.file.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// Len returns the total size of the underlying byte range.
func (r *Reader) Len() int64 { return int64(len(r.data)) }

// Pos returns the current cursor position.
func (r *Reader) Pos() int64 { return r.pos }

// Seek moves the cursor to an absolute offset.
func (r *Reader) Seek(offset int64) error {
	if offset < 0 || offset > int64(len(r.data)) {
		return errors.Errorf("rbuf: seek %d out of range [0,%d]", offset, len(r.data))
	}
	r.pos = offset
	return nil
}

// Advance moves the cursor forward by n bytes.
func (r *Reader) Advance(n int64) error {
	return r.Seek(r.pos + n)
}

// Peek returns the next n bytes without moving the cursor.
func (r *Reader) Peek(n int) ([]byte, error) {
	end := r.pos + int64(n)
	if end > int64(len(r.data)) {
		return nil, errors.Errorf("rbuf: peek %d bytes at %d: past end (len %d)", n, r.pos, len(r.data))
	}
	return r.data[r.pos:end], nil
}

// Read returns the next n bytes and advances the cursor past them.
func (r *Reader) Read(n int) ([]byte, error) {
	b, err := r.Peek(n)
	if err != nil {
		return nil, err
	}
	r.pos += int64(n)
	return b, nil
}

// Line returns the next '\n'-delimited line (without the terminator) and
// advances the cursor past it. Lines at end-of-file without a trailing
// newline are returned too; io.EOF is returned once the cursor is already
// at the end. A '#' character truncates the returned line to the content
// before it, so trailing comments never reach Fields.
func (r *Reader) Line() ([]byte, error) {
	if r.pos >= int64(len(r.data)) {
		return nil, io.EOF
	}
	rest := r.data[r.pos:]
	if i := IndexByte(rest, '\n'); i >= 0 {
		line := rest[:i]
		r.pos += int64(i) + 1
		return trimComment(trimCR(line)), nil
	}
	r.pos = int64(len(r.data))
	return trimComment(trimCR(rest)), nil
}

func trimComment(b []byte) []byte {
	if i := IndexByte(b, '#'); i >= 0 {
		return b[:i]
	}
	return b
}

func trimCR(b []byte) []byte {
	if n := len(b); n > 0 && b[n-1] == '\r' {
		return b[:n-1]
	}
	return b
}
