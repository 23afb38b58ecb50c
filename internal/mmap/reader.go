// Package mmap memory-maps a file read-only when it is large enough to make
// that worthwhile, so the NCM audio-stream reader can hand the RC4 keystream
// a zero-copy view instead of carrying buffered reads through an extra copy.
package mmap

import (
	"fmt"
	"io"
	"os"
)

// minMmapSize is the smallest file size worth memory-mapping; below this the
// syscall overhead dwarfs the copy it saves.
const minMmapSize = 1 << 20 // 1MiB

// Reader is a read-only, seekable view over a memory-mapped file.
type Reader struct {
	file   *os.File
	data   []byte
	offset int64
}

// Open memory-maps path. Callers should treat a non-nil error as "fall back
// to a plain *os.File" rather than as fatal: small files and unsupported
// platforms both return an error here by design.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("mmap: open: %w", err)
	}

	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("mmap: stat: %w", err)
	}
	if stat.Size() < minMmapSize {
		f.Close()
		return nil, fmt.Errorf("mmap: file too small (%d bytes)", stat.Size())
	}

	data, err := mmapFile(f, stat.Size())
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("mmap: %w", err)
	}

	return &Reader{file: f, data: data}, nil
}

func (r *Reader) Read(p []byte) (int, error) {
	if r.offset >= int64(len(r.data)) {
		return 0, io.EOF
	}
	n := copy(p, r.data[r.offset:])
	r.offset += int64(n)
	return n, nil
}

func (r *Reader) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = r.offset + offset
	case io.SeekEnd:
		abs = int64(len(r.data)) + offset
	default:
		return 0, fmt.Errorf("mmap: invalid whence %d", whence)
	}
	if abs < 0 {
		return 0, fmt.Errorf("mmap: negative seek position")
	}
	r.offset = abs
	return abs, nil
}

func (r *Reader) Size() int64 { return int64(len(r.data)) }

func (r *Reader) Close() error {
	var err error
	if r.data != nil {
		err = munmapFile(r.data)
		r.data = nil
	}
	if closeErr := r.file.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}
