// Package main builds the C-shared library spec.md §6 describes: a small
// opaque-handle ABI over internal/ncm and internal/tagwriter for callers
// that can't shell out to ncmdump-cli. The handle-via-cgo.Handle pattern is
// the one drgolem/go-flac's stream encoder uses for its own C callbacks
// (storing a Handle inside C-owned memory rather than returning a raw Go
// pointer, which cgo's pointer-passing rules forbid).
package main

/*
#include <stdlib.h>
*/
import "C"

import (
	"os"
	"runtime/cgo"
	"unsafe"

	"ncmdump.dev/cli/internal/ncm"
	"ncmdump.dev/cli/internal/tagwriter"
)

// handle is what a NeteaseCrypt* actually points at: C-owned storage large
// enough for one cgo.Handle, set by CreateNeteaseCrypt and cleared by
// DestroyNeteaseCrypt. The handle's Value() is a *state.
//
// dumpPath remembers the destination Dump last wrote to, since
// FixMetadata's C signature carries no output-path argument of its own --
// it tags whatever Dump most recently produced for this handle.
type state struct {
	reader   *ncm.Reader
	dumpPath string
}

// CreateNeteaseCrypt opens path as an NCM container. It returns null on
// open failure (bad magic, truncated file, I/O error) -- the caller has no
// way to retrieve the specific error.Go kind across this ABI, per spec.md
// §6; programs that need the taxonomy should use the CLI or link the Go
// package directly instead of this shim.
//
//export CreateNeteaseCrypt
func CreateNeteaseCrypt(path *C.char) unsafe.Pointer {
	goPath := C.GoString(path)
	r, err := ncm.OpenFile(goPath)
	if err != nil {
		return nil
	}

	h := cgo.NewHandle(&state{reader: r})
	mem := C.malloc(C.size_t(unsafe.Sizeof(cgo.Handle(0))))
	if mem == nil {
		h.Delete()
		_ = r.Close()
		return nil
	}
	*(*cgo.Handle)(mem) = h
	return mem
}

// Dump decrypts the audio section to the file at out. Returns 0 on success;
// 1 if the handle is null or already destroyed; 2 on a write failure.
//
//export Dump
func Dump(handle unsafe.Pointer, out *C.char) C.int {
	s, ok := lookup(handle)
	if !ok {
		return 1
	}

	outPath := C.GoString(out)
	f, err := os.OpenFile(outPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 2
	}
	_, err = s.reader.WriteAudioTo(f)
	closeErr := f.Close()
	if err != nil || closeErr != nil {
		return 2
	}
	s.dumpPath = outPath
	return 0
}

// FixMetadata rewrites tags into the file most recently produced by Dump
// for this handle. It is a no-op (not an error, per spec.md §6's void
// return) if called before Dump or on a destroyed handle.
//
//export FixMetadata
func FixMetadata(handle unsafe.Pointer) {
	s, ok := lookup(handle)
	if !ok || s.dumpPath == "" {
		return
	}

	tags := tagwriter.Tags{}
	if meta := s.reader.Metadata(); meta != nil {
		tags.Title = meta.MusicName
		tags.Album = meta.Album
		tags.Artists = meta.ArtistNames()
	}
	if cover, mime, ok := s.reader.Cover(); ok {
		tags.Cover = cover
		tags.CoverMIME = mime
	}
	_ = tagwriter.WriteFile(s.dumpPath, tags)
}

// DestroyNeteaseCrypt releases the reader's file handle and frees the
// handle's backing memory. Idempotent; accepts null, per spec.md §6.
//
//export DestroyNeteaseCrypt
func DestroyNeteaseCrypt(handle unsafe.Pointer) {
	if handle == nil {
		return
	}
	h := *(*cgo.Handle)(handle)
	if s, ok := h.Value().(*state); ok {
		_ = s.reader.Close()
	}
	h.Delete()
	C.free(handle)
}

func lookup(handle unsafe.Pointer) (*state, bool) {
	if handle == nil {
		return nil, false
	}
	h := *(*cgo.Handle)(handle)
	s, ok := h.Value().(*state)
	return s, ok
}

// main is required by `go build -buildmode=c-shared` but never runs;
// callers only ever reach this code through the exported C functions above.
func main() {}
