// Package pool provides a sync.Pool-backed source of ChunkSize byte slices
// for streaming decode/download copies, avoiding one allocation per file in
// the hot path. It is deliberately single-size: NCM only ever streams audio
// in ncm.ChunkSize units, so the multi-tier pool-of-pools the teacher used
// for its broader format zoo (ncm/qmc/kgm/tm, each with its own size
// profile) has nothing left to size-tier.
package pool

import "sync"

// ChunkSize must match ncm.ChunkSize; it is redeclared here rather than
// imported to keep this package free of a dependency on internal/ncm.
const ChunkSize = 0x8000

var chunkPool = sync.Pool{
	New: func() any {
		buf := make([]byte, ChunkSize)
		return &buf
	},
}

// Get returns a zero-length-free ChunkSize buffer. Callers must return it
// via Put when done.
func Get() []byte {
	return *(chunkPool.Get().(*[]byte))
}

// Put returns buf to the pool. Buffers of any other length are dropped
// rather than pooled, since the pool is sized for exactly one profile.
func Put(buf []byte) {
	if cap(buf) != ChunkSize {
		return
	}
	buf = buf[:ChunkSize]
	chunkPool.Put(&buf)
}
