//go:build windows

package mmap

import (
	"errors"
	"os"
)

// Windows file mapping needs syscalls this module doesn't otherwise depend
// on; callers already treat a non-nil Open error as "use a plain *os.File
// instead", so we simply decline rather than carry the extra platform code
// for a pure performance optimization.
func mmapFile(file *os.File, size int64) ([]byte, error) {
	return nil, errors.New("mmap: not supported on windows")
}

func munmapFile(data []byte) error {
	return errors.New("mmap: not supported on windows")
}
