package ncm

import "errors"

// Container-level failure kinds, per the NCM error taxonomy: fatal for the
// file being processed, but batch callers should keep going with the rest.
var (
	ErrInvalidMagic = errors.New("ncm: invalid magic")
	ErrTruncated    = errors.New("ncm: truncated file")
	ErrBadPadding   = errors.New("ncm: bad padding")
	ErrBadUTF8      = errors.New("ncm: metadata is not valid utf-8")
)
