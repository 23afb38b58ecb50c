// Package cryptoutil holds the small block-cipher helpers shared by the NCM
// container decoder and the WEAPI codec: PKCS#7 padding and AES-ECB, neither
// of which the standard library exposes directly.
package cryptoutil

import (
	"bytes"
	"fmt"
)

// PKCS7Pad pads buf to a multiple of blockSize per PKCS#7 (RFC 5652 §6.3).
func PKCS7Pad(buf []byte, blockSize int) []byte {
	padLen := blockSize - len(buf)%blockSize
	padding := bytes.Repeat([]byte{byte(padLen)}, padLen)
	return append(buf, padding...)
}

// PKCS7Unpad strips PKCS#7 padding, validating the padding bytes.
func PKCS7Unpad(buf []byte, blockSize int) ([]byte, error) {
	n := len(buf)
	if n == 0 || n%blockSize != 0 {
		return nil, fmt.Errorf("cryptoutil: invalid padded length %d", n)
	}

	padLen := int(buf[n-1])
	if padLen == 0 || padLen > blockSize || padLen > n {
		return nil, fmt.Errorf("cryptoutil: %w: bad pad length %d", ErrBadPadding, padLen)
	}
	for _, b := range buf[n-padLen:] {
		if int(b) != padLen {
			return nil, fmt.Errorf("cryptoutil: %w: inconsistent pad bytes", ErrBadPadding)
		}
	}
	return buf[:n-padLen], nil
}
