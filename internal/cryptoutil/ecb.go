package cryptoutil

import (
	"crypto/aes"
	"errors"
	"fmt"
)

// ErrBadPadding is returned when PKCS#7 unpadding fails; it corresponds to
// the NCM container's BadPadding failure mode.
var ErrBadPadding = errors.New("bad padding")

// AESECBDecrypt decrypts buf (a multiple of the AES block size) in ECB mode
// and strips PKCS#7 padding. NCM uses ECB for both its key and metadata
// envelopes; the standard library deliberately omits an ECB cipher.Block
// mode, so the block-by-block loop below is the idiomatic way to get it.
func AESECBDecrypt(key, buf []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cryptoutil: new aes cipher: %w", err)
	}
	bs := block.BlockSize()
	if len(buf)%bs != 0 {
		return nil, fmt.Errorf("cryptoutil: %w: ciphertext length %d not a multiple of block size", ErrBadPadding, len(buf))
	}

	out := make([]byte, len(buf))
	for i := 0; i < len(buf); i += bs {
		block.Decrypt(out[i:i+bs], buf[i:i+bs])
	}
	return PKCS7Unpad(out, bs)
}

// AESECBEncrypt pads buf with PKCS#7 and encrypts it in ECB mode. Production
// code never calls this -- NCM only ever requires decrypting container
// sections -- but it is the inverse needed to build test fixtures without
// depending on the real container format out in the wild.
func AESECBEncrypt(key, buf []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cryptoutil: new aes cipher: %w", err)
	}
	bs := block.BlockSize()
	padded := PKCS7Pad(buf, bs)

	out := make([]byte, len(padded))
	for i := 0; i < len(padded); i += bs {
		block.Encrypt(out[i:i+bs], padded[i:i+bs])
	}
	return out, nil
}
