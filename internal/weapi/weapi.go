// Package weapi implements the NetEase web client's WEAPI request envelope:
// two layers of AES-128-CBC-PKCS7 around the JSON body, plus a textbook RSA
// step that lets the server recover the inner AES key. The crypto here is
// hand-rolled from crypto/aes + crypto/cipher + math/big rather than any
// higher-level encrypt routine, the same way hkessock/encryptor builds its
// AES envelope directly off the standard library's block primitives instead
// of reaching for a packaged "encrypt this" helper.
package weapi

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"math/big"

	"ncmdump.dev/cli/internal/cryptoutil"
)

// Protocol constants, reproduced verbatim as published by NetEase. None of
// these are derived; they are fixed points in the wire protocol.
const (
	presetKey = "0CoJUm6Qyw8W8jud"
	iv        = "0102030405060708"
	pubExp    = "10001"
	pubMod    = "00e0b509f6259df8642dbc35662901477df22677ec152b5ff68ace615bb7b725152b3ab17a876aea8a5aa76d2e417629ec4ee341f56135fccf695280104e0312ecbda92557c93870114af6c9d05c4f7f0c3685b7a46bee255932575cce10b424d813cfe4875d3e82047b97ddef52741d546b8e289dc6935b3ece0462db0a22b8e7"

	secretKeyLen = 16
	encSecKeyLen = 256 // output hex string length, i.e. 128 bytes
)

const secretKeyAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// Encrypt builds the (params, encSecKey) pair for a WEAPI POST body from a
// plaintext JSON request, per spec.md §4.4:
//  1. AES-128-CBC-PKCS7 the JSON under the fixed presetKey, base64 it.
//  2. AES-128-CBC-PKCS7 that base64 text again under a freshly random
//     16-byte secret key, base64 it -- this is params.
//  3. Reverse the secret key's bytes, left-zero-pad to 128 bytes, and raise
//     it to pubExp mod pubMod -- this is encSecKey, hex-encoded and
//     left-zero-padded to 256 characters.
func Encrypt(jsonBody string) (params, encSecKey string, err error) {
	secretKey, err := randomSecretKey()
	if err != nil {
		return "", "", fmt.Errorf("weapi: generate secret key: %w", err)
	}
	return EncryptWithKey(jsonBody, secretKey)
}

// EncryptWithKey is Encrypt with the random secret key supplied by the
// caller rather than generated, so fixed-key test vectors (spec.md §8
// scenario 1) can assert on a deterministic output.
func EncryptWithKey(jsonBody string, secretKey []byte) (params, encSecKey string, err error) {
	if len(secretKey) != secretKeyLen {
		return "", "", fmt.Errorf("weapi: secret key must be %d bytes, got %d", secretKeyLen, len(secretKey))
	}

	step1, err := aesCBCEncryptBase64([]byte(presetKey), []byte(jsonBody))
	if err != nil {
		return "", "", fmt.Errorf("weapi: first aes pass: %w", err)
	}

	step2, err := aesCBCEncryptBase64(secretKey, []byte(step1))
	if err != nil {
		return "", "", fmt.Errorf("weapi: second aes pass: %w", err)
	}

	encSecKey = rsaEncryptSecretKey(secretKey)
	return step2, encSecKey, nil
}

func aesCBCEncryptBase64(key, plaintext []byte) (string, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}
	padded := cryptoutil.PKCS7Pad(plaintext, block.BlockSize())

	out := make([]byte, len(padded))
	cbc := cipher.NewCBCEncrypter(block, []byte(iv))
	cbc.CryptBlocks(out, padded)

	return base64.StdEncoding.EncodeToString(out), nil
}

// rsaEncryptSecretKey implements spec.md §9's "endian of the reversed key"
// note exactly: reverse the ASCII bytes (not a numeric interpretation),
// treat the result as a big-endian integer, modexp it against the fixed
// modulus with no padding scheme of any kind.
func rsaEncryptSecretKey(secretKey []byte) string {
	reversed := make([]byte, len(secretKey))
	for i, b := range secretKey {
		reversed[len(secretKey)-1-i] = b
	}

	m := new(big.Int).SetBytes(reversed)
	e := new(big.Int)
	e.SetString(pubExp, 16)
	n := new(big.Int)
	n.SetString(pubMod, 16)

	c := new(big.Int).Exp(m, e, n)

	hexStr := hex.EncodeToString(c.Bytes())
	if len(hexStr) < encSecKeyLen {
		hexStr = zeroPadLeft(hexStr, encSecKeyLen)
	}
	return hexStr
}

func zeroPadLeft(s string, n int) string {
	if len(s) >= n {
		return s
	}
	pad := make([]byte, n-len(s))
	for i := range pad {
		pad[i] = '0'
	}
	return string(pad) + s
}

func randomSecretKey() ([]byte, error) {
	buf := make([]byte, secretKeyLen)
	idx := make([]byte, secretKeyLen)
	if _, err := rand.Read(idx); err != nil {
		return nil, err
	}
	for i, b := range idx {
		buf[i] = secretKeyAlphabet[int(b)%len(secretKeyAlphabet)]
	}
	return buf, nil
}
