package ncm

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"testing"

	"ncmdump.dev/cli/internal/cryptoutil"
)

// buildNCM assembles a well-formed .ncm byte stream the way the real
// encoder would, so Open can be tested against its own inverse.
func buildNCM(t *testing.T, rc4Key, metaJSON, cover, audioPlain []byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	buf.Write(magic[:])
	buf.Write([]byte{0, 0}) // reserved

	keyBlock := append([]byte(keyMarker), rc4Key...)
	encKey, err := cryptoutil.AESECBEncrypt([]byte(keyAesKey), keyBlock)
	if err != nil {
		t.Fatalf("encrypt key block: %v", err)
	}
	xorBytes(encKey, keyXorByte)
	writeLenPrefixed(&buf, encKey)

	if metaJSON == nil {
		writeLenPrefixed(&buf, nil)
	} else {
		metaBlock := append([]byte(metaJSONTag), metaJSON...)
		encMeta, err := cryptoutil.AESECBEncrypt([]byte(metaAesKey), metaBlock)
		if err != nil {
			t.Fatalf("encrypt meta block: %v", err)
		}
		b64 := []byte(base64.StdEncoding.EncodeToString(encMeta))
		withMarker := append([]byte(metaMarker), b64...)
		xorBytes(withMarker, metaXorByte)
		writeLenPrefixed(&buf, withMarker)
	}

	buf.Write(make([]byte, 4)) // crc32, unvalidated
	buf.Write(make([]byte, 5)) // reserved

	var coverLenBuf [4]byte
	binary.LittleEndian.PutUint32(coverLenBuf[:], uint32(len(cover)+4))
	buf.Write(coverLenBuf[:]) // outer frame length, unused by reader
	writeLenPrefixed(&buf, cover)

	ks := newKeystream(rc4Key)
	cipherText := append([]byte(nil), audioPlain...)
	ks.xor(cipherText, 0)
	buf.Write(cipherText)

	return buf.Bytes()
}

func writeLenPrefixed(buf *bytes.Buffer, data []byte) {
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(data)))
	buf.Write(lenBuf[:])
	buf.Write(data)
}

func TestOpen_FullRoundTrip(t *testing.T) {
	rc4Key := []byte("test-rc4-key-0123456789")
	meta := []byte(`{"musicName":"Song","album":"Album","albumPic":"http://x","format":"mp3","artist":[["Artist",1]]}`)
	cover := append([]byte{0xFF, 0xD8, 0xFF, 0xE0}, bytes.Repeat([]byte{0xAB}, 50)...)
	audio := bytes.Repeat([]byte("ID3 audio frame data "), 500) // > 256 bytes to exercise wraparound

	raw := buildNCM(t, rc4Key, meta, cover, audio)

	r, err := Open(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	gotMeta := r.Metadata()
	if gotMeta == nil {
		t.Fatal("expected metadata, got nil")
	}
	if gotMeta.MusicName != "Song" || gotMeta.Album != "Album" {
		t.Errorf("metadata mismatch: %+v", gotMeta)
	}
	if names := gotMeta.ArtistNames(); len(names) != 1 || names[0] != "Artist" {
		t.Errorf("ArtistNames() = %v", names)
	}

	gotCover, mime, ok := r.Cover()
	if !ok || !bytes.Equal(gotCover, cover) {
		t.Errorf("cover mismatch")
	}
	if mime != "image/jpeg" {
		t.Errorf("cover mime = %q, want image/jpeg", mime)
	}

	var out bytes.Buffer
	if _, err := r.WriteAudioTo(&out); err != nil {
		t.Fatalf("WriteAudioTo: %v", err)
	}
	if !bytes.Equal(out.Bytes(), audio) {
		t.Fatal("decrypted audio does not match original plaintext")
	}
}

func TestOpen_NoMetadataNoCover(t *testing.T) {
	rc4Key := []byte("k")
	audio := []byte("plain audio bytes")
	raw := buildNCM(t, rc4Key, nil, nil, audio)

	r, err := Open(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if r.Metadata() != nil {
		t.Errorf("expected nil metadata, got %+v", r.Metadata())
	}
	if _, _, ok := r.Cover(); ok {
		t.Errorf("expected no cover")
	}

	var out bytes.Buffer
	if _, err := r.WriteAudioTo(&out); err != nil {
		t.Fatalf("WriteAudioTo: %v", err)
	}
	if !bytes.Equal(out.Bytes(), audio) {
		t.Fatal("decrypted audio mismatch")
	}
}

// TestOpen_InvalidMagic covers spec.md §8 scenario 3: a 2-byte file that
// happens to be a prefix of the real magic still fails as InvalidMagic,
// not Truncated, because the full magic could never be confirmed.
func TestOpen_InvalidMagic(t *testing.T) {
	_, err := Open(bytes.NewReader([]byte("CT")))
	if !errors.Is(err, ErrInvalidMagic) {
		t.Fatalf("got %v, want ErrInvalidMagic", err)
	}
}

func TestOpen_WrongMagic(t *testing.T) {
	bad := append([]byte("XXXXXXXX"), make([]byte, 20)...)
	_, err := Open(bytes.NewReader(bad))
	if !errors.Is(err, ErrInvalidMagic) {
		t.Fatalf("got %v, want ErrInvalidMagic", err)
	}
}

// TestOpen_TruncatedKeyBlock covers spec.md §8 scenario 3's second half: a
// file that declares a key_len it doesn't actually have fails Truncated.
func TestOpen_TruncatedKeyBlock(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(magic[:])
	buf.Write([]byte{0, 0})
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], 100) // claims 100 bytes
	buf.Write(lenBuf[:])
	buf.Write([]byte{1, 2, 3}) // only 3 actually present

	_, err := Open(&buf)
	if !errors.Is(err, ErrTruncated) {
		t.Fatalf("got %v, want ErrTruncated", err)
	}
}
