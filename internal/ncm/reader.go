// Package ncm decodes NetEase Cloud Music's .ncm container: a content
// addressed binary format whose key and metadata sections are wrapped in
// AES-128-ECB, and whose audio payload is scrambled by the RC4-derived
// keystream in keystream.go.
package ncm

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"ncmdump.dev/cli/internal/cryptoutil"
	"ncmdump.dev/cli/internal/mmap"
	"ncmdump.dev/cli/internal/pool"
)

// ChunkSize is the recommended unit for streaming the decrypted audio
// section; it has no bearing on correctness, only on syscall/copy overhead.
const ChunkSize = 0x8000

var magic = [8]byte{0x43, 0x54, 0x45, 0x4E, 0x46, 0x44, 0x41, 0x4D} // "CTENFDAM"

const (
	keyXorByte  = 0x64
	keyAesKey   = "hzHRAmso5kInbaxW"
	keyMarker   = "neteasecloudmusic" // 17 bytes, dropped after key AES decrypt
	metaXorByte = 0x63
	metaAesKey  = "#14ljk_!\\]&0U<'(" // 16 ASCII bytes
	metaMarker  = "163 key(Don't modify):"
	metaJSONTag = "music:"
)

// Metadata is the optional JSON section embedded in an NCM file. NetEase
// emits the artist list as an array of [name, id] pairs rather than an
// object, so Artist is left loosely typed and projected via ArtistNames.
type Metadata struct {
	MusicName string          `json:"musicName"`
	Album     string          `json:"album"`
	AlbumPic  string          `json:"albumPic"`
	Format    string          `json:"format"`
	Artist    [][]interface{} `json:"artist"`
}

// ArtistNames extracts the name half of each [name, id] pair.
func (m *Metadata) ArtistNames() []string {
	if m == nil {
		return nil
	}
	names := make([]string, 0, len(m.Artist))
	for _, pair := range m.Artist {
		if len(pair) == 0 {
			continue
		}
		if name, ok := pair[0].(string); ok && name != "" {
			names = append(names, name)
		}
	}
	return names
}

// Reader exposes a validated NCM container: its reconstructed RC4 key,
// optional metadata and cover art, and the decrypted audio stream via Read.
// A Reader holds mutable position state and must not be shared between
// goroutines or reused after Open returns an error.
type Reader struct {
	src io.Reader
	ks  *keystream

	meta      *Metadata
	cover     []byte
	coverMIME string

	audioOffset int

	closer io.Closer // set when Open owns the underlying file (OpenFile)
}

// Open validates an NCM container read from r and positions it at the start
// of the audio section. r must be positioned at offset 0.
func Open(r io.Reader) (*Reader, error) {
	if err := checkMagic(r); err != nil {
		return nil, err
	}

	if _, err := readN(r, 2); err != nil { // reserved
		return nil, err
	}

	rc4Key, err := readKey(r)
	if err != nil {
		return nil, err
	}

	meta, err := readMetadata(r)
	if err != nil {
		return nil, err
	}

	if _, err := readN(r, 4); err != nil { // crc32, unvalidated (see DESIGN.md)
		return nil, err
	}
	if _, err := readN(r, 5); err != nil { // reserved
		return nil, err
	}

	cover, mime, err := readCover(r)
	if err != nil {
		return nil, err
	}

	return &Reader{
		src:       r,
		ks:        newKeystream(rc4Key),
		meta:      meta,
		cover:     cover,
		coverMIME: mime,
	}, nil
}

// OpenFile opens path and memory-maps it when it's large enough to make
// that worthwhile (see internal/mmap), falling back transparently to a
// plain *os.File otherwise. The returned Reader's Close releases the file.
func OpenFile(path string) (*Reader, error) {
	if mr, err := mmap.Open(path); err == nil {
		r, openErr := Open(mr)
		if openErr != nil {
			mr.Close()
			return nil, openErr
		}
		r.closer = mr
		return r, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ncm: open %s: %w", path, err)
	}
	r, err := Open(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	r.closer = f
	return r, nil
}

// Read implements io.Reader over the decrypted audio stream.
func (r *Reader) Read(p []byte) (int, error) {
	n, err := r.src.Read(p)
	if n > 0 {
		r.ks.xor(p[:n], r.audioOffset)
		r.audioOffset += n
	}
	return n, err
}

// WriteAudioTo streams the decrypted audio to w in ChunkSize-sized reads.
func (r *Reader) WriteAudioTo(w io.Writer) (int64, error) {
	buf := pool.Get()
	defer pool.Put(buf)
	return io.CopyBuffer(w, r, buf)
}

// Close releases the underlying file handle when the Reader was created via
// OpenFile; it is a no-op for readers created via Open.
func (r *Reader) Close() error {
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}

// Metadata returns the embedded metadata JSON, or nil if the file carried
// none (meta_len == 0 is valid and common).
func (r *Reader) Metadata() *Metadata { return r.meta }

// Cover returns the embedded cover art and its sniffed MIME type, or
// ok == false if the file carried none.
func (r *Reader) Cover() (data []byte, mime string, ok bool) {
	if r.cover == nil {
		return nil, "", false
	}
	return r.cover, r.coverMIME, true
}

func checkMagic(r io.Reader) error {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		// Can't even read a full magic: treat exactly like a mismatched one.
		return fmt.Errorf("ncm: %w: %v", ErrInvalidMagic, err)
	}
	if buf != magic {
		return fmt.Errorf("ncm: %w", ErrInvalidMagic)
	}
	return nil
}

func readN(r io.Reader, n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("ncm: %w: %v", ErrTruncated, err)
	}
	return buf, nil
}

func readLenPrefixed(r io.Reader) ([]byte, error) {
	lenBuf, err := readN(r, 4)
	if err != nil {
		return nil, err
	}
	n := binary.LittleEndian.Uint32(lenBuf)
	return readN(r, int(n))
}

func xorBytes(buf []byte, b byte) {
	for i := range buf {
		buf[i] ^= b
	}
}

func readKey(r io.Reader) ([]byte, error) {
	enc, err := readLenPrefixed(r)
	if err != nil {
		return nil, err
	}
	xorBytes(enc, keyXorByte)

	dec, err := cryptoutil.AESECBDecrypt([]byte(keyAesKey), enc)
	if err != nil {
		return nil, fmt.Errorf("ncm: %w: decrypt key block: %v", ErrBadPadding, err)
	}
	if len(dec) <= len(keyMarker) {
		return nil, fmt.Errorf("ncm: %w: key block shorter than marker", ErrBadPadding)
	}
	rc4Key := dec[len(keyMarker):]
	if len(rc4Key) == 0 {
		return nil, fmt.Errorf("ncm: %w: empty rc4 key", ErrBadPadding)
	}
	return rc4Key, nil
}

func readMetadata(r io.Reader) (*Metadata, error) {
	enc, err := readLenPrefixed(r)
	if err != nil {
		return nil, err
	}
	if len(enc) == 0 {
		return nil, nil
	}
	xorBytes(enc, metaXorByte)

	if len(enc) <= len(metaMarker) {
		return nil, fmt.Errorf("ncm: %w: metadata block shorter than marker", ErrBadPadding)
	}
	b64 := enc[len(metaMarker):]

	cipherText := make([]byte, base64.StdEncoding.DecodedLen(len(b64)))
	n, err := base64.StdEncoding.Decode(cipherText, b64)
	if err != nil {
		return nil, fmt.Errorf("ncm: %w: decode metadata base64: %v", ErrBadPadding, err)
	}
	cipherText = cipherText[:n]

	dec, err := cryptoutil.AESECBDecrypt([]byte(metaAesKey), cipherText)
	if err != nil {
		return nil, fmt.Errorf("ncm: %w: decrypt metadata block: %v", ErrBadPadding, err)
	}
	if len(dec) < len(metaJSONTag) {
		return nil, fmt.Errorf("ncm: %w: metadata block shorter than json marker", ErrBadPadding)
	}
	jsonBytes := dec[len(metaJSONTag):]
	if !utf8.Valid(jsonBytes) {
		return nil, fmt.Errorf("ncm: %w", ErrBadUTF8)
	}

	var meta Metadata
	if err := json.Unmarshal(jsonBytes, &meta); err != nil {
		return nil, fmt.Errorf("ncm: unmarshal metadata json: %w", err)
	}
	return &meta, nil
}

func readCover(r io.Reader) (data []byte, mime string, err error) {
	if _, err := readN(r, 4); err != nil { // outer cover frame length, unused
		return nil, "", err
	}
	lenBuf, err := readN(r, 4)
	if err != nil {
		return nil, "", err
	}
	coverLen := binary.LittleEndian.Uint32(lenBuf)
	if coverLen == 0 {
		return nil, "", nil
	}

	cover, err := readN(r, int(coverLen))
	if err != nil {
		return nil, "", err
	}
	return cover, sniffImageMIME(cover), nil
}

func sniffImageMIME(data []byte) string {
	switch {
	case len(data) >= 2 && data[0] == 0xFF && data[1] == 0xD8:
		return "image/jpeg"
	case len(data) >= 8 && string(data[:8]) == "\x89PNG\r\n\x1a\n":
		return "image/png"
	default:
		return "application/octet-stream"
	}
}
