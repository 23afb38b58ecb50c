// Package tagwriter rewrites metadata into a decrypted audio file: ID3v2.3
// frames for MP3, a Vorbis comment + PICTURE block for FLAC. It mirrors the
// way liuran001/MusicBot-Go's id3 service drives bogem/id3v2 and go-flac,
// generalized from a Telegram bot's fixed tag set to ncm.Metadata.
package tagwriter

import (
	"errors"
	"fmt"
)

// ErrUnknownFormat is returned when the decrypted stream matches neither the
// MP3 nor the FLAC signature.
var ErrUnknownFormat = errors.New("tagwriter: unknown audio format")

// ErrTagParse marks a failure to parse a file's pre-existing tag data. Per
// spec this is non-fatal for the caller: the decrypted audio is still on
// disk, only the tag rewrite is skipped.
var ErrTagParse = errors.New("tagwriter: malformed existing tags")

// Format identifies the container sniffed from a decrypted stream's head.
type Format int

const (
	FormatUnknown Format = iota
	FormatMP3
	FormatFLAC
)

func (f Format) String() string {
	switch f {
	case FormatMP3:
		return "mp3"
	case FormatFLAC:
		return "flac"
	default:
		return "unknown"
	}
}

// Tags is the subset of ncm.Metadata that TagWriter actually embeds, kept
// independent of the ncm package so tagwriter has no import-cycle risk and
// can be driven from sources other than an NCM container (e.g. NeteaseClient
// track details) in the future.
type Tags struct {
	Title   string
	Artists []string
	Album   string

	// Cover is optional embedded art; CoverMIME must be "image/jpeg" or
	// "image/png" when Cover is non-empty.
	Cover     []byte
	CoverMIME string
}

// SniffFormat identifies head as MP3 or FLAC per spec.md §4.3: "ID3" or a
// bare MPEG frame sync for MP3, "fLaC" for FLAC.
func SniffFormat(head []byte) Format {
	switch {
	case len(head) >= 3 && head[0] == 'I' && head[1] == 'D' && head[2] == '3':
		return FormatMP3
	case len(head) >= 2 && head[0] == 0xFF && (head[1] == 0xFB || head[1] == 0xF3 || head[1] == 0xF2):
		return FormatMP3
	case len(head) >= 4 && string(head[:4]) == "fLaC":
		return FormatFLAC
	default:
		return FormatUnknown
	}
}

// WriteFile rewrites tags into the audio file at path in place, dispatching
// on its sniffed format. It reports ErrUnknownFormat if path is neither MP3
// nor FLAC.
func WriteFile(path string, tags Tags) error {
	head, err := readHead(path, 4)
	if err != nil {
		return fmt.Errorf("tagwriter: read header of %s: %w", path, err)
	}

	switch SniffFormat(head) {
	case FormatMP3:
		return writeMP3(path, tags)
	case FormatFLAC:
		return writeFLAC(path, tags)
	default:
		return fmt.Errorf("tagwriter: %s: %w", path, ErrUnknownFormat)
	}
}
