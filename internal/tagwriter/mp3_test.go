package tagwriter

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/bogem/id3v2/v2"
)

// minimalMP3Frame is a single valid MPEG-1 Layer III frame header (44.1kHz,
// 128kbps, no CRC) followed by filler, enough for id3v2 to treat the file as
// an untagged MP3 rather than error out.
var minimalMP3Frame = append([]byte{0xFF, 0xFB, 0x90, 0x00}, bytes.Repeat([]byte{0x00}, 96)...)

func writeTempMP3(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "track.mp3")
	if err := os.WriteFile(path, minimalMP3Frame, 0o644); err != nil {
		t.Fatalf("write temp mp3: %v", err)
	}
	return path
}

// TestWriteFile_MP3CoverEmbed covers spec.md §8 scenario 6: a 100-byte
// synthetic JPEG embeds as exactly one APIC frame whose payload equals the
// input bytes.
func TestWriteFile_MP3CoverEmbed(t *testing.T) {
	path := writeTempMP3(t)
	cover := append([]byte{0xFF, 0xD8, 0xFF, 0xE0}, bytes.Repeat([]byte{0x11}, 96)...)

	err := WriteFile(path, Tags{
		Title:     "Title",
		Artists:   []string{"Artist"},
		Album:     "Album",
		Cover:     cover,
		CoverMIME: "image/jpeg",
	})
	if err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer tag.Close()

	if tag.Title() != "Title" || tag.Artist() != "Artist" || tag.Album() != "Album" {
		t.Errorf("basic tags = %q/%q/%q", tag.Title(), tag.Artist(), tag.Album())
	}

	frames := tag.GetFrames("APIC")
	if len(frames) != 1 {
		t.Fatalf("got %d APIC frames, want exactly 1", len(frames))
	}
	pic, ok := frames[0].(id3v2.PictureFrame)
	if !ok {
		t.Fatalf("APIC frame is not a PictureFrame: %T", frames[0])
	}
	if !bytes.Equal(pic.Picture, cover) {
		t.Error("embedded picture payload does not match input bytes")
	}
}

// TestWriteFile_MP3Idempotent covers the "running FixMetadata twice is
// idempotent" invariant: a second WriteFile call must not duplicate frames.
func TestWriteFile_MP3Idempotent(t *testing.T) {
	path := writeTempMP3(t)
	cover := append([]byte{0xFF, 0xD8, 0xFF, 0xE0}, bytes.Repeat([]byte{0x22}, 50)...)
	tags := Tags{Title: "T", Artists: []string{"A1", "A2"}, Album: "Alb", Cover: cover, CoverMIME: "image/jpeg"}

	if err := WriteFile(path, tags); err != nil {
		t.Fatalf("first WriteFile: %v", err)
	}
	if err := WriteFile(path, tags); err != nil {
		t.Fatalf("second WriteFile: %v", err)
	}

	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer tag.Close()

	if got := tag.Artist(); got != "A1/A2" {
		t.Errorf("artist = %q, want A1/A2", got)
	}
	if frames := tag.GetFrames("APIC"); len(frames) != 1 {
		t.Fatalf("got %d APIC frames after two writes, want exactly 1", len(frames))
	}
	if frames := tag.GetFrames("TIT2"); len(frames) != 1 {
		t.Fatalf("got %d TIT2 frames after two writes, want exactly 1", len(frames))
	}
}

func TestSniffFormat(t *testing.T) {
	cases := []struct {
		name string
		head []byte
		want Format
	}{
		{"id3", []byte("ID3\x03\x00"), FormatMP3},
		{"bare frame sync", []byte{0xFF, 0xFB, 0x90, 0x00}, FormatMP3},
		{"flac", []byte("fLaC"), FormatFLAC},
		{"unknown", []byte("RIFF"), FormatUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SniffFormat(tc.head); got != tc.want {
				t.Errorf("SniffFormat(%q) = %v, want %v", tc.head, got, tc.want)
			}
		})
	}
}
