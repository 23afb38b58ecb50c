package tagwriter

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-flac/flacvorbis"
	"github.com/go-flac/go-flac"
)

func writeTempFLAC(t *testing.T, audioFrames []byte) string {
	t.Helper()

	streamInfo := flac.MetaDataBlock{Type: flac.StreamInfo, Data: make([]byte, 34)}

	var buf bytes.Buffer
	buf.WriteString("fLaC")
	buf.Write(streamInfo.Marshal(true))
	buf.Write(audioFrames)

	dir := t.TempDir()
	path := filepath.Join(dir, "track.flac")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write temp flac: %v", err)
	}
	return path
}

func TestWriteFile_FLACRoundTrip(t *testing.T) {
	audio := bytes.Repeat([]byte("frame-data"), 20)
	path := writeTempFLAC(t, audio)
	cover := append([]byte{0xFF, 0xD8, 0xFF, 0xE0}, bytes.Repeat([]byte{0x33}, 40)...)

	err := WriteFile(path, Tags{
		Title:     "T",
		Artists:   []string{"A1", "A2"},
		Album:     "Alb",
		Cover:     cover,
		CoverMIME: "image/jpeg",
	})
	if err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !bytes.HasSuffix(raw, audio) {
		t.Error("audio frames were not preserved byte-for-byte at the tail of the file")
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer f.Close()
	parsed, err := flac.ParseMetadata(f)
	if err != nil {
		t.Fatalf("ParseMetadata: %v", err)
	}

	if parsed.Meta[0].Type != flac.StreamInfo {
		t.Fatalf("first block type = %v, want StreamInfo", parsed.Meta[0].Type)
	}

	var vorbisCount, pictureCount int
	var gotComment *flacvorbis.MetaDataBlockVorbisComment
	for _, m := range parsed.Meta {
		switch m.Type {
		case flac.VorbisComment:
			vorbisCount++
			c, err := flacvorbis.ParseFromMetaDataBlock(*m)
			if err != nil {
				t.Fatalf("parse vorbis comment: %v", err)
			}
			gotComment = c
		case flac.Picture:
			pictureCount++
		}
	}
	if vorbisCount != 1 {
		t.Fatalf("got %d VORBIS_COMMENT blocks, want exactly 1", vorbisCount)
	}
	if pictureCount != 1 {
		t.Fatalf("got %d PICTURE blocks, want exactly 1", pictureCount)
	}

	titles, err := gotComment.Get(flacvorbis.FIELD_TITLE)
	if err != nil || len(titles) != 1 || titles[0] != "T" {
		t.Errorf("TITLE = %v, err %v", titles, err)
	}
	artists, err := gotComment.Get(flacvorbis.FIELD_ARTIST)
	if err != nil || len(artists) != 2 {
		t.Errorf("ARTIST = %v, err %v", artists, err)
	}
}
