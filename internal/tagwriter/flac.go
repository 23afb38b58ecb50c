package tagwriter

import (
	"fmt"
	"net/http"
	"os"

	"github.com/go-flac/flacpicture"
	"github.com/go-flac/flacvorbis"
	"github.com/go-flac/go-flac"

	"ncmdump.dev/cli/internal/atomicfile"
)

// writeFLAC rewrites the VORBIS_COMMENT and PICTURE metadata blocks of a
// FLAC file, preserving STREAMINFO as the mandatory first block and every
// other block untouched. flac.ParseMetadata enforces the STREAMINFO-first
// invariant itself; a file that violates it fails here as ErrTagParse.
func writeFLAC(path string, tags Tags) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("tagwriter: open %s: %w", path, err)
	}
	parsed, err := flac.ParseMetadata(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("tagwriter: %w: parse %s: %v", ErrTagParse, path, err)
	}

	vorbis := flacvorbis.New()
	if tags.Title != "" {
		_ = vorbis.Add(flacvorbis.FIELD_TITLE, tags.Title)
	}
	for _, artist := range tags.Artists {
		_ = vorbis.Add(flacvorbis.FIELD_ARTIST, artist)
	}
	if tags.Album != "" {
		_ = vorbis.Add(flacvorbis.FIELD_ALBUM, tags.Album)
	}
	replaceBlock(parsed, flac.VorbisComment, vorbis.Marshal())

	if len(tags.Cover) > 0 {
		mime := tags.CoverMIME
		if mime == "" {
			mime = http.DetectContentType(tags.Cover)
		}
		pic, err := flacpicture.NewFromImageData(flacpicture.PictureTypeFrontCover, "", tags.Cover, mime)
		if err != nil {
			return fmt.Errorf("tagwriter: build flac picture: %w", err)
		}
		replaceBlock(parsed, flac.Picture, pic.Marshal())
	}

	data, err := marshalFLAC(parsed)
	if err != nil {
		return fmt.Errorf("tagwriter: marshal %s: %w", path, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	return atomicfile.Write(path, data, info.Mode())
}

// replaceBlock swaps out the first metadata block of kind (if any) for
// block, otherwise appends it. STREAMINFO is always index 0 and is never a
// candidate for either kind this function is called with.
func replaceBlock(file *flac.File, kind flac.BlockType, block flac.MetaDataBlock) {
	for i, m := range file.Meta {
		if m.Type == kind {
			file.Meta[i] = &block
			return
		}
	}
	file.Meta = append(file.Meta, &block)
}

// marshalFLAC re-serializes the "fLaC" stream marker plus every metadata
// block, then the original audio frames, copied byte-for-byte as required.
// go-flac's own Save() does this for an *os.File in place; this version
// reads the source frames into memory once so it can hand the result to
// atomicfile.Write for a crash-safe replace.
func marshalFLAC(file *flac.File) ([]byte, error) {
	buf := []byte("fLaC")
	for i, m := range file.Meta {
		last := i == len(file.Meta)-1
		buf = append(buf, m.Marshal(last)...)
	}
	buf = append(buf, file.Frames...)
	return buf, nil
}
