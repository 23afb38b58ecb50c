package tagwriter

import (
	"fmt"
	"strings"

	"github.com/bogem/id3v2/v2"
)

// writeMP3 rewrites TIT2/TPE1/TALB/APIC, replacing any pre-existing frames
// of the same kind. id3v2.Open(Parse: true) already strips the old tag
// header and re-synthesizes a fresh one on Save, so stripping is implicit.
//
// The tag is pinned to ID3v2.3: text frames use ISO-8859-1 when every
// string is plain ASCII, falling back to UTF-16 with BOM the moment any
// field needs it, per spec.md §4.3 -- UTF-8 text frames are a v2.4-only
// feature and would silently mislabel the tag as v2.3 while encoding v2.4.
func writeMP3(path string, tags Tags) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("tagwriter: %w: open %s: %v", ErrTagParse, path, err)
	}
	defer tag.Close()

	tag.SetVersion(3)
	encoding := textEncoding(tags.Title, tags.Album, strings.Join(tags.Artists, "/"))
	tag.SetDefaultEncoding(encoding)

	if tags.Title != "" {
		tag.SetTitle(tags.Title)
	}
	if len(tags.Artists) > 0 {
		tag.SetArtist(strings.Join(tags.Artists, "/"))
	}
	if tags.Album != "" {
		tag.SetAlbum(tags.Album)
	}

	if len(tags.Cover) > 0 {
		// DeleteFrames first so re-running FixMetadata never accumulates a
		// second APIC frame alongside the one from a previous run.
		tag.DeleteFrames("APIC")
		tag.AddAttachedPicture(id3v2.PictureFrame{
			Encoding:    id3v2.EncodingISO,
			MimeType:    tags.CoverMIME,
			PictureType: id3v2.PTFrontCover,
			Description: "Front cover",
			Picture:     tags.Cover,
		})
	}

	if err := tag.Save(); err != nil {
		return fmt.Errorf("tagwriter: save %s: %w", path, err)
	}
	return nil
}

// textEncoding picks ISO-8859-1 when every field is plain ASCII, the
// narrowest encoding ID3v2.3 allows, and UTF-16 (with BOM) the moment any
// field has a rune ISO-8859-1 can't represent.
func textEncoding(fields ...string) id3v2.Encoding {
	for _, f := range fields {
		for _, r := range f {
			if r > 0xFF {
				return id3v2.EncodingUTF16
			}
		}
	}
	return id3v2.EncodingISO
}
