package ncm

import (
	"path"
	"strings"
	"unicode"
)

// FallbackMeta is the best-effort title/artist pair recovered from a file's
// name when the NCM container itself carries no metadata section (meta_len
// == 0). The container's own Metadata.Artist/MusicName always take priority
// over this when present; FallbackMeta only fills the gap spec.md §3 leaves
// open for files with no embedded metadata.
type FallbackMeta struct {
	Title   string
	Artists []string
}

// ParseFallbackMeta splits "<filename minus extension>" on the first " - "
// and guesses which side is the title and which is the artist, using a
// handful of cheap heuristics (common Chinese surnames, capitalized English
// names) rather than anything approaching real NLP. When it can't tell, it
// assumes "artist - title", the more common convention.
func ParseFallbackMeta(filename string) FallbackMeta {
	name := strings.TrimSpace(strings.TrimSuffix(filename, path.Ext(filename)))
	if name == "" {
		return FallbackMeta{}
	}

	parts := strings.SplitN(name, "-", 2)
	if len(parts) == 1 {
		return FallbackMeta{Title: strings.TrimSpace(parts[0])}
	}

	left, right := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	switch {
	case left == "":
		return FallbackMeta{Title: right}
	case right == "":
		return FallbackMeta{Title: left}
	case looksLikeArtist(left) && !looksLikeArtist(right):
		return FallbackMeta{Title: right, Artists: splitArtists(left)}
	case looksLikeArtist(right) && !looksLikeArtist(left):
		return FallbackMeta{Title: left, Artists: splitArtists(right)}
	default:
		// Ambiguous: default to the conventional "artist - title" order.
		return FallbackMeta{Title: right, Artists: splitArtists(left)}
	}
}

func splitArtists(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '/' || r == '&' })
	artists := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			artists = append(artists, f)
		}
	}
	return artists
}

// commonSurnames covers enough ground to break ties in practice without
// pretending to be a real name database.
var commonSurnames = []string{"王", "李", "张", "刘", "陈", "杨", "周", "吴", "林", "黄", "周杰伦", "五月天"}

func looksLikeArtist(s string) bool {
	if s == "" {
		return false
	}
	if isMostlyHan(s) {
		runes := []rune(s)
		if len(runes) >= 2 && len(runes) <= 4 {
			for _, surname := range commonSurnames {
				if strings.HasPrefix(s, surname) {
					return true
				}
			}
		}
		return false
	}

	// English: "Taylor Swift"-shaped names score as artists; phrases with
	// song-ish keywords or more than two words read as a title instead.
	if !isCapitalizedWords(s) {
		return false
	}
	words := strings.Fields(s)
	if len(words) > 2 || containsAny(s, "Live", "Remix", "feat.", "(", ")") {
		return false
	}
	return true
}

func isMostlyHan(s string) bool {
	han, total := 0, 0
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if unicode.Is(unicode.Han, r) {
			han++
		}
	}
	return total > 0 && han*2 > total
}

func isCapitalizedWords(s string) bool {
	for _, w := range strings.Fields(s) {
		r := []rune(w)
		if len(r) == 0 || !unicode.IsUpper(r[0]) {
			return false
		}
	}
	return true
}

func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
