package netease

import (
	"encoding/json"
	"testing"
)

// TestParseSearchResponse_AliasFields covers spec.md §8 scenario 4: the
// modern ar/al/dt aliases must project into the same Track shape the
// legacy artists/album/duration aliases would.
func TestParseSearchResponse_AliasFields(t *testing.T) {
	body := []byte(`{"code":200,"result":{"songCount":1,"songs":[{"id":1,"name":"X","ar":[{"id":2,"name":"Y"}],"al":{"id":3,"name":"Z","picUrl":"u"},"dt":1000}]}}`)

	result, err := parseSearchResponse(body, SearchTrack)
	if err != nil {
		t.Fatalf("parseSearchResponse: %v", err)
	}
	if len(result.Songs) != 1 {
		t.Fatalf("got %d songs, want 1", len(result.Songs))
	}

	got := result.Songs[0]
	if got.ID != 1 || got.Name != "X" {
		t.Errorf("id/name = %d/%q, want 1/X", got.ID, got.Name)
	}
	if len(got.Artists) != 1 || got.Artists[0].ID != 2 || got.Artists[0].Name != "Y" {
		t.Errorf("artists = %+v", got.Artists)
	}
	if got.Album.ID != 3 || got.Album.Name != "Z" || got.Album.PicURL != "u" {
		t.Errorf("album = %+v", got.Album)
	}
	if got.DurationMs != 1000 {
		t.Errorf("duration_ms = %d, want 1000", got.DurationMs)
	}
}

// TestParseSearchResponse_KindProjection covers spec.md §4.5: search()
// projects whichever of songs/albums/artists/playlists the request's kind
// asked for, leaving the other three empty.
func TestParseSearchResponse_KindProjection(t *testing.T) {
	body := []byte(`{"code":200,"result":{
		"songs":[{"id":1,"name":"song"}],
		"albums":[{"id":2,"name":"album"}],
		"artists":[{"id":3,"name":"artist"}],
		"playlists":[{"id":4,"name":"playlist"}]
	}}`)

	cases := []struct {
		kind SearchKind
		want func(*SearchResult) bool
	}{
		{SearchAlbum, func(r *SearchResult) bool { return len(r.Albums) == 1 && r.Albums[0].Name == "album" }},
		{SearchArtist, func(r *SearchResult) bool { return len(r.Artists) == 1 && r.Artists[0].Name == "artist" }},
		{SearchPlaylist, func(r *SearchResult) bool { return len(r.Playlists) == 1 && r.Playlists[0].Name == "playlist" }},
	}
	for _, tc := range cases {
		got, err := parseSearchResponse(body, tc.kind)
		if err != nil {
			t.Fatalf("kind %d: parseSearchResponse: %v", tc.kind, err)
		}
		if !tc.want(got) {
			t.Errorf("kind %d: got %+v", tc.kind, got)
		}
		if len(got.Songs) != 0 {
			t.Errorf("kind %d: songs leaked into non-track result: %+v", tc.kind, got.Songs)
		}
	}
}

// TestTrack_UnmarshalJSON_LegacyAliases confirms the older field names
// project identically, since spec.md requires tolerating either without a
// warning on either form.
func TestTrack_UnmarshalJSON_LegacyAliases(t *testing.T) {
	body := []byte(`{"id":1,"name":"X","artists":[{"id":2,"name":"Y"}],"album":{"id":3,"name":"Z","pic_url":"u"},"duration":1000}`)

	var track Track
	if err := json.Unmarshal(body, &track); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(track.Artists) != 1 || track.Artists[0].Name != "Y" {
		t.Errorf("artists = %+v", track.Artists)
	}
	if track.Album.PicURL != "u" {
		t.Errorf("album pic_url = %q, want u", track.Album.PicURL)
	}
	if track.DurationMs != 1000 {
		t.Errorf("duration_ms = %d, want 1000", track.DurationMs)
	}
}

// TestParseTrackURLResponse_NullURL covers spec.md §8 scenario 5: a null
// url must surface as ErrTrackUnavailable-worthy (nil, no error here; the
// Client.TrackURL wrapper turns the nil into the sentinel), not a
// zero-value success.
func TestParseTrackURLResponse_NullURL(t *testing.T) {
	body := []byte(`{"code":200,"data":[{"id":1,"url":null,"br":0,"size":0,"type":""}]}`)

	got, err := parseTrackURLResponse(body)
	if err != nil {
		t.Fatalf("parseTrackURLResponse: %v", err)
	}
	if got != nil {
		t.Fatalf("got %+v, want nil for a null url", got)
	}
}

func TestParseTrackURLResponse_PresentURL(t *testing.T) {
	body := []byte(`{"code":200,"data":[{"id":1,"url":"https://example/x.mp3","br":320000,"size":123,"type":"mp3"}]}`)

	got, err := parseTrackURLResponse(body)
	if err != nil {
		t.Fatalf("parseTrackURLResponse: %v", err)
	}
	if got == nil || got.URL == nil || *got.URL != "https://example/x.mp3" {
		t.Fatalf("got %+v", got)
	}
	if got.Format != "mp3" {
		t.Errorf("format = %q, want mp3 (from the wire's \"type\" field)", got.Format)
	}
}
