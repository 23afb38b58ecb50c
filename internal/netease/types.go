package netease

import "encoding/json"

// Artist is the {id, name} shape NetEase returns for both a track's artist
// list and an album's artist, regardless of which endpoint's alias it came
// through.
type Artist struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Album is a track's album projection.
type Album struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	PicURL string `json:"pic_url"`
}

// Track is the normalized projection of a song record. The server emits
// either the legacy field names (artists/album/duration) or the modern ones
// (ar/al/dt) depending on which endpoint answered; UnmarshalJSON accepts
// either without distinguishing them to the caller, per spec.md §9.
type Track struct {
	ID         int64    `json:"id"`
	Name       string   `json:"name"`
	Artists    []Artist `json:"artists"`
	Album      Album    `json:"album"`
	DurationMs int64    `json:"duration_ms"`
}

// trackAliases mirrors every shape a song record can arrive in across
// endpoints; UnmarshalJSON picks whichever of each alias pair is present.
type trackAliases struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`

	ArtistsLegacy []Artist `json:"artists"`
	ArtistsModern []Artist `json:"ar"`

	AlbumLegacy *albumAliases `json:"album"`
	AlbumModern *albumAliases `json:"al"`

	DurationLegacy int64 `json:"duration"`
	DurationModern int64 `json:"dt"`
}

type albumAliases struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	PicURL      string `json:"pic_url"`
	PicURLCamel string `json:"picUrl"`
}

func (a albumAliases) toAlbum() Album {
	pic := a.PicURL
	if pic == "" {
		pic = a.PicURLCamel
	}
	return Album{ID: a.ID, Name: a.Name, PicURL: pic}
}

// UnmarshalJSON normalizes either JSON alias family into Track.
func (t *Track) UnmarshalJSON(data []byte) error {
	var raw trackAliases
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	t.ID = raw.ID
	t.Name = raw.Name

	t.Artists = raw.ArtistsLegacy
	if len(raw.ArtistsModern) > 0 {
		t.Artists = raw.ArtistsModern
	}

	if raw.AlbumModern != nil {
		t.Album = raw.AlbumModern.toAlbum()
	} else if raw.AlbumLegacy != nil {
		t.Album = raw.AlbumLegacy.toAlbum()
	}

	t.DurationMs = raw.DurationLegacy
	if raw.DurationModern != 0 {
		t.DurationMs = raw.DurationModern
	}
	return nil
}

// Playlist is a NetEase playlist's projection, per the playlist_detail
// operation.
type Playlist struct {
	ID     int64   `json:"id"`
	Name   string  `json:"name"`
	Tracks []Track `json:"tracks"`
}

// Lyric is the track_lyric operation's projection; both fields are
// optional -- many tracks carry only one, some carry neither.
type Lyric struct {
	Lrc    string `json:"lrc"`
	TLyric string `json:"tlyric"`
}

type lyricLine struct {
	Lyric string `json:"lyric"`
}

type lyricEnvelope struct {
	Lrc    lyricLine `json:"lrc"`
	TLyric lyricLine `json:"tlyric"`
}

func (l *Lyric) UnmarshalJSON(data []byte) error {
	var env lyricEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	l.Lrc = env.Lrc.Lyric
	l.TLyric = env.TLyric.Lyric
	return nil
}

// TrackURL is the track_url operation's projection. URL is nil when the
// server can't serve this track at the requested quality -- the caller
// (Client.TrackURL) turns that into ErrTrackUnavailable rather than
// returning a success with an empty string, per spec.md §8 scenario 5.
type TrackURL struct {
	URL    *string `json:"url"`
	Br     int     `json:"br"`
	Size   int64   `json:"size"`
	Format string  `json:"-"`
}

// trackURLAliases mirrors the raw wire shape: NetEase carries the codec
// under "type", not "format".
type trackURLAliases struct {
	URL    *string `json:"url"`
	Br     int     `json:"br"`
	Size   int64   `json:"size"`
	Format string  `json:"type"`
}

// UnmarshalJSON projects the wire's "type" field into TrackURL.Format.
func (t *TrackURL) UnmarshalJSON(data []byte) error {
	var raw trackURLAliases
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	t.URL = raw.URL
	t.Br = raw.Br
	t.Size = raw.Size
	t.Format = raw.Format
	return nil
}

// UserProfile is the user_info operation's projection.
type UserProfile struct {
	ID        int64  `json:"userId"`
	Nickname  string `json:"nickname"`
	AvatarURL string `json:"avatarUrl"`
}

// Quality is the download bitrate tier accepted by track_url.
type Quality string

const (
	QualityStandard Quality = "standard"
	QualityHigher   Quality = "higher"
	QualityExhigh   Quality = "exhigh"
	QualityLossless Quality = "lossless"
)

// SearchResult is the search operation's projection: exactly one of its
// fields is populated, whichever the request's SearchKind asked for.
type SearchResult struct {
	Songs     []Track
	Albums    []Album
	Artists   []Artist
	Playlists []Playlist
}

// SearchKind selects which result array search() projects from the
// response envelope's result object.
type SearchKind int

const (
	SearchTrack SearchKind = iota
	SearchAlbum
	SearchArtist
	SearchPlaylist
)

// weapiType is the numeric `type` field the search endpoint expects.
func (k SearchKind) weapiType() int {
	switch k {
	case SearchTrack:
		return 1
	case SearchAlbum:
		return 10
	case SearchArtist:
		return 100
	case SearchPlaylist:
		return 1000
	default:
		return 1
	}
}
