package netease

import (
	"encoding/json"
	"fmt"
)

// This file isolates response-body projection from the HTTP/WEAPI transport
// so each projection can be unit tested directly against a literal envelope
// body (spec.md §8 scenarios 4-5), without standing up a server that can
// speak the WEAPI encryption envelope end to end.

// parseSearchResponse projects the result array named by kind -- "songs",
// "albums", "artists", or "playlists" -- per spec.md §4.5: search() keys its
// projection off the request's type, since the envelope carries only the
// one array the server bothered to populate.
func parseSearchResponse(raw []byte, kind SearchKind) (*SearchResult, error) {
	var parsed struct {
		Result struct {
			Songs     []Track    `json:"songs"`
			Albums    []Album    `json:"albums"`
			Artists   []Artist   `json:"artists"`
			Playlists []Playlist `json:"playlists"`
		} `json:"result"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("netease: decode search response: %w", err)
	}

	switch kind {
	case SearchAlbum:
		return &SearchResult{Albums: parsed.Result.Albums}, nil
	case SearchArtist:
		return &SearchResult{Artists: parsed.Result.Artists}, nil
	case SearchPlaylist:
		return &SearchResult{Playlists: parsed.Result.Playlists}, nil
	default:
		return &SearchResult{Songs: parsed.Result.Songs}, nil
	}
}

func parseTrackDetailResponse(raw []byte) (*Track, error) {
	var parsed struct {
		Songs []Track `json:"songs"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("netease: decode track detail response: %w", err)
	}
	if len(parsed.Songs) == 0 {
		return nil, nil
	}
	return &parsed.Songs[0], nil
}

func parseTrackURLResponse(raw []byte) (*TrackURL, error) {
	var parsed struct {
		Data []TrackURL `json:"data"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("netease: decode track url response: %w", err)
	}
	if len(parsed.Data) == 0 || parsed.Data[0].URL == nil {
		return nil, nil
	}
	return &parsed.Data[0], nil
}

func parsePlaylistResponse(raw []byte) (*Playlist, error) {
	var parsed struct {
		Playlist Playlist `json:"playlist"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("netease: decode playlist response: %w", err)
	}
	return &parsed.Playlist, nil
}

func parseUserInfoResponse(raw []byte) (*UserProfile, error) {
	var parsed struct {
		Profile UserProfile `json:"profile"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("netease: decode user info response: %w", err)
	}
	return &parsed.Profile, nil
}
