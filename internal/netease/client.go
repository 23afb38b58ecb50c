// Package netease composes WEAPI requests over HTTP and projects the JSON
// responses into typed records, the way the teacher's processor drives file
// I/O: one small method per operation, structured logging on the way in and
// out, errors wrapped with fmt.Errorf%w rather than swallowed.
package netease

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"ncmdump.dev/cli/internal/atomicfile"
	"ncmdump.dev/cli/internal/weapi"
)

const (
	baseURL   = "https://music.163.com/weapi"
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	cacheMaxEntries = 256
	cacheTTL        = 5 * time.Minute
)

// Client composes NetEase WEAPI calls. It holds only immutable config and an
// immutable session snapshot loaded at construction, per spec.md §5: safe
// for concurrent use as long as httpClient is (the stdlib's is).
type Client struct {
	httpClient *http.Client
	logger     *zap.Logger
	session    *Session
	cache      *responseCache
}

// New constructs a Client from the session persisted on disk at
// construction time. Session mutations (Login/Logout) write through
// immediately but do not retroactively change an in-flight Client's
// snapshot, matching spec.md §5's "read once at construction" rule.
func New(logger *zap.Logger) (*Client, error) {
	session, err := LoadSession()
	if err != nil {
		return nil, fmt.Errorf("netease: load session: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
		session:    session,
		cache:      newResponseCache(cacheMaxEntries, cacheTTL),
	}, nil
}

// envelope is the common response shape every WEAPI endpoint returns;
// per-operation payloads are unmarshaled a second time from raw once the
// code has been checked.
type envelope struct {
	Code    int    `json:"code"`
	Message string `json:"msg"`
}

func (c *Client) post(ctx context.Context, endpoint string, params map[string]any) (json.RawMessage, error) {
	body, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("netease: marshal request body: %w", err)
	}

	encParams, encSecKey, err := weapi.Encrypt(string(body))
	if err != nil {
		return nil, fmt.Errorf("netease: encrypt request: %w", err)
	}

	form := url.Values{"params": {encParams}, "encSecKey": {encSecKey}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+endpoint, bytes.NewBufferString(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("netease: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", userAgent)
	if c.session.LoggedIn() {
		req.Header.Set("Cookie", fmt.Sprintf("MUSIC_U=%s; os=pc", c.session.MusicU))
	}

	c.logger.Debug("netease request", zap.String("endpoint", endpoint))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("netease: http: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("netease: read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return nil, fmt.Errorf("netease: decode response envelope: %w", err)
	}
	if err := classifyCode(env.Code, env.Message); err != nil {
		c.logger.Warn("netease api error", zap.String("endpoint", endpoint), zap.Int("code", env.Code))
		return nil, err
	}
	return respBody, nil
}

// Search runs the search operation, projecting exactly the result array
// named by kind from the response envelope's result object.
func (c *Client) Search(ctx context.Context, keyword string, kind SearchKind, limit, offset int) (*SearchResult, error) {
	raw, err := c.post(ctx, "/cloudsearch/get/web", map[string]any{
		"s": keyword, "type": kind.weapiType(), "limit": limit, "offset": offset,
	})
	if err != nil {
		return nil, err
	}
	return parseSearchResponse(raw, kind)
}

// TrackDetail runs the track_detail operation for a single id.
func (c *Client) TrackDetail(ctx context.Context, id int64) (*Track, error) {
	if cached, ok := c.cache.get(trackDetailCacheKey(id)); ok {
		return cached.(*Track), nil
	}

	raw, err := c.post(ctx, "/v3/song/detail", map[string]any{
		"c":   fmt.Sprintf(`[{"id":%d}]`, id),
		"ids": fmt.Sprintf(`[%d]`, id),
	})
	if err != nil {
		return nil, err
	}

	track, err := parseTrackDetailResponse(raw)
	if err != nil {
		return nil, err
	}
	if track == nil {
		return nil, fmt.Errorf("netease: track %d: %w", id, ErrTrackUnavailable)
	}

	c.cache.put(trackDetailCacheKey(id), track)
	return track, nil
}

func trackDetailCacheKey(id int64) string {
	return "track_detail:" + strconv.FormatInt(id, 10)
}

// TrackURL runs the track_url operation. A null url in the response becomes
// ErrTrackUnavailable rather than a zero-value success, per spec.md §8
// scenario 5.
func (c *Client) TrackURL(ctx context.Context, id int64, quality Quality) (*TrackURL, error) {
	raw, err := c.post(ctx, "/song/enhance/player/url/v1", map[string]any{
		"ids": fmt.Sprintf("[%d]", id),
		"br":  qualityBitrate(quality),
	})
	if err != nil {
		return nil, err
	}

	trackURL, err := parseTrackURLResponse(raw)
	if err != nil {
		return nil, err
	}
	if trackURL == nil {
		return nil, fmt.Errorf("netease: track %d: %w", id, ErrTrackUnavailable)
	}
	return trackURL, nil
}

func qualityBitrate(q Quality) int {
	switch q {
	case QualityStandard:
		return 128000
	case QualityHigher:
		return 192000
	case QualityExhigh:
		return 320000
	case QualityLossless:
		return 999000
	default:
		return 128000
	}
}

// TrackLyric runs the track_lyric operation.
func (c *Client) TrackLyric(ctx context.Context, id int64) (*Lyric, error) {
	raw, err := c.post(ctx, "/song/lyric", map[string]any{"id": id, "lv": -1, "tv": -1})
	if err != nil {
		return nil, err
	}
	var lyric Lyric
	if err := json.Unmarshal(raw, &lyric); err != nil {
		return nil, fmt.Errorf("netease: decode lyric response: %w", err)
	}
	return &lyric, nil
}

// PlaylistDetail runs the playlist_detail operation.
func (c *Client) PlaylistDetail(ctx context.Context, id int64) (*Playlist, error) {
	raw, err := c.post(ctx, "/v6/playlist/detail", map[string]any{"id": id, "n": 100000})
	if err != nil {
		return nil, err
	}
	return parsePlaylistResponse(raw)
}

// UserInfo runs the user_info operation, failing with ErrNotLoggedIn (via
// classifyCode on a 301) if no session cookie is present.
func (c *Client) UserInfo(ctx context.Context) (*UserProfile, error) {
	if !c.session.LoggedIn() {
		return nil, ErrNotLoggedIn
	}
	raw, err := c.post(ctx, "/nuser/account/get", map[string]any{})
	if err != nil {
		return nil, err
	}
	return parseUserInfoResponse(raw)
}

// Login persists musicU as the current session cookie.
func Login(musicU string) error {
	session, err := LoadSession()
	if err != nil {
		return err
	}
	session.MusicU = musicU
	return session.Save()
}

// Logout clears the persisted session cookie.
func Logout() error {
	session, err := LoadSession()
	if err != nil {
		return err
	}
	return session.Logout()
}

// Download streams a track's audio to outPath, following redirects via the
// default http.Client behavior and refusing to write anything if the
// server's url is null.
func (c *Client) Download(ctx context.Context, id int64, quality Quality, outPath string) error {
	trackURL, err := c.TrackURL(ctx, id, quality)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, *trackURL.URL, nil)
	if err != nil {
		return fmt.Errorf("netease: build download request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("netease: download: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("netease: download: unexpected status %s", resp.Status)
	}

	if err := atomicfile.WriteFrom(outPath, resp.Body, 0o644); err != nil {
		return fmt.Errorf("netease: write downloaded audio: %w", err)
	}
	return nil
}
