package netease

import (
	"encoding/json"
	"fmt"
	"os"

	"ncmdump.dev/cli/internal/atomicfile"
	"ncmdump.dev/cli/internal/config"
)

const sessionFileMode = 0o600

// Session is the persisted login record at <config-dir>/ncmdump/session.json.
// Per spec.md §6, any keys besides MUSIC_U must survive a round trip
// untouched, so unknown fields are kept in extra rather than dropped.
type Session struct {
	MusicU string `json:"MUSIC_U"`
	extra  map[string]json.RawMessage
}

// LoadSession reads the session file, returning a zero-value Session (not
// an error) if the file doesn't exist yet -- that's the normal "never
// logged in" state, not a failure.
func LoadSession() (*Session, error) {
	path, err := config.SessionPath()
	if err != nil {
		return nil, fmt.Errorf("netease: resolve session path: %w", err)
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Session{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("netease: read session file: %w", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("netease: parse session file: %w", err)
	}

	s := &Session{extra: raw}
	if v, ok := raw["MUSIC_U"]; ok {
		if err := json.Unmarshal(v, &s.MusicU); err != nil {
			return nil, fmt.Errorf("netease: parse MUSIC_U: %w", err)
		}
		delete(raw, "MUSIC_U")
	}
	return s, nil
}

// Save atomically replaces the session file with s's contents, preserving
// any keys this process didn't understand.
func (s *Session) Save() error {
	path, err := config.SessionPath()
	if err != nil {
		return fmt.Errorf("netease: resolve session path: %w", err)
	}
	if _, err := config.EnsureDir(); err != nil {
		return fmt.Errorf("netease: ensure config dir: %w", err)
	}

	out := make(map[string]json.RawMessage, len(s.extra)+1)
	for k, v := range s.extra {
		out[k] = v
	}
	musicU, err := json.Marshal(s.MusicU)
	if err != nil {
		return err
	}
	out["MUSIC_U"] = musicU

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("netease: marshal session: %w", err)
	}
	if err := atomicfile.Write(path, data, sessionFileMode); err != nil {
		return fmt.Errorf("netease: write session: %w", err)
	}
	return nil
}

// LoggedIn reports whether the session carries a non-empty cookie.
func (s *Session) LoggedIn() bool {
	return s != nil && s.MusicU != ""
}

// Logout clears the cookie, preserving any other keys, then saves.
func (s *Session) Logout() error {
	s.MusicU = ""
	return s.Save()
}
