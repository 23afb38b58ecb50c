package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/exp/slices"

	"ncmdump.dev/cli/internal/netease"
)

// validQualities is the -q/--quality allow-list for download, checked the
// same way the teacher's internal/sniff brand lists check a sniffed magic
// string against a set of known container signatures: a plain
// slices.Contains rather than a bespoke set type for four elements.
var validQualities = []string{"standard", "higher", "exhigh", "lossless"}

const requestTimeout = 30 * time.Second

func newClient(logger *zap.Logger) (*netease.Client, error) {
	client, err := netease.New(logger)
	if err != nil {
		return nil, fmt.Errorf("netease: %w", err)
	}
	return client, nil
}

// withRequestContext attaches a correlation id to the logger the way the
// teacher's http client logs attach a request-scoped field, and bounds every
// network operation with requestTimeout since spec.md §5 leaves timeouts to
// the caller.
func withRequestContext(logger *zap.Logger) (context.Context, context.CancelFunc, *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	reqID := uuid.NewString()
	return ctx, cancel, logger.With(zap.String("request_id", reqID))
}

var loginCommand = &cli.Command{
	Name:      "login",
	Usage:     "persist a MUSIC_U session cookie, or check the current login state",
	ArgsUsage: "<MUSIC_U>",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "check", Usage: "report whether a session is currently persisted"},
	},
	Action: func(c *cli.Context) error {
		if c.Bool("check") {
			session, err := netease.LoadSession()
			if err != nil {
				return exitWith(exitUserError, err)
			}
			if session.LoggedIn() {
				fmt.Println("logged in")
				return nil
			}
			fmt.Println("not logged in")
			return exitWith(exitAuthFailure, errors.New("login: no session persisted"))
		}

		if c.Args().Len() != 1 {
			return exitWith(exitUserError, errors.New("login: specify MUSIC_U, or use --check"))
		}
		if err := netease.Login(c.Args().Get(0)); err != nil {
			return exitWith(exitUserError, err)
		}
		fmt.Println("session saved")
		return nil
	},
}

var logoutCommand = &cli.Command{
	Name:  "logout",
	Usage: "clear the persisted session cookie",
	Action: func(c *cli.Context) error {
		if err := netease.Logout(); err != nil {
			return exitWith(exitUserError, err)
		}
		fmt.Println("logged out")
		return nil
	},
}

var searchCommand = &cli.Command{
	Name:      "search",
	Usage:     "search tracks, albums, artists, or playlists",
	ArgsUsage: "<KEYWORD>",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "type", Aliases: []string{"t"}, Value: "track", Usage: "track|album|artist|playlist"},
		&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: 20, Usage: "max results"},
	},
	Action: func(c *cli.Context) error {
		if c.Args().Len() != 1 {
			return exitWith(exitUserError, errors.New("search: specify exactly one KEYWORD"))
		}
		kind, err := parseSearchKind(c.String("type"))
		if err != nil {
			return exitWith(exitUserError, err)
		}

		logger := setupLogger(c.Bool("verbose"))
		client, err := newClient(logger)
		if err != nil {
			return exitWith(exitUserError, err)
		}
		ctx, cancel, logger := withRequestContext(logger)
		defer cancel()

		result, err := client.Search(ctx, c.Args().Get(0), kind, c.Int("limit"), 0)
		if err != nil {
			logger.Warn("search failed", zap.Error(err))
			return exitWith(classifyExitCode(err), err)
		}

		for _, line := range formatSearchResult(result) {
			fmt.Println(line)
		}
		return nil
	},
}

// formatSearchResult renders whichever of result's arrays is populated --
// exactly one, per the kind the caller requested.
func formatSearchResult(result *netease.SearchResult) []string {
	switch {
	case len(result.Songs) > 0:
		return lo.Map(result.Songs, func(t netease.Track, _ int) string {
			artists := lo.Map(t.Artists, func(a netease.Artist, _ int) string { return a.Name })
			return fmt.Sprintf("%d  %s - %s  [%s]", t.ID, t.Name, joinOrDash(artists), t.Album.Name)
		})
	case len(result.Albums) > 0:
		return lo.Map(result.Albums, func(a netease.Album, _ int) string {
			return fmt.Sprintf("%d  %s", a.ID, a.Name)
		})
	case len(result.Artists) > 0:
		return lo.Map(result.Artists, func(a netease.Artist, _ int) string {
			return fmt.Sprintf("%d  %s", a.ID, a.Name)
		})
	case len(result.Playlists) > 0:
		return lo.Map(result.Playlists, func(p netease.Playlist, _ int) string {
			return fmt.Sprintf("%d  %s  (%d tracks)", p.ID, p.Name, len(p.Tracks))
		})
	default:
		return nil
	}
}

func parseSearchKind(s string) (netease.SearchKind, error) {
	switch s {
	case "track":
		return netease.SearchTrack, nil
	case "album":
		return netease.SearchAlbum, nil
	case "artist":
		return netease.SearchArtist, nil
	case "playlist":
		return netease.SearchPlaylist, nil
	default:
		return 0, fmt.Errorf("search: unknown -t %q, want track|album|artist|playlist", s)
	}
}

func joinOrDash(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	out := items[0]
	for _, s := range items[1:] {
		out += ", " + s
	}
	return out
}

var infoCommand = &cli.Command{
	Name:      "info",
	Usage:     "show a track's metadata",
	ArgsUsage: "<TRACK_ID>",
	Action: func(c *cli.Context) error {
		id, err := parseTrackID(c)
		if err != nil {
			return err
		}
		logger := setupLogger(c.Bool("verbose"))
		client, err := newClient(logger)
		if err != nil {
			return exitWith(exitUserError, err)
		}
		ctx, cancel, _ := withRequestContext(logger)
		defer cancel()

		track, err := client.TrackDetail(ctx, id)
		if err != nil {
			return exitWith(classifyExitCode(err), err)
		}

		artists := lo.Map(track.Artists, func(a netease.Artist, _ int) string { return a.Name })
		fmt.Printf("%d  %s\nartists: %s\nalbum:   %s\nduration: %s\n",
			track.ID, track.Name, joinOrDash(artists), track.Album.Name,
			time.Duration(track.DurationMs)*time.Millisecond)
		return nil
	},
}

var lyricCommand = &cli.Command{
	Name:      "lyric",
	Usage:     "print a track's lyrics",
	ArgsUsage: "<TRACK_ID>",
	Action: func(c *cli.Context) error {
		id, err := parseTrackID(c)
		if err != nil {
			return err
		}
		logger := setupLogger(c.Bool("verbose"))
		client, err := newClient(logger)
		if err != nil {
			return exitWith(exitUserError, err)
		}
		ctx, cancel, _ := withRequestContext(logger)
		defer cancel()

		lyric, err := client.TrackLyric(ctx, id)
		if err != nil {
			return exitWith(classifyExitCode(err), err)
		}
		if lyric.Lrc == "" {
			return exitWith(exitNetworkOrAPI, fmt.Errorf("lyric: track %d has no lyrics", id))
		}
		fmt.Println(lyric.Lrc)
		if lyric.TLyric != "" {
			fmt.Println("---")
			fmt.Println(lyric.TLyric)
		}
		return nil
	},
}

var downloadCommand = &cli.Command{
	Name:      "download",
	Usage:     "download a track's audio",
	ArgsUsage: "<TRACK_ID>",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "quality", Aliases: []string{"q"}, Value: "exhigh", Usage: "standard|higher|exhigh|lossless"},
		&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "output file path (default: <TRACK_ID>.<ext> in the working dir)"},
	},
	Action: func(c *cli.Context) error {
		id, err := parseTrackID(c)
		if err != nil {
			return err
		}
		quality, err := parseQuality(c.String("quality"))
		if err != nil {
			return exitWith(exitUserError, err)
		}

		logger := setupLogger(c.Bool("verbose"))
		client, err := newClient(logger)
		if err != nil {
			return exitWith(exitUserError, err)
		}
		ctx, cancel, logger := withRequestContext(logger)
		defer cancel()

		out := c.String("output")
		if out == "" {
			out = fmt.Sprintf("%d.mp3", id)
		}

		if err := client.Download(ctx, id, quality, out); err != nil {
			return exitWith(classifyExitCode(err), err)
		}
		if stat, err := os.Stat(out); err == nil {
			logger.Info("downloaded", zap.String("destination", out), zap.String("size", humanize.Bytes(uint64(stat.Size()))))
		}
		fmt.Println(out)
		return nil
	},
}

func parseQuality(s string) (netease.Quality, error) {
	if !slices.Contains(validQualities, s) {
		return "", fmt.Errorf("download: unknown -q %q, want standard|higher|exhigh|lossless", s)
	}
	return netease.Quality(s), nil
}

var playlistCommand = &cli.Command{
	Name:      "playlist",
	Usage:     "list a playlist's tracks",
	ArgsUsage: "<PLAYLIST_ID>",
	Action: func(c *cli.Context) error {
		if c.Args().Len() != 1 {
			return exitWith(exitUserError, errors.New("playlist: specify exactly one PLAYLIST_ID"))
		}
		id, err := strconv.ParseInt(c.Args().Get(0), 10, 64)
		if err != nil {
			return exitWith(exitUserError, fmt.Errorf("playlist: invalid PLAYLIST_ID: %w", err))
		}

		logger := setupLogger(c.Bool("verbose"))
		client, err := newClient(logger)
		if err != nil {
			return exitWith(exitUserError, err)
		}
		ctx, cancel, _ := withRequestContext(logger)
		defer cancel()

		playlist, err := client.PlaylistDetail(ctx, id)
		if err != nil {
			return exitWith(classifyExitCode(err), err)
		}

		fmt.Printf("%s (%d tracks)\n", playlist.Name, len(playlist.Tracks))
		for _, t := range playlist.Tracks {
			artists := lo.Map(t.Artists, func(a netease.Artist, _ int) string { return a.Name })
			fmt.Printf("%d  %s - %s\n", t.ID, t.Name, joinOrDash(artists))
		}
		return nil
	},
}

var meCommand = &cli.Command{
	Name:  "me",
	Usage: "show the logged-in user's profile",
	Action: func(c *cli.Context) error {
		logger := setupLogger(c.Bool("verbose"))
		client, err := newClient(logger)
		if err != nil {
			return exitWith(exitUserError, err)
		}
		ctx, cancel, _ := withRequestContext(logger)
		defer cancel()

		profile, err := client.UserInfo(ctx)
		if err != nil {
			return exitWith(classifyExitCode(err), err)
		}
		fmt.Printf("%d  %s\n", profile.ID, profile.Nickname)
		return nil
	},
}

func parseTrackID(c *cli.Context) (int64, error) {
	if c.Args().Len() != 1 {
		return 0, exitWith(exitUserError, errors.New("specify exactly one TRACK_ID"))
	}
	id, err := strconv.ParseInt(c.Args().Get(0), 10, 64)
	if err != nil {
		return 0, exitWith(exitUserError, fmt.Errorf("invalid TRACK_ID: %w", err))
	}
	return id, nil
}
