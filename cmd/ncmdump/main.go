// Command ncmdump-cli is the external interface spec.md §6 describes:
// decrypt .ncm containers on disk and drive the NetEase WEAPI from the
// shell. Setup follows the teacher's cmd/um/main.go almost line for line --
// a urfave/cli.App with a zap logger gated on --verbose -- generalized from
// "unlock every decoder" to "decode ncm, talk to netease".
package main

import (
	"errors"
	"fmt"
	"net"
	"os"
	"runtime"
	"runtime/debug"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"ncmdump.dev/cli/internal/ncm"
	"ncmdump.dev/cli/internal/netease"
	"ncmdump.dev/cli/internal/tagwriter"
)

// AppVersion is overridden at link time (-ldflags) or read back from the
// module's own build info when installed via `go install`.
var AppVersion = "custom"

// Exit codes per spec.md §6.
const (
	exitOK           = 0
	exitUserError    = 1
	exitAuthFailure  = 2
	exitNetworkOrAPI = 3
	exitDecryptOrTag = 4
)

func main() {
	if module, ok := debug.ReadBuildInfo(); ok && module.Main.Version != "(devel)" {
		AppVersion = module.Main.Version
	}

	app := &cli.App{
		Name:      "ncmdump-cli",
		HelpName:  "ncmdump-cli",
		Usage:     "decrypt NetEase .ncm files and talk to the NetEase WEAPI",
		Version:   fmt.Sprintf("%s (%s,%s/%s)", AppVersion, runtime.Version(), runtime.GOOS, runtime.GOARCH),
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"V"}, Usage: "verbose logging"},
		},
		HideHelpCommand: true,
		Commands: []*cli.Command{
			dumpCommand,
			loginCommand,
			logoutCommand,
			searchCommand,
			infoCommand,
			lyricCommand,
			downloadCommand,
			playlistCommand,
			meCommand,
		},
	}

	err := app.Run(os.Args)
	if err == nil {
		os.Exit(exitOK)
	}

	var ec cli.ExitCoder
	if errors.As(err, &ec) {
		if ec.ExitCode() != exitUserError {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(ec.ExitCode())
	}

	fmt.Fprintln(os.Stderr, err)
	os.Exit(classifyExitCode(err))
}

func setupLogger(verbose bool) *zap.Logger {
	logConfig := zap.NewProductionEncoderConfig()
	logConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	logConfig.EncodeTime = zapcore.RFC3339TimeEncoder
	enabler := zap.LevelEnablerFunc(func(level zapcore.Level) bool {
		if verbose {
			return true
		}
		return level >= zapcore.InfoLevel
	})

	return zap.New(zapcore.NewCore(
		zapcore.NewConsoleEncoder(logConfig),
		os.Stderr,
		enabler,
	))
}

// classifyExitCode maps an operation error to spec.md §6's exit code taxonomy.
// Commands wrap their returned error in cli.Exit directly when they already
// know the right code (e.g. a bad --quality flag); this is the fallback for
// errors bubbling up from internal/ncm, internal/netease, internal/tagwriter.
func classifyExitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, netease.ErrNotLoggedIn):
		return exitAuthFailure
	case errors.Is(err, ncm.ErrInvalidMagic),
		errors.Is(err, ncm.ErrTruncated),
		errors.Is(err, ncm.ErrBadPadding),
		errors.Is(err, ncm.ErrBadUTF8),
		errors.Is(err, tagwriter.ErrUnknownFormat),
		errors.Is(err, tagwriter.ErrTagParse):
		return exitDecryptOrTag
	case errors.Is(err, netease.ErrRateLimited),
		errors.Is(err, netease.ErrForbidden),
		errors.Is(err, netease.ErrTrackUnavailable):
		return exitNetworkOrAPI
	case errors.Is(err, os.ErrNotExist):
		return exitUserError
	}

	var apiErr *netease.ApiError
	if errors.As(err, &apiErr) {
		return exitNetworkOrAPI
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return exitNetworkOrAPI
	}

	return exitUserError
}

// exitWith wraps err as a cli.ExitCoder carrying code, so app.Run's caller
// in main sees the right status without re-classifying a decision the
// command already made.
func exitWith(code int, err error) error {
	if err == nil {
		return nil
	}
	return cli.Exit(err.Error(), code)
}
