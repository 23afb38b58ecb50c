package netease

import (
	"errors"
	"fmt"
)

// ApiError wraps a non-200 WEAPI response envelope, per spec.md §7.
type ApiError struct {
	Code    int
	Message string
}

func (e *ApiError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("netease: api error %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("netease: api error %d", e.Code)
}

// Sentinel errors signaling the specializations spec.md §7 calls out.
// Callers distinguish them with errors.Is/errors.As against the returned
// *ApiError, or against these directly when no code/message is available.
var (
	// ErrNotLoggedIn covers both api code 301 and a missing/empty session.
	ErrNotLoggedIn = errors.New("netease: not logged in")
	// ErrRateLimited covers api code -460.
	ErrRateLimited = errors.New("netease: rate limited")
	// ErrForbidden covers api code 403.
	ErrForbidden = errors.New("netease: forbidden")
	// ErrTrackUnavailable is returned by TrackURL when the server's url
	// field is null -- a distinct outcome from a transport-level failure.
	ErrTrackUnavailable = errors.New("netease: track unavailable at requested quality")
)

// classifyCode maps an envelope's code field to a sentinel-wrapped
// *ApiError, or nil if code signals success.
func classifyCode(code int, message string) error {
	switch code {
	case 200:
		return nil
	case 301:
		return fmt.Errorf("%w: %w", ErrNotLoggedIn, &ApiError{Code: code, Message: message})
	case -460:
		return fmt.Errorf("%w: %w", ErrRateLimited, &ApiError{Code: code, Message: message})
	case 403:
		return fmt.Errorf("%w: %w", ErrForbidden, &ApiError{Code: code, Message: message})
	default:
		return &ApiError{Code: code, Message: message}
	}
}
