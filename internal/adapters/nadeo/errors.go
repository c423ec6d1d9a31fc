package nadeo

import (
	"errors"
	"fmt"
)

// Sentinel errors for the game web API client.
var (
	ErrAuth               = errors.New("authentication failed")
	ErrFetch              = errors.New("fetch failed")
	ErrCredentialsExpired = errors.New("credentials expired")
	ErrMissingField       = errors.New("missing field in response")
	ErrNoScore            = errors.New("leaderboard has no score at offset")
	ErrCatalogTruncated   = errors.New("catalog has more groups than one page")
	ErrDecode             = errors.New("decode response")
)

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Op     string
	URL    string
	Code   int
	Status string
	Body   string
	kind   error
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: %s: HTTP %d: %s", e.kind, e.Op, e.Code, e.Status)
	}
	return fmt.Sprintf("%s: %s: HTTP %d: %s: %s", e.kind, e.Op, e.Code, e.Status, e.Body)
}

// Unwrap returns ErrAuth or ErrFetch depending on the failed call.
func (e *StatusError) Unwrap() error { return e.kind }
