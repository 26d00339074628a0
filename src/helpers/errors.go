package helpers

import (
	"errors"
	"fmt"
)

// -----------------------------------------------------------------------------
// Error taxonomy
// -----------------------------------------------------------------------------

// Cache-side sentinels. All three degrade to synthetic data inside the
// aggregator and never reach a snapshot caller.
var (
	ErrCacheUnavailable = errors.New("cache unavailable")
	ErrCacheKeyMissing  = errors.New("cache key missing")
	ErrCacheMalformed   = errors.New("cache value malformed")
)

// -----------------------------------------------------------------------------

// UpstreamUnreachableError means the feed connection itself is down.
// Fatal to the poller loop; the supervisor owns the retry.
type UpstreamUnreachableError struct {
	Cause error
}

func (e *UpstreamUnreachableError) Error() string {
	return fmt.Sprintf("upstream feed unreachable: %v", e.Cause)
}

func (e *UpstreamUnreachableError) Unwrap() error { return e.Cause }

// -----------------------------------------------------------------------------

// UpstreamSymbolError is a single-symbol fetch failure. Logged and skipped
// for the pass, never fatal.
type UpstreamSymbolError struct {
	Symbol string
	Cause  error
}

func (e *UpstreamSymbolError) Error() string {
	return fmt.Sprintf("fetch failed for %s: %v", e.Symbol, e.Cause)
}

func (e *UpstreamSymbolError) Unwrap() error { return e.Cause }

// -----------------------------------------------------------------------------

// MalformedRequestError is returned to the caller as success:false,
// never as a process error.
type MalformedRequestError struct {
	Reason string
}

func (e *MalformedRequestError) Error() string { return e.Reason }

// -----------------------------------------------------------------------------

func IsUpstreamUnreachable(err error) bool {
	var ue *UpstreamUnreachableError
	return errors.As(err, &ue)
}

func IsMalformedRequest(err error) bool {
	var me *MalformedRequestError
	return errors.As(err, &me)
}
