package model

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

// Error kinds. Concrete errors wrap one of these so callers can branch with errors.Is.
var (
	ErrNetwork         = errors.New("network error")
	ErrParse           = errors.New("parse error")
	ErrPlatformBlocked = errors.New("platform blocked")
	ErrAIUnavailable   = errors.New("ai unavailable")
	ErrStore           = errors.New("store error")
)

// HTTPError wraps an HTTP status code so retry logic can inspect it.
type HTTPError struct {
	StatusCode int
	RetryAfter time.Duration // from Retry-After header, zero if absent
	Err        error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("HTTP %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrPlatformBlocked) match 403 and 429 responses.
func (e *HTTPError) Is(target error) bool {
	if target == ErrPlatformBlocked {
		return e.Blocked()
	}
	return false
}

// Blocked reports whether the status means the site is refusing us.
func (e *HTTPError) Blocked() bool {
	return e.StatusCode == http.StatusForbidden || e.StatusCode == http.StatusTooManyRequests
}

// KindOf maps err onto one of the error kinds, or nil when it fits none.
func KindOf(err error) error {
	if err == nil {
		return nil
	}
	for _, kind := range []error{ErrPlatformBlocked, ErrStore, ErrAIUnavailable, ErrParse, ErrNetwork} {
		if errors.Is(err, kind) {
			return kind
		}
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return ErrNetwork
	}
	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return ErrNetwork
	}
	return nil
}
