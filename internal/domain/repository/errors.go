package repository

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrUnknownInterval = errors.New("unknown interval")
)

// IntervalError is returned for interval spellings that have no mapping.
type IntervalError struct {
	Value    string
	Provider bool // no vendor interval, as opposed to no canonical one
}

func (e *IntervalError) Error() string {
	if e.Provider {
		return fmt.Sprintf("interval %q has no provider format", e.Value)
	}
	return fmt.Sprintf("unknown interval %q", e.Value)
}

func (e *IntervalError) Is(target error) bool {
	return target == ErrUnknownInterval
}

// ProviderError wraps a failed market data call.
type ProviderError struct {
	Ticker     string
	Interval   string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("provider %s/%s: status %d: %v", e.Ticker, e.Interval, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("provider %s/%s: %v", e.Ticker, e.Interval, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }
