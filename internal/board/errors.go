package board

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyResult means the upstream answered successfully but the row table was absent or empty.
	ErrEmptyResult = errors.New("board: empty result")
	// ErrNoDataFound means every date in the lookback window came back empty or failed.
	ErrNoDataFound = errors.New("board: no data found in lookback window")
)

// UpstreamError carries an explicit non-zero error code reported by the board API.
type UpstreamError struct {
	Code    int
	Message string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("board upstream error (%d): %s", e.Code, e.Message)
}

// MalformedResponseError means neither the prefixed nor the bare form of the payload could be decoded.
type MalformedResponseError struct {
	Snippet string
	Err     error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("board malformed response: %v (payload %q)", e.Err, e.Snippet)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// TransientError wraps transport failures and deadline expiries of a single probe.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return "board transient error: " + e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

func snippet(b []byte) string {
	const limit = 120
	if len(b) <= limit {
		return string(b)
	}
	return string(b[:limit]) + "..."
}
