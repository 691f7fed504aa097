package domain

import (
	"errors"
	"fmt"
)

// ErrMissingAPIKey is wrapped in a SourceError when no API key is configured.
var ErrMissingAPIKey = errors.New("weather API key is not configured")

// SourceError reports a failed extraction: a missing credential, a transport
// failure, or a non-2xx response from the forecast API.
type SourceError struct {
	StatusCode int    // 0 when no response was received
	Body       string // truncated response body, if any
	Err        error
}

func (e *SourceError) Error() string {
	if e.StatusCode != 0 {
		if e.Body != "" {
			return fmt.Sprintf("forecast source: status %d: %s", e.StatusCode, e.Body)
		}
		return fmt.Sprintf("forecast source: status %d", e.StatusCode)
	}
	return fmt.Sprintf("forecast source: %v", e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// MalformedRecordError reports a snapshot missing a required field.
type MalformedRecordError struct {
	Index int    // position of the snapshot in the forecast list
	Field string // JSON path of the missing field, e.g. "main.temp"
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed snapshot %d: missing required field %q", e.Index, e.Field)
}

// DatabaseError reports a connection or statement failure.
type DatabaseError struct {
	Op  string // "connect", "acquire", "begin", "exec", "commit"
	Err error
}

func (e *DatabaseError) Error() string {
	return fmt.Sprintf("database %s: %v", e.Op, e.Err)
}

func (e *DatabaseError) Unwrap() error { return e.Err }
