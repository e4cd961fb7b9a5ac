package client

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinels matched with errors.Is against a *RemoteError.
var (
	ErrNotFound     = errors.New("not found")
	ErrRoomFull     = errors.New("room is full")
	ErrConflict     = errors.New("conflicting update")
	ErrRejected     = errors.New("rejected by the game rules")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
	ErrClosed       = errors.New("subscriber is closed")
)

// ValidationError reports input refused locally, before any network call.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error { return e.Err }

// RemoteError is any failed exchange with the server: a non-2xx answer or a
// transport failure, in which case Status is zero and Err holds the cause.
type RemoteError struct {
	Status  int
	Code    string
	Message string
	Err     error
}

func (e *RemoteError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("request failed: %v", e.Err)
	}
	if e.Message == "" {
		return fmt.Sprintf("server answered %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("server answered %d: %s", e.Status, e.Message)
}

func (e *RemoteError) Unwrap() error { return e.Err }

var codeSentinels = map[string]error{
	"not_found":    ErrNotFound,
	"room_full":    ErrRoomFull,
	"conflict":     ErrConflict,
	"rejected":     ErrRejected,
	"forbidden":    ErrForbidden,
	"unauthorized": ErrUnauthorized,
}

// Is lets errors.Is(err, ErrRoomFull) and friends match on the server code,
// falling back to the status for bodies without one.
func (e *RemoteError) Is(target error) bool {
	if sentinel, ok := codeSentinels[e.Code]; ok {
		return sentinel == target
	}
	switch e.Status {
	case http.StatusNotFound:
		return target == ErrNotFound
	case http.StatusUnauthorized:
		return target == ErrUnauthorized
	case http.StatusForbidden:
		return target == ErrForbidden
	}
	return false
}
