package websocket

import "errors"

var (
	ErrClientQueueFull  = errors.New("client message queue is full")
	ErrInvalidMessage   = errors.New("invalid message format")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrUnknownTable     = errors.New("unknown table")
	ErrDuplicateSubID   = errors.New("subscription id already in use")
	ErrUnknownSubID     = errors.New("no such subscription")
	ErrInvalidEventType = errors.New("event must be INSERT, UPDATE or DELETE")
)
