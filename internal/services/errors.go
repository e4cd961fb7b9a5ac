package services

import "errors"

var (
	ErrGameNotFound       = errors.New("game not found")
	ErrRoomFull           = errors.New("this game already has two players")
	ErrVersionConflict    = errors.New("game was updated by someone else, refresh and try again")
	ErrMoveRejected       = errors.New("move rejected")
	ErrNotAPlayer         = errors.New("you are not playing this mark")
	ErrRoomCodeExhausted  = errors.New("could not find a free room code")
	ErrEmailTaken         = errors.New("email or username already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
)
