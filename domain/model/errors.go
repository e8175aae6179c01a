package model

import "errors"

var (
	// ErrRoomNotFound covers missing rooms and missing invites alike so callers
	// cannot tell which of the two existed.
	ErrRoomNotFound = errors.New("room not found")
	ErrInvalidToken = errors.New("invalid token")
	ErrRoomFull     = errors.New("room is full")
	ErrValidation   = errors.New("validation error")
	ErrConflict     = errors.New("concurrent update conflict")
)
