package apperror

import "errors"

var (
	ErrRoomNotFound      = errors.New("room not found")
	ErrRoomFinished      = errors.New("match is already finished")
	ErrRoomAlreadyExists = errors.New("room already exists")
	ErrNotInRoom         = errors.New("player is not in the room")
	ErrNotParticipant    = errors.New("player is not a match participant")
	ErrNoOpponent        = errors.New("match has no opponent")
	ErrInvalidPasscode   = errors.New("invalid passcode")
)
