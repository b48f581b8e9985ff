package types

import "errors"

// Validation error types shared by the lifecycle controller and forms.
// All of these are caught client-side before any network call is issued.
var (
	ErrEmptyRoomName        = errors.New("room name cannot be empty")
	ErrRoomNameTooLong      = errors.New("room name must be at most 50 characters")
	ErrInvalidRoomMode      = errors.New("mode must be PRACTICE or TOURNAMENT")
	ErrMissingTimeLimit     = errors.New("tournament rooms require a time limit")
	ErrInvalidTimeLimit     = errors.New("time limit must be one of 15, 30, 45, 60, 90 or 120 minutes")
	ErrRoomCodeTooShort     = errors.New("room code must be at least 6 characters")
	ErrInvalidRoomCode      = errors.New("room code must be 6-8 alphanumeric characters")
	ErrEmptyUsername        = errors.New("username cannot be empty")
	ErrEmptyPassword        = errors.New("password cannot be empty")
)
