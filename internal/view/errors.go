package view

import "errors"

// Coordinator error types surfaced directly as user-facing feedback.
var (
	ErrInRoom           = errors.New("you cannot solve individual problems while in a room; leave the room first")
	ErrNotAuthenticated = errors.New("sign in to use rooms")
)
