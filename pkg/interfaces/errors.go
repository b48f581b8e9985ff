package interfaces

import "errors"

// Shared sentinel errors for cross-package error handling.
var (
	ErrNoCredential = errors.New("no credential stored")
)
