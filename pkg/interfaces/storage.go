package interfaces

import "context"

// CredentialStore persists the opaque bearer credential between runs.
// The token lives under a single well-known key; LoadToken returns
// ErrNoCredential when nothing is stored.
type CredentialStore interface {
	SaveToken(ctx context.Context, token string) error
	LoadToken(ctx context.Context) (string, error)
	ClearToken(ctx context.Context) error
	Close() error
}
