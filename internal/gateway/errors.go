package gateway

import "fmt"

// RemoteError is the uniform failure shape for every gateway operation:
// non-2xx responses carry the HTTP status and the server's message, transport
// failures carry status 0. Error() renders the server's message verbatim so
// callers can surface it to the user unchanged.
type RemoteError struct {
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("network error: %s", e.Message)
	}
	return e.Message
}
