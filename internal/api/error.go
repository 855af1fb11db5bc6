package api

import "fmt"

// Error is the uniform failure shape for everything crossing the HTTP
// boundary. Status 0 means no response was received (transport failure);
// any other value is the server's status code with its message verbatim.
type Error struct {
	Status  int
	Message string
	Raw     []byte

	cause error
}

func (e *Error) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("api: %s", e.Message)
	}
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

// Unwrap exposes the underlying transport error, when there is one.
func (e *Error) Unwrap() error {
	return e.cause
}

// Transport reports whether no response was received at all.
func (e *Error) Transport() bool {
	return e.Status == 0
}

// Unauthorized reports whether the server rejected the credential.
func (e *Error) Unauthorized() bool {
	return e.Status == 401
}
