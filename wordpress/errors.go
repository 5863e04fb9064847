package wordpress

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound is matched (errors.Is) by a RemoteError carrying a 404.
var ErrNotFound = errors.New("wordpress: not found")

// ErrNoCredentials is returned before any I/O when a mutating call is attempted without a
// username and application password.
var ErrNoCredentials = errors.New("wordpress: credentials required, configure --auth-username and an application password")

// TransportError represents a network, DNS or TLS failure: we never got an HTTP status.
type TransportError struct {
	Op  string
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("wordpress: transport error during %s %s: %v", e.Op, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// RemoteError represents a non-2xx answer from the site.
type RemoteError struct {
	StatusCode int
	// WordPress error code, e.g. "rest_cannot_create", when the body had one.
	Code    string
	Message string
	URL     string
}

func (e *RemoteError) Error() string {
	msg := fmt.Sprintf("wordpress: HTTP %d from %s", e.StatusCode, e.URL)
	if e.Code != "" {
		msg += fmt.Sprintf(": %s", e.Code)
	}
	if e.Message != "" {
		msg += fmt.Sprintf(": %s", e.Message)
	}
	if e.Forbidden() {
		msg += " (check the user's role and that the application password is valid)"
	}
	return msg
}

// Forbidden flags permission failures, which usually mean the account can't edit pages.
func (e *RemoteError) Forbidden() bool {
	return e.StatusCode == http.StatusForbidden || e.StatusCode == http.StatusUnauthorized
}

func (e *RemoteError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}
