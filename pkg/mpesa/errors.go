package mpesa

import (
	"errors"
	"fmt"
)

// ErrMissingCredentials is returned before any network call when the consumer key or secret is empty.
var ErrMissingCredentials = errors.New("mpesa: consumer key and secret are required")

// AuthError means the OAuth token could not be obtained.
type AuthError struct {
	StatusCode int
	Err        error
}

func (e *AuthError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("mpesa auth: status %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("mpesa auth: %v", e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// ProviderError means the request reached Daraja and was rejected.
type ProviderError struct {
	StatusCode  int
	Code        string
	Description string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("mpesa provider: status=%d code=%s: %s", e.StatusCode, e.Code, e.Description)
}

// NetworkError wraps transport failures (dial, TLS, timeout, truncated body).
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("mpesa %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }
