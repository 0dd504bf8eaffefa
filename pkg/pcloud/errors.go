package pcloud

import "fmt"

// ConfigError indicates the client is missing required configuration
// (base URL, or any way to authenticate). It is fatal to the triggering
// call but not to the process.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("pcloud: configuration error: %s", e.Reason)
}

// NetworkError wraps a transport-level failure (connection refused,
// timeout, malformed response). It is never retried at this layer.
type NetworkError struct {
	Method string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("pcloud: %s: network error: %v", e.Method, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// AuthError indicates the provider required or rejected authentication
// and the single retried login did not recover the call.
type AuthError struct {
	Code    ResultCode
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("pcloud: authentication failed (%s): %s", e.Code, e.Message)
}

// RemoteError is any non-auth, non-zero result code from the provider.
// It is terminal; the code and provider message are carried for logging.
type RemoteError struct {
	Method  string
	Code    ResultCode
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("pcloud: %s: %s: %s", e.Method, e.Code, e.Message)
}
