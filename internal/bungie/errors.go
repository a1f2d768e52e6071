package bungie

import (
	"errors"
	"fmt"
)

// AuthError indicates the API rejected the key. Fatal for the run and
// never retried.
type AuthError struct {
	Status int
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("bungie: invalid or expired API key (status %d)", e.Status)
}

// Fatal marks the error as unrecoverable for a pipeline run.
func (e *AuthError) Fatal() bool { return true }

// NetworkError indicates a transient connectivity or server failure.
// Retried with backoff up to the configured attempt limit.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("bungie: %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ManifestFormatError indicates the manifest pointer document did not have
// the expected top-level shape.
type ManifestFormatError struct {
	Detail string
}

func (e *ManifestFormatError) Error() string {
	return fmt.Sprintf("bungie: unexpected manifest shape: %s", e.Detail)
}

// DownloadError indicates one component's content could not be retrieved or
// decoded after retries were exhausted. Scoped to that component: the run
// skips the component and continues.
type DownloadError struct {
	Component string
	Err       error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("bungie: download %s: %v", e.Component, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }

// retryable reports whether an error is worth another attempt.
// Authorization failures are final; everything network-shaped is transient.
func retryable(err error) bool {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return false
	}
	var formatErr *ManifestFormatError
	if errors.As(err, &formatErr) {
		return false
	}
	var netErr *NetworkError
	return errors.As(err, &netErr)
}
