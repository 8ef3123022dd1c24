package insight

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrorKind partitions backend failures into retryable and fatal classes.
type ErrorKind int

// Error kinds, ordered roughly by how often they show up in practice.
const (
	KindTransient ErrorKind = iota // connection resets, timeouts, 5xx
	KindMalformedUpstream
	KindNotFound
	KindAuthorization
	KindValidation
)

// BackendError wraps a failure from an external backend with its kind so the
// retry engine can classify it without knowing backend specifics.
type BackendError struct {
	Kind    ErrorKind
	Backend string
	Err     error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s: %v", e.Backend, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// Transient builds a retryable backend error.
func Transient(backend string, err error) error {
	return &BackendError{Kind: KindTransient, Backend: backend, Err: err}
}

// MalformedUpstream marks a contract violation from a backend. Never retried.
func MalformedUpstream(backend string, err error) error {
	return &BackendError{Kind: KindMalformedUpstream, Backend: backend, Err: err}
}

// NotFound marks a missing target. Never retried.
func NotFound(backend string, err error) error {
	return &BackendError{Kind: KindNotFound, Backend: backend, Err: err}
}

// Authorization marks a credential failure against a backend. Never retried.
func Authorization(backend string, err error) error {
	return &BackendError{Kind: KindAuthorization, Backend: backend, Err: err}
}

// Validation marks a request the backend rejected as malformed on our side.
// Never retried.
func Validation(backend string, err error) error {
	return &BackendError{Kind: KindValidation, Backend: backend, Err: err}
}

// IsRetryable reports whether err is worth another attempt. Unclassified
// network errors count as transient; everything else fatal by default, so a
// programming error can never spin the retry loop.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var be *BackendError
	if errors.As(err, &be) {
		return be.Kind == KindTransient
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return false
}

// KindOf extracts the error kind, defaulting to transient for bare network
// errors and validation for anything unclassified.
func KindOf(err error) ErrorKind {
	var be *BackendError
	if errors.As(err, &be) {
		return be.Kind
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindTransient
	}
	return KindValidation
}
