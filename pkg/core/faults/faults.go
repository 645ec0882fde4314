// Package faults defines the operation-level error taxonomy shared by the
// pipeline and query layers. Normalization and scoring never return these;
// they carry warning flags on their result structures instead.
package faults

import (
	"errors"
	"fmt"
)

// Kind classifies a fatal operation error for callers and API responses.
type Kind string

const (
	KindDataNotFound        Kind = "data_not_found"
	KindUpstreamUnavailable Kind = "upstream_unavailable"
	KindInternal            Kind = "internal"
)

// Error is a structured failure with a machine-readable kind and a
// human-readable message. It wraps the underlying cause when one exists.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NotFound reports a missing entity or filing period.
func NotFound(format string, args ...interface{}) *Error {
	return &Error{Kind: KindDataNotFound, Message: fmt.Sprintf(format, args...)}
}

// Upstream reports an unreachable or failing external collaborator.
func Upstream(cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: KindUpstreamUnavailable, Message: fmt.Sprintf(format, args...), Err: cause}
}

// Internal reports an unexpected condition inside the pipeline itself.
func Internal(cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: KindInternal, Message: fmt.Sprintf(format, args...), Err: cause}
}

// KindOf extracts the Kind from any error in the chain, or KindInternal
// when the error is not a *faults.Error.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindInternal
}

// IsNotFound reports whether err is a data-not-found failure.
func IsNotFound(err error) bool {
	return KindOf(err) == KindDataNotFound
}
