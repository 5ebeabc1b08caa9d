// Package apperr classifies the errors a hop can produce and maps them to
// HTTP status codes.
package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrBadRequest      = errors.New("bad request")
	ErrUpstreamTimeout = errors.New("upstream request timeout")
)

// StatusUpstreamTimeout is reserved for timeout normalization of outbound calls.
const StatusUpstreamTimeout = http.StatusRequestTimeout

const (
	KindNotFound        = "not_found"
	KindBadRequest      = "bad_request"
	KindInjectedFailure = "injected_failure"
	KindUpstreamTimeout = "upstream_timeout"
	KindTimeout         = "timeout"
	KindCanceled        = "canceled"
	KindInternal        = "internal"
)

// kinder is satisfied by errors that carry their own classification.
type kinder interface {
	Kind() string
}

// statuser is satisfied by errors that carry their own HTTP status.
type statuser interface {
	HTTPStatus() int
}

var kindToStatus = map[string]int{
	KindNotFound:        http.StatusNotFound,
	KindBadRequest:      http.StatusBadRequest,
	KindUpstreamTimeout: StatusUpstreamTimeout,
	KindTimeout:         http.StatusGatewayTimeout,
	KindCanceled:        http.StatusServiceUnavailable,
}

// InjectedFailure is the error a hop manufactures when a directive asks it to fail.
type InjectedFailure struct {
	Service string
	Status  int
}

func (e *InjectedFailure) Error() string {
	return fmt.Sprintf("failed on purpose at %s app", e.Service)
}

func (e *InjectedFailure) Kind() string { return KindInjectedFailure }
func (e *InjectedFailure) HTTPStatus() int { return e.Status }

// UpstreamTimeoutError wraps a transport failure of an outbound call to Service.
// It matches ErrUpstreamTimeout with errors.Is regardless of the cause.
type UpstreamTimeoutError struct {
	Service string
	Cause   error
}

func (e *UpstreamTimeoutError) Error() string {
	return fmt.Sprintf("%s: %s", e.Service, ErrUpstreamTimeout)
}

func (e *UpstreamTimeoutError) Unwrap() error { return e.Cause }
func (e *UpstreamTimeoutError) Is(target error) bool { return target == ErrUpstreamTimeout }
func (e *UpstreamTimeoutError) Kind() string { return KindUpstreamTimeout }
func (e *UpstreamTimeoutError) HTTPStatus() int { return StatusUpstreamTimeout }

// RemoteError is an error response received from a downstream hop. It keeps
// the downstream status and kind so the caller can surface them unchanged.
type RemoteError struct {
	Service string
	Status  int
	ErrKind string
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s responded %d", e.Service, e.Status)
	}
	return e.Message
}

func (e *RemoteError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.ErrKind == KindNotFound
	case ErrUpstreamTimeout:
		return e.ErrKind == KindUpstreamTimeout
	case ErrBadRequest:
		return e.ErrKind == KindBadRequest
	}
	return false
}

func (e *RemoteError) Kind() string {
	if e.ErrKind == "" {
		return KindInternal
	}
	return e.ErrKind
}

func (e *RemoteError) HTTPStatus() int { return e.Status }

// Kind returns the classification of err.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	var k kinder
	if errors.As(err, &k) {
		return k.Kind()
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrBadRequest):
		return KindBadRequest
	case errors.Is(err, ErrUpstreamTimeout):
		return KindUpstreamTimeout
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, context.Canceled):
		return KindCanceled
	default:
		return KindInternal
	}
}

// HTTPStatus returns the status a hop responds with for err.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var s statuser
	if errors.As(err, &s) {
		return s.HTTPStatus()
	}
	if st, ok := kindToStatus[Kind(err)]; ok {
		return st
	}
	return http.StatusInternalServerError
}

// BadRequest wraps ErrBadRequest with a message.
func BadRequest(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrBadRequest)
}
