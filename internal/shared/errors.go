package shared

import (
	"context"
	"errors"
	"fmt"
	"net"
)

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTokenExpired     = fmt.Errorf("access token expired")
	ErrRefreshFailed    = fmt.Errorf("token refresh failed")
	ErrNoRefreshToken   = fmt.Errorf("no refresh token available")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")

	// Storage and content errors
	ErrNotFound        = fmt.Errorf("not found")
	ErrCourseNotFound  = fmt.Errorf("course not found")
	ErrVideoNotFound   = fmt.Errorf("video not found")
	ErrStorageFailed   = fmt.Errorf("storage write failed")
	ErrInvalidManifest = fmt.Errorf("invalid content manifest")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)

// ErrorKind classifies failures coming back from the auth service.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindValidation
	KindNetwork
	KindUnauthorized
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNetwork:
		return "network"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return "unknown"
	}
}

// AuthError is the normalized form of every auth failure.
//
// Message is display ready. Status carries the HTTP status when one was received.
type AuthError struct {
	Kind    ErrorKind
	Message string
	Status  int
	Cause   error
}

// NewAuthError creates an [AuthError] of the given kind.
func NewAuthError(kind ErrorKind, message string, cause error) *AuthError {
	return &AuthError{Kind: kind, Message: message, Cause: cause}
}

func (e *AuthError) Error() string {
	return e.Message
}

func (e *AuthError) Unwrap() error {
	return e.Cause
}

// Is lets callers match an [AuthError] against the package sentinels by kind.
func (e *AuthError) Is(target error) bool {
	switch e.Kind {
	case KindValidation:
		return target == ErrInvalidInput
	case KindNetwork:
		return target == ErrServiceUnavailable
	case KindUnauthorized:
		return target == ErrNotAuthenticated
	}
	return false
}

// AsAuthError normalizes any error into an [AuthError].
//
// Existing AuthErrors pass through, context and transport failures become [KindNetwork],
// and everything else is [KindUnknown]. Returns nil for a nil error.
func AsAuthError(err error) *AuthError {
	if err == nil {
		return nil
	}

	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr
	}

	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, ErrTimeout):
		return NewAuthError(KindNetwork, "request timed out", err)
	case errors.Is(err, context.Canceled):
		return NewAuthError(KindNetwork, "request cancelled", err)
	case errors.As(err, &netErr), errors.Is(err, ErrServiceUnavailable):
		return NewAuthError(KindNetwork, "unable to reach the authentication service", err)
	case errors.Is(err, ErrNotAuthenticated), errors.Is(err, ErrTokenExpired):
		return NewAuthError(KindUnauthorized, err.Error(), err)
	case errors.Is(err, ErrInvalidInput):
		return NewAuthError(KindValidation, err.Error(), err)
	}
	return NewAuthError(KindUnknown, err.Error(), err)
}

// IsKind reports whether err normalizes to the given kind.
func IsKind(err error, kind ErrorKind) bool {
	if err == nil {
		return false
	}
	return AsAuthError(err).Kind == kind
}
