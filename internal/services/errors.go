// Package services defines the business logic for OD request submission,
// review, and reporting. This file centralizes common service-level error
// values so that they can be consistently returned by service methods and
// checked by callers.
//
// These errors are intended for internal use by the service layer and
// translation into user-facing messages or HTTP status codes should be
// performed at the handler/controller layer.
package services

import (
	"errors"
	"fmt"
)

var (
	// ErrRequestNotFound indicates that the requested OD record does not exist.
	ErrRequestNotFound = errors.New("request not found")

	// ErrRequestNotPending is returned when an approve/reject transition is
	// attempted on a record that has already reached a terminal status.
	ErrRequestNotPending = errors.New("request already processed")

	// ErrNoApprovedRequests is returned by report operations when there is
	// nothing to export; storage is left untouched in that case.
	ErrNoApprovedRequests = errors.New("no approved requests found")

	// ErrInvalidCredentials is returned when the coordinator login pair does
	// not match the configured credential.
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// ValidationError reports malformed or missing submission input. Nothing is
// persisted when one is returned. The message is safe to show to the
// requester.
type ValidationError struct {
	Msg string
}

// Error implements the error interface.
func (e *ValidationError) Error() string { return e.Msg }

// validationf builds a *ValidationError from a format string.
func validationf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a submission validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
