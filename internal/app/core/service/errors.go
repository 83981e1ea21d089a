// Package service provides shared service-layer primitives: the error
// taxonomy services return and handlers translate to HTTP status codes.
package service

import (
	"errors"
	"fmt"
)

// Standard sentinel errors. Concrete error types below wrap these so callers
// can match with errors.Is without knowing the concrete type.
var (
	ErrNotFound           = errors.New("not found")
	ErrAlreadyExists      = errors.New("already exists")
	ErrInvalidInput       = errors.New("invalid input")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("conflict")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("timeout")
	ErrInternal           = errors.New("internal error")
)

// NotFoundError reports a missing resource.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %q not found", e.Resource, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NewNotFoundError creates a NotFoundError for a resource/id pair.
func NewNotFoundError(resource, id string) error {
	return &NotFoundError{Resource: resource, ID: id}
}

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// NewValidationError creates a ValidationError for a field.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// RequiredError creates a ValidationError for a missing required field.
func RequiredError(field string) error {
	return &ValidationError{Field: field, Reason: "is required"}
}

// ConflictError reports a resource state conflict.
type ConflictError struct {
	Resource string
	ID       string
	Reason   string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %q: %s", e.Resource, e.ID, e.Reason)
}

func (e *ConflictError) Unwrap() error { return ErrAlreadyExists }

// NewConflictError creates a ConflictError.
func NewConflictError(resource, id, reason string) error {
	return &ConflictError{Resource: resource, ID: id, Reason: reason}
}

// DependencyError reports a failure of an external collaborator (payment
// provider, chain node). The upstream error is preserved for the response
// body and for errors.Is/As matching.
type DependencyError struct {
	Dependency string
	Err        error
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("%s: %v", e.Dependency, e.Err)
}

func (e *DependencyError) Unwrap() error { return e.Err }

// Is lets DependencyError match ErrServiceUnavailable in addition to the
// wrapped upstream error.
func (e *DependencyError) Is(target error) bool {
	return target == ErrServiceUnavailable
}

// NewDependencyError wraps an upstream failure with the dependency name.
func NewDependencyError(dependency string, err error) error {
	if err == nil {
		return nil
	}
	return &DependencyError{Dependency: dependency, Err: err}
}

// WrapServiceError annotates an error with the service and operation that
// produced it. A nil error stays nil.
func WrapServiceError(service, op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s.%s: %w", service, op, err)
}

// IsNotFound reports whether err indicates a missing resource.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsValidationError reports whether err indicates rejected input.
func IsValidationError(err error) bool { return errors.Is(err, ErrInvalidInput) }

// IsConflict reports whether err indicates a state conflict.
func IsConflict(err error) bool { return errors.Is(err, ErrAlreadyExists) }

// IsForbidden reports whether err indicates a denied operation.
func IsForbidden(err error) bool { return errors.Is(err, ErrForbidden) }

// IsDependencyFailure reports whether err came from an external collaborator.
func IsDependencyFailure(err error) bool { return errors.Is(err, ErrServiceUnavailable) }
