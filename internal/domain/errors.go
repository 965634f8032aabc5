package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks malformed or out-of-range user input.
	ErrValidation = errors.New("invalid input")
	// ErrAuthFailure is returned when credentials do not match a user.
	ErrAuthFailure = errors.New("invalid username or password")
	// ErrUnauthenticated is returned when a request carries no valid session.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrConflict is returned when registering a username that already exists.
	ErrConflict = errors.New("username already exists")
	// ErrStorage marks a persistence failure. Match it with errors.Is.
	ErrStorage = errors.New("storage failure")
)

// ValidationError names the field that failed validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Is lets errors.Is(err, ErrValidation) match any ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// StorageFault wraps a repository error so it never leaks past the service layer
// unannotated.
type StorageFault struct {
	Op  string
	Err error
}

func (e *StorageFault) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageFault) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrStorage) match any StorageFault.
func (e *StorageFault) Is(target error) bool {
	return target == ErrStorage
}

func storageFault(op string, err error) error {
	if err == nil {
		return nil
	}
	var fault *StorageFault
	if errors.As(err, &fault) {
		return err
	}
	return &StorageFault{Op: op, Err: err}
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
