package model

import (
	"errors"
	"fmt"
)

var (
	// User related errors
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Provider token related errors
	ErrTokenNotFound = errors.New("token not found")

	// Handshake related errors
	ErrInvalidRequest      = errors.New("invalid request")
	ErrInvalidState        = errors.New("invalid state")
	ErrVerifierNotFound    = errors.New("code verifier not found")
	ErrTokenExchangeFailed = errors.New("token exchange failed")

	// Upstream/storage errors
	ErrUpstream    = errors.New("upstream error")
	ErrPersistence = errors.New("persistence error")
)

// ProviderError carries the status and body returned by the fitness data
// provider. Kind is ErrTokenExchangeFailed or ErrUpstream.
type ProviderError struct {
	Kind   error
	Status int
	Body   string
}

func (e *ProviderError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%v: %s", e.Kind, e.Body)
	}
	return fmt.Sprintf("%v: provider status %d: %s", e.Kind, e.Status, e.Body)
}

func (e *ProviderError) Unwrap() error {
	return e.Kind
}

type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() []error {
	return []error{ErrPersistence, e.Err}
}

func NewPersistenceError(op string, err error) error {
	return &PersistenceError{Op: op, Err: err}
}
