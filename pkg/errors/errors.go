package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrCacheMiss is returned by token caches when no value is stored under a key
var ErrCacheMiss = stderrors.New("cache miss")

// ErrNotFound is returned when a resource is not found
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrConflict is returned when there's a conflict (e.g., a sync run already holds the lock)
type ErrConflict struct {
	Message string
}

func (e *ErrConflict) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "conflict"
}

// ErrConfiguration is returned when ledger credentials are missing. No network call is made.
type ErrConfiguration struct {
	Message string
}

func (e *ErrConfiguration) Error() string {
	if e.Message != "" {
		return "configuration error: " + e.Message
	}
	return "configuration error"
}

// ErrAuth is returned when the ledger token request fails or returns no access_token
type ErrAuth struct {
	Message string
	Err     error
}

func (e *ErrAuth) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "ledger authentication failed"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ErrAuth) Unwrap() error {
	return e.Err
}

// ErrTransport covers connection failures, non-2xx statuses and undecodable bodies
type ErrTransport struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *ErrTransport) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: ledger returned %d: %s", e.Op, e.StatusCode, e.Body)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return e.Op + ": transport error"
	}
}

func (e *ErrTransport) Unwrap() error {
	return e.Err
}

// ErrPersistence is returned when a single storefront create/update fails
type ErrPersistence struct {
	Op  string
	SKU string
	Err error
}

func (e *ErrPersistence) Error() string {
	return fmt.Sprintf("failed to %s storefront item %s: %v", e.Op, e.SKU, e.Err)
}

func (e *ErrPersistence) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is (or wraps) an *ErrNotFound
func IsNotFound(err error) bool {
	var nf *ErrNotFound
	return stderrors.As(err, &nf)
}

// IsConflict reports whether err is (or wraps) an *ErrConflict
func IsConflict(err error) bool {
	var c *ErrConflict
	return stderrors.As(err, &c)
}
