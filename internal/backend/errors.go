package backend

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("backend: resource not found")
	ErrUnauthenticated = errors.New("backend: not authenticated")
)

// NetworkError covers transport failures and 5xx responses.
type NetworkError struct {
	Op     string
	Status int // 0 when no response was received
	Err    error
}

func (e *NetworkError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("backend %s: status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("backend %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// RemoteValidationError is a 400/422 answer: the backend rejected the payload.
type RemoteValidationError struct {
	Op     string
	Status int
	Body   string
}

func (e *RemoteValidationError) Error() string {
	return fmt.Sprintf("backend %s: rejected with status %d: %s", e.Op, e.Status, e.Body)
}

// MalformedResponseError means the response did not match the expected schema.
type MalformedResponseError struct {
	Op     string
	Reason string
	Err    error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("backend %s: malformed response (%s %s): %s: %v", e.Op, SchemaName, SchemaVersion, e.Reason, e.Err)
	}
	return fmt.Sprintf("backend %s: malformed response (%s %s): %s", e.Op, SchemaName, SchemaVersion, e.Reason)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }
