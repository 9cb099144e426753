package domain

import (
	"errors"
	"fmt"
)

// ErrArchived signals the upstream resource is gone (HTTP 410); terminal,
// never retried
var ErrArchived = errors.New("bridge: resource archived")

// ErrInvalidResponse signals the upstream response could not be parsed;
// retryable within budget
var ErrInvalidResponse = errors.New("bridge: invalid response")

// ErrResourceNotFound signals a 404 that the original treats as a session
// artifact: retryable, and it also clears the client's cookies (spec
// section 9 flags this heuristic explicitly)
var ErrResourceNotFound = errors.New("bridge: resource not found")

// RequestFailedError wraps a non-2xx upstream response. A Status of 429
// triggers the adaptive throttle instead of consuming the retry budget
type RequestFailedError struct {
	Status int
	Body   string
}

func (e *RequestFailedError) Error() string {
	return fmt.Sprintf("bridge: request failed, status=%d", e.Status)
}

// IsTooManyRequests reports whether err is a RequestFailedError with status 429
func IsTooManyRequests(err error) bool {
	var rf *RequestFailedError
	if errors.As(err, &rf) {
		return rf.Status == 429
	}
	return false
}
