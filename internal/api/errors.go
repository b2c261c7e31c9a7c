package api

import "fmt"

// BackendError indicates the backend answered with a non-2xx status. Detail
// carries the server-supplied `detail`/`message` text verbatim; it is shown
// to the student unchanged.
type BackendError struct {
	Status int
	Detail string
}

func (e *BackendError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("server returned status %d", e.Status)
}

// NetworkError indicates the request never completed: connection refused,
// timeout, DNS failure. Never retried automatically.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("cannot reach the server: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// DecodeError indicates the backend returned a 2xx response whose body does
// not match the expected shape.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("unexpected server response: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
