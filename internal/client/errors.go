package client

import "fmt"

// TransportError indicates a network-level failure: the request never
// completed with an HTTP status (DNS, connect, timeout, body read).
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failure: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ExtractionError indicates the API answered with a non-success status
type ExtractionError struct {
	StatusCode int
	Body       string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("API returned status %d: %s", e.StatusCode, e.Body)
}

// SchemaError indicates the response body did not match the expected
// envelope shape. Field names the missing or malformed part.
type SchemaError struct {
	Field string
	Err   error
}

func (e *SchemaError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unexpected response shape at %q: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("unexpected response shape: missing %q", e.Field)
}

func (e *SchemaError) Unwrap() error { return e.Err }
