package research

import "fmt"

// BackendError represents a failed call to a search backend.
type BackendError struct {
	Backend    string
	StatusCode int
	Message    string
	Cause      error
}

func (e *BackendError) Error() string {
	msg := e.Backend + " search"
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (%d)", e.StatusCode)
	}
	msg += ": " + e.Message
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *BackendError) Unwrap() error {
	return e.Cause
}

// RequestError represents a search request rejected before it was sent.
type RequestError struct {
	Field   string
	Message string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("invalid search request: %s %s", e.Field, e.Message)
}
