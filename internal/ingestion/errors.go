package ingestion

import "fmt"

// ParseError represents an upload that could not be parsed.
type ParseError struct {
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// ExtractError represents a failure to extract text from a document.
type ExtractError struct {
	Path    string
	Message string
	Cause   error
}

func (e *ExtractError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("extract %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("extract %s: %s", e.Path, e.Message)
}

func (e *ExtractError) Unwrap() error {
	return e.Cause
}
