package embedding

import (
	"errors"
	"fmt"
)

// Failure kinds carried by ProviderError.
var (
	ErrMissingCredentials = errors.New("missing credentials")
	ErrTransport          = errors.New("transport error")
	ErrMalformedResponse  = errors.New("malformed response")
	ErrCountMismatch      = errors.New("count mismatch")
)

// ProviderError represents a failed embedding call.
type ProviderError struct {
	Provider string
	Kind     error
	Message  string
	Cause    error
}

func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("%s embedding %v", e.Provider, e.Kind)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap exposes both the failure kind and the underlying cause to errors.Is/As.
func (e *ProviderError) Unwrap() []error {
	errs := []error{e.Kind}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

func missingCredentials(provider, message string) *ProviderError {
	return &ProviderError{Provider: provider, Kind: ErrMissingCredentials, Message: message}
}

func transportError(provider string, cause error) *ProviderError {
	return &ProviderError{Provider: provider, Kind: ErrTransport, Cause: cause}
}

func malformed(provider, message string, cause error) *ProviderError {
	return &ProviderError{Provider: provider, Kind: ErrMalformedResponse, Message: message, Cause: cause}
}

func countMismatch(provider string, want, got int) *ProviderError {
	return &ProviderError{
		Provider: provider,
		Kind:     ErrCountMismatch,
		Message:  fmt.Sprintf("expected %d vectors, got %d", want, got),
	}
}
