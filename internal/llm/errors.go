package llm

// Error represents a failed or unusable model response.
type Error struct {
	Model   string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := "llm"
	if e.Model != "" {
		msg += " (" + e.Model + ")"
	}
	msg += ": " + e.Message
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}
