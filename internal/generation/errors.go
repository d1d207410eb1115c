package generation

import "fmt"

// Error reports a generation failure at a named stage: context, prompt,
// llm, decode or schema.
type Error struct {
	Stage   string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("generation %s: %s: %v", e.Stage, e.Message, e.Cause)
	}
	return fmt.Sprintf("generation %s: %s", e.Stage, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}
