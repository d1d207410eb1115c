package evaluation

import "fmt"

// MinPersonas is the smallest batch that can be evaluated.
const MinPersonas = 2

// InputError represents a batch too small to evaluate. PersonaCount is the size received.
type InputError struct {
	PersonaCount int
}

func (e *InputError) Error() string {
	return fmt.Sprintf("need at least %d personas for evaluation", MinPersonas)
}
