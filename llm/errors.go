package llm

import (
	"errors"
	"fmt"
)

// ParseError reports that a model response contained no well-formed
// instance of a bound schema. It is the only recoverable failure of
// InvokeStructured; callers retry it, everything else is fatal.
type ParseError struct {
	// Message describes what was missing or malformed.
	Message string

	// Raw is the model output that failed to parse.
	Raw string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("structured output parse failure: %s", e.Message)
}

// IsParseError reports whether err is (or wraps) a *ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}
