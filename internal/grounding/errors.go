package grounding

import "fmt"

// ParseErrorKind classifies why a model answer could not be resolved.
type ParseErrorKind string

const (
	// NoDigitsFound means the answer carried no usable number.
	NoDigitsFound ParseErrorKind = "NO_DIGITS_FOUND"
	// IndexOutOfRange means a number was found but names no cell.
	IndexOutOfRange ParseErrorKind = "INDEX_OUT_OF_RANGE"
)

// ParseError reports an answer that does not name a valid cell.
type ParseError struct {
	Kind   ParseErrorKind
	Answer string
	// Digits is the extracted digit string, normalized to ASCII.
	Digits string
	// Max is the largest valid index for the layout the answer was checked against.
	Max int
}

func (e *ParseError) Error() string {
	switch e.Kind {
	case NoDigitsFound:
		return fmt.Sprintf("no grid number found in model answer %q", e.Answer)
	case IndexOutOfRange:
		return fmt.Sprintf("grid number %s is outside 1..%d (answer %q)", e.Digits, e.Max, e.Answer)
	default:
		return fmt.Sprintf("unparseable model answer %q", e.Answer)
	}
}

// Is matches another *ParseError of the same kind, so callers can test
// errors.Is(err, &ParseError{Kind: NoDigitsFound}).
func (e *ParseError) Is(target error) bool {
	t, ok := target.(*ParseError)
	if !ok {
		return false
	}
	return t.Kind == "" || t.Kind == e.Kind
}
