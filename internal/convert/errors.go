package convert

import "fmt"

// ErrorKind classifies a conversion failure.
type ErrorKind string

const (
	// KindMalformedInput means the payload does not parse as the
	// claimed source format.
	KindMalformedInput ErrorKind = "malformed_input"
	// KindUnsupportedFeature means the input is valid but uses a
	// construct the converter cannot represent in the target format.
	KindUnsupportedFeature ErrorKind = "unsupported_feature"
	// KindInternalError means the underlying transformation failed
	// unexpectedly.
	KindInternalError ErrorKind = "internal_error"
)

// Error is a classified conversion failure.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func newError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// AsError coerces any error into a classified conversion Error,
// defaulting to internal_error for unclassified failures.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	if ce, ok := err.(*Error); ok {
		return ce
	}
	return &Error{Kind: KindInternalError, Message: err.Error()}
}
