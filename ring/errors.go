package ring

import "fmt"

// Error is the common error type returned across ring, rlwe, bfv and simulator. Kind
// identifies one of the error kinds from the error-handling design; errors are never
// retried internally and are always surfaced synchronously to the caller.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// ErrorKind enumerates the error kinds.
type ErrorKind string

const (
	KindInvalidParameters   ErrorKind = "InvalidParameters"
	KindFingerprintMismatch ErrorKind = "FingerprintMismatch"
	KindShapeMismatch       ErrorKind = "ShapeMismatch"
	KindAliasViolation      ErrorKind = "AliasViolation"
	KindOutOfRange          ErrorKind = "OutOfRange"
	KindPoolExhausted       ErrorKind = "PoolExhausted"
	KindDecoderOverflow     ErrorKind = "DecoderOverflow"
)

func newErr(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func errInvalidParameters(format string, args ...interface{}) error {
	return newErr(KindInvalidParameters, format, args...)
}

func errOutOfRange(format string, args ...interface{}) error {
	return newErr(KindOutOfRange, format, args...)
}

// NewInvalidParametersError builds an InvalidParameters error for use by packages that
// depend on ring (rlwe, bfv, simulator) without re-declaring the error kind.
func NewInvalidParametersError(format string, args ...interface{}) error {
	return newErr(KindInvalidParameters, format, args...)
}

// NewFingerprintMismatchError builds a FingerprintMismatch error.
func NewFingerprintMismatchError(format string, args ...interface{}) error {
	return newErr(KindFingerprintMismatch, format, args...)
}

// NewShapeMismatchError builds a ShapeMismatch error.
func NewShapeMismatchError(format string, args ...interface{}) error {
	return newErr(KindShapeMismatch, format, args...)
}

// NewAliasViolationError builds an AliasViolation error.
func NewAliasViolationError(format string, args ...interface{}) error {
	return newErr(KindAliasViolation, format, args...)
}

// NewOutOfRangeError builds an OutOfRange error.
func NewOutOfRangeError(format string, args ...interface{}) error {
	return newErr(KindOutOfRange, format, args...)
}

// NewPoolExhaustedError builds a PoolExhausted error.
func NewPoolExhaustedError(format string, args ...interface{}) error {
	return newErr(KindPoolExhausted, format, args...)
}

// NewDecoderOverflowError builds a DecoderOverflow error.
func NewDecoderOverflowError(format string, args ...interface{}) error {
	return newErr(KindDecoderOverflow, format, args...)
}

// ErrorKindOf reports the ErrorKind carried by err, if any, and whether one was found.
func ErrorKindOf(err error) (ErrorKind, bool) {
	if e, ok := err.(*Error); ok {
		return e.Kind, true
	}
	return "", false
}
