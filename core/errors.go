package core

import "github.com/pkg/errors"

// FieldError pins a validation failure to a single input field, using the
// field's JSON name.
type FieldError struct {
	Field string
	Error string
}

// ValidationError is a client input error. The API layer renders it as a 400
// with a field → message map when Fields is set, or a plain message otherwise.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// shutdown marks an unrecoverable integrity problem, eg. a subscribed tier
// missing from the plan catalog. The API error handler restarts the server
// when it catches one.
type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
