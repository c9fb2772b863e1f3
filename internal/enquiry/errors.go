package enquiry

import (
	"errors"
	"fmt"
)

// ValidationError reports malformed input on the strict portal path:
// unparseable date/time or an invalid enum value.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// NewValidationError creates a ValidationError with a formatted message.
func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// NotFoundError reports a reference to a record that does not exist.
type NotFoundError struct {
	Kind string // "customer", "enquiry", "product"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// DuplicateError reports an email whose fingerprint matches a previously
// accepted enquiry.
type DuplicateError struct {
	EnquiryID string // the enquiry the original email produced
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("Duplicate enquiry detected (%s)", e.EnquiryID)
}

// PersistenceError wraps an underlying write failure. The in-flight assembly
// is rolled back in full whenever one is raised.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return e.Err.Error()
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsDuplicate reports whether err is a DuplicateError.
func IsDuplicate(err error) bool {
	var de *DuplicateError
	return errors.As(err, &de)
}
