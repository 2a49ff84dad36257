package lab

import (
	"errors"
	"fmt"
)

var (
	ErrReportNotFound  = errors.New("lab report not found")
	ErrReportsDisabled = errors.New("lab report storage is not configured")
)

// ValidationError is a client input problem. Handlers render Message with 400.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
