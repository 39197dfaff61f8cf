package shudder

import "strings"

// MultiError contains a slice of errors and implements the error
// interface, used where independent teardown steps must all be
// attempted before any failure is reported
type MultiError struct {
	Errors []error
}

// Error provides a string that is the combination of all errors in
// the internal error slice
func (m *MultiError) Error() string {
	s := []string{}
	for _, err := range m.Errors {
		s = append(s, err.Error())
	}

	return strings.Join(s, ", ")
}

// Add appends a non-nil error
func (m *MultiError) Add(err error) {
	if err != nil {
		m.Errors = append(m.Errors, err)
	}
}

// AsError returns nil when no errors were collected, otherwise the
// MultiError itself
func (m *MultiError) AsError() error {
	if len(m.Errors) == 0 {
		return nil
	}
	return m
}
