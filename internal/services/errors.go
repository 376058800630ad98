package services

import (
	"errors"
	"strings"
)

// ErrInvalidCredentials is returned by Authenticate for an unknown username
// or a wrong password. The two cases are deliberately indistinguishable.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ValidationError reports why an input was rejected. All violated rules are
// collected and reported together, not just the first.
type ValidationError struct {
	Reasons []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Reasons, ", ")
}

func validationErrorf(reasons ...string) error {
	return &ValidationError{Reasons: reasons}
}
