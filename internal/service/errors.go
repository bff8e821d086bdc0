package service

import (
	"errors"
	"strings"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailDisabled      = errors.New("email delivery is not enabled")
	ErrNotFound           = errors.New("not found")
	ErrUnsupported        = errors.New("operation not supported for this account")
)

// ValidationError lists every problem found in an input.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Problems, "; ")
}

// validation collects problems and yields a *ValidationError when any exist.
type validation []string

func (v *validation) require(cond bool, problem string) {
	if !cond {
		*v = append(*v, problem)
	}
}

func (v validation) err() error {
	if len(v) == 0 {
		return nil
	}
	return &ValidationError{Problems: v}
}
