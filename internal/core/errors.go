package core

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var (
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidPeriod       = errors.New("invalid period")
	ErrInvalidPostalCode   = errors.New("invalid postal code")
	ErrInvalidAreaKind     = errors.New("invalid area kind")
	ErrDepartmentNotFound  = errors.New("department not found")
	ErrDuplicateSubmission = errors.New("income already submitted for period")
	ErrSalonNotFound       = errors.New("salon not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrStatisticNotFound   = errors.New("statistic not found")
	ErrEmailTaken          = errors.New("email already registered")
	ErrInvalidCredentials  = errors.New("invalid credentials")
)

// ValidationError carries every problem found in a request so they can be
// reported together.
type ValidationError struct {
	Problems []string
}

// Add records one problem. A problem already recorded is not repeated.
func (e *ValidationError) Add(format string, args ...any) {
	e.add(fmt.Sprintf(format, args...))
}

func (e *ValidationError) add(problem string) {
	if slices.Contains(e.Problems, problem) {
		return
	}
	e.Problems = append(e.Problems, problem)
}

// Err returns e when at least one problem was recorded, nil otherwise.
func (e *ValidationError) Err() error {
	if e == nil || len(e.Problems) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Problems, "; ")
}

// Merge appends the problems of err when it is a *ValidationError and
// reports whether it was one.
func (e *ValidationError) Merge(err error) bool {
	var other *ValidationError
	if !errors.As(err, &other) {
		return false
	}
	for _, p := range other.Problems {
		e.add(p)
	}
	return true
}
