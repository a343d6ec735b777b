package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"beautystats/internal/cache"
	"beautystats/internal/core"
	"beautystats/internal/log"
)

// DepartmentStore looks departments up by code.
type DepartmentStore interface {
	DepartmentByCode(ctx context.Context, code string) (core.Department, error)
}

// PostalCodeError reports a postal code that maps to no known department.
type PostalCodeError struct {
	PostalCode string
	Err        error
}

func (e *PostalCodeError) Error() string {
	return "No department found for the postcode " + e.PostalCode
}

func (e *PostalCodeError) Unwrap() error {
	return e.Err
}

// DepartmentResolver turns postal codes into departments. Registration and
// profile updates both go through it.
type DepartmentResolver struct {
	store DepartmentStore
	cache cache.Cache[core.Department]
}

// NewDepartmentResolver caches resolved departments by code in c; c may be nil.
func NewDepartmentResolver(store DepartmentStore, c cache.Cache[core.Department]) *DepartmentResolver {
	return &DepartmentResolver{store: store, cache: c}
}

// Resolve returns the department of postalCode. Malformed codes and codes
// with no matching department fail with a *PostalCodeError wrapping
// core.ErrInvalidPostalCode or core.ErrDepartmentNotFound.
func (r *DepartmentResolver) Resolve(ctx context.Context, postalCode string) (core.Department, error) {
	code, err := core.DepartmentCode(postalCode)
	if err != nil {
		return core.Department{}, &PostalCodeError{PostalCode: postalCode, Err: err}
	}

	if r.cache != nil {
		if d, ok := r.cache.Get(code); ok {
			return d, nil
		}
	}

	d, err := r.store.DepartmentByCode(ctx, code)
	if errors.Is(err, core.ErrDepartmentNotFound) {
		slog.DebugContext(ctx, "No department for postal code", log.FieldPostalCode, postalCode, log.FieldDepartment, code)
		return core.Department{}, &PostalCodeError{PostalCode: postalCode, Err: err}
	}
	if err != nil {
		return core.Department{}, fmt.Errorf("resolve postal code %s: %w", postalCode, err)
	}

	if r.cache != nil {
		r.cache.Set(code, d)
	}
	return d, nil
}
