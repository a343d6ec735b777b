package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"beautystats/internal/core"
	"beautystats/internal/log"
)

const (
	msgNoSalon            = "No beauty salon found for this user"
	msgInvalidCredentials = "Invalid credentials."
	msgInvalidJSON        = "Invalid JSON data"
	msgInvalidIncome      = "Invalid data. Income amount is required and must be a number"
	msgInvalidPeriod      = "month and year must form a valid period"
)

// parsePeriodQuery reads ?month=&year=. Both absent yields nil; one of
// them alone or a non-numeric value is an error.
func parsePeriodQuery(r *http.Request) (*core.Period, error) {
	q := r.URL.Query()
	ms, ys := strings.TrimSpace(q.Get("month")), strings.TrimSpace(q.Get("year"))
	if ms == "" && ys == "" {
		return nil, nil
	}
	m, err := strconv.Atoi(ms)
	if err != nil {
		return nil, core.ErrInvalidPeriod
	}
	y, err := strconv.Atoi(ys)
	if err != nil {
		return nil, core.ErrInvalidPeriod
	}
	p := core.Period{Month: m, Year: y}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// sanitizeInput removes control characters except tab, newline and
// carriage return, and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// unauthorizedResponse matches the body written by the auth middleware.
func unauthorizedResponse(message string) *JSONResponseBuilder {
	return NewJSONResponse().
		Status(http.StatusUnauthorized).
		Field("code", http.StatusUnauthorized).
		Message(message)
}

// writeServiceError maps service errors to responses. Client errors are
// logged at debug, anything else at error with a generic 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, operation string) {
	ctx := r.Context()
	var (
		verr      *core.ValidationError
		errorType string
	)
	switch {
	case errors.As(err, &verr):
		errorType = log.ErrorTypeValidation
		ProblemsResponse(verr.Problems).Write(w)
	case errors.Is(err, core.ErrInvalidCredentials):
		errorType = log.ErrorTypeAuth
		unauthorizedResponse(msgInvalidCredentials).Write(w)
	case errors.Is(err, core.ErrSalonNotFound):
		errorType = log.ErrorTypeNotFound
		NotFoundError(msgNoSalon).Write(w)
	case errors.Is(err, core.ErrUserNotFound):
		errorType = log.ErrorTypeNotFound
		NotFoundError("User not found").Write(w)
	case errors.Is(err, core.ErrInvalidAmount), errors.Is(err, core.ErrInvalidPeriod):
		errorType = log.ErrorTypeValidation
		msg := msgInvalidPeriod
		if errors.Is(err, core.ErrInvalidAmount) {
			msg = msgInvalidIncome
		}
		BadRequestError(msg).Write(w)
	default:
		log.FromContext(ctx).ErrorContext(ctx, "Request failed",
			log.FieldOperation, operation,
			log.FieldError, err.Error(),
			log.FieldErrorType, log.ErrorTypeInternal)
		InternalServerError().Write(w)
		return
	}
	log.FromContext(ctx).DebugContext(ctx, "Request rejected",
		log.FieldOperation, operation,
		log.FieldError, err.Error(),
		log.FieldErrorType, errorType)
}
