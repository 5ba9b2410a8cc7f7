package domain

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrInvalidRegion is returned for region keys outside the catalog.
	ErrInvalidRegion = errors.New("invalid region")

	// ErrTimeout is returned when the upstream request exceeds its deadline.
	ErrTimeout = errors.New("request timeout")

	// ErrNoDataForDate is returned when a historical lookup finds no record
	// at or before the requested date.
	ErrNoDataForDate = errors.New("no data for date")
)

// HTTPError reports a non-2xx upstream response.
type HTTPError struct {
	Status int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Status, http.StatusText(e.Status))
}

// NetworkError wraps a transport-level failure (DNS, refused connection, reset).
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return "network error: " + e.Err.Error()
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ValidationError reports a malformed or empty upstream payload.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Reason
}

func validationErrorf(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// ErrorKind classifies err into a short label for logs and metrics.
func ErrorKind(err error) string {
	var httpErr *HTTPError
	var netErr *NetworkError
	var valErr *ValidationError
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrInvalidRegion):
		return "invalid_region"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrNoDataForDate):
		return "no_data_for_date"
	case errors.As(err, &httpErr):
		return "http_error"
	case errors.As(err, &netErr):
		return "network_error"
	case errors.As(err, &valErr):
		return "validation_error"
	default:
		return "unknown"
	}
}
