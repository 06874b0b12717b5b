package api

import (
	"errors"
	"fmt"
)

var (
	// ErrUnavailable indicates the API server could not be reached.
	ErrUnavailable = errors.New("api server unavailable")

	// ErrTimeout indicates a request exceeded the configured timeout.
	ErrTimeout = errors.New("api request timed out")

	// ErrInvalidResponse indicates a 2xx response body could not be decoded.
	ErrInvalidResponse = errors.New("invalid api response")
)

// CodeSupplierWithoutEvents is returned when a supplier has no bookable events.
const CodeSupplierWithoutEvents = "SUPPLIER_WITHOUT_EVENTS"

// DomainAPIError is a backend error carrying a code the tool knows how to
// present.
type DomainAPIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *DomainAPIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error %s (status %d)", e.Code, e.StatusCode)
	}
	return fmt.Sprintf("api error %s: %s", e.Code, e.Message)
}

// SupplierWithoutEventsError is the typed form of SUPPLIER_WITHOUT_EVENTS.
type SupplierWithoutEventsError struct {
	DomainAPIError
}

func (e *SupplierWithoutEventsError) Error() string {
	return "supplier has no events: " + e.DomainAPIError.Error()
}

func (e *SupplierWithoutEventsError) Unwrap() error {
	return &e.DomainAPIError
}

// domainErrors translates known backend codes into typed errors.
var domainErrors = map[string]func(DomainAPIError) error{
	CodeSupplierWithoutEvents: func(d DomainAPIError) error {
		return &SupplierWithoutEventsError{DomainAPIError: d}
	},
}

// StatusError is any other non-2xx response. Generic errors pass through
// to callers unchanged.
type StatusError struct {
	StatusCode int
	Code       string
	Message    string
	Body       string
}

func (e *StatusError) Error() string {
	switch {
	case e.Message != "":
		return fmt.Sprintf("api returned status %d: %s", e.StatusCode, e.Message)
	case e.Body != "":
		return fmt.Sprintf("api returned status %d: %s", e.StatusCode, e.Body)
	default:
		return fmt.Sprintf("api returned status %d", e.StatusCode)
	}
}

// Temporary reports whether the request may succeed if repeated.
func (e *StatusError) Temporary() bool {
	return e.StatusCode >= 500
}
