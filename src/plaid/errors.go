package plaid

import "fmt"

// APIError is a structured rejection from the Plaid API. Status carries the
// upstream HTTP status when the error body parsed, 500 otherwise.
type APIError struct {
	Message    string
	Status     int
	PlaidError *PlaidError
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Plaid API error (status %d): %s", e.Status, e.Message)
}

// UnavailableError marks transport-level failures: timeouts, refused
// connections, DNS errors. Distinct from a structured upstream rejection.
type UnavailableError struct {
	Err error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("Plaid API unreachable: %v", e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }
