package supplier

import (
	"fmt"
	"net/http"
)

// SearchFailedError covers network and upstream failures. The client
// never retries; retry policy belongs to the caller because blind
// retries against a paid search API cost money and can duplicate
// bookings downstream.
type SearchFailedError struct {
	Reason     string
	HTTPStatus int
}

func (e SearchFailedError) Error() string {
	if e.HTTPStatus != 0 {
		return fmt.Sprintf("supplier request failed: %s (status %d)", e.Reason, e.HTTPStatus)
	}

	return fmt.Sprintf("supplier request failed: %s", e.Reason)
}

func (e SearchFailedError) ErrorCode() int {
	return http.StatusBadGateway
}

// InvalidSessionError means the trace id is missing or no longer known
// upstream; the only recovery is a fresh search.
type InvalidSessionError struct {
	Reason string
}

func (e InvalidSessionError) Error() string {
	return fmt.Sprintf("search session is invalid: %s", e.Reason)
}

func (e InvalidSessionError) ErrorCode() int {
	return http.StatusGone
}
