package booking

import (
	"fmt"
	"net/http"
)

// InvalidTransitionError rejects an event the current step does not accept.
type InvalidTransitionError struct {
	Step  Step
	Event string
}

func (e InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot %s while session is in step %s", e.Event, e.Step)
}

func (e InvalidTransitionError) ErrorCode() int {
	return http.StatusConflict
}

// InvalidSelectionError rejects an itinerary that is not a member of the
// current session's results.
type InvalidSelectionError struct {
	ResultIndex string
}

func (e InvalidSelectionError) Error() string {
	return fmt.Sprintf("itinerary %q is not part of the current search results", e.ResultIndex)
}

func (e InvalidSelectionError) ErrorCode() int {
	return http.StatusUnprocessableEntity
}

// PassengerCountMismatchError rejects a traveller list whose composition
// differs from the searched counts.
type PassengerCountMismatchError struct {
	WantAdults, WantChildren, WantInfants int
	GotAdults, GotChildren, GotInfants    int
}

func (e PassengerCountMismatchError) Error() string {
	return fmt.Sprintf("passenger list does not match search: want %d adult(s) %d child(ren) %d infant(s), got %d/%d/%d",
		e.WantAdults, e.WantChildren, e.WantInfants, e.GotAdults, e.GotChildren, e.GotInfants)
}

func (e PassengerCountMismatchError) ErrorCode() int {
	return http.StatusUnprocessableEntity
}

// InvalidAncillaryError rejects an ancillary selection referencing a
// passenger index that does not exist or a code missing from the catalog.
type InvalidAncillaryError struct {
	Reason string
}

func (e InvalidAncillaryError) Error() string {
	return fmt.Sprintf("invalid ancillary selection: %s", e.Reason)
}

func (e InvalidAncillaryError) ErrorCode() int {
	return http.StatusUnprocessableEntity
}

// OperationInProgressError rejects a transition while another one for the
// same session is still in flight. Callers retry; nothing is queued.
type OperationInProgressError struct {
	Operation string
}

func (e OperationInProgressError) Error() string {
	return fmt.Sprintf("another %s operation is already in progress for this session", e.Operation)
}

func (e OperationInProgressError) ErrorCode() int {
	return http.StatusConflict
}
