package booking

import (
	"github.com/travelkita/flight-booking-service/internal/pkg/itinerary"
)

// Transitions are pure: each takes the snapshot by value and returns the
// next state, leaving the receiver untouched. I/O stays with the caller;
// it runs the supplier or payment call between Begin/Complete pairs.

// BeginSearch starts a new search. A prior successful session is kept in
// place so a failed search can fall back to stale results.
func (s Snapshot) BeginSearch(criteria itinerary.SearchCriteria) (Snapshot, error) {
	switch s.Step {
	case StepIdle, StepResultsReady, StepErrored:
	default:
		return s, InvalidTransitionError{Step: s.Step, Event: "start a search"}
	}

	s.Step = StepSearching
	s.Generation++
	s.PendingCriteria = &criteria
	s.LastError = ""

	return s, nil
}

// CompleteSearch installs the normalized results for the search started
// at the given generation. A response from a superseded search reports
// applied=false and leaves the snapshot unchanged.
func (s Snapshot) CompleteSearch(generation uint64, session SearchSession) (Snapshot, bool) {
	if generation != s.Generation || s.Step != StepSearching {
		return s, false
	}

	s.Step = StepResultsReady
	s.Session = &session
	s.PendingCriteria = nil
	s.Selection = Selection{}
	s.Ancillary = nil
	s.PriceChange = nil
	s.OrderID = ""
	s.Ticket = nil
	s.LastError = ""

	return s, true
}

// FailSearch records a search failure. The prior session, if any, stays
// untouched; only an explicit Reset clears it.
func (s Snapshot) FailSearch(generation uint64, cause error) (Snapshot, bool) {
	if generation != s.Generation || s.Step != StepSearching {
		return s, false
	}

	s.Step = StepErrored
	s.PendingCriteria = nil
	s.LastError = cause.Error()

	return s, true
}

// SelectOutbound picks an outbound itinerary by identity. The itinerary
// must be a member of the current session's outbound results.
func (s Snapshot) SelectOutbound(resultIndex string) (Snapshot, error) {
	if s.Step != StepResultsReady {
		return s, InvalidTransitionError{Step: s.Step, Event: "select an outbound flight"}
	}

	it, ok := itinerary.FindByResultIndex(s.Session.Outbound, resultIndex)
	if !ok {
		return s, InvalidSelectionError{ResultIndex: resultIndex}
	}

	s.Step = StepOutboundSelected
	s.Selection = Selection{Outbound: &it}
	s.Ancillary = nil
	s.PriceChange = nil
	s.OrderID = ""

	return s, nil
}

// SelectReturn picks a return itinerary; round trips only.
func (s Snapshot) SelectReturn(resultIndex string) (Snapshot, error) {
	if s.Step != StepOutboundSelected {
		return s, InvalidTransitionError{Step: s.Step, Event: "select a return flight"}
	}

	if s.TripType() != itinerary.TripRoundTrip {
		return s, InvalidTransitionError{Step: s.Step, Event: "select a return flight on a non round trip"}
	}

	it, ok := itinerary.FindByResultIndex(s.Session.Return, resultIndex)
	if !ok {
		return s, InvalidSelectionError{ResultIndex: resultIndex}
	}

	s.Step = StepReturnSelected
	s.Selection.Return = &it

	return s, nil
}

// SetPassengers stores the traveller list. The composition must match
// the searched adult/child/infant counts exactly.
func (s Snapshot) SetPassengers(passengers []Passenger) (Snapshot, error) {
	if !s.detailsEligible() {
		return s, InvalidTransitionError{Step: s.Step, Event: "enter passenger details"}
	}

	var adults, children, infants int

	for _, pax := range passengers {
		switch pax.Type {
		case PaxChild:
			children++
		case PaxInfant:
			infants++
		default:
			adults++
		}
	}

	criteria := s.Session.Criteria
	if adults != criteria.Adults || children != criteria.Children || infants != criteria.Infants {
		return s, PassengerCountMismatchError{
			WantAdults: criteria.Adults, WantChildren: criteria.Children, WantInfants: criteria.Infants,
			GotAdults: adults, GotChildren: children, GotInfants: infants,
		}
	}

	s.Selection.Passengers = passengers
	s.advanceToDetails()

	return s, nil
}

// SetContact stores the booking contact.
func (s Snapshot) SetContact(contact Contact) (Snapshot, error) {
	if !s.detailsEligible() {
		return s, InvalidTransitionError{Step: s.Step, Event: "enter contact details"}
	}

	s.Selection.Contact = &contact
	s.advanceToDetails()

	return s, nil
}

// detailsEligible reports whether the selection is complete enough to
// accept passenger and contact details: outbound picked, plus return for
// round trips. Re-entry from DetailsEntered is allowed so users can fix
// a typo without resetting.
func (s Snapshot) detailsEligible() bool {
	switch s.Step {
	case StepOutboundSelected:
		return s.TripType() != itinerary.TripRoundTrip
	case StepReturnSelected, StepDetailsEntered:
		return true
	default:
		return false
	}
}

func (s *Snapshot) advanceToDetails() {
	if s.Selection.Passengers != nil && s.Selection.Contact != nil {
		s.Step = StepDetailsEntered
	}
}

// ApplyFareDetails installs the per-leg re-priced quotes, fare rules
// and ancillary catalog. When the re-priced total drifts from the
// displayed total the change is surfaced, never silently applied to
// the bill.
func (s Snapshot) ApplyFareDetails(quotes []itinerary.FareQuote, rules []itinerary.FareRule,
	options itinerary.AncillaryOptions) (Snapshot, *PriceChange, error) {
	if s.Step != StepDetailsEntered {
		return s, nil, InvalidTransitionError{Step: s.Step, Event: "fetch fare details"}
	}

	displayed := s.displayedFareTotal()

	s.Selection.FareQuotes = quotes
	s.Selection.FareRules = rules
	s.Ancillary = &options
	s.PriceChange = nil

	if quoted := s.quotedFareTotal(); quoted != displayed {
		s.PriceChange = &PriceChange{Old: displayed, New: quoted}
	}

	return s, s.PriceChange, nil
}

// SelectAncillaries stores the baggage and meal choices. An empty list is
// a valid choice; invalid passenger indices or unknown codes are not.
func (s Snapshot) SelectAncillaries(selections []AncillarySelection) (Snapshot, error) {
	if s.Step != StepDetailsEntered && s.Step != StepAncillariesSelected {
		return s, InvalidTransitionError{Step: s.Step, Event: "select ancillaries"}
	}

	if len(s.Selection.FareQuotes) == 0 || s.Ancillary == nil {
		return s, InvalidTransitionError{Step: s.Step, Event: "select ancillaries before fare details"}
	}

	for _, sel := range selections {
		if sel.PassengerIndex < 0 || sel.PassengerIndex >= len(s.Selection.Passengers) {
			return s, InvalidAncillaryError{Reason: "passenger index out of range"}
		}

		if sel.BaggageCode != "" && !hasAncillaryCode(s.Ancillary.Baggage, sel.BaggageCode) {
			return s, InvalidAncillaryError{Reason: "unknown baggage code " + sel.BaggageCode}
		}

		if sel.MealCode != "" && !hasAncillaryCode(s.Ancillary.Meals, sel.MealCode) {
			return s, InvalidAncillaryError{Reason: "unknown meal code " + sel.MealCode}
		}
	}

	s.Selection.Ancillaries = selections
	s.Step = StepAncillariesSelected

	return s, nil
}

func hasAncillaryCode(items []itinerary.AncillaryItem, code string) bool {
	for _, item := range items {
		if item.Code == code {
			return true
		}
	}

	return false
}

// BeginPayment moves to PaymentPending once a payment order exists.
func (s Snapshot) BeginPayment(orderID string) (Snapshot, error) {
	if s.Step != StepAncillariesSelected {
		return s, InvalidTransitionError{Step: s.Step, Event: "start payment"}
	}

	s.Step = StepPaymentPending
	s.OrderID = orderID

	return s, nil
}

// ConfirmPayment finalizes the booking. The ticket replaces the draft
// selection as the authoritative record and is immutable afterwards.
func (s Snapshot) ConfirmPayment(ticket Ticket) (Snapshot, error) {
	if s.Step != StepPaymentPending {
		return s, InvalidTransitionError{Step: s.Step, Event: "confirm payment"}
	}

	s.Step = StepConfirmed
	s.Ticket = &ticket
	s.PriceChange = nil

	return s, nil
}

// FailPayment returns to AncillariesSelected so payment can be retried
// without re-searching.
func (s Snapshot) FailPayment(cause error) Snapshot {
	if s.Step != StepPaymentPending {
		return s
	}

	s.Step = StepAncillariesSelected
	s.OrderID = ""
	s.LastError = cause.Error()

	return s
}

// Reset returns to Idle from any step. The generation counter carries
// over so responses from searches started before the reset stay dead.
func (s Snapshot) Reset() Snapshot {
	return Snapshot{Step: StepIdle, Generation: s.Generation}
}
