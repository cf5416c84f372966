package booking

import (
	"time"

	"github.com/travelkita/flight-booking-service/internal/pkg/itinerary"
)

// Step is the booking pipeline position. Transitions only move along the
// declared order; Errored is reachable from any in-flight step and Reset
// returns to Idle from anywhere.
type Step string

const (
	StepIdle                Step = "idle"
	StepSearching           Step = "searching"
	StepResultsReady        Step = "results_ready"
	StepOutboundSelected    Step = "outbound_selected"
	StepReturnSelected      Step = "return_selected"
	StepDetailsEntered      Step = "details_entered"
	StepAncillariesSelected Step = "ancillaries_selected"
	StepPaymentPending      Step = "payment_pending"
	StepConfirmed           Step = "confirmed"
	StepErrored             Step = "errored"
)

// Passenger types accepted by the traveller list.
const (
	PaxAdult  = "adult"
	PaxChild  = "child"
	PaxInfant = "infant"
)

// SearchSession binds a supplier trace to the criteria that produced it
// and the normalized results. It is replaced wholesale on a new search.
type SearchSession struct {
	TraceID  string                   `json:"trace_id"`
	Criteria itinerary.SearchCriteria `json:"criteria"`
	Outbound []itinerary.Itinerary    `json:"outbound"`
	Return   []itinerary.Itinerary    `json:"return,omitempty"`
}

type Passenger struct {
	Title       string `json:"title"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	DateOfBirth string `json:"date_of_birth"`
	Type        string `json:"type"`
}

type Contact struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// AncillarySelection attaches one baggage or meal choice to a passenger
// by index into the traveller list.
type AncillarySelection struct {
	PassengerIndex int    `json:"passenger_index"`
	BaggageCode    string `json:"baggage_code,omitempty"`
	MealCode       string `json:"meal_code,omitempty"`
}

// Selection is everything the user has chosen on top of the session.
// FareQuotes holds one re-priced quote per selected leg, keyed by the
// leg's result index.
type Selection struct {
	Outbound    *itinerary.Itinerary  `json:"outbound,omitempty"`
	Return      *itinerary.Itinerary  `json:"return,omitempty"`
	FareQuotes  []itinerary.FareQuote `json:"fare_quotes,omitempty"`
	FareRules   []itinerary.FareRule  `json:"fare_rules,omitempty"`
	Ancillaries []AncillarySelection  `json:"ancillaries,omitempty"`
	Passengers  []Passenger           `json:"passengers,omitempty"`
	Contact     *Contact              `json:"contact,omitempty"`
}

// Ticket is issued once, on successful payment, and never changes after.
type Ticket struct {
	BookingReference string    `json:"booking_reference"`
	PNR              string    `json:"pnr"`
	TicketNumbers    []string  `json:"ticket_numbers,omitempty"`
	AmountCharged    float64   `json:"amount_charged"`
	Currency         string    `json:"currency"`
	IssuedAt         time.Time `json:"issued_at"`
}

// PriceChange signals that the re-priced fare differs from the amount
// the user saw at selection time. It is a signal, not an error; the
// caller decides whether to re-confirm.
type PriceChange struct {
	Old float64 `json:"old"`
	New float64 `json:"new"`
}

// Snapshot is one immutable state of a booking session. Every transition
// takes a snapshot by value and returns the next one, so the whole
// pipeline is testable without I/O.
type Snapshot struct {
	Step Step `json:"step"`

	// Generation increases on every search start so that a superseded
	// search's late response can be recognized and discarded.
	Generation uint64 `json:"generation"`

	PendingCriteria *itinerary.SearchCriteria `json:"pending_criteria,omitempty"`

	Session     *SearchSession              `json:"session,omitempty"`
	Selection   Selection                   `json:"selection"`
	Ancillary   *itinerary.AncillaryOptions `json:"ancillary,omitempty"`
	PriceChange *PriceChange                `json:"price_change,omitempty"`
	OrderID     string                      `json:"order_id,omitempty"`
	Ticket      *Ticket                     `json:"ticket,omitempty"`
	LastError   string                      `json:"last_error,omitempty"`
}

// NewSnapshot returns a fresh idle session state.
func NewSnapshot() Snapshot {
	return Snapshot{Step: StepIdle}
}

// TripType reports the trip type of the active session, falling back to
// the pending criteria while a search is in flight.
func (s Snapshot) TripType() string {
	if s.Session != nil {
		return s.Session.Criteria.TripType
	}

	if s.PendingCriteria != nil {
		return s.PendingCriteria.TripType
	}

	return ""
}

// TotalDue is the amount the payment order should be created for: every
// selected leg at its re-priced fare where a quote covers it and the
// displayed fare where it does not, plus any priced ancillaries.
func (s Snapshot) TotalDue() (float64, string) {
	currency := "INR"
	total := s.quotedFareTotal()

	if s.Selection.Outbound != nil {
		currency = s.Selection.Outbound.Fare.Currency
	}

	for _, quote := range s.Selection.FareQuotes {
		if quote.Currency != "" {
			currency = quote.Currency
		}
	}

	if s.Ancillary != nil {
		for _, sel := range s.Selection.Ancillaries {
			total += ancillaryPrice(s.Ancillary.Baggage, sel.BaggageCode)
			total += ancillaryPrice(s.Ancillary.Meals, sel.MealCode)
		}
	}

	return total, currency
}

func (s Snapshot) displayedFareTotal() float64 {
	var total float64

	if s.Selection.Outbound != nil {
		total += s.Selection.Outbound.Fare.OfferedPrice
	}

	if s.Selection.Return != nil {
		total += s.Selection.Return.Fare.OfferedPrice
	}

	return total
}

// quotedFareTotal re-prices the selection leg by leg. A leg the quotes
// do not cover keeps its displayed fare, so a quote for one leg of a
// round trip never drops the other leg from the bill.
func (s Snapshot) quotedFareTotal() float64 {
	var total float64

	for _, leg := range []*itinerary.Itinerary{s.Selection.Outbound, s.Selection.Return} {
		if leg == nil {
			continue
		}

		total += s.legFare(*leg)
	}

	return total
}

func (s Snapshot) legFare(leg itinerary.Itinerary) float64 {
	for _, quote := range s.Selection.FareQuotes {
		if quote.ResultIndex == leg.ResultIndex && quote.TotalFare != 0 {
			return quote.TotalFare
		}
	}

	return leg.Fare.OfferedPrice
}

func ancillaryPrice(items []itinerary.AncillaryItem, code string) float64 {
	if code == "" {
		return 0
	}

	for _, item := range items {
		if item.Code == code {
			return item.Price
		}
	}

	return 0
}
