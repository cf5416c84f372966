package dto

import (
	"github.com/travelkita/flight-booking-service/internal/pkg/booking"
	"github.com/travelkita/flight-booking-service/internal/pkg/itinerary"
	"github.com/travelkita/flight-booking-service/internal/pkg/money"
	"github.com/travelkita/flight-booking-service/internal/pkg/utils"
)

type SegmentView struct {
	Airline           string `json:"airline"`
	FlightNumber      string `json:"flight_number"`
	Origin            string `json:"origin"`
	Destination       string `json:"destination"`
	Departure         string `json:"departure"`
	Arrival           string `json:"arrival"`
	DurationFormatted string `json:"duration"`
	CabinClass        string `json:"cabin_class,omitempty"`
}

type PriceView struct {
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
	Formatted string  `json:"formatted"`
}

type ItineraryView struct {
	ResultIndex       string        `json:"result_index"`
	Segments          []SegmentView `json:"segments"`
	Stops             int           `json:"stops"`
	DurationMinutes   int           `json:"duration_minutes"`
	DurationFormatted string        `json:"duration"`
	Price             PriceView     `json:"price"`
	Refundable        bool          `json:"refundable"`
	BaggageIncluded   bool          `json:"baggage_included"`
}

type PriceChangeView struct {
	Old PriceView `json:"old"`
	New PriceView `json:"new"`
}

type TicketView struct {
	BookingReference string   `json:"booking_reference"`
	PNR              string   `json:"pnr"`
	TicketNumbers    []string `json:"ticket_numbers,omitempty"`
	AmountCharged    string   `json:"amount_charged"`
}

// SessionResponse is the state of a booking session as the client sees
// it after any operation.
type SessionResponse struct {
	SessionID   string                      `json:"session_id"`
	Step        string                      `json:"step"`
	TraceID     string                      `json:"trace_id,omitempty"`
	Outbound    []ItineraryView             `json:"outbound,omitempty"`
	Return      []ItineraryView             `json:"return,omitempty"`
	Selection   *SelectionView              `json:"selection,omitempty"`
	FareRules   []itinerary.FareRule        `json:"fare_rules,omitempty"`
	Ancillary   *itinerary.AncillaryOptions `json:"ancillary_options,omitempty"`
	PriceChange *PriceChangeView            `json:"price_change,omitempty"`
	OrderID     string                      `json:"order_id,omitempty"`
	TotalDue    *PriceView                  `json:"total_due,omitempty"`
	Ticket      *TicketView                 `json:"ticket,omitempty"`
	LastError   string                      `json:"last_error,omitempty"`
}

type SelectionView struct {
	Outbound *ItineraryView `json:"outbound,omitempty"`
	Return   *ItineraryView `json:"return,omitempty"`
}

// NewItineraryView renders a canonical itinerary for display.
func NewItineraryView(it itinerary.Itinerary) ItineraryView {
	segments := make([]SegmentView, 0, len(it.Segments))
	for _, seg := range it.Segments {
		segments = append(segments, SegmentView{
			Airline:           seg.AirlineName,
			FlightNumber:      seg.AirlineCode + " " + seg.FlightNumber,
			Origin:            seg.OriginAirport,
			Destination:       seg.DestinationAirport,
			Departure:         utils.FormatDepartureTime(seg.DepartureTime),
			Arrival:           utils.FormatDepartureTime(seg.ArrivalTime),
			DurationFormatted: utils.FormatMinutes(seg.DurationMinutes),
			CabinClass:        seg.CabinClass,
		})
	}

	return ItineraryView{
		ResultIndex:       it.ResultIndex,
		Segments:          segments,
		Stops:             it.Stops,
		DurationMinutes:   it.TotalDurationMinutes,
		DurationFormatted: utils.FormatMinutes(it.TotalDurationMinutes),
		Price: PriceView{
			Amount:    it.Fare.OfferedPrice,
			Currency:  it.Fare.Currency,
			Formatted: money.Format(it.Fare.OfferedPrice, it.Fare.Currency),
		},
		Refundable:      it.Fare.Refundable,
		BaggageIncluded: it.Fare.BaggageIncluded,
	}
}

func newItineraryViews(items []itinerary.Itinerary) []ItineraryView {
	if len(items) == 0 {
		return nil
	}

	views := make([]ItineraryView, 0, len(items))
	for _, it := range items {
		views = append(views, NewItineraryView(it))
	}

	return views
}

// NewSessionResponse renders a booking snapshot. The outbound and
// return slices are the result views to show, which may be a filtered
// and sorted subset of what the snapshot holds.
func NewSessionResponse(sessionID string, snap booking.Snapshot, outbound, ret []itinerary.Itinerary) SessionResponse {
	resp := SessionResponse{
		SessionID: sessionID,
		Step:      string(snap.Step),
		Outbound:  newItineraryViews(outbound),
		Return:    newItineraryViews(ret),
		OrderID:   snap.OrderID,
		LastError: snap.LastError,
	}

	if snap.Session != nil {
		resp.TraceID = snap.Session.TraceID
	}

	if snap.Selection.Outbound != nil || snap.Selection.Return != nil {
		sel := &SelectionView{}
		if snap.Selection.Outbound != nil {
			view := NewItineraryView(*snap.Selection.Outbound)
			sel.Outbound = &view
		}
		if snap.Selection.Return != nil {
			view := NewItineraryView(*snap.Selection.Return)
			sel.Return = &view
		}
		resp.Selection = sel
	}

	resp.FareRules = snap.Selection.FareRules
	resp.Ancillary = snap.Ancillary

	if snap.PriceChange != nil {
		_, currency := snap.TotalDue()
		resp.PriceChange = &PriceChangeView{
			Old: PriceView{
				Amount:    snap.PriceChange.Old,
				Currency:  currency,
				Formatted: money.Format(snap.PriceChange.Old, currency),
			},
			New: PriceView{
				Amount:    snap.PriceChange.New,
				Currency:  currency,
				Formatted: money.Format(snap.PriceChange.New, currency),
			},
		}
	}

	switch snap.Step {
	case booking.StepAncillariesSelected, booking.StepPaymentPending, booking.StepConfirmed:
		total, currency := snap.TotalDue()
		resp.TotalDue = &PriceView{
			Amount:    total,
			Currency:  currency,
			Formatted: money.Format(total, currency),
		}
	}

	if snap.Ticket != nil {
		resp.Ticket = &TicketView{
			BookingReference: snap.Ticket.BookingReference,
			PNR:              snap.Ticket.PNR,
			TicketNumbers:    snap.Ticket.TicketNumbers,
			AmountCharged:    money.Format(snap.Ticket.AmountCharged, snap.Ticket.Currency),
		}
	}

	return resp
}
