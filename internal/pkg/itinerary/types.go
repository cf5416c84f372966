package itinerary

import (
	"encoding/json"
	"time"
)

// TripType values accepted by the search API.
const (
	TripOneWay    = "one_way"
	TripRoundTrip = "round_trip"
	TripMultiCity = "multi_city"
)

// SearchCriteria is the canonical search input shared by the booking
// session and the supplier client.
type SearchCriteria struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	DepartDate  string `json:"depart_date"`
	ReturnDate  string `json:"return_date,omitempty"`
	TripType    string `json:"trip_type"`
	Adults      int    `json:"adults"`
	Children    int    `json:"children"`
	Infants     int    `json:"infants"`
	CabinClass  string `json:"cabin_class"`
	FareType    string `json:"fare_type,omitempty"`
}

// Segment is one flight leg, a single aircraft boarding.
type Segment struct {
	AirlineCode        string    `json:"airline_code"`
	AirlineName        string    `json:"airline_name"`
	FlightNumber       string    `json:"flight_number"`
	OriginAirport      string    `json:"origin_airport"`
	OriginCity         string    `json:"origin_city"`
	DestinationAirport string    `json:"destination_airport"`
	DestinationCity    string    `json:"destination_city"`
	DepartureTime      time.Time `json:"departure_time"`
	ArrivalTime        time.Time `json:"arrival_time"`
	DurationMinutes    int       `json:"duration_minutes"`
	CabinClass         string    `json:"cabin_class"`
}

// Fare is the priced summary attached to an itinerary.
type Fare struct {
	PublishedPrice  float64 `json:"published_price"`
	OfferedPrice    float64 `json:"offered_price"`
	Currency        string  `json:"currency"`
	Refundable      bool    `json:"refundable"`
	BaggageIncluded bool    `json:"baggage_included"`
}

// Itinerary is one canonical, priced flight option. ResultIndex is the
// supplier-issued identity within a trace; Raw keeps the upstream entry
// for audit and must survive persistence.
type Itinerary struct {
	ResultIndex          string          `json:"result_index"`
	Segments             []Segment       `json:"segments"`
	TotalDurationMinutes int             `json:"total_duration_minutes"`
	Stops                int             `json:"stops"`
	Fare                 Fare            `json:"fare"`
	Raw                  json.RawMessage `json:"raw,omitempty"`
}

// FareQuote is the re-priced fare for a previously searched itinerary.
// The quoted total may differ from the search-time offered price.
type FareQuote struct {
	ResultIndex string  `json:"result_index"`
	TotalFare   float64 `json:"total_fare"`
	Currency    string  `json:"currency"`
	Refundable  bool    `json:"refundable"`
}

// FareRule is one rule block returned by the fare-rule lookup.
type FareRule struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	Airline     string `json:"airline"`
	Detail      string `json:"detail"`
}

// AncillaryItem is one purchasable extra (a bag or a meal).
type AncillaryItem struct {
	Code        string  `json:"code"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Currency    string  `json:"currency"`
}

// AncillaryOptions holds the SSR catalog for a selected itinerary.
type AncillaryOptions struct {
	Baggage []AncillaryItem `json:"baggage"`
	Meals   []AncillaryItem `json:"meals"`
}

// FindByResultIndex returns the itinerary with the given result index,
// or false when it is not a member of the slice.
func FindByResultIndex(itins []Itinerary, resultIndex string) (Itinerary, bool) {
	for _, it := range itins {
		if it.ResultIndex == resultIndex {
			return it, true
		}
	}

	return Itinerary{}, false
}
