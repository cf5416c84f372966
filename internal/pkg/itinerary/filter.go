package itinerary

import (
	"time"
)

// Stop-count buckets offered by the results view.
const (
	StopsAll     = "all"
	StopsNonstop = "nonstop"
	StopsOneStop = "one_stop"
)

// FilterOption holds the user-selected view criteria. All predicates are
// independent and conjunctive; the zero value filters nothing.
type FilterOption struct {
	Stops           string   `json:"stops,omitempty"`
	Airlines        []string `json:"airlines,omitempty"`
	DepartureAfter  string   `json:"departure_after,omitempty"`
	DepartureBefore string   `json:"departure_before,omitempty"`
	RefundableOnly  bool     `json:"refundable_only,omitempty"`
	BaggageOnly     bool     `json:"baggage_only,omitempty"`
}

// Filter derives a filtered view of the itineraries. The input slice is
// never mutated; the session's results stay authoritative.
func Filter(itins []Itinerary, opts FilterOption) []Itinerary {
	results := make([]Itinerary, 0, len(itins))

	for _, it := range itins {
		if !matchStops(it, opts.Stops) {
			continue
		}

		if !matchAirlines(it, opts.Airlines) {
			continue
		}

		if opts.RefundableOnly && !it.Fare.Refundable {
			continue
		}

		if opts.BaggageOnly && !it.Fare.BaggageIncluded {
			continue
		}

		if !matchDepartureWindow(it, opts.DepartureAfter, opts.DepartureBefore) {
			continue
		}

		results = append(results, it)
	}

	return results
}

func matchStops(it Itinerary, bucket string) bool {
	switch bucket {
	case StopsNonstop:
		return it.Stops == 0
	case StopsOneStop:
		return it.Stops <= 1
	default:
		return true
	}
}

// matchAirlines checks the marketing carrier of any segment against the
// allow-list; an empty list allows all airlines.
func matchAirlines(it Itinerary, airlines []string) bool {
	if len(airlines) == 0 {
		return true
	}

	for _, seg := range it.Segments {
		for _, code := range airlines {
			if seg.AirlineCode == code {
				return true
			}
		}
	}

	return false
}

// matchDepartureWindow checks the first segment's local departure clock
// time against an "15:04" window. An unparseable bound disables the bound
// rather than hiding every result.
func matchDepartureWindow(it Itinerary, after, before string) bool {
	if after == "" && before == "" {
		return true
	}

	if len(it.Segments) == 0 {
		return false
	}

	departure := it.Segments[0].DepartureTime
	minutes := departure.Hour()*60 + departure.Minute()

	if after != "" {
		if bound, ok := parseClock(after); ok && minutes < bound {
			return false
		}
	}

	if before != "" {
		if bound, ok := parseClock(before); ok && minutes > bound {
			return false
		}
	}

	return true
}

func parseClock(value string) (int, bool) {
	parsed, err := time.Parse("15:04", value)
	if err != nil {
		return 0, false
	}

	return parsed.Hour()*60 + parsed.Minute(), true
}
