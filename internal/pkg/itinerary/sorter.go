package itinerary

import (
	"sort"
	"time"
)

// SortOption selects the comparator for the results view.
type SortOption struct {
	Field string `json:"field"`
	Order string `json:"order"`
}

// Sort returns a sorted copy of the itineraries. The sort is stable so
// that ties keep their original relative order, and the input slice is
// left untouched.
func Sort(itins []Itinerary, opt SortOption) []Itinerary {
	sorted := make([]Itinerary, len(itins))
	copy(sorted, itins)

	descending := opt.Order == "desc"

	switch opt.Field {
	case "price":
		sort.SliceStable(sorted, func(i, j int) bool {
			if descending {
				return sorted[i].Fare.OfferedPrice > sorted[j].Fare.OfferedPrice
			}

			return sorted[i].Fare.OfferedPrice < sorted[j].Fare.OfferedPrice
		})
	case "duration":
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].TotalDurationMinutes < sorted[j].TotalDurationMinutes
		})
	case "departure_time":
		sort.SliceStable(sorted, func(i, j int) bool {
			return departureOf(sorted[i]).Before(departureOf(sorted[j]))
		})
	case "arrival_time":
		sort.SliceStable(sorted, func(i, j int) bool {
			return arrivalOf(sorted[i]).Before(arrivalOf(sorted[j]))
		})
	case "best":
		scores := scoreItineraries(sorted)
		sort.SliceStable(sorted, func(i, j int) bool {
			return scores[sorted[i].ResultIndex] < scores[sorted[j].ResultIndex]
		})
	}

	return sorted
}

func departureOf(it Itinerary) time.Time {
	if len(it.Segments) == 0 {
		return time.Time{}
	}

	return it.Segments[0].DepartureTime
}

func arrivalOf(it Itinerary) time.Time {
	if len(it.Segments) == 0 {
		return time.Time{}
	}

	return it.Segments[len(it.Segments)-1].ArrivalTime
}
