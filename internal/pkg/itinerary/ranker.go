package itinerary

import (
	"math"
)

// weighted scoring using min-max normalization
// ref: https://www.1000minds.com/decision-making/what-is-mcdm-mcda

// weights for each criteria
const (
	weightPrice    = 0.6
	weightDuration = 0.25
	weightStops    = 0.15
)

// scoreItineraries computes a best-value score per result index.
// 0 indicates the best option and 1 the worst.
func scoreItineraries(itins []Itinerary) map[string]float64 {
	priceMin, priceMax := priceRange(itins)
	durationMin, durationMax := durationRange(itins)
	stopsMin, stopsMax := stopsRange(itins)

	scores := make(map[string]float64, len(itins))

	for _, it := range itins {
		priceScore := normalizeValue(it.Fare.OfferedPrice, priceMin, priceMax)
		durationScore := normalizeValue(float64(it.TotalDurationMinutes),
			float64(durationMin), float64(durationMax))
		stopsScore := normalizeValue(float64(it.Stops),
			float64(stopsMin), float64(stopsMax))

		scores[it.ResultIndex] = weightPrice*priceScore +
			weightDuration*durationScore +
			weightStops*stopsScore
	}

	return scores
}

func priceRange(itins []Itinerary) (float64, float64) {
	if len(itins) == 0 {
		return 0, 0
	}

	minPrice := math.MaxFloat64
	maxPrice := -math.MaxFloat64

	for _, it := range itins {
		if it.Fare.OfferedPrice < minPrice {
			minPrice = it.Fare.OfferedPrice
		}

		if it.Fare.OfferedPrice > maxPrice {
			maxPrice = it.Fare.OfferedPrice
		}
	}

	return minPrice, maxPrice
}

func durationRange(itins []Itinerary) (int, int) {
	if len(itins) == 0 {
		return 0, 0
	}

	minDuration := math.MaxInt
	maxDuration := -math.MaxInt

	for _, it := range itins {
		if it.TotalDurationMinutes < minDuration {
			minDuration = it.TotalDurationMinutes
		}

		if it.TotalDurationMinutes > maxDuration {
			maxDuration = it.TotalDurationMinutes
		}
	}

	return minDuration, maxDuration
}

func stopsRange(itins []Itinerary) (int, int) {
	if len(itins) == 0 {
		return 0, 0
	}

	minStops := math.MaxInt
	maxStops := -math.MaxInt

	for _, it := range itins {
		if it.Stops < minStops {
			minStops = it.Stops
		}

		if it.Stops > maxStops {
			maxStops = it.Stops
		}
	}

	return minStops, maxStops
}

func normalizeValue(value float64, min float64, max float64) float64 {
	if max == min {
		return 0
	}

	return (value - min) / (max - min)
}
