package itinerary

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// NormalizationError means the root payload is not an object or array at
// all. Partially-bad payloads never produce it; bad entries are dropped.
type NormalizationError struct {
	Reason string
}

func (e NormalizationError) Error() string {
	return fmt.Sprintf("cannot normalize payload: %s", e.Reason)
}

// Supplier payloads are duck-typed: the same logical field shows up under
// different names and nesting depending on the upstream aggregator
// version. Each logical field resolves against an ordered alias list,
// first match wins, no match falls back to an explicit default. Keeping
// the aliases in one table makes every accepted spelling enumerable.
var itineraryAliases = map[string][]string{
	"resultIndex":     {"ResultIndex", "resultIndex", "result_index"},
	"publishedPrice":  {"Fare.PublishedFare", "Fare.PublishedPrice", "PublishedPrice", "published_price"},
	"offeredPrice":    {"Fare.OfferedFare", "Fare.OfferedPrice", "OfferedPrice", "offered_price"},
	"currency":        {"Fare.Currency", "Currency", "currency"},
	"refundable":      {"IsRefundable", "Refundable", "refundable"},
	"baggageIncluded": {"IsBaggageIncluded", "BaggageIncluded", "baggage_included"},
	"segments":        {"Segments", "segments"},
}

var segmentAliases = map[string][]string{
	"airlineCode":        {"Airline.AirlineCode", "AirlineCode", "airline_code", "carrierCode"},
	"airlineName":        {"Airline.AirlineName", "AirlineName", "airline_name"},
	"flightNumber":       {"Airline.FlightNumber", "FlightNumber", "flight_number"},
	"originAirport":      {"Origin.Airport.AirportCode", "Origin.AirportCode", "Origin", "origin"},
	"originCity":         {"Origin.Airport.CityName", "Origin.CityName", "origin_city"},
	"destinationAirport": {"Destination.Airport.AirportCode", "Destination.AirportCode", "Destination", "destination"},
	"destinationCity":    {"Destination.Airport.CityName", "Destination.CityName", "destination_city"},
	"departureTime":      {"Origin.DepTime", "DepTime", "DepartureTime", "departure_time"},
	"arrivalTime":        {"Destination.ArrTime", "ArrTime", "ArrivalTime", "arrival_time"},
	"duration":           {"Duration", "duration", "JourneyDuration"},
	"cabinClass":         {"CabinClass", "cabin_class", "Cabin"},
}

var fareQuoteAliases = map[string][]string{
	"resultIndex": {"ResultIndex", "resultIndex", "result_index"},
	"totalFare":   {"Response.Price", "Price", "Fare.OfferedFare", "Fare.OfferedPrice", "OfferedPrice", "TotalFare"},
	"currency":    {"Currency", "Fare.Currency", "currency"},
	"refundable":  {"IsRefundable", "Refundable", "refundable"},
}

// Normalize maps a raw search payload into canonical itineraries. The
// payload may be a flat array of results, an array of arrays with one
// inner array per leg, or an object wrapping the results under
// results/Results/Response.Results. Entries missing a result index or
// holding no parseable segment are dropped, not reported.
func Normalize(raw json.RawMessage) ([]Itinerary, error) {
	entries, err := resultEntries(raw)
	if err != nil {
		return nil, err
	}

	itins := make([]Itinerary, 0, len(entries))

	for _, entry := range entries {
		it, ok := normalizeEntry(entry)
		if !ok {
			continue
		}

		itins = append(itins, it)
	}

	return itins, nil
}

// NormalizeLegs maps a raw search payload into per-leg itinerary lists.
// Round-trip payloads arrive as an array of arrays with one inner array
// per leg, outbound first; anything else is a single leg.
func NormalizeLegs(raw json.RawMessage) ([][]Itinerary, error) {
	groups, err := resultGroups(raw)
	if err != nil {
		return nil, err
	}

	legs := make([][]Itinerary, 0, len(groups))

	for _, group := range groups {
		itins := make([]Itinerary, 0, len(group))

		for _, entry := range group {
			it, ok := normalizeEntry(entry)
			if !ok {
				continue
			}

			itins = append(itins, it)
		}

		legs = append(legs, itins)
	}

	return legs, nil
}

// NormalizeFareQuote extracts the re-priced fare from a fare-quote payload.
func NormalizeFareQuote(raw json.RawMessage) (FareQuote, error) {
	root, err := rootObject(raw)
	if err != nil {
		return FareQuote{}, err
	}

	// some upstream versions nest the quoted result one level down
	if nested, ok := lookup(root, []string{"Response.Results", "Results", "results"}); ok {
		if obj, isObj := nested.(map[string]interface{}); isObj {
			root = obj
		}
	}

	quote := FareQuote{
		ResultIndex: stringField(root, fareQuoteAliases["resultIndex"], ""),
		TotalFare:   floatField(root, fareQuoteAliases["totalFare"], 0),
		Currency:    currencyField(root, fareQuoteAliases["currency"]),
		Refundable:  boolField(root, fareQuoteAliases["refundable"], false),
	}

	return quote, nil
}

// NormalizeFareRules extracts rule blocks from a fare-rule payload.
// Unparseable blocks are dropped.
func NormalizeFareRules(raw json.RawMessage) ([]FareRule, error) {
	entries, err := resultEntries(raw)
	if err != nil {
		return nil, err
	}

	rules := make([]FareRule, 0, len(entries))

	for _, entry := range entries {
		detail := stringField(entry, []string{"FareRuleDetail", "fare_rule_detail", "Detail", "detail"}, "")
		if detail == "" {
			continue
		}

		rules = append(rules, FareRule{
			Origin:      stringField(entry, []string{"Origin", "origin"}, ""),
			Destination: stringField(entry, []string{"Destination", "destination"}, ""),
			Airline:     stringField(entry, []string{"Airline", "airline"}, ""),
			Detail:      detail,
		})
	}

	return rules, nil
}

// NormalizeSSR extracts the ancillary catalog from an SSR payload.
func NormalizeSSR(raw json.RawMessage) (AncillaryOptions, error) {
	root, err := rootObject(raw)
	if err != nil {
		return AncillaryOptions{}, err
	}

	opts := AncillaryOptions{
		Baggage: ancillaryItems(root, []string{"Baggage", "baggage"}),
		Meals:   ancillaryItems(root, []string{"MealDynamic", "Meal", "meals"}),
	}

	return opts, nil
}

func ancillaryItems(root map[string]interface{}, aliases []string) []AncillaryItem {
	val, ok := lookup(root, aliases)
	if !ok {
		return nil
	}

	entries := flattenEntries(val)
	items := make([]AncillaryItem, 0, len(entries))

	for _, entry := range entries {
		code := stringField(entry, []string{"Code", "code"}, "")
		if code == "" {
			continue
		}

		items = append(items, AncillaryItem{
			Code:        code,
			Description: stringField(entry, []string{"Description", "Text", "description"}, ""),
			Price:       floatField(entry, []string{"Price", "price", "Amount"}, 0),
			Currency:    currencyField(entry, []string{"Currency", "currency"}),
		})
	}

	return items
}

// resultEntries peels the payload down to a flat list of entry objects,
// whatever wrapping shape the upstream chose.
func resultEntries(raw json.RawMessage) ([]map[string]interface{}, error) {
	groups, err := resultGroups(raw)
	if err != nil {
		return nil, err
	}

	var entries []map[string]interface{}
	for _, group := range groups {
		entries = append(entries, group...)
	}

	return entries, nil
}

// resultGroups locates the results list and keeps the inner-array
// grouping intact so each leg of a multi-leg payload stays separate.
func resultGroups(raw json.RawMessage) ([][]map[string]interface{}, error) {
	var root interface{}
	if err := json.Unmarshal(raw, &root); err != nil {
		return nil, NormalizationError{Reason: "payload is not valid JSON"}
	}

	var val interface{}

	switch typed := root.(type) {
	case []interface{}:
		val = typed
	case map[string]interface{}:
		results, ok := lookup(typed, []string{"Response.Results", "Results", "results"})
		if !ok {
			// an object without a results list is an empty search, not an error
			return nil, nil
		}

		val = results
	default:
		return nil, NormalizationError{Reason: "root payload is neither object nor array"}
	}

	list, ok := val.([]interface{})
	if !ok {
		return nil, nil
	}

	if len(list) > 0 {
		if _, nested := list[0].([]interface{}); nested {
			groups := make([][]map[string]interface{}, 0, len(list))

			for _, item := range list {
				inner, isList := item.([]interface{})
				if !isList {
					continue
				}

				group := make([]map[string]interface{}, 0, len(inner))
				for _, entry := range inner {
					if obj, isObj := entry.(map[string]interface{}); isObj {
						group = append(group, obj)
					}
				}

				groups = append(groups, group)
			}

			return groups, nil
		}
	}

	return [][]map[string]interface{}{flattenEntries(list)}, nil
}

func rootObject(raw json.RawMessage) (map[string]interface{}, error) {
	var root interface{}
	if err := json.Unmarshal(raw, &root); err != nil {
		return nil, NormalizationError{Reason: "payload is not valid JSON"}
	}

	obj, ok := root.(map[string]interface{})
	if !ok {
		return nil, NormalizationError{Reason: "root payload is not an object"}
	}

	return obj, nil
}

// flattenEntries flattens one level of array-of-arrays while preserving
// leg order, and drops anything that is not an object.
func flattenEntries(val interface{}) []map[string]interface{} {
	list, ok := val.([]interface{})
	if !ok {
		return nil
	}

	var entries []map[string]interface{}

	for _, item := range list {
		switch typed := item.(type) {
		case map[string]interface{}:
			entries = append(entries, typed)
		case []interface{}:
			for _, inner := range typed {
				if obj, isObj := inner.(map[string]interface{}); isObj {
					entries = append(entries, obj)
				}
			}
		}
	}

	return entries
}

func normalizeEntry(entry map[string]interface{}) (Itinerary, bool) {
	resultIndex := stringField(entry, itineraryAliases["resultIndex"], "")
	if resultIndex == "" {
		return Itinerary{}, false
	}

	segVal, ok := lookup(entry, itineraryAliases["segments"])
	if !ok {
		return Itinerary{}, false
	}

	segments := normalizeSegments(segVal)
	if len(segments) == 0 {
		return Itinerary{}, false
	}

	sort.SliceStable(segments, func(i, j int) bool {
		return segments[i].DepartureTime.Before(segments[j].DepartureTime)
	})

	segmentMinutes := 0
	for _, seg := range segments {
		segmentMinutes += seg.DurationMinutes
	}

	totalMinutes := segmentMinutes
	if len(segments) > 1 {
		// layovers make the wall-clock span the authoritative total
		span := int(segments[len(segments)-1].ArrivalTime.Sub(segments[0].DepartureTime).Minutes())
		if span > totalMinutes {
			totalMinutes = span
		}
	}

	audit, err := json.Marshal(entry)
	if err != nil {
		audit = nil
	}

	return Itinerary{
		ResultIndex:          resultIndex,
		Segments:             segments,
		TotalDurationMinutes: totalMinutes,
		Stops:                len(segments) - 1,
		Fare: Fare{
			PublishedPrice:  floatField(entry, itineraryAliases["publishedPrice"], 0),
			OfferedPrice:    floatField(entry, itineraryAliases["offeredPrice"], 0),
			Currency:        currencyField(entry, itineraryAliases["currency"]),
			Refundable:      boolField(entry, itineraryAliases["refundable"], false),
			BaggageIncluded: boolField(entry, itineraryAliases["baggageIncluded"], false),
		},
		Raw: audit,
	}, true
}

func normalizeSegments(val interface{}) []Segment {
	entries := flattenEntries(val)
	segments := make([]Segment, 0, len(entries))

	for _, entry := range entries {
		depTime, depOK := timeField(entry, segmentAliases["departureTime"])
		arrTime, arrOK := timeField(entry, segmentAliases["arrivalTime"])

		if !depOK || !arrOK {
			continue
		}

		duration := int(floatField(entry, segmentAliases["duration"], 0))
		if duration < 0 {
			duration = 0
		}

		segments = append(segments, Segment{
			AirlineCode:        stringField(entry, segmentAliases["airlineCode"], ""),
			AirlineName:        stringField(entry, segmentAliases["airlineName"], ""),
			FlightNumber:       stringField(entry, segmentAliases["flightNumber"], ""),
			OriginAirport:      stringField(entry, segmentAliases["originAirport"], ""),
			OriginCity:         stringField(entry, segmentAliases["originCity"], ""),
			DestinationAirport: stringField(entry, segmentAliases["destinationAirport"], ""),
			DestinationCity:    stringField(entry, segmentAliases["destinationCity"], ""),
			DepartureTime:      depTime,
			ArrivalTime:        arrTime,
			DurationMinutes:    duration,
			CabinClass:         stringField(entry, segmentAliases["cabinClass"], "economy"),
		})
	}

	return segments
}

// lookup resolves an ordered alias list against an entry. Aliases may be
// dotted paths into nested objects.
func lookup(entry map[string]interface{}, aliases []string) (interface{}, bool) {
	for _, alias := range aliases {
		current := interface{}(entry)
		found := true

		for _, part := range strings.Split(alias, ".") {
			obj, ok := current.(map[string]interface{})
			if !ok {
				found = false

				break
			}

			current, ok = obj[part]
			if !ok {
				found = false

				break
			}
		}

		if found {
			return current, true
		}
	}

	return nil, false
}

func stringField(entry map[string]interface{}, aliases []string, def string) string {
	val, ok := lookup(entry, aliases)
	if !ok {
		return def
	}

	switch typed := val.(type) {
	case string:
		return typed
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	default:
		return def
	}
}

func floatField(entry map[string]interface{}, aliases []string, def float64) float64 {
	val, ok := lookup(entry, aliases)
	if !ok {
		return def
	}

	switch typed := val.(type) {
	case float64:
		return typed
	case string:
		parsed, err := strconv.ParseFloat(typed, 64)
		if err != nil {
			return def
		}

		return parsed
	default:
		return def
	}
}

func boolField(entry map[string]interface{}, aliases []string, def bool) bool {
	val, ok := lookup(entry, aliases)
	if !ok {
		return def
	}

	switch typed := val.(type) {
	case bool:
		return typed
	case string:
		return strings.EqualFold(typed, "true")
	default:
		return def
	}
}

// currencyField enforces the 3-letter currency invariant, falling back to
// the default settlement currency when the upstream value is unusable.
func currencyField(entry map[string]interface{}, aliases []string) string {
	const defaultCurrency = "INR"

	val := stringField(entry, aliases, defaultCurrency)
	val = strings.ToUpper(strings.TrimSpace(val))

	if len(val) != 3 {
		return defaultCurrency
	}

	return val
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05-0700",
}

func timeField(entry map[string]interface{}, aliases []string) (time.Time, bool) {
	raw := stringField(entry, aliases, "")
	if raw == "" {
		return time.Time{}, false
	}

	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, true
		}
	}

	return time.Time{}, false
}
