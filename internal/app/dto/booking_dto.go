package dto

import (
	"fmt"
	"net/http"

	"github.com/travelkita/flight-booking-service/internal/pkg/exception"
	"github.com/travelkita/flight-booking-service/internal/pkg/itinerary"
)

var AllowedSortField = map[string]bool{
	"price":          true,
	"duration":       true,
	"departure_time": true,
	"arrival_time":   true,
	"best":           true,
}

// SearchRequest starts a new search for a session. SessionID is optional;
// a missing id starts a fresh session.
type SearchRequest struct {
	SessionID   string `json:"session_id,omitempty"`
	Origin      string `json:"origin" validate:"required,len=3,alpha"`
	Destination string `json:"destination" validate:"required,len=3,alpha"`
	DepartDate  string `json:"depart_date" validate:"required,datetime=2006-01-02"`
	ReturnDate  string `json:"return_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	TripType    string `json:"trip_type" validate:"required,oneof=one_way round_trip multi_city"`
	Adults      int    `json:"adults" validate:"required,min=1,max=9"`
	Children    int    `json:"children" validate:"gte=0,max=9"`
	Infants     int    `json:"infants" validate:"gte=0,max=9"`
	CabinClass  string `json:"cabin_class" validate:"required,oneof=economy premium_economy business first"`
	FareType    string `json:"fare_type,omitempty"`
}

func (s *SearchRequest) Bind(r *http.Request) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("error validate request: %w", err)
	}

	return nil
}

func (s *SearchRequest) Validate() error {
	if err := ValidateSingleError(s); err != nil {
		return exception.ApplicationError{
			StatusCode: http.StatusBadRequest,
			Message:    err.Error(),
		}
	}

	if s.Origin == s.Destination {
		return exception.ApplicationError{
			StatusCode: http.StatusBadRequest,
			Message:    "origin and destination must differ",
		}
	}

	if s.Infants > s.Adults {
		return exception.ApplicationError{
			StatusCode: http.StatusBadRequest,
			Message:    "each infant must travel with an adult",
		}
	}

	if s.TripType == itinerary.TripRoundTrip && s.ReturnDate == "" {
		return exception.ApplicationError{
			StatusCode: http.StatusBadRequest,
			Message:    "return_date is required for a round trip",
		}
	}

	return nil
}

// Criteria maps the request onto the canonical search criteria.
func (s *SearchRequest) Criteria() itinerary.SearchCriteria {
	return itinerary.SearchCriteria{
		Origin:      s.Origin,
		Destination: s.Destination,
		DepartDate:  s.DepartDate,
		ReturnDate:  s.ReturnDate,
		TripType:    s.TripType,
		Adults:      s.Adults,
		Children:    s.Children,
		Infants:     s.Infants,
		CabinClass:  s.CabinClass,
		FareType:    s.FareType,
	}
}

// ViewRequest reads the session with an optional filtered, sorted view
// of the results. Filter and sort are browsing state only and are never
// persisted with the booking session.
type ViewRequest struct {
	SessionID string                  `json:"session_id" validate:"required"`
	Filter    *itinerary.FilterOption `json:"filter,omitempty"`
	Sort      *itinerary.SortOption   `json:"sort,omitempty"`
}

func (v *ViewRequest) Bind(r *http.Request) error {
	if err := ValidateSingleError(v); err != nil {
		return exception.ApplicationError{
			StatusCode: http.StatusBadRequest,
			Message:    err.Error(),
		}
	}

	if v.Sort != nil && !AllowedSortField[v.Sort.Field] {
		return exception.ApplicationError{
			StatusCode: http.StatusBadRequest,
			Message:    fmt.Sprintf("Invalid sort field %s", v.Sort.Field),
		}
	}

	return nil
}

// SelectRequest picks an itinerary out of the current results by its
// supplier-issued result index.
type SelectRequest struct {
	SessionID   string `json:"session_id" validate:"required"`
	ResultIndex string `json:"result_index" validate:"required"`
}

func (s *SelectRequest) Bind(r *http.Request) error {
	return bindValidated(s)
}

type PassengerInput struct {
	Title       string `json:"title" validate:"required,oneof=Mr Mrs Ms Mstr Miss"`
	FirstName   string `json:"first_name" validate:"required"`
	LastName    string `json:"last_name" validate:"required"`
	DateOfBirth string `json:"date_of_birth,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Type        string `json:"type" validate:"required,oneof=adult child infant"`
}

type PassengersRequest struct {
	SessionID  string           `json:"session_id" validate:"required"`
	Passengers []PassengerInput `json:"passengers" validate:"dive"`
}

func (p *PassengersRequest) Bind(r *http.Request) error {
	return bindValidated(p)
}

type ContactRequest struct {
	SessionID string `json:"session_id" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"required,min=8,max=16"`
}

func (c *ContactRequest) Bind(r *http.Request) error {
	return bindValidated(c)
}

type FareDetailsRequest struct {
	SessionID string `json:"session_id" validate:"required"`
}

func (f *FareDetailsRequest) Bind(r *http.Request) error {
	return bindValidated(f)
}

type AncillaryInput struct {
	PassengerIndex int    `json:"passenger_index" validate:"gte=0"`
	BaggageCode    string `json:"baggage_code,omitempty"`
	MealCode       string `json:"meal_code,omitempty"`
}

type AncillariesRequest struct {
	SessionID   string           `json:"session_id" validate:"required"`
	Ancillaries []AncillaryInput `json:"ancillaries" validate:"dive"`
}

func (a *AncillariesRequest) Bind(r *http.Request) error {
	return bindValidated(a)
}

type PaymentOrderRequest struct {
	SessionID string `json:"session_id" validate:"required"`
}

func (p *PaymentOrderRequest) Bind(r *http.Request) error {
	return bindValidated(p)
}

type PaymentConfirmRequest struct {
	SessionID string `json:"session_id" validate:"required"`
	OrderID   string `json:"order_id" validate:"required"`
	PaymentID string `json:"payment_id" validate:"required"`
}

func (p *PaymentConfirmRequest) Bind(r *http.Request) error {
	return bindValidated(p)
}

type ResetRequest struct {
	SessionID string `json:"session_id" validate:"required"`
}

func (r *ResetRequest) Bind(req *http.Request) error {
	return bindValidated(r)
}

func bindValidated(req interface{}) error {
	if err := ValidateSingleError(req); err != nil {
		return exception.ApplicationError{
			StatusCode: http.StatusBadRequest,
			Message:    err.Error(),
		}
	}

	return nil
}
