package endpoints

import (
	"context"
	"errors"

	"github.com/go-kit/kit/endpoint"

	"github.com/travelkita/flight-booking-service/internal/app/dto"
	"github.com/travelkita/flight-booking-service/internal/pkg/booking"
	"github.com/travelkita/flight-booking-service/internal/pkg/itinerary"
)

type BookingService interface {
	StartSearch(ctx context.Context, sessionID string, criteria itinerary.SearchCriteria) (dto.SessionResponse, error)
	GetSession(ctx context.Context, req dto.ViewRequest) (dto.SessionResponse, error)
	SelectOutbound(ctx context.Context, sessionID, resultIndex string) (dto.SessionResponse, error)
	SelectReturn(ctx context.Context, sessionID, resultIndex string) (dto.SessionResponse, error)
	SetPassengers(ctx context.Context, sessionID string, passengers []booking.Passenger) (dto.SessionResponse, error)
	SetContact(ctx context.Context, sessionID string, contact booking.Contact) (dto.SessionResponse, error)
	FetchFareDetails(ctx context.Context, sessionID string) (dto.SessionResponse, error)
	SelectAncillaries(ctx context.Context, sessionID string, selections []booking.AncillarySelection) (dto.SessionResponse, error)
	CreatePaymentOrder(ctx context.Context, sessionID string) (dto.SessionResponse, error)
	ConfirmPayment(ctx context.Context, sessionID, orderID, paymentID string) (dto.SessionResponse, error)
	Reset(ctx context.Context, sessionID string) (dto.SessionResponse, error)
}

type BookingEndpoint struct {
	Search         endpoint.Endpoint
	View           endpoint.Endpoint
	SelectOutbound endpoint.Endpoint
	SelectReturn   endpoint.Endpoint
	Passengers     endpoint.Endpoint
	Contact        endpoint.Endpoint
	FareDetails    endpoint.Endpoint
	Ancillaries    endpoint.Endpoint
	PaymentOrder   endpoint.Endpoint
	PaymentConfirm endpoint.Endpoint
	Reset          endpoint.Endpoint
}

func MakeBookingEndpoint(service BookingService) BookingEndpoint {
	return BookingEndpoint{
		Search:         makeSearchEndpoint(service),
		View:           makeViewEndpoint(service),
		SelectOutbound: makeSelectOutboundEndpoint(service),
		SelectReturn:   makeSelectReturnEndpoint(service),
		Passengers:     makePassengersEndpoint(service),
		Contact:        makeContactEndpoint(service),
		FareDetails:    makeFareDetailsEndpoint(service),
		Ancillaries:    makeAncillariesEndpoint(service),
		PaymentOrder:   makePaymentOrderEndpoint(service),
		PaymentConfirm: makePaymentConfirmEndpoint(service),
		Reset:          makeResetEndpoint(service),
	}
}

var errInvalidRequestType = errors.New("invalid request type")

func makeSearchEndpoint(service BookingService) endpoint.Endpoint {
	return func(ctx context.Context, req interface{}) (interface{}, error) {
		request, ok := req.(*dto.SearchRequest)
		if !ok || request == nil {
			return nil, errInvalidRequestType
		}

		return service.StartSearch(ctx, request.SessionID, request.Criteria())
	}
}

func makeViewEndpoint(service BookingService) endpoint.Endpoint {
	return func(ctx context.Context, req interface{}) (interface{}, error) {
		request, ok := req.(*dto.ViewRequest)
		if !ok || request == nil {
			return nil, errInvalidRequestType
		}

		return service.GetSession(ctx, *request)
	}
}

func makeSelectOutboundEndpoint(service BookingService) endpoint.Endpoint {
	return func(ctx context.Context, req interface{}) (interface{}, error) {
		request, ok := req.(*dto.SelectRequest)
		if !ok || request == nil {
			return nil, errInvalidRequestType
		}

		return service.SelectOutbound(ctx, request.SessionID, request.ResultIndex)
	}
}

func makeSelectReturnEndpoint(service BookingService) endpoint.Endpoint {
	return func(ctx context.Context, req interface{}) (interface{}, error) {
		request, ok := req.(*dto.SelectRequest)
		if !ok || request == nil {
			return nil, errInvalidRequestType
		}

		return service.SelectReturn(ctx, request.SessionID, request.ResultIndex)
	}
}

func makePassengersEndpoint(service BookingService) endpoint.Endpoint {
	return func(ctx context.Context, req interface{}) (interface{}, error) {
		request, ok := req.(*dto.PassengersRequest)
		if !ok || request == nil {
			return nil, errInvalidRequestType
		}

		passengers := make([]booking.Passenger, 0, len(request.Passengers))
		for _, pax := range request.Passengers {
			passengers = append(passengers, booking.Passenger{
				Title:       pax.Title,
				FirstName:   pax.FirstName,
				LastName:    pax.LastName,
				DateOfBirth: pax.DateOfBirth,
				Type:        pax.Type,
			})
		}

		return service.SetPassengers(ctx, request.SessionID, passengers)
	}
}

func makeContactEndpoint(service BookingService) endpoint.Endpoint {
	return func(ctx context.Context, req interface{}) (interface{}, error) {
		request, ok := req.(*dto.ContactRequest)
		if !ok || request == nil {
			return nil, errInvalidRequestType
		}

		return service.SetContact(ctx, request.SessionID, booking.Contact{
			Email: request.Email,
			Phone: request.Phone,
		})
	}
}

func makeFareDetailsEndpoint(service BookingService) endpoint.Endpoint {
	return func(ctx context.Context, req interface{}) (interface{}, error) {
		request, ok := req.(*dto.FareDetailsRequest)
		if !ok || request == nil {
			return nil, errInvalidRequestType
		}

		return service.FetchFareDetails(ctx, request.SessionID)
	}
}

func makeAncillariesEndpoint(service BookingService) endpoint.Endpoint {
	return func(ctx context.Context, req interface{}) (interface{}, error) {
		request, ok := req.(*dto.AncillariesRequest)
		if !ok || request == nil {
			return nil, errInvalidRequestType
		}

		selections := make([]booking.AncillarySelection, 0, len(request.Ancillaries))
		for _, sel := range request.Ancillaries {
			selections = append(selections, booking.AncillarySelection{
				PassengerIndex: sel.PassengerIndex,
				BaggageCode:    sel.BaggageCode,
				MealCode:       sel.MealCode,
			})
		}

		return service.SelectAncillaries(ctx, request.SessionID, selections)
	}
}

func makePaymentOrderEndpoint(service BookingService) endpoint.Endpoint {
	return func(ctx context.Context, req interface{}) (interface{}, error) {
		request, ok := req.(*dto.PaymentOrderRequest)
		if !ok || request == nil {
			return nil, errInvalidRequestType
		}

		return service.CreatePaymentOrder(ctx, request.SessionID)
	}
}

func makePaymentConfirmEndpoint(service BookingService) endpoint.Endpoint {
	return func(ctx context.Context, req interface{}) (interface{}, error) {
		request, ok := req.(*dto.PaymentConfirmRequest)
		if !ok || request == nil {
			return nil, errInvalidRequestType
		}

		return service.ConfirmPayment(ctx, request.SessionID, request.OrderID, request.PaymentID)
	}
}

func makeResetEndpoint(service BookingService) endpoint.Endpoint {
	return func(ctx context.Context, req interface{}) (interface{}, error) {
		request, ok := req.(*dto.ResetRequest)
		if !ok || request == nil {
			return nil, errInvalidRequestType
		}

		return service.Reset(ctx, request.SessionID)
	}
}
