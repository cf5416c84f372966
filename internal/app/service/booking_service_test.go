//go:build unit

package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/travelkita/flight-booking-service/internal/app/dto"
	"github.com/travelkita/flight-booking-service/internal/pkg/booking"
	"github.com/travelkita/flight-booking-service/internal/pkg/itinerary"
	"github.com/travelkita/flight-booking-service/internal/pkg/payment"
	"github.com/travelkita/flight-booking-service/internal/pkg/session"
	"github.com/travelkita/flight-booking-service/internal/pkg/supplier"
)

type MockSupplierClient struct {
	mock.Mock
}

func NewMockSupplierClient(t *testing.T) *MockSupplierClient {
	m := &MockSupplierClient{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *MockSupplierClient) Search(ctx context.Context, criteria itinerary.SearchCriteria) (supplier.SearchResult, error) {
	args := m.Called(ctx, criteria)

	return args.Get(0).(supplier.SearchResult), args.Error(1)
}

func (m *MockSupplierClient) FareQuote(ctx context.Context, traceID, resultIndex string) (json.RawMessage, error) {
	args := m.Called(ctx, traceID, resultIndex)

	return args.Get(0).(json.RawMessage), args.Error(1)
}

func (m *MockSupplierClient) FareRule(ctx context.Context, traceID, resultIndex string) (json.RawMessage, error) {
	args := m.Called(ctx, traceID, resultIndex)

	return args.Get(0).(json.RawMessage), args.Error(1)
}

func (m *MockSupplierClient) SSR(ctx context.Context, traceID, resultIndex string) (json.RawMessage, error) {
	args := m.Called(ctx, traceID, resultIndex)

	return args.Get(0).(json.RawMessage), args.Error(1)
}

type MockPaymentClient struct {
	mock.Mock
}

func NewMockPaymentClient(t *testing.T) *MockPaymentClient {
	m := &MockPaymentClient{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *MockPaymentClient) CreateOrder(ctx context.Context, amount float64, currency string) (payment.Order, error) {
	args := m.Called(ctx, amount, currency)

	return args.Get(0).(payment.Order), args.Error(1)
}

func (m *MockPaymentClient) VerifyPayment(ctx context.Context, orderID, paymentID string) (payment.Receipt, error) {
	args := m.Called(ctx, orderID, paymentID)

	return args.Get(0).(payment.Receipt), args.Error(1)
}

type MockSessionStore struct {
	mock.Mock
}

func NewMockSessionStore(t *testing.T) *MockSessionStore {
	m := &MockSessionStore{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *MockSessionStore) Save(ctx context.Context, sessionID string, snapshot booking.Snapshot) error {
	args := m.Called(ctx, sessionID, snapshot)

	return args.Error(0)
}

func (m *MockSessionStore) Load(ctx context.Context, sessionID string) (booking.Snapshot, error) {
	args := m.Called(ctx, sessionID)

	return args.Get(0).(booking.Snapshot), args.Error(1)
}

func (m *MockSessionStore) Delete(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)

	return args.Error(0)
}

func oneWayCriteria() itinerary.SearchCriteria {
	return itinerary.SearchCriteria{
		Origin:      "DEL",
		Destination: "BOM",
		DepartDate:  "2025-11-20",
		TripType:    itinerary.TripOneWay,
		Adults:      1,
		CabinClass:  "economy",
	}
}

func searchPayload() json.RawMessage {
	return json.RawMessage(`{
		"traceId": "trace-1",
		"Results": [
			{
				"ResultIndex": "OB1",
				"Fare": {"OfferedFare": 5000, "Currency": "INR"},
				"Segments": [[{
					"Airline": {"AirlineCode": "AI", "AirlineName": "Air India", "FlightNumber": "864"},
					"Origin": {"Airport": {"AirportCode": "DEL"}, "DepTime": "2025-11-20T06:00:00"},
					"Destination": {"Airport": {"AirportCode": "BOM"}, "ArrTime": "2025-11-20T08:15:00"},
					"Duration": 135
				}]]
			}
		]
	}`)
}

func TestBookingService_StartSearch(t *testing.T) {
	t.Run("fresh_session_reaches_results_ready", func(t *testing.T) {
		supplierMock := NewMockSupplierClient(t)
		store := NewMockSessionStore(t)

		store.On("Load", mock.Anything, "s-1").Return(booking.Snapshot{}, session.ErrNotFound).Once()

		store.On("Save", mock.Anything, "s-1", mock.MatchedBy(func(snap booking.Snapshot) bool {
			return snap.Step == booking.StepSearching && snap.Generation == 1
		})).Return(nil).Once()

		supplierMock.On("Search", mock.Anything, oneWayCriteria()).
			Return(supplier.SearchResult{TraceID: "trace-1", Payload: searchPayload()}, nil)

		criteria := oneWayCriteria()
		store.On("Load", mock.Anything, "s-1").Return(booking.Snapshot{
			Step:            booking.StepSearching,
			Generation:      1,
			PendingCriteria: &criteria,
		}, nil).Once()

		store.On("Save", mock.Anything, "s-1", mock.MatchedBy(func(snap booking.Snapshot) bool {
			return snap.Step == booking.StepResultsReady &&
				snap.Session != nil &&
				snap.Session.TraceID == "trace-1" &&
				len(snap.Session.Outbound) == 1
		})).Return(nil).Once()

		svc := NewBookingService(supplierMock, NewMockPaymentClient(t), store)

		got, err := svc.StartSearch(context.Background(), "s-1", oneWayCriteria())

		assert.NoError(t, err)
		assert.Equal(t, string(booking.StepResultsReady), got.Step)
		assert.Equal(t, "trace-1", got.TraceID)
		assert.Len(t, got.Outbound, 1)
		assert.Equal(t, "OB1", got.Outbound[0].ResultIndex)
	})

	t.Run("supplier_failure_keeps_prior_results", func(t *testing.T) {
		supplierMock := NewMockSupplierClient(t)
		store := NewMockSessionStore(t)

		prior := booking.Snapshot{
			Step:       booking.StepResultsReady,
			Generation: 1,
			Session: &booking.SearchSession{
				TraceID:  "trace-old",
				Criteria: oneWayCriteria(),
				Outbound: []itinerary.Itinerary{{ResultIndex: "OLD1"}},
			},
		}

		store.On("Load", mock.Anything, "s-1").Return(prior, nil).Once()

		store.On("Save", mock.Anything, "s-1", mock.MatchedBy(func(snap booking.Snapshot) bool {
			return snap.Step == booking.StepSearching
		})).Return(nil).Once()

		upstreamErr := supplier.SearchFailedError{Reason: "gateway timeout", HTTPStatus: 504}
		supplierMock.On("Search", mock.Anything, oneWayCriteria()).
			Return(supplier.SearchResult{}, upstreamErr)

		searching, _ := prior.BeginSearch(oneWayCriteria())
		store.On("Load", mock.Anything, "s-1").Return(searching, nil).Once()

		// failure is recorded but the stale session survives for fallback
		store.On("Save", mock.Anything, "s-1", mock.MatchedBy(func(snap booking.Snapshot) bool {
			return snap.Step == booking.StepErrored &&
				snap.Session != nil &&
				snap.Session.TraceID == "trace-old"
		})).Return(nil).Once()

		svc := NewBookingService(supplierMock, NewMockPaymentClient(t), store)

		_, err := svc.StartSearch(context.Background(), "s-1", oneWayCriteria())

		var failed supplier.SearchFailedError
		assert.True(t, errors.As(err, &failed))
	})

	t.Run("superseded_response_is_discarded", func(t *testing.T) {
		supplierMock := NewMockSupplierClient(t)
		store := NewMockSessionStore(t)

		store.On("Load", mock.Anything, "s-1").Return(booking.Snapshot{}, session.ErrNotFound).Once()

		store.On("Save", mock.Anything, "s-1", mock.MatchedBy(func(snap booking.Snapshot) bool {
			return snap.Step == booking.StepSearching && snap.Generation == 1
		})).Return(nil).Once()

		supplierMock.On("Search", mock.Anything, oneWayCriteria()).
			Return(supplier.SearchResult{TraceID: "trace-1", Payload: searchPayload()}, nil)

		// by the time the response lands, a newer search owns the session
		store.On("Load", mock.Anything, "s-1").Return(booking.Snapshot{
			Step:       booking.StepSearching,
			Generation: 2,
		}, nil).Once()

		svc := NewBookingService(supplierMock, NewMockPaymentClient(t), store)

		got, err := svc.StartSearch(context.Background(), "s-1", oneWayCriteria())

		assert.NoError(t, err)
		assert.Equal(t, string(booking.StepSearching), got.Step)
		store.AssertNumberOfCalls(t, "Save", 1)
	})

	t.Run("busy_session_is_rejected", func(t *testing.T) {
		svc := NewBookingService(NewMockSupplierClient(t), NewMockPaymentClient(t), NewMockSessionStore(t))

		assert.NoError(t, svc.acquire("s-1"))

		_, err := svc.StartSearch(context.Background(), "s-1", oneWayCriteria())

		var busy booking.OperationInProgressError
		assert.True(t, errors.As(err, &busy))
	})
}

func TestBookingService_GetSession_DoesNotPersistBrowsing(t *testing.T) {
	store := NewMockSessionStore(t)

	snap := booking.Snapshot{
		Step:       booking.StepResultsReady,
		Generation: 1,
		Session: &booking.SearchSession{
			TraceID:  "trace-1",
			Criteria: oneWayCriteria(),
			Outbound: []itinerary.Itinerary{
				{ResultIndex: "OB1", Fare: itinerary.Fare{OfferedPrice: 5000, Currency: "INR"}},
				{ResultIndex: "OB2", Stops: 1, Fare: itinerary.Fare{OfferedPrice: 4200, Currency: "INR"}},
			},
		},
	}

	store.On("Load", mock.Anything, "s-1").Return(snap, nil)

	svc := NewBookingService(NewMockSupplierClient(t), NewMockPaymentClient(t), store)

	got, err := svc.GetSession(context.Background(), dto.ViewRequest{
		SessionID: "s-1",
		Filter:    &itinerary.FilterOption{Stops: itinerary.StopsNonstop},
	})

	assert.NoError(t, err)
	assert.Len(t, got.Outbound, 1)
	assert.Equal(t, "OB1", got.Outbound[0].ResultIndex)
	store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
}

func detailsSnapshot() booking.Snapshot {
	outbound := itinerary.Itinerary{
		ResultIndex: "OB1",
		Fare:        itinerary.Fare{OfferedPrice: 5000, Currency: "INR"},
	}

	return booking.Snapshot{
		Step:       booking.StepDetailsEntered,
		Generation: 1,
		Session: &booking.SearchSession{
			TraceID:  "trace-1",
			Criteria: oneWayCriteria(),
			Outbound: []itinerary.Itinerary{outbound},
		},
		Selection: booking.Selection{
			Outbound:   &outbound,
			Passengers: []booking.Passenger{{Title: "Mr", FirstName: "Asha", LastName: "Rao", Type: booking.PaxAdult}},
			Contact:    &booking.Contact{Email: "asha@example.com", Phone: "+919900112233"},
		},
	}
}

func TestBookingService_FetchFareDetails(t *testing.T) {
	supplierMock := NewMockSupplierClient(t)
	store := NewMockSessionStore(t)

	store.On("Load", mock.Anything, "s-1").Return(detailsSnapshot(), nil)

	supplierMock.On("FareQuote", mock.Anything, "trace-1", "OB1").
		Return(json.RawMessage(`{"Response": {"Results": {"ResultIndex": "OB1", "Price": 5200, "Currency": "INR"}}}`), nil)
	supplierMock.On("FareRule", mock.Anything, "trace-1", "OB1").
		Return(json.RawMessage(`{"Results": [{"Origin": "DEL", "Destination": "BOM", "FareRuleDetail": "non-changeable"}]}`), nil)
	supplierMock.On("SSR", mock.Anything, "trace-1", "OB1").
		Return(json.RawMessage(`{"Baggage": [{"Code": "BAG10", "Price": 1200}], "MealDynamic": [{"Code": "VGML", "Price": 350}]}`), nil)

	store.On("Save", mock.Anything, "s-1", mock.MatchedBy(func(snap booking.Snapshot) bool {
		return len(snap.Selection.FareQuotes) == 1 &&
			snap.Selection.FareQuotes[0].TotalFare == 5200 &&
			snap.PriceChange != nil &&
			snap.Ancillary != nil
	})).Return(nil)

	svc := NewBookingService(supplierMock, NewMockPaymentClient(t), store)

	got, err := svc.FetchFareDetails(context.Background(), "s-1")

	assert.NoError(t, err)
	assert.NotNil(t, got.PriceChange)
	assert.Equal(t, 5200.0, got.PriceChange.New.Amount)
	assert.Len(t, got.FareRules, 1)
	assert.NotNil(t, got.Ancillary)
	assert.Len(t, got.Ancillary.Baggage, 1)
}

func TestBookingService_FetchFareDetails_RulesDegradeOnFailure(t *testing.T) {
	supplierMock := NewMockSupplierClient(t)
	store := NewMockSessionStore(t)

	store.On("Load", mock.Anything, "s-1").Return(detailsSnapshot(), nil)

	supplierMock.On("FareQuote", mock.Anything, "trace-1", "OB1").
		Return(json.RawMessage(`{"ResultIndex": "OB1", "Price": 5000, "Currency": "INR"}`), nil)
	supplierMock.On("FareRule", mock.Anything, "trace-1", "OB1").
		Return(json.RawMessage(nil), supplier.SearchFailedError{Reason: "rule lookup down"})
	supplierMock.On("SSR", mock.Anything, "trace-1", "OB1").
		Return(json.RawMessage(nil), supplier.SearchFailedError{Reason: "ssr lookup down"})

	store.On("Save", mock.Anything, "s-1", mock.Anything).Return(nil)

	svc := NewBookingService(supplierMock, NewMockPaymentClient(t), store)

	got, err := svc.FetchFareDetails(context.Background(), "s-1")

	assert.NoError(t, err)
	assert.Nil(t, got.PriceChange)
	assert.Empty(t, got.FareRules)
}

func roundTripDetailsSnapshot() booking.Snapshot {
	outbound := itinerary.Itinerary{
		ResultIndex: "OB1",
		Fare:        itinerary.Fare{OfferedPrice: 5000, Currency: "INR"},
	}
	ret := itinerary.Itinerary{
		ResultIndex: "RT1",
		Fare:        itinerary.Fare{OfferedPrice: 4000, Currency: "INR"},
	}

	criteria := oneWayCriteria()
	criteria.TripType = itinerary.TripRoundTrip
	criteria.ReturnDate = "2025-11-25"

	return booking.Snapshot{
		Step:       booking.StepDetailsEntered,
		Generation: 1,
		Session: &booking.SearchSession{
			TraceID:  "trace-1",
			Criteria: criteria,
			Outbound: []itinerary.Itinerary{outbound},
			Return:   []itinerary.Itinerary{ret},
		},
		Selection: booking.Selection{
			Outbound:   &outbound,
			Return:     &ret,
			Passengers: []booking.Passenger{{Title: "Mr", FirstName: "Asha", LastName: "Rao", Type: booking.PaxAdult}},
			Contact:    &booking.Contact{Email: "asha@example.com", Phone: "+919900112233"},
		},
	}
}

func TestBookingService_FetchFareDetails_RoundTripQuotesBothLegs(t *testing.T) {
	supplierMock := NewMockSupplierClient(t)
	store := NewMockSessionStore(t)

	store.On("Load", mock.Anything, "s-1").Return(roundTripDetailsSnapshot(), nil)

	supplierMock.On("FareQuote", mock.Anything, "trace-1", "OB1").
		Return(json.RawMessage(`{"ResultIndex": "OB1", "Price": 5000, "Currency": "INR"}`), nil)
	supplierMock.On("FareQuote", mock.Anything, "trace-1", "RT1").
		Return(json.RawMessage(`{"ResultIndex": "RT1", "Price": 4000, "Currency": "INR"}`), nil)
	supplierMock.On("FareRule", mock.Anything, "trace-1", "OB1").
		Return(json.RawMessage(`{"Results": [{"Origin": "DEL", "Destination": "BOM", "FareRuleDetail": "non-changeable"}]}`), nil)
	supplierMock.On("FareRule", mock.Anything, "trace-1", "RT1").
		Return(json.RawMessage(`{"Results": [{"Origin": "BOM", "Destination": "DEL", "FareRuleDetail": "non-changeable"}]}`), nil)
	supplierMock.On("SSR", mock.Anything, "trace-1", "OB1").
		Return(json.RawMessage(`{"Baggage": [{"Code": "BAG10", "Price": 1200}]}`), nil)
	supplierMock.On("SSR", mock.Anything, "trace-1", "RT1").
		Return(json.RawMessage(`{"Baggage": [{"Code": "BAG10", "Price": 1200}]}`), nil)

	store.On("Save", mock.Anything, "s-1", mock.MatchedBy(func(snap booking.Snapshot) bool {
		return len(snap.Selection.FareQuotes) == 2 && snap.PriceChange == nil
	})).Return(nil)

	svc := NewBookingService(supplierMock, NewMockPaymentClient(t), store)

	got, err := svc.FetchFareDetails(context.Background(), "s-1")

	assert.NoError(t, err)
	assert.Nil(t, got.PriceChange, "matching per-leg quotes are not a price change")
	assert.Len(t, got.FareRules, 2, "rules from both legs are kept")
	assert.NotNil(t, got.Ancillary)
	assert.Len(t, got.Ancillary.Baggage, 1, "duplicate catalog codes collapse")
}

func TestBookingService_RoundTripOrderCoversBothLegs(t *testing.T) {
	payments := NewMockPaymentClient(t)
	store := NewMockSessionStore(t)

	snap := roundTripDetailsSnapshot()
	snap.Step = booking.StepAncillariesSelected
	snap.Selection.FareQuotes = []itinerary.FareQuote{
		{ResultIndex: "OB1", TotalFare: 5000, Currency: "INR"},
		{ResultIndex: "RT1", TotalFare: 4000, Currency: "INR"},
	}
	snap.Ancillary = &itinerary.AncillaryOptions{}

	store.On("Load", mock.Anything, "s-1").Return(snap, nil)

	// outbound plus return, not the outbound quote alone
	payments.On("CreateOrder", mock.Anything, 9000.0, "INR").
		Return(payment.Order{OrderID: "order-9", Amount: 9000, Currency: "INR", Status: "created"}, nil)

	store.On("Save", mock.Anything, "s-1", mock.MatchedBy(func(snap booking.Snapshot) bool {
		return snap.Step == booking.StepPaymentPending && snap.OrderID == "order-9"
	})).Return(nil)

	svc := NewBookingService(NewMockSupplierClient(t), payments, store)

	got, err := svc.CreatePaymentOrder(context.Background(), "s-1")

	assert.NoError(t, err)
	assert.Equal(t, "order-9", got.OrderID)
	assert.NotNil(t, got.TotalDue)
	assert.Equal(t, 9000.0, got.TotalDue.Amount)
}

func ancillariesSnapshot() booking.Snapshot {
	snap := detailsSnapshot()
	snap.Step = booking.StepAncillariesSelected
	snap.Selection.FareQuotes = []itinerary.FareQuote{{ResultIndex: "OB1", TotalFare: 5000, Currency: "INR"}}
	snap.Selection.Ancillaries = []booking.AncillarySelection{{PassengerIndex: 0, BaggageCode: "BAG10"}}
	snap.Ancillary = &itinerary.AncillaryOptions{
		Baggage: []itinerary.AncillaryItem{{Code: "BAG10", Price: 1200, Currency: "INR"}},
	}

	return snap
}

func TestBookingService_PaymentLifecycle(t *testing.T) {
	t.Run("order_is_created_for_total_due", func(t *testing.T) {
		payments := NewMockPaymentClient(t)
		store := NewMockSessionStore(t)

		store.On("Load", mock.Anything, "s-1").Return(ancillariesSnapshot(), nil)

		payments.On("CreateOrder", mock.Anything, 6200.0, "INR").
			Return(payment.Order{OrderID: "order-1", Amount: 6200, Currency: "INR", Status: "created"}, nil)

		store.On("Save", mock.Anything, "s-1", mock.MatchedBy(func(snap booking.Snapshot) bool {
			return snap.Step == booking.StepPaymentPending && snap.OrderID == "order-1"
		})).Return(nil)

		svc := NewBookingService(NewMockSupplierClient(t), payments, store)

		got, err := svc.CreatePaymentOrder(context.Background(), "s-1")

		assert.NoError(t, err)
		assert.Equal(t, string(booking.StepPaymentPending), got.Step)
		assert.Equal(t, "order-1", got.OrderID)
	})

	t.Run("failed_verification_returns_to_retryable_step", func(t *testing.T) {
		payments := NewMockPaymentClient(t)
		store := NewMockSessionStore(t)

		pending := ancillariesSnapshot()
		pending.Step = booking.StepPaymentPending
		pending.OrderID = "order-1"

		store.On("Load", mock.Anything, "s-1").Return(pending, nil)

		payments.On("VerifyPayment", mock.Anything, "order-1", "pay-1").
			Return(payment.Receipt{}, payment.PaymentFailedError{Reason: "payment status is failed"})

		store.On("Save", mock.Anything, "s-1", mock.MatchedBy(func(snap booking.Snapshot) bool {
			return snap.Step == booking.StepAncillariesSelected && snap.OrderID == ""
		})).Return(nil)

		svc := NewBookingService(NewMockSupplierClient(t), payments, store)

		_, err := svc.ConfirmPayment(context.Background(), "s-1", "order-1", "pay-1")

		var failed payment.PaymentFailedError
		assert.True(t, errors.As(err, &failed))
	})

	t.Run("successful_verification_issues_ticket", func(t *testing.T) {
		payments := NewMockPaymentClient(t)
		store := NewMockSessionStore(t)

		pending := ancillariesSnapshot()
		pending.Step = booking.StepPaymentPending
		pending.OrderID = "order-1"

		store.On("Load", mock.Anything, "s-1").Return(pending, nil)

		payments.On("VerifyPayment", mock.Anything, "order-1", "pay-1").
			Return(payment.Receipt{OrderID: "order-1", PaymentID: "pay-1", Status: "captured"}, nil)

		store.On("Save", mock.Anything, "s-1", mock.MatchedBy(func(snap booking.Snapshot) bool {
			return snap.Step == booking.StepConfirmed &&
				snap.Ticket != nil &&
				snap.Ticket.AmountCharged == 6200
		})).Return(nil)

		svc := NewBookingService(NewMockSupplierClient(t), payments, store)

		got, err := svc.ConfirmPayment(context.Background(), "s-1", "order-1", "pay-1")

		assert.NoError(t, err)
		assert.Equal(t, string(booking.StepConfirmed), got.Step)
		assert.NotNil(t, got.Ticket)
		assert.Equal(t, "₹6,200", got.Ticket.AmountCharged)
	})

	t.Run("mismatched_order_id_is_rejected", func(t *testing.T) {
		store := NewMockSessionStore(t)

		pending := ancillariesSnapshot()
		pending.Step = booking.StepPaymentPending
		pending.OrderID = "order-1"

		store.On("Load", mock.Anything, "s-1").Return(pending, nil)

		svc := NewBookingService(NewMockSupplierClient(t), NewMockPaymentClient(t), store)

		_, err := svc.ConfirmPayment(context.Background(), "s-1", "order-2", "pay-1")

		var failed payment.PaymentFailedError
		assert.True(t, errors.As(err, &failed))
	})
}

func TestBookingService_Reset(t *testing.T) {
	store := NewMockSessionStore(t)

	pending := ancillariesSnapshot()
	pending.Generation = 3

	store.On("Load", mock.Anything, "s-1").Return(pending, nil)
	store.On("Save", mock.Anything, "s-1", mock.MatchedBy(func(snap booking.Snapshot) bool {
		return snap.Step == booking.StepIdle && snap.Generation == 3 && snap.Session == nil
	})).Return(nil)

	svc := NewBookingService(NewMockSupplierClient(t), NewMockPaymentClient(t), store)

	got, err := svc.Reset(context.Background(), "s-1")

	assert.NoError(t, err)
	assert.Equal(t, string(booking.StepIdle), got.Step)
}
