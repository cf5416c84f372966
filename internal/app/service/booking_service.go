package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/travelkita/flight-booking-service/internal/app/dto"
	"github.com/travelkita/flight-booking-service/internal/pkg/booking"
	"github.com/travelkita/flight-booking-service/internal/pkg/itinerary"
	"github.com/travelkita/flight-booking-service/internal/pkg/payment"
	"github.com/travelkita/flight-booking-service/internal/pkg/session"
	"github.com/travelkita/flight-booking-service/internal/pkg/supplier"
)

type SupplierClient interface {
	Search(ctx context.Context, criteria itinerary.SearchCriteria) (supplier.SearchResult, error)
	FareQuote(ctx context.Context, traceID, resultIndex string) (json.RawMessage, error)
	FareRule(ctx context.Context, traceID, resultIndex string) (json.RawMessage, error)
	SSR(ctx context.Context, traceID, resultIndex string) (json.RawMessage, error)
}

type PaymentClient interface {
	CreateOrder(ctx context.Context, amount float64, currency string) (payment.Order, error)
	VerifyPayment(ctx context.Context, orderID, paymentID string) (payment.Receipt, error)
}

type SessionStore interface {
	Save(ctx context.Context, sessionID string, snapshot booking.Snapshot) error
	Load(ctx context.Context, sessionID string) (booking.Snapshot, error)
	Delete(ctx context.Context, sessionID string) error
}

// BookingService drives one booking session through search, selection,
// pricing and payment. State transitions are pure snapshot functions;
// this layer runs the I/O between them and persists the result, so any
// step the store has seen can be resumed after a reload.
type BookingService struct {
	Supplier SupplierClient
	Payments PaymentClient
	Store    SessionStore

	mu   sync.Mutex
	busy map[string]bool
}

func NewBookingService(supplierClient SupplierClient, paymentClient PaymentClient, store SessionStore) *BookingService {
	return &BookingService{
		Supplier: supplierClient,
		Payments: paymentClient,
		Store:    store,
		busy:     make(map[string]bool),
	}
}

// acquire marks a session busy for the duration of one blocking
// operation. A second operation on the same session while one is in
// flight is rejected rather than queued.
func (s *BookingService) acquire(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.busy[sessionID] {
		return booking.OperationInProgressError{Operation: "booking"}
	}

	s.busy[sessionID] = true

	return nil
}

func (s *BookingService) release(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.busy, sessionID)
}

func (s *BookingService) load(ctx context.Context, sessionID string) (booking.Snapshot, error) {
	snap, err := s.Store.Load(ctx, sessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return booking.NewSnapshot(), nil
		}

		return booking.Snapshot{}, err
	}

	return snap, nil
}

// StartSearch runs a full search cycle: transition to Searching, call
// the supplier, normalize, then install the results. A response for a
// search that was superseded while in flight is discarded. On failure
// the prior results stay usable; only the step moves to Errored.
func (s *BookingService) StartSearch(ctx context.Context, sessionID string,
	criteria itinerary.SearchCriteria) (dto.SessionResponse, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	if err := s.acquire(sessionID); err != nil {
		return dto.SessionResponse{}, err
	}
	defer s.release(sessionID)

	snap, err := s.load(ctx, sessionID)
	if err != nil {
		return dto.SessionResponse{}, err
	}

	snap, err = snap.BeginSearch(criteria)
	if err != nil {
		return dto.SessionResponse{}, err
	}

	generation := snap.Generation

	if err := s.Store.Save(ctx, sessionID, snap); err != nil {
		return dto.SessionResponse{}, err
	}

	result, searchErr := s.Supplier.Search(ctx, criteria)

	var searchSession booking.SearchSession

	if searchErr == nil {
		searchSession, searchErr = buildSearchSession(result, criteria)
	}

	// reload before completing: a Reset or newer search may have moved
	// the session on while the supplier call was in flight
	snap, err = s.load(ctx, sessionID)
	if err != nil {
		return dto.SessionResponse{}, err
	}

	if searchErr != nil {
		failed, applied := snap.FailSearch(generation, searchErr)
		if applied {
			snap = failed
			if err := s.Store.Save(ctx, sessionID, snap); err != nil {
				return dto.SessionResponse{}, err
			}
		}

		slog.WarnContext(ctx, "flight search failed",
			slog.String("session_id", sessionID),
			slog.String("error", searchErr.Error()))

		return dto.SessionResponse{}, searchErr
	}

	completed, applied := snap.CompleteSearch(generation, searchSession)
	if !applied {
		slog.InfoContext(ctx, "discarding superseded search response",
			slog.String("session_id", sessionID),
			slog.Uint64("generation", generation))

		return s.respond(sessionID, snap, nil, nil), nil
	}

	snap = completed
	if err := s.Store.Save(ctx, sessionID, snap); err != nil {
		return dto.SessionResponse{}, err
	}

	return s.respond(sessionID, snap, nil, nil), nil
}

// buildSearchSession normalizes the supplier payload into per-leg result
// lists. An empty result set is a valid session; the client shows it as
// a no-flights search.
func buildSearchSession(result supplier.SearchResult,
	criteria itinerary.SearchCriteria) (booking.SearchSession, error) {
	legs, err := itinerary.NormalizeLegs(result.Payload)
	if err != nil {
		return booking.SearchSession{}, fmt.Errorf("failed to normalize search results: %w", err)
	}

	searchSession := booking.SearchSession{
		TraceID:  result.TraceID,
		Criteria: criteria,
	}

	if len(legs) > 0 {
		searchSession.Outbound = legs[0]
	}

	if criteria.TripType == itinerary.TripRoundTrip && len(legs) > 1 {
		searchSession.Return = legs[1]
	}

	return searchSession, nil
}

// GetSession returns the session with an optional filtered, sorted view
// of the results. The stored snapshot is never mutated by browsing.
func (s *BookingService) GetSession(ctx context.Context, req dto.ViewRequest) (dto.SessionResponse, error) {
	snap, err := s.Store.Load(ctx, req.SessionID)
	if err != nil {
		return dto.SessionResponse{}, err
	}

	var outbound, ret []itinerary.Itinerary

	if snap.Session != nil {
		outbound = snap.Session.Outbound
		ret = snap.Session.Return

		if req.Filter != nil {
			outbound = itinerary.Filter(outbound, *req.Filter)
			ret = itinerary.Filter(ret, *req.Filter)
		}

		if req.Sort != nil {
			outbound = itinerary.Sort(outbound, *req.Sort)
			ret = itinerary.Sort(ret, *req.Sort)
		}
	}

	return s.respond(req.SessionID, snap, outbound, ret), nil
}

func (s *BookingService) SelectOutbound(ctx context.Context, sessionID, resultIndex string) (dto.SessionResponse, error) {
	return s.transition(ctx, sessionID, func(snap booking.Snapshot) (booking.Snapshot, error) {
		return snap.SelectOutbound(resultIndex)
	})
}

func (s *BookingService) SelectReturn(ctx context.Context, sessionID, resultIndex string) (dto.SessionResponse, error) {
	return s.transition(ctx, sessionID, func(snap booking.Snapshot) (booking.Snapshot, error) {
		return snap.SelectReturn(resultIndex)
	})
}

func (s *BookingService) SetPassengers(ctx context.Context, sessionID string,
	passengers []booking.Passenger) (dto.SessionResponse, error) {
	return s.transition(ctx, sessionID, func(snap booking.Snapshot) (booking.Snapshot, error) {
		return snap.SetPassengers(passengers)
	})
}

func (s *BookingService) SetContact(ctx context.Context, sessionID string,
	contact booking.Contact) (dto.SessionResponse, error) {
	return s.transition(ctx, sessionID, func(snap booking.Snapshot) (booking.Snapshot, error) {
		return snap.SetContact(contact)
	})
}

// transition runs one pure snapshot transition under the busy guard and
// persists the result.
func (s *BookingService) transition(ctx context.Context, sessionID string,
	apply func(booking.Snapshot) (booking.Snapshot, error)) (dto.SessionResponse, error) {
	if err := s.acquire(sessionID); err != nil {
		return dto.SessionResponse{}, err
	}
	defer s.release(sessionID)

	snap, err := s.Store.Load(ctx, sessionID)
	if err != nil {
		return dto.SessionResponse{}, err
	}

	next, err := apply(snap)
	if err != nil {
		return dto.SessionResponse{}, err
	}

	if err := s.Store.Save(ctx, sessionID, next); err != nil {
		return dto.SessionResponse{}, err
	}

	return s.respond(sessionID, next, nil, nil), nil
}

// FetchFareDetails re-prices the selection and loads fare rules and the
// ancillary catalog in one pass. A drifted price is surfaced on the
// session as a price change, not treated as an error.
func (s *BookingService) FetchFareDetails(ctx context.Context, sessionID string) (dto.SessionResponse, error) {
	if err := s.acquire(sessionID); err != nil {
		return dto.SessionResponse{}, err
	}
	defer s.release(sessionID)

	snap, err := s.Store.Load(ctx, sessionID)
	if err != nil {
		return dto.SessionResponse{}, err
	}

	if snap.Step != booking.StepDetailsEntered {
		return dto.SessionResponse{}, booking.InvalidTransitionError{Step: snap.Step, Event: "fetch fare details"}
	}

	traceID := ""
	if snap.Session != nil {
		traceID = snap.Session.TraceID
	}

	// every selected leg is re-priced; a round trip quotes the outbound
	// and the return separately so both stay on the bill
	legs := []*itinerary.Itinerary{snap.Selection.Outbound}
	if snap.Selection.Return != nil {
		legs = append(legs, snap.Selection.Return)
	}

	quotes := make([]itinerary.FareQuote, 0, len(legs))

	var rules []itinerary.FareRule

	var options itinerary.AncillaryOptions

	for _, leg := range legs {
		quoteRaw, err := s.Supplier.FareQuote(ctx, traceID, leg.ResultIndex)
		if err != nil {
			return dto.SessionResponse{}, err
		}

		quote, err := itinerary.NormalizeFareQuote(quoteRaw)
		if err != nil {
			return dto.SessionResponse{}, err
		}

		if quote.ResultIndex == "" {
			quote.ResultIndex = leg.ResultIndex
		}

		quotes = append(quotes, quote)

		// rules and SSR degrade to empty on upstream failure; the quotes
		// are the only part that blocks the pipeline
		rulesRaw, err := s.Supplier.FareRule(ctx, traceID, leg.ResultIndex)
		if err != nil {
			slog.WarnContext(ctx, "fare rule lookup failed",
				slog.String("session_id", sessionID),
				slog.String("result_index", leg.ResultIndex),
				slog.String("error", err.Error()))
		} else if legRules, err := itinerary.NormalizeFareRules(rulesRaw); err == nil {
			rules = append(rules, legRules...)
		}

		ssrRaw, err := s.Supplier.SSR(ctx, traceID, leg.ResultIndex)
		if err != nil {
			slog.WarnContext(ctx, "ssr lookup failed",
				slog.String("session_id", sessionID),
				slog.String("result_index", leg.ResultIndex),
				slog.String("error", err.Error()))
		} else if legOptions, err := itinerary.NormalizeSSR(ssrRaw); err == nil {
			options.Baggage = mergeAncillaries(options.Baggage, legOptions.Baggage)
			options.Meals = mergeAncillaries(options.Meals, legOptions.Meals)
		}
	}

	next, priceChange, err := snap.ApplyFareDetails(quotes, rules, options)
	if err != nil {
		return dto.SessionResponse{}, err
	}

	if priceChange != nil {
		slog.InfoContext(ctx, "fare re-priced",
			slog.String("session_id", sessionID),
			slog.Float64("old", priceChange.Old),
			slog.Float64("new", priceChange.New))
	}

	if err := s.Store.Save(ctx, sessionID, next); err != nil {
		return dto.SessionResponse{}, err
	}

	return s.respond(sessionID, next, nil, nil), nil
}

// mergeAncillaries folds one leg's catalog into the combined one,
// keeping the first item seen for a code.
func mergeAncillaries(items, extra []itinerary.AncillaryItem) []itinerary.AncillaryItem {
	for _, item := range extra {
		if !containsAncillaryCode(items, item.Code) {
			items = append(items, item)
		}
	}

	return items
}

func containsAncillaryCode(items []itinerary.AncillaryItem, code string) bool {
	for _, item := range items {
		if item.Code == code {
			return true
		}
	}

	return false
}

func (s *BookingService) SelectAncillaries(ctx context.Context, sessionID string,
	selections []booking.AncillarySelection) (dto.SessionResponse, error) {
	return s.transition(ctx, sessionID, func(snap booking.Snapshot) (booking.Snapshot, error) {
		return snap.SelectAncillaries(selections)
	})
}

// CreatePaymentOrder opens a gateway order for the total due and moves
// the session to PaymentPending.
func (s *BookingService) CreatePaymentOrder(ctx context.Context, sessionID string) (dto.SessionResponse, error) {
	if err := s.acquire(sessionID); err != nil {
		return dto.SessionResponse{}, err
	}
	defer s.release(sessionID)

	snap, err := s.Store.Load(ctx, sessionID)
	if err != nil {
		return dto.SessionResponse{}, err
	}

	if snap.Step != booking.StepAncillariesSelected {
		return dto.SessionResponse{}, booking.InvalidTransitionError{Step: snap.Step, Event: "start payment"}
	}

	amount, currency := snap.TotalDue()

	order, err := s.Payments.CreateOrder(ctx, amount, currency)
	if err != nil {
		return dto.SessionResponse{}, err
	}

	next, err := snap.BeginPayment(order.OrderID)
	if err != nil {
		return dto.SessionResponse{}, err
	}

	if err := s.Store.Save(ctx, sessionID, next); err != nil {
		return dto.SessionResponse{}, err
	}

	return s.respond(sessionID, next, nil, nil), nil
}

// ConfirmPayment verifies the gateway receipt and issues the ticket. A
// failed verification is recoverable: the session returns to the
// pre-payment step with the cause recorded.
func (s *BookingService) ConfirmPayment(ctx context.Context, sessionID, orderID, paymentID string) (dto.SessionResponse, error) {
	if err := s.acquire(sessionID); err != nil {
		return dto.SessionResponse{}, err
	}
	defer s.release(sessionID)

	snap, err := s.Store.Load(ctx, sessionID)
	if err != nil {
		return dto.SessionResponse{}, err
	}

	if snap.Step != booking.StepPaymentPending {
		return dto.SessionResponse{}, booking.InvalidTransitionError{Step: snap.Step, Event: "confirm payment"}
	}

	if orderID != snap.OrderID {
		return dto.SessionResponse{}, payment.PaymentFailedError{Reason: "order id does not match the open order"}
	}

	receipt, err := s.Payments.VerifyPayment(ctx, orderID, paymentID)
	if err != nil {
		snap = snap.FailPayment(err)
		if saveErr := s.Store.Save(ctx, sessionID, snap); saveErr != nil {
			return dto.SessionResponse{}, saveErr
		}

		return dto.SessionResponse{}, err
	}

	amount, currency := snap.TotalDue()

	next, err := snap.ConfirmPayment(booking.Ticket{
		BookingReference: receipt.OrderID,
		PNR:              newPNR(),
		TicketNumbers:    []string{receipt.PaymentID},
		AmountCharged:    amount,
		Currency:         currency,
		IssuedAt:         time.Now().UTC(),
	})
	if err != nil {
		return dto.SessionResponse{}, err
	}

	if err := s.Store.Save(ctx, sessionID, next); err != nil {
		return dto.SessionResponse{}, err
	}

	slog.InfoContext(ctx, "booking confirmed",
		slog.String("session_id", sessionID),
		slog.String("order_id", orderID))

	return s.respond(sessionID, next, nil, nil), nil
}

// Reset returns the session to Idle. Responses from searches started
// before the reset stay dead because the generation counter carries over.
func (s *BookingService) Reset(ctx context.Context, sessionID string) (dto.SessionResponse, error) {
	if err := s.acquire(sessionID); err != nil {
		return dto.SessionResponse{}, err
	}
	defer s.release(sessionID)

	snap, err := s.load(ctx, sessionID)
	if err != nil {
		return dto.SessionResponse{}, err
	}

	next := snap.Reset()

	if err := s.Store.Save(ctx, sessionID, next); err != nil {
		return dto.SessionResponse{}, err
	}

	return s.respond(sessionID, next, nil, nil), nil
}

func (s *BookingService) respond(sessionID string, snap booking.Snapshot,
	outbound, ret []itinerary.Itinerary) dto.SessionResponse {
	if outbound == nil && ret == nil && snap.Session != nil {
		outbound = snap.Session.Outbound
		ret = snap.Session.Return
	}

	return dto.NewSessionResponse(sessionID, snap, outbound, ret)
}

// newPNR fabricates a short record locator from a fresh uuid. Suppliers
// that return a real PNR override it at ticketing time.
func newPNR() string {
	id := uuid.NewString()

	return "PNR-" + id[:8]
}
