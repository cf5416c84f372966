package transport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/travelkita/flight-booking-service/internal/app/config"
	"github.com/travelkita/flight-booking-service/internal/app/dto"
	"github.com/travelkita/flight-booking-service/internal/app/endpoints"
	httptransport "github.com/travelkita/flight-booking-service/internal/pkg/transport/http"
)

// MakeHTTPRouter builds the HTTP router with all the service endpoints.
func MakeHTTPRouter(
	cfg *config.Config,
	endpts endpoints.BookingEndpoint,
) *chi.Mux {
	// Initialize Router
	router := chi.NewRouter()

	router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	router.Route("/api/v1", func(router chi.Router) {
		router.Use(
			httptransport.RequestID(),
			httptransport.CORSMiddleware(),
			httptransport.Recoverer(slog.Default()),
			render.SetContentType(render.ContentTypeJSON),
		)

		router.Post("/flights/search", httptransport.MakeHandlerFunc(
			endpts.Search,
			httptransport.DecodeRequest[dto.SearchRequest],
			httptransport.ResponseWithBody,
		))

		router.Route("/booking", func(router chi.Router) {
			router.Post("/session", httptransport.MakeHandlerFunc(
				endpts.View,
				httptransport.DecodeRequest[dto.ViewRequest],
				httptransport.ResponseWithBody,
			))

			router.Post("/select/outbound", httptransport.MakeHandlerFunc(
				endpts.SelectOutbound,
				httptransport.DecodeRequest[dto.SelectRequest],
				httptransport.ResponseWithBody,
			))

			router.Post("/select/return", httptransport.MakeHandlerFunc(
				endpts.SelectReturn,
				httptransport.DecodeRequest[dto.SelectRequest],
				httptransport.ResponseWithBody,
			))

			router.Post("/passengers", httptransport.MakeHandlerFunc(
				endpts.Passengers,
				httptransport.DecodeRequest[dto.PassengersRequest],
				httptransport.ResponseWithBody,
			))

			router.Post("/contact", httptransport.MakeHandlerFunc(
				endpts.Contact,
				httptransport.DecodeRequest[dto.ContactRequest],
				httptransport.ResponseWithBody,
			))

			router.Post("/fare-details", httptransport.MakeHandlerFunc(
				endpts.FareDetails,
				httptransport.DecodeRequest[dto.FareDetailsRequest],
				httptransport.ResponseWithBody,
			))

			router.Post("/ancillaries", httptransport.MakeHandlerFunc(
				endpts.Ancillaries,
				httptransport.DecodeRequest[dto.AncillariesRequest],
				httptransport.ResponseWithBody,
			))

			router.Post("/payment/order", httptransport.MakeHandlerFunc(
				endpts.PaymentOrder,
				httptransport.DecodeRequest[dto.PaymentOrderRequest],
				httptransport.ResponseWithBody,
			))

			router.Post("/payment/confirm", httptransport.MakeHandlerFunc(
				endpts.PaymentConfirm,
				httptransport.DecodeRequest[dto.PaymentConfirmRequest],
				httptransport.ResponseWithBody,
			))

			router.Post("/reset", httptransport.MakeHandlerFunc(
				endpts.Reset,
				httptransport.DecodeRequest[dto.ResetRequest],
				httptransport.ResponseWithBody,
			))
		})
	})

	return router
}
