package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// NewRouter wires the full API surface with the shared middleware stack.
func NewRouter(svc CheckoutService, publisher EventPublisher, requestTimeout time.Duration) http.Handler {
	payments := NewPaymentHandler(svc, publisher, requestTimeout)
	shipping := NewShippingHandler(svc, requestTimeout)

	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.Compress(5))
	r.Use(HeaderAuthMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		components := svc.Health(r.Context())
		status := http.StatusOK
		for _, state := range components {
			if state != "ok" {
				status = http.StatusServiceUnavailable
			}
		}
		respondJSON(w, status, components)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/payments", func(r chi.Router) {
			r.Post("/initiate", payments.InitiatePayment)
			r.Post("/verify", payments.VerifyPayment)
			r.Post("/webhook", payments.Webhook)
		})
		r.Post("/transactions/generate", payments.GenerateTransactionID)

		r.Route("/shipments", func(r chi.Router) {
			r.Post("/", shipping.CreateShipment)
			r.Get("/track", shipping.TrackShipment)
		})
		r.Get("/serviceability/{pincode}", shipping.CheckServiceability)

		r.Route("/orders/{order_id}", func(r chi.Router) {
			r.Get("/tracking", shipping.GetOrderTracking)
			r.Post("/shipment/retry", shipping.RetryShipment)
		})
	})

	return otelhttp.NewHandler(r, "checkout-api")
}
