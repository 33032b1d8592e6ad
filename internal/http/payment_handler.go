package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/AyuTechLive/e-commerce-web-keywellness/internal/events"
	"github.com/AyuTechLive/e-commerce-web-keywellness/internal/service"
)

// EventPublisher pushes webhook notifications onto the event bus.
type EventPublisher interface {
	Publish(ctx context.Context, event events.PaymentEvent) error
}

type PaymentHandler struct {
	svc       CheckoutService
	publisher EventPublisher
	timeout   time.Duration
}

func NewPaymentHandler(svc CheckoutService, publisher EventPublisher, timeout time.Duration) *PaymentHandler {
	return &PaymentHandler{
		svc:       svc,
		publisher: publisher,
		timeout:   timeout,
	}
}

func (h *PaymentHandler) InitiatePayment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var req service.InitiatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	req.UserID = userID

	result, err := h.svc.InitiatePayment(ctx, req)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, result)
}

type VerifyPaymentRequestDTO struct {
	OrderID string `json:"orderId"`
}

func (h *PaymentHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req VerifyPaymentRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.OrderID == "" {
		respondError(w, http.StatusBadRequest, "invalid_order_id", "orderId is required")
		return
	}

	result, err := h.svc.VerifyPayment(ctx, req.OrderID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// Webhook acknowledges the gateway immediately and hands the notification to
// Kafka. Verification always goes back to the gateway, so an unauthenticated
// or forged webhook can only trigger a harmless re-check.
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	orderID := webhookOrderID(payload)
	if orderID == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "webhook payload carries no order id")
		return
	}

	eventType, _ := payload["event"].(string)
	event := events.NewPaymentEvent(orderID, eventType, payload)

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()
	if err := h.publisher.Publish(ctx, event); err != nil {
		log.Printf("Failed to enqueue webhook for %s: %v", orderID, err)
		respondError(w, http.StatusServiceUnavailable, "enqueue_failed", "webhook accepted but not enqueued")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "received"})
}

// webhookOrderID digs the merchant order id out of the webhook payload,
// trying the shapes the gateway has used across API revisions.
func webhookOrderID(payload map[string]any) string {
	if id, ok := payload["merchantOrderId"].(string); ok && id != "" {
		return id
	}
	if nested, ok := payload["payload"].(map[string]any); ok {
		if id, ok := nested["merchantOrderId"].(string); ok && id != "" {
			return id
		}
		if id, ok := nested["orderId"].(string); ok && id != "" {
			return id
		}
	}
	if id, ok := payload["orderId"].(string); ok && id != "" {
		return id
	}
	return ""
}

func (h *PaymentHandler) GenerateTransactionID(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	id, err := h.svc.GenerateTransactionID(ctx, userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"transactionId": id})
}
